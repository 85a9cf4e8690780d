package netx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"chronoline/internal/directory"
)

// credCacheDuration bounds how often the credential service is hit.
const credCacheDuration = 5 * time.Minute

// fallbackICEServers is the public best-effort traversal list used whenever
// the credential service cannot be reached. Creating or joining a session
// must never abort because credentials were unavailable.
var fallbackICEServers = directory.TURNCredentials{
	{URLs: "stun:stun.l.google.com:19302"},
	{URLs: "stun:stun1.l.google.com:19302"},
	{URLs: "stun:stun2.l.google.com:19302"},
}

// CredentialProvider fetches short-lived NAT-traversal relay credentials,
// caching them between calls.
type CredentialProvider struct {
	url  string
	http *http.Client
	log  *slog.Logger

	mu        sync.Mutex
	cached    directory.TURNCredentials
	fetchedAt time.Time
}

func NewCredentialProvider(url string, log *slog.Logger) *CredentialProvider {
	if log == nil {
		log = slog.Default()
	}
	return &CredentialProvider{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

// Get returns relay credentials, from cache when fresh, falling back to the
// public list on any fetch failure.
func (p *CredentialProvider) Get(ctx context.Context) directory.TURNCredentials {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil && time.Since(p.fetchedAt) < credCacheDuration {
		return p.cached
	}
	if p.url == "" {
		return fallbackICEServers
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fallbackICEServers
	}
	resp, err := p.http.Do(req)
	if err != nil {
		p.log.Warn("credential fetch failed, using fallback", "error", err)
		return fallbackICEServers
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.log.Warn("credential fetch failed, using fallback", "status", resp.StatusCode)
		return fallbackICEServers
	}
	var creds directory.TURNCredentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil || len(creds) == 0 {
		p.log.Warn("credential response unusable, using fallback", "error", err)
		return fallbackICEServers
	}
	p.cached = creds
	p.fetchedAt = time.Now()
	p.log.Info("relay credentials refreshed", "servers", len(creds))
	return creds
}
