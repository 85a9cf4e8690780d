package types

import "time"

// SessionConfig holds per-session runtime configuration. Keep this struct
// stable; it is flag-populated in cmd and passed through netx and session.
type SessionConfig struct {
	HostName      string
	ListenAddr    string        // host endpoint bind address
	AdvertiseAddr string        // address registered with the directory; defaults to ListenAddr
	DirectoryURL  string        // session directory base URL
	CredentialURL string        // relay credential service URL; optional
	Difficulty    string        // bot difficulty id
	BotDelay      time.Duration // UX pacing before a bot acts
	DialTimeout   time.Duration // join/connect timeout
}

// Defaults mirrors the recommended values: ~2s bot pacing and a 30s dial
// timeout that leaves room for relay negotiation.
func (c SessionConfig) WithDefaults() SessionConfig {
	if c.BotDelay <= 0 {
		c.BotDelay = 2 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 30 * time.Second
	}
	if c.AdvertiseAddr == "" {
		c.AdvertiseAddr = c.ListenAddr
	}
	if c.Difficulty == "" {
		c.Difficulty = "normal"
	}
	return c
}
