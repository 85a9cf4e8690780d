package netx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chronoline/internal/directory"
	"chronoline/internal/protocol"
	"chronoline/pkg/types"
)

func testDirectory(t *testing.T) *httptest.Server {
	t.Helper()
	reg := directory.NewRegistry(time.Minute)
	ts := httptest.NewServer(directory.NewServer(reg, nil, nil).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func recvEnvelope(t *testing.T, c Conn) protocol.Envelope {
	t.Helper()
	select {
	case env := <-c.Recv():
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return protocol.Envelope{}
	}
}

// End to end over real websockets: claim a code, dial it, exchange frames
// both ways, then observe the close from the other side.
func TestHostAndDial(t *testing.T) {
	ts := testDirectory(t)
	cfg := types.SessionConfig{
		ListenAddr:   "127.0.0.1:0",
		DirectoryURL: ts.URL,
		DialTimeout:  5 * time.Second,
	}

	ep, err := Host(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Host: %v", err)
	}
	defer ep.Close()

	client, err := Dial(context.Background(), cfg, ep.Code(), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	var server Conn
	select {
	case server = <-ep.Accept():
	case <-time.After(5 * time.Second):
		t.Fatal("endpoint never accepted the connection")
	}

	join := protocol.Envelope{Kind: protocol.KindJoin, Join: &protocol.JoinPayload{Name: "Bob", ClientID: "c1"}}
	if err := client.Send(join); err != nil {
		t.Fatalf("client send: %v", err)
	}
	got := recvEnvelope(t, server)
	if got.Kind != protocol.KindJoin || got.Join.Name != "Bob" {
		t.Fatalf("server received %+v", got)
	}

	cancelled := protocol.Envelope{Kind: protocol.KindCancelled, Cancelled: &protocol.CancelledPayload{Reason: "bye"}}
	if err := server.Send(cancelled); err != nil {
		t.Fatalf("server send: %v", err)
	}
	if got := recvEnvelope(t, client); got.Kind != protocol.KindCancelled {
		t.Fatalf("client received %+v", got)
	}

	_ = server.Close()
	select {
	case <-client.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client never observed the close")
	}
	if err := client.Send(join); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("send after close: err = %v, want ErrConnClosed", err)
	}
}

func TestDialUnknownCode(t *testing.T) {
	ts := testDirectory(t)
	cfg := types.SessionConfig{DirectoryURL: ts.URL, DialTimeout: 5 * time.Second}

	_, err := Dial(context.Background(), cfg, "CL-0000", nil)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestDialDirectoryDown(t *testing.T) {
	ts := testDirectory(t)
	url := ts.URL
	ts.Close()

	cfg := types.SessionConfig{DirectoryURL: url, DialTimeout: 2 * time.Second}
	_, err := Dial(context.Background(), cfg, "CL-1234", nil)
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Fatalf("err = %v, want ErrDirectoryUnavailable", err)
	}
}

func TestDialStaleRegistration(t *testing.T) {
	ts := testDirectory(t)
	// a code pointing at a dead host address: resolve succeeds, dial fails
	c := directory.NewClient(ts.URL)
	if err := c.Claim(context.Background(), "CL-9999", "127.0.0.1:1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	cfg := types.SessionConfig{DirectoryURL: ts.URL, DialTimeout: 2 * time.Second}
	_, err := Dial(context.Background(), cfg, "CL-9999", nil)
	if !errors.Is(err, ErrNetwork) && !errors.Is(err, ErrDialTimeout) {
		t.Fatalf("err = %v, want ErrNetwork or ErrDialTimeout", err)
	}
}

func TestHostExhaustsClaimAttempts(t *testing.T) {
	// a directory that reports every code as taken
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "code taken", http.StatusConflict)
	}))
	defer srv.Close()

	cfg := types.SessionConfig{ListenAddr: "127.0.0.1:0", DirectoryURL: srv.URL}
	_, err := Host(context.Background(), cfg, nil)
	if !errors.Is(err, ErrNoFreeCode) {
		t.Fatalf("err = %v, want ErrNoFreeCode", err)
	}
}

func TestPipeCloseIsMutual(t *testing.T) {
	a, b := Pipe()
	env := protocol.Envelope{Kind: protocol.KindCancelled, Cancelled: &protocol.CancelledPayload{Reason: "x"}}
	if err := a.Send(env); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := recvEnvelope(t, b); got.Kind != protocol.KindCancelled {
		t.Fatalf("got %+v", got)
	}

	_ = a.Close()
	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("peer never observed the close")
	}
	if err := b.Send(env); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("send after close: err = %v, want ErrConnClosed", err)
	}
}

func TestCredentialFetchAndCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"urls":"turn:relay.example.com:3478","username":"u","credential":"c"}]`))
	}))
	defer srv.Close()

	p := NewCredentialProvider(srv.URL, nil)
	ctx := context.Background()

	creds := p.Get(ctx)
	if len(creds) != 1 || creds[0].URLs != "turn:relay.example.com:3478" {
		t.Fatalf("creds = %+v", creds)
	}
	_ = p.Get(ctx)
	if hits != 1 {
		t.Fatalf("credential service hit %d times, want 1 (cached)", hits)
	}
}

func TestCredentialFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	for _, url := range []string{srv.URL, ""} {
		p := NewCredentialProvider(url, nil)
		creds := p.Get(context.Background())
		if len(creds) != len(fallbackICEServers) {
			t.Fatalf("url %q: creds = %+v, want fallback list", url, creds)
		}
	}
}
