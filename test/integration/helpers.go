package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ttbud/ttbud-sub001/internal/clock"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/reconcile"
	"github.com/ttbud/ttbud-sub001/internal/session"
	"github.com/ttbud/ttbud-sub001/internal/transport/ws"
)

// testFS is a filesystem implementation that keeps files in memory
type testFS struct {
	files map[string][]byte
	dirs  map[string]bool
}

func newTestFS() *testFS {
	return &testFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (fs *testFS) Exists(path string) (bool, error) {
	_, hasFile := fs.files[path]
	_, hasDir := fs.dirs[path]
	return hasFile || hasDir, nil
}

func (fs *testFS) MkdirAll(path string, perm os.FileMode) error {
	for p := path; p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		fs.dirs[p] = true
	}
	return nil
}

func (fs *testFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	_ = fs.MkdirAll(filepath.Dir(path), 0755)
	fs.files[path] = append([]byte(nil), data...)
	return nil
}

func (fs *testFS) ReadFile(path string) ([]byte, error) {
	data, ok := fs.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// testRelay is a relay served over a local HTTP server.
type testRelay struct {
	relay *ws.Relay
	url   string
}

func startRelay(t *testing.T) *testRelay {
	t.Helper()
	relay := ws.NewRelay(grid.MustNew(50), nil)
	srv := httptest.NewServer(relay.Routes())
	t.Cleanup(srv.Close)
	return &testRelay{relay: relay, url: srv.URL}
}

// join connects a new session to boardID and waits until the relay has
// registered it.
func (r *testRelay) join(t *testing.T, boardID, origin string) *session.Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	want := r.relay.Hub(boardID).Peers() + 1
	c, err := ws.Dial(ctx, r.url, boardID, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	sess, err := session.Join(ctx, c, session.Options{
		CellSize: 50,
		Origin:   origin,
		Clock:    clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		_ = c.Close()
		t.Fatalf("Join() error = %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })

	deadline := time.Now().Add(5 * time.Second)
	for r.relay.Hub(boardID).Peers() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s to register", origin)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return sess
}

// waitForTokens blocks until the relay's copy of boardID holds n tokens.
func (r *testRelay) waitForTokens(t *testing.T, boardID string, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(r.relay.Hub(boardID).Tokens()) != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d tokens on %s", n, boardID)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// pump applies the next n remote events on the calling goroutine, which owns
// the session for the duration of the test.
func pump(t *testing.T, s *session.Session, n int) []reconcile.Result {
	t.Helper()
	results := make([]reconcile.Result, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatal("events channel closed")
			}
			results = append(results, s.Apply(ev))
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	return results
}

// expectQuiet fails if an event arrives within a short window.
func expectQuiet(t *testing.T, s *session.Session) {
	t.Helper()
	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
