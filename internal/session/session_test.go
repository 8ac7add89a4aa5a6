package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkpost/blogapi/config"
	"github.com/inkpost/blogapi/internal/testutil"
)

func newManager(t *testing.T) (*Manager, *testutil.DB) {
	t.Helper()
	db := testutil.NewDB()
	m, err := NewManager(db.Sessions(), config.SessionConfig{
		Secret:     "test-secret",
		CookieName: "blog_session",
		TTL:        time.Hour,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, db
}

// login starts a session and returns a request carrying its cookie.
func login(t *testing.T, m *Manager, authorID string) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	if _, err := m.Start(context.Background(), rec, authorID); err != nil {
		t.Fatalf("start: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(testutil.NewDB().Sessions(), config.SessionConfig{TTL: time.Hour})
	if err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestStartSetsCookie(t *testing.T) {
	m, _ := newManager(t)
	rec := httptest.NewRecorder()

	if _, err := m.Start(context.Background(), rec, "author-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != "blog_session" || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Value == "" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	m, _ := newManager(t)
	req := login(t, m, "author-1")

	session, err := m.Load(req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if session.AuthorID != "author-1" {
		t.Fatalf("author id = %q", session.AuthorID)
	}
}

func TestLoadWithoutCookie(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("got %v", err)
	}
}

func TestLoadTamperedCookie(t *testing.T) {
	m, _ := newManager(t)
	req := login(t, m, "author-1")
	cookie, _ := req.Cookie("blog_session")

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: "blog_session", Value: cookie.Value + "x"})
	if _, err := m.Load(tampered); !errors.Is(err, ErrNoSession) {
		t.Fatalf("tampered: got %v", err)
	}

	other, err := NewManager(testutil.NewDB().Sessions(), config.SessionConfig{Secret: "other", TTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Load(req); !errors.Is(err, ErrNoSession) {
		t.Fatalf("foreign secret: got %v", err)
	}
}

func TestLoadExpired(t *testing.T) {
	m, _ := newManager(t)
	req := login(t, m, "author-1")

	m.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	if _, err := m.Load(req); !errors.Is(err, ErrNoSession) {
		t.Fatalf("got %v", err)
	}
}

func TestLoadStoreFault(t *testing.T) {
	m, db := newManager(t)
	req := login(t, m, "author-1")
	fault := errors.New("db down")
	db.Err = fault

	_, err := m.Load(req)
	if !errors.Is(err, fault) || errors.Is(err, ErrNoSession) {
		t.Fatalf("got %v", err)
	}
}

func TestEndInvalidatesSession(t *testing.T) {
	m, db := newManager(t)
	req := login(t, m, "author-1")

	rec := httptest.NewRecorder()
	if err := m.End(context.Background(), rec, req); err != nil {
		t.Fatalf("end: %v", err)
	}
	if n := db.Sessions().Len(); n != 0 {
		t.Fatalf("sessions left = %d", n)
	}
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("cookie should be expired: %+v", cleared)
	}

	// The old cookie no longer resolves even though its signature is valid.
	if _, err := m.Load(req); !errors.Is(err, ErrNoSession) {
		t.Fatalf("after end: got %v", err)
	}

	if err := m.End(context.Background(), httptest.NewRecorder(), req); err != nil {
		t.Fatalf("second end should be a no-op: %v", err)
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	m, db := newManager(t)
	login(t, m, "author-1")
	login(t, m, "author-2")

	removed, err := m.Sweep(context.Background())
	if err != nil || removed != 0 {
		t.Fatalf("fresh sweep: removed=%d err=%v", removed, err)
	}

	m.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	removed, err = m.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 2 || db.Sessions().Len() != 0 {
		t.Fatalf("removed=%d left=%d", removed, db.Sessions().Len())
	}
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	m, _ := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.RunSweeper(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run sweeper: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
