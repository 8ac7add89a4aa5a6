// Package session keeps login sessions as database rows referenced by a
// signed cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/inkpost/blogapi/config"
	"github.com/inkpost/blogapi/internal/store"
	"github.com/inkpost/blogapi/types"
)

// ErrNoSession is returned by Load when the request carries no usable
// session: missing or tampered cookie, expired token, or a row that is gone.
var ErrNoSession = errors.New("no session")

// Store persists session rows.
type Store interface {
	Create(ctx context.Context, session types.Session) (types.Session, error)
	Get(ctx context.Context, id string) (types.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Manager struct {
	store      Store
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

func NewManager(store Store, cfg config.SessionConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	name := cfg.CookieName
	if name == "" {
		name = config.Default().Session.CookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(cfg.Secret),
		cookieName: name,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Start opens a session for authorID and sets the cookie on w.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, authorID string) (types.Session, error) {
	now := m.now()
	session, err := m.store.Create(ctx, types.Session{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	})
	if err != nil {
		return types.Session{}, fmt.Errorf("create session: %w", err)
	}

	token, err := m.sign(session)
	if err != nil {
		return types.Session{}, fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// Load resolves the session referenced by the request cookie. Store faults
// other than a missing row are returned as is.
func (m *Manager) Load(r *http.Request) (types.Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return types.Session{}, ErrNoSession
	}

	claims, err := m.parse(cookie.Value)
	if err != nil {
		return types.Session{}, ErrNoSession
	}

	session, err := m.store.Get(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Session{}, ErrNoSession
		}
		return types.Session{}, fmt.Errorf("load session: %w", err)
	}
	if session.AuthorID != claims.Subject || session.Expired(m.now()) {
		return types.Session{}, ErrNoSession
	}
	return session, nil
}

// End deletes the session row, if any, and expires the cookie. Calling it
// without a session is not an error.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer m.clearCookie(w)

	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil
	}
	claims, err := m.parse(cookie.Value)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Sweep removes expired session rows.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := m.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.ErrorContext(ctx, "session sweep failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				slog.InfoContext(ctx, "expired sessions removed", slog.Int64("count", removed))
			}
		}
	}
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sign(session types.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   session.AuthorID,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parse(tokenString string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return jwt.RegisteredClaims{}, err
	}
	if !token.Valid {
		return jwt.RegisteredClaims{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.ID) == "" || strings.TrimSpace(claims.Subject) == "" {
		return jwt.RegisteredClaims{}, errors.New("missing session claims")
	}
	return claims, nil
}
