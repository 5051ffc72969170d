// Package auth resolves the caller's identity from the session cookie and
// gates handlers by sign-in state and role.
//
// The cookie (a gorilla CookieStore session) carries only an opaque token.
// The token is looked up in the sessions collection on every request; the
// role recorded there at login is the role used for authorization, while
// name and email are read fresh from the users collection.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sessionstore "github.com/dalemusser/civicbridge/internal/app/store/sessions"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const tokenKey = "token"

// SessionUser is the identity injected into r.Context() for signed-in callers.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// UserFetcher loads the current profile of a user. It returns (nil, nil)
// when the user does not exist.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*SessionUser, error)
}

// TokenStore persists sessions keyed by token.
type TokenStore interface {
	Create(ctx context.Context, userID primitive.ObjectID, role string) (sessionstore.Session, error)
	Resolve(ctx context.Context, token string) (sessionstore.Session, bool, error)
	Delete(ctx context.Context, token string) error
}

// SessionManager owns the cookie store and the token and user lookups.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	tokens TokenStore
	users  UserFetcher
	logger *zap.Logger
}

// NewSessionManager builds the cookie store. secure marks cookies Secure;
// SameSite is Lax in every environment.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if name == "" {
		return nil, fmt.Errorf("session cookie name is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(maxAge / time.Second))

	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// SetTokenStore wires the sessions collection.
func (m *SessionManager) SetTokenStore(ts TokenStore) { m.tokens = ts }

// SetUserFetcher wires the users collection.
func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.users = f }

// Store exposes the cookie store, mainly for tests.
func (m *SessionManager) Store() *sessions.CookieStore { return m.store }

// Name is the cookie name.
func (m *SessionManager) Name() string { return m.name }

// GetSession returns the cookie session for r. A cookie that fails to decode
// yields a fresh session together with the decode error.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.name)
}

// Token returns the session token carried by r's cookie, if any.
func (m *SessionManager) Token(r *http.Request) string {
	sess, err := m.GetSession(r)
	if err != nil {
		var cerr securecookie.Error
		if errors.As(err, &cerr) && cerr.IsDecode() {
			m.logger.Debug("ignoring undecodable session cookie", zap.Error(err))
		}
		return ""
	}
	tok, _ := sess.Values[tokenKey].(string)
	return tok
}

// SignIn issues a new session for the user and sets the cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, role string) (sessionstore.Session, error) {
	if m.tokens == nil {
		return sessionstore.Session{}, apperr.ErrStoreNotConfigured
	}
	rec, err := m.tokens.Create(r.Context(), userID, role)
	if err != nil {
		return sessionstore.Session{}, err
	}

	sess, _ := m.GetSession(r)
	opts := *m.store.Options
	sess.Options = &opts
	sess.Values[tokenKey] = rec.Token
	if err := sess.Save(r, w); err != nil {
		return sessionstore.Session{}, apperr.Wrap(apperr.KindUnexpected, "Could not save session", err)
	}
	return rec, nil
}

// SignOut deletes the caller's session, if any, and expires the cookie.
// It succeeds even when there was no session.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.GetSession(r)
	if tok, _ := sess.Values[tokenKey].(string); tok != "" && m.tokens != nil {
		if err := m.tokens.Delete(r.Context(), tok); err != nil {
			m.logger.Warn("delete session on logout", zap.Error(err))
		}
	}

	delete(sess.Values, tokenKey)
	opts := *m.store.Options
	opts.MaxAge = -1
	sess.Options = &opts
	return sess.Save(r, w)
}

// Resolve maps a token to an identity. Unknown, expired, or orphaned tokens
// report ok=false without error.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*SessionUser, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	if m.tokens == nil || m.users == nil {
		return nil, false, apperr.ErrStoreNotConfigured
	}

	rec, ok, err := m.tokens.Resolve(ctx, token)
	if err != nil || !ok {
		return nil, false, err
	}
	u, err := m.users.FetchUser(ctx, rec.UserID.Hex())
	if err != nil {
		return nil, false, err
	}
	if u == nil {
		return nil, false, nil
	}
	u.Role = rec.Role
	return u, true, nil
}

// LoadSessionUser injects the caller's identity into the context when the
// cookie carries a live session. A lookup failure leaves the request
// anonymous but records the error, so the gates answer 500 rather than 401.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := m.Token(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, ok, err := m.Resolve(r.Context(), tok)
		if err != nil {
			m.logger.Error("resolve session", zap.Error(err))
			r = withResolveErr(r, err)
		}
		if ok {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn responds 401 unless a user is in context.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeAnonymous(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole responds 401 without a user and 403 when the user's role is
// not among allowed (case-insensitive).
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return m.RequireRoleMsg(apperr.ErrForbidden.Message, allowed...)
}

// RequireRoleMsg is RequireRole with a custom 403 message.
func (m *SessionManager) RequireRoleMsg(forbidden string, allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeAnonymous(w, r)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				httpjson.Error(w, http.StatusForbidden, forbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeAnonymous rejects a request that carries no user: 401 normally, or
// the store failure that kept the session from resolving.
func writeAnonymous(w http.ResponseWriter, r *http.Request) {
	if err := ResolveErr(r); err != nil {
		httpjson.Error(w, apperr.KindOf(err).Status(), apperr.PublicMessage(err))
		return
	}
	httpjson.Error(w, http.StatusUnauthorized, apperr.ErrUnauthenticated.Message)
}

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	resolveErrKey  ctxKey = "resolveErr"
)

// ResolveErr returns the error that kept the request's session from
// resolving, or nil.
func ResolveErr(r *http.Request) error {
	err, _ := r.Context().Value(resolveErrKey).(error)
	return err
}

func withResolveErr(r *http.Request, err error) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), resolveErrKey, err))
}

// CurrentUser returns the user and a "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into r's context. Tests use it to bypass cookies.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}
