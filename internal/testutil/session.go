package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sessionstore "github.com/dalemusser/civicbridge/internal/app/store/sessions"
	userstore "github.com/dalemusser/civicbridge/internal/app/store/users"
	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TestSessionKey is a fixed 32+ byte signing key for test cookies.
const TestSessionKey = "civicbridge-test-session-key-0123456789abcdef"

// NewSessionManager returns a SessionManager backed by db's sessions and
// users collections, issuing insecure cookies named "civicbridge_session".
func NewSessionManager(t *testing.T, db *mongo.Database) *auth.SessionManager {
	t.Helper()
	mgr, err := auth.NewSessionManager(TestSessionKey, "civicbridge_session", "", sessionstore.TTL, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	mgr.SetTokenStore(sessionstore.New(db))
	mgr.SetUserFetcher(userstore.NewFetcher(db))
	return mgr
}

// CarryCookies copies every cookie set on rec onto req, the way a browser
// would on its next request. Expired cookies are skipped.
func CarryCookies(req *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			continue
		}
		req.AddCookie(c)
	}
	return req
}
