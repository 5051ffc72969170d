package login_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/civicbridge/internal/app/features/errors"
	"github.com/dalemusser/civicbridge/internal/app/features/login"
	"github.com/dalemusser/civicbridge/internal/app/store/audit"
	"github.com/dalemusser/civicbridge/internal/app/system/auditlog"
	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/app/system/ratelimit"
	"github.com/dalemusser/civicbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	h   *login.Handler
	db  *mongo.Database
	mgr *auth.SessionManager
	fx  *testutil.Fixtures
}

func newEnv(t *testing.T, limiter *ratelimit.LoginLimiter) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	mgr := testutil.NewSessionManager(t, db)
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.DestDB})
	h := login.NewHandler(db, mgr, limiter, uierrors.NewErrorLogger(logger), audits, logger)
	return env{h: h, db: db, mgr: mgr, fx: testutil.NewFixtures(t, db)}
}

func post(h *login.Handler, body any) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	login.Routes(h).ServeHTTP(rec, testutil.NewJSONRequest("POST", "/", body))
	return rec
}

func countEvents(t *testing.T, db *mongo.Database, eventType string) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := audit.New(db).CountByFilter(ctx, audit.QueryFilter{EventType: eventType})
	if err != nil {
		t.Fatalf("CountByFilter: %v", err)
	}
	return n
}

func TestHandleLogin_Success(t *testing.T) {
	e := newEnv(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateOfficial(ctx, "Olive Official", "olive@example.com")

	rec := post(e.h, map[string]string{"email": "  OLIVE@example.com", "password": testutil.FixturePassword})
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Success bool `json:"success"`
		User    struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	rec.DecodeJSON(t, &body)
	if !body.Success || body.User.Name != "Olive Official" || body.User.Email != "olive@example.com" || body.User.Role != "official" {
		t.Errorf("unexpected body: %+v", body)
	}

	n, err := e.db.Collection("sessions").CountDocuments(ctx, bson.M{"user_id": u.ID})
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 1 {
		t.Errorf("sessions: got %d, want 1", n)
	}

	// The cookie resolves back to the same user.
	next := testutil.CarryCookies(testutil.NewRequest("GET", "/"), rec.ResponseRecorder)
	tok := e.mgr.Token(next)
	if tok == "" {
		t.Fatal("expected a session token in the cookie")
	}
	su, ok, err := e.mgr.Resolve(ctx, tok)
	if err != nil || !ok {
		t.Fatalf("Resolve: ok=%v err=%v", ok, err)
	}
	if su.ID != u.ID.Hex() || su.Role != "official" {
		t.Errorf("resolved user: %+v", su)
	}

	if got := countEvents(t, e.db, audit.EventLoginSuccess); got != 1 {
		t.Errorf("login_success events: got %d, want 1", got)
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	e := newEnv(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateResident(ctx, "Rita", "rita@example.com")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		want   string
	}{
		{"missing password", map[string]string{"email": "rita@example.com"}, http.StatusBadRequest, "Email and password are required"},
		{"missing email", map[string]string{"password": "secret123"}, http.StatusBadRequest, "Email and password are required"},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "secret123"}, http.StatusUnauthorized, "Invalid email or password"},
		{"wrong password", map[string]string{"email": "rita@example.com", "password": "nope-nope"}, http.StatusUnauthorized, "Invalid email or password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(e.h, tt.body)
			rec.AssertStatus(t, tt.status)
			var b struct {
				Error string `json:"error"`
			}
			rec.DecodeJSON(t, &b)
			if b.Error != tt.want {
				t.Errorf("error: got %q, want %q", b.Error, tt.want)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("failed login must not set a cookie")
			}
		})
	}

	if got := countEvents(t, e.db, audit.EventLoginFailedUserNotFound); got != 1 {
		t.Errorf("user-not-found events: got %d, want 1", got)
	}
	if got := countEvents(t, e.db, audit.EventLoginFailedWrongPassword); got != 1 {
		t.Errorf("wrong-password events: got %d, want 1", got)
	}
}

func TestHandleLogin_RateLimitedByEmail(t *testing.T) {
	ipLimiter := ratelimit.New(100, time.Minute)
	emailLimiter := ratelimit.New(2, time.Minute)
	defer ipLimiter.Stop()
	defer emailLimiter.Stop()

	e := newEnv(t, ratelimit.NewLoginLimiter(ipLimiter, emailLimiter, zap.NewNop()))
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateResident(ctx, "Rita", "rita@example.com")

	bad := map[string]string{"email": "rita@example.com", "password": "wrong-one"}
	post(e.h, bad).AssertStatus(t, http.StatusUnauthorized)
	post(e.h, bad).AssertStatus(t, http.StatusUnauthorized)

	rec := post(e.h, map[string]string{"email": "RITA@example.com", "password": testutil.FixturePassword})
	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertContains(t, "Too many login attempts")

	if got := countEvents(t, e.db, audit.EventLoginFailedRateLimit); got != 1 {
		t.Errorf("rate limit events: got %d, want 1", got)
	}
}

func TestHandleLogin_SuccessResetsEmailWindow(t *testing.T) {
	ipLimiter := ratelimit.New(100, time.Minute)
	emailLimiter := ratelimit.New(2, time.Minute)
	defer ipLimiter.Stop()
	defer emailLimiter.Stop()

	e := newEnv(t, ratelimit.NewLoginLimiter(ipLimiter, emailLimiter, zap.NewNop()))
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateResident(ctx, "Rita", "rita@example.com")

	good := map[string]string{"email": "rita@example.com", "password": testutil.FixturePassword}
	for i := 0; i < 4; i++ {
		post(e.h, good).AssertStatus(t, http.StatusOK)
	}
}

func TestHandleLogin_NoDatabase(t *testing.T) {
	logger := zap.NewNop()
	mgr, err := auth.NewSessionManager(testutil.TestSessionKey, "civicbridge_session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := login.NewHandler(nil, mgr, nil, uierrors.NewErrorLogger(logger), nil, logger)

	rec := post(h, map[string]string{"email": "a@example.com", "password": "secret123"})
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, "Database not configured")
}
