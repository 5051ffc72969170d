package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/civicbridge/internal/app/features/session"
	"github.com/dalemusser/civicbridge/internal/testutil"
)

type sessionBody struct {
	User *struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	} `json:"user"`
}

func TestHandleSession_Anonymous(t *testing.T) {
	rec := testutil.NewRecorder()
	session.Routes(session.NewHandler()).ServeHTTP(rec, testutil.NewRequest("GET", "/"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"user":null`)
}

func TestHandleSession_SignedIn(t *testing.T) {
	user := testutil.OfficialUser()
	rec := testutil.NewRecorder()
	session.Routes(session.NewHandler()).ServeHTTP(rec, testutil.WithUser(testutil.NewRequest("GET", "/"), user))

	rec.AssertStatus(t, http.StatusOK)
	var body sessionBody
	rec.DecodeJSON(t, &body)
	if body.User == nil {
		t.Fatal("expected a user")
	}
	if body.User.UserID != user.ID || body.User.Role != "official" || body.User.Email != user.Email {
		t.Errorf("unexpected user: %+v", *body.User)
	}
}

func TestHandleSession_ThroughCookie(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.NewFixtures(t, db).CreateResident(ctx, "Rita Resident", "rita@example.com")
	mgr := testutil.NewSessionManager(t, db)
	signin := httptest.NewRecorder()
	if _, err := mgr.SignIn(signin, testutil.NewRequest("POST", "/"), u.ID, u.Role); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	handler := mgr.LoadSessionUser(session.Routes(session.NewHandler()))

	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, testutil.CarryCookies(testutil.NewRequest("GET", "/"), signin))
	rec.AssertStatus(t, http.StatusOK)
	var body sessionBody
	rec.DecodeJSON(t, &body)
	if body.User == nil || body.User.UserID != u.ID.Hex() || body.User.Name != "Rita Resident" {
		t.Errorf("unexpected session body: %s", rec.Body.String())
	}

	// A tampered cookie is treated as no session.
	bad := testutil.NewRequest("GET", "/")
	bad.AddCookie(&http.Cookie{Name: mgr.Name(), Value: "garbage"})
	rec = testutil.NewRecorder()
	handler.ServeHTTP(rec, bad)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"user":null`)
}
