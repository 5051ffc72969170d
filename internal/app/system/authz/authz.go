// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visitor is the role reported for anonymous callers.
const Visitor = "visitor"

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a
// found flag. Anonymous callers and sessions carrying a malformed user id
// both report Visitor, "", NilObjectID, false, so ok=true always comes with
// a usable ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return Visitor, "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return Visitor, "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsResident reports whether the caller is a signed-in resident.
func IsResident(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleResident
}

// IsOfficial reports whether the caller is a signed-in official.
func IsOfficial(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleOfficial
}

// CanSubmitIssue reports whether the caller may report new issues.
func CanSubmitIssue(r *http.Request) bool { return IsResident(r) }

// CanManageIssues reports whether the caller may change issue status and
// view analytics.
func CanManageIssues(r *http.Request) bool { return IsOfficial(r) }
