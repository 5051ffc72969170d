// internal/app/features/issues/upvote.go
package issues

import (
	"net/http"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/authz"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
)

// HandleUpvote handles POST /api/issues/{id}/upvote for any signed-in user.
// A second vote by the same user is rejected.
func (h *Handler) HandleUpvote(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.Write(w, r, "issues: upvote", apperr.ErrUnauthenticated)
		return
	}

	id, err := issueID(r)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: upvote", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "upvote issue")
	defer cancel()

	count, err := h.Issues.Upvote(ctx, id, userID)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: upvote", err)
		return
	}

	h.AuditLog.IssueUpvoted(r.Context(), r, userID.Hex(), id)
	httpjson.OK(w, upvoteResponse{Success: true, UpvoteCount: count})
}
