// internal/app/features/issues/view.go
package issues

import (
	"net/http"

	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
)

// ServeIssue handles GET /api/issues/{id}: the full issue including its
// status history and voter ids.
func (h *Handler) ServeIssue(w http.ResponseWriter, r *http.Request) {
	id, err := issueID(r)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: view", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view issue")
	defer cancel()

	iss, err := h.Issues.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: view", err)
		return
	}
	names, err := h.creatorNames(ctx, *iss)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: creator names", err)
		return
	}
	httpjson.OK(w, toDetail(*iss, names))
}
