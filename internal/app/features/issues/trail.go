// internal/app/features/issues/trail.go
package issues

import (
	"net/http"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
)

const trailLimit = 200

type trailEntry struct {
	EventType string            `json:"eventType"`
	ActorID   string            `json:"actorId,omitempty"`
	Success   bool              `json:"success"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ServeAuditTrail handles GET /api/issues/{id}/audit: the recorded events
// for one issue, newest first. Officials only (enforced by the route).
func (h *Handler) ServeAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := issueID(r)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: audit trail", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issue audit trail")
	defer cancel()

	if _, err := h.Issues.GetByID(ctx, id); err != nil {
		h.ErrLog.Write(w, r, "issues: audit trail", err)
		return
	}
	events, err := h.Audits.GetByIssue(ctx, id, trailLimit)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: audit trail", err)
		return
	}

	out := make([]trailEntry, 0, len(events))
	for _, ev := range events {
		e := trailEntry{
			EventType: ev.EventType,
			Success:   ev.Success,
			Details:   ev.Details,
			Timestamp: ev.Timestamp,
		}
		if ev.UserID != nil {
			e.ActorID = ev.UserID.Hex()
		}
		out = append(out, e)
	}
	httpjson.OK(w, out)
}
