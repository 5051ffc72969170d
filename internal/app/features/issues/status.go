// internal/app/features/issues/status.go
package issues

import (
	"net/http"
	"strings"

	issuestore "github.com/dalemusser/civicbridge/internal/app/store/issues"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/authz"
	"github.com/dalemusser/civicbridge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/inputval"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type statusInput struct {
	Status          string `json:"status" validate:"required,issuestatus" label:"Status"`
	Note            string `json:"note" validate:"max=1000" label:"Note"`
	ResolutionImage string `json:"resolutionImage" validate:"omitempty,startswith=data:image/" label:"Resolution image"`
}

// HandleUpdateStatus handles PATCH /api/issues/{id}. Officials only.
//
//	{ "status":"In Progress", "note":"…", "resolutionImage":"data:image/…" }
//
// Any status may follow any other; each call appends one history entry.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok || !authz.CanManageIssues(r) {
		h.ErrLog.Write(w, r, "issues: update status", apperr.New(apperr.KindAuthorization, msgOfficialsOnly))
		return
	}

	id, err := issueID(r)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: update status", err)
		return
	}

	var in statusInput
	if err := httpjson.Decode(w, r, &in, h.MaxBody); err != nil {
		h.ErrLog.Write(w, r, "issues: decode", err)
		return
	}
	in.Status = strings.TrimSpace(in.Status)
	in.Note = strings.TrimSpace(htmlsanitize.PlainText(in.Note))
	in.ResolutionImage = strings.TrimSpace(in.ResolutionImage)

	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Write(w, r, "issues: validate status", apperr.Validation(res.First()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update issue status")
	defer cancel()

	iss, err := h.Issues.UpdateStatus(ctx, id, issuestore.StatusChange{
		Status:          in.Status,
		Note:            in.Note,
		ResolutionImage: in.ResolutionImage,
		ActorID:         actorID,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "issues: update status", err)
		return
	}

	// The entry before the one just appended holds the previous status.
	from := ""
	if n := len(iss.StatusHistory); n >= 2 {
		from = iss.StatusHistory[n-2].Status
	}
	h.AuditLog.IssueStatusChanged(r.Context(), r, actorID.Hex(), iss.ID, from, iss.Status)
	h.Log.Info("issue status changed",
		zap.String("issue_id", iss.ID.Hex()),
		zap.String("from", from),
		zap.String("to", iss.Status))

	names, err := h.creatorNames(ctx, *iss)
	if err != nil {
		h.Log.Warn("issue creator lookup failed", zap.Error(err))
	}
	httpjson.OK(w, updateResponse{Success: true, Issue: toDetail(*iss, names)})
}
