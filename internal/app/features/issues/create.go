// internal/app/features/issues/create.go
package issues

import (
	"net/http"
	"strings"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/authz"
	"github.com/dalemusser/civicbridge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/inputval"
	"github.com/dalemusser/civicbridge/internal/app/system/normalize"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	Title       string   `json:"title" validate:"required,max=200" label:"Title"`
	Description string   `json:"description" validate:"required,max=5000" label:"Description"`
	Category    string   `json:"category" validate:"required,max=100" label:"Category"`
	Severity    string   `json:"severity" validate:"required,severity" label:"Severity"`
	Image       string   `json:"image" validate:"omitempty,startswith=data:image/" label:"Image"`
	Lat         *float64 `json:"lat" validate:"omitempty,latitude" label:"Latitude"`
	Lng         *float64 `json:"lng" validate:"omitempty,longitude" label:"Longitude"`
}

// HandleCreate handles POST /api/issues. Residents only (enforced by the
// route).
//
//	{ "title":"…", "description":"…", "category":"…", "severity":"Low"|"Medium"|"High",
//	  "image":"data:image/…", "lat":0.0, "lng":0.0 }
//
// lat and lng must be given together or not at all.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok || !authz.CanSubmitIssue(r) {
		h.ErrLog.Write(w, r, "issues: create", apperr.New(apperr.KindAuthorization, msgResidentsOnly))
		return
	}

	var in createInput
	if err := httpjson.Decode(w, r, &in, h.MaxBody); err != nil {
		h.ErrLog.Write(w, r, "issues: decode", err)
		return
	}
	in.Title = strings.TrimSpace(htmlsanitize.PlainText(in.Title))
	in.Description = strings.TrimSpace(htmlsanitize.PlainText(in.Description))
	in.Image = strings.TrimSpace(in.Image)

	if res := inputval.Validate(in); res.HasErrors() {
		msg := res.NotRequired()
		if res.Missing() {
			msg = msgCreateMissing
		}
		h.ErrLog.Write(w, r, "issues: validate", apperr.Validation(msg))
		return
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		h.ErrLog.Write(w, r, "issues: validate", apperr.Validation(msgHalfLocation))
		return
	}

	iss := models.Issue{
		Title:       in.Title,
		Description: in.Description,
		Category:    normalize.Category(htmlsanitize.PlainText(in.Category)),
		Severity:    in.Severity,
		Image:       in.Image,
		CreatedBy:   actorID,
	}
	if in.Lat != nil {
		iss.Location = &models.Location{Lat: *in.Lat, Lng: *in.Lng}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create issue")
	defer cancel()

	created, err := h.Issues.Create(ctx, iss)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: create", err)
		return
	}

	h.AuditLog.IssueCreated(r.Context(), r, actorID.Hex(), created.ID, created.Category, created.Severity)
	h.Log.Info("issue created",
		zap.String("issue_id", created.ID.Hex()),
		zap.String("category", created.Category),
		zap.String("severity", created.Severity))

	httpjson.OK(w, createResponse{
		Success: true,
		Issue: createdView{
			ID:        created.ID.Hex(),
			Title:     created.Title,
			Status:    created.Status,
			CreatedAt: created.CreatedAt,
		},
	})
}
