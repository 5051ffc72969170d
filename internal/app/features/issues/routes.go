// internal/app/features/issues/routes.go
package issues

import (
	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /api/issues.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Public reads
	r.Get("/", h.ServeList)
	r.Get("/categories", h.ServeCategories)
	r.Get("/{id}", h.ServeIssue)

	r.With(sm.RequireRoleMsg(msgResidentsOnly, models.RoleResident)).Post("/", h.HandleCreate)
	r.With(sm.RequireRoleMsg(msgOfficialsOnly, models.RoleOfficial)).Patch("/{id}", h.HandleUpdateStatus)
	r.With(sm.RequireSignedIn).Post("/{id}/upvote", h.HandleUpvote)
	r.With(sm.RequireRoleMsg(msgTrailOfficial, models.RoleOfficial)).Get("/{id}/audit", h.ServeAuditTrail)

	return r
}
