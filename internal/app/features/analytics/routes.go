// internal/app/features/analytics/routes.go
package analytics

import (
	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /api/analytics.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRoleMsg(msgOfficialsOnly, models.RoleOfficial))
	r.Get("/", h.ServeSummary)
	return r
}
