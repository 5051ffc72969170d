// internal/app/features/session/routes.go
package session

import "github.com/go-chi/chi/v5"

// Routes is mounted under /api/auth/session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleSession)
	return r
}
