// internal/app/features/session/handler.go
package session

import (
	"net/http"

	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

type userView struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type sessionResponse struct {
	User *userView `json:"user"`
}

// HandleSession handles GET /api/auth/session. Anonymous callers, including
// those whose session could not be resolved, get {"user": null}.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.OK(w, sessionResponse{})
		return
	}
	httpjson.OK(w, sessionResponse{User: &userView{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}})
}
