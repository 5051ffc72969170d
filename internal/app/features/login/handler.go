// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/civicbridge/internal/app/features/errors"
	userstore "github.com/dalemusser/civicbridge/internal/app/store/users"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/auditlog"
	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/app/system/authutil"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/limits"
	"github.com/dalemusser/civicbridge/internal/app/system/normalize"
	"github.com/dalemusser/civicbridge/internal/app/system/ratelimit"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgRequired = "Email and password are required"

var rateLimitMessages = map[string]string{
	ratelimit.LimitIP:    "Too many login attempts. Please wait a minute before trying again.",
	ratelimit.LimitEmail: "Too many login attempts for this account. Please wait a few minutes.",
}

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
	MaxBody    int64
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
		MaxBody:    limits.MaxAuthBody,
	}
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Success bool     `json:"success"`
	User    userView `json:"user"`
}

// HandleLogin handles POST /api/auth/login.
//
// Unknown email and wrong password answer with the same 401 message, and an
// unknown email still costs one bcrypt comparison.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := httpjson.Decode(w, r, &in, h.MaxBody); err != nil {
		h.ErrLog.Write(w, r, "login: decode", err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		h.ErrLog.Write(w, r, "login: validate", apperr.Validation(msgRequired))
		return
	}

	if limitType, ok := h.Limiter.Check(r.Context(), r, email); !ok {
		h.AuditLog.LoginFailedRateLimit(r.Context(), r, email, limitType)
		h.ErrLog.Write(w, r, "login: rate limit", apperr.New(apperr.KindRateLimited, rateLimitMessages[limitType]))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperr.ErrUserNotFound):
		authutil.BurnCompare(in.Password)
		h.AuditLog.LoginFailedUserNotFound(r.Context(), r, email)
		h.ErrLog.Write(w, r, "login: unknown email", apperr.ErrInvalidCredentials)
		return
	case err != nil:
		h.ErrLog.Write(w, r, "login: find user", err)
		return
	}

	if !authutil.CheckPassword(in.Password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(r.Context(), r, u.ID, email)
		h.ErrLog.Write(w, r, "login: wrong password", apperr.ErrInvalidCredentials)
		return
	}

	if _, err := h.SessionMgr.SignIn(w, r, u.ID, u.Role); err != nil {
		h.ErrLog.Write(w, r, "login: create session", err)
		return
	}

	h.Limiter.ResetEmail(r.Context(), email)
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, email)
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))

	httpjson.OK(w, loginResponse{
		Success: true,
		User:    userView{Name: u.FullName, Email: u.Email, Role: u.Role},
	})
}
