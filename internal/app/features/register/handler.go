// internal/app/features/register/handler.go
package register

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/civicbridge/internal/app/features/errors"
	userstore "github.com/dalemusser/civicbridge/internal/app/store/users"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/auditlog"
	"github.com/dalemusser/civicbridge/internal/app/system/authutil"
	"github.com/dalemusser/civicbridge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/inputval"
	"github.com/dalemusser/civicbridge/internal/app/system/limits"
	"github.com/dalemusser/civicbridge/internal/app/system/normalize"
	"github.com/dalemusser/civicbridge/internal/app/system/ratelimit"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgRequired = "Name, email, password and role are required"

type Handler struct {
	Users    *userstore.Store
	Limiter  ratelimit.Allower // per client IP; nil disables
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	MaxBody  int64
}

func NewHandler(db *mongo.Database, limiter ratelimit.Allower, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Limiter:  limiter,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
		MaxBody:  limits.MaxAuthBody,
	}
}

type registerInput struct {
	Name     string `json:"name" validate:"required" label:"Name"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required,min=6,max=72" label:"Password"`
	Role     string `json:"role" validate:"required,role" label:"Role"`
}

// HandleRegister handles POST /api/auth/register.
//
//	{ "name":"…", "email":"…", "password":"…", "role":"resident"|"official" }
//
// Replies {"success":true}. The caller logs in separately.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := httpjson.Decode(w, r, &in, h.MaxBody); err != nil {
		h.ErrLog.Write(w, r, "register: decode", err)
		return
	}
	in.Name = htmlsanitize.PlainText(normalize.Name(in.Name))
	in.Email = normalize.Email(in.Email)

	if res := inputval.Validate(in); res.HasErrors() {
		msg := res.NotRequired()
		if res.Missing() {
			msg = msgRequired
		}
		h.ErrLog.Write(w, r, "register: validate", apperr.Validation(msg))
		return
	}

	if h.Limiter != nil {
		ok, err := h.Limiter.Allow(r.Context(), ratelimit.ClientIP(r))
		if err != nil {
			h.Log.Warn("register rate limiter unavailable", zap.Error(err))
		} else if !ok {
			h.AuditLog.LoginFailedRateLimit(r.Context(), r, in.Email, "register_ip")
			h.ErrLog.Write(w, r, "register: rate limit", apperr.ErrRateLimited)
			return
		}
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.Write(w, r, "register: hash password", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register user")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:     in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicateEmail) {
			h.AuditLog.RegisterFailedDuplicate(r.Context(), r, in.Email)
		}
		h.ErrLog.Write(w, r, "register: create user", err)
		return
	}

	h.AuditLog.RegisterSuccess(r.Context(), r, u.ID, u.Role)
	httpjson.OK(w, map[string]bool{"success": true})
}
