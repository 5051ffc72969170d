// internal/app/features/issues/handler.go
package issues

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/civicbridge/internal/app/features/errors"
	"github.com/dalemusser/civicbridge/internal/app/store/audit"
	issuestore "github.com/dalemusser/civicbridge/internal/app/store/issues"
	userstore "github.com/dalemusser/civicbridge/internal/app/store/users"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/auditlog"
	"github.com/dalemusser/civicbridge/internal/app/system/limits"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /api/issues.
type Handler struct {
	Issues   *issuestore.Store
	Users    *userstore.Store
	Audits   *audit.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	MaxBody  int64
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Issues:   issuestore.New(db),
		Users:    userstore.New(db),
		Audits:   audit.New(db),
		ErrLog:   errLog,
		AuditLog: auditLog,
		Log:      logger,
		MaxBody:  limits.MaxIssueBody,
	}
}

// issueID parses the {id} URL parameter. A malformed id is reported as a
// missing issue.
func issueID(r *http.Request) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return primitive.NilObjectID, apperr.ErrIssueNotFound
	}
	return oid, nil
}
