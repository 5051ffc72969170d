// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/civicbridge/internal/app/store/audit"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config selects where each category of audit event goes.
type Config struct {
	// Auth covers register, login and logout.
	Auth string
	// Issue covers issue creation, status changes and upvotes.
	Issue string
}

// Logger writes audit events to the audit store and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates an audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.IssueID != nil {
		fields = append(fields, zap.String("issue_id", event.IssueID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the configured destination for its
// category. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryIssue:
		setting = l.config.Issue
	}
	if setting == "" {
		setting = DestAll
	}
	if setting == DestOff {
		return
	}

	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}
	if setting == DestAll || setting == DestDB {
		if err := l.store.Log(ctx, event); err != nil {
			// Running without a database is a supported mode.
			if errors.Is(err, apperr.ErrStoreNotConfigured) {
				return
			}
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func base(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func hexID(s string) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil
	}
	return &oid
}

// --- Authentication Events ---

// RegisterSuccess logs a new account.
func (l *Logger) RegisterSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	ev := base(r, audit.CategoryAuth, audit.EventRegisterSuccess, true)
	ev.UserID = &userID
	ev.Details = map[string]string{"role": role}
	l.Log(ctx, ev)
}

// RegisterFailedDuplicate logs a registration rejected for an existing email.
func (l *Logger) RegisterFailedDuplicate(ctx context.Context, r *http.Request, email string) {
	ev := base(r, audit.CategoryAuth, audit.EventRegisterFailedDuplicate, false)
	ev.FailureReason = "email already registered"
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	ev.UserID = &userID
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// LoginFailedUserNotFound logs a login attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	ev.FailureReason = "user not found"
	ev.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, ev)
}

// LoginFailedWrongPassword logs a login attempt with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	ev.UserID = &userID
	ev.FailureReason = "wrong password"
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// LoginFailedRateLimit logs an attempt rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	ev.FailureReason = "rate limit exceeded"
	ev.Details = map[string]string{"email": email, "limit_type": limitType}
	l.Log(ctx, ev)
}

// Logout logs a sign-out. userID is the hex id from the session user and
// may be empty for anonymous callers.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	ev := base(r, audit.CategoryAuth, audit.EventLogout, true)
	ev.UserID = hexID(userID)
	l.Log(ctx, ev)
}

// --- Issue Events ---

// IssueCreated logs a new issue report.
func (l *Logger) IssueCreated(ctx context.Context, r *http.Request, actorID string, issueID primitive.ObjectID, category, severity string) {
	ev := base(r, audit.CategoryIssue, audit.EventIssueCreated, true)
	ev.UserID = hexID(actorID)
	ev.IssueID = &issueID
	ev.Details = map[string]string{"category": category, "severity": severity}
	l.Log(ctx, ev)
}

// IssueStatusChanged logs an official moving an issue to a new status.
func (l *Logger) IssueStatusChanged(ctx context.Context, r *http.Request, actorID string, issueID primitive.ObjectID, from, to string) {
	ev := base(r, audit.CategoryIssue, audit.EventIssueStatusChanged, true)
	ev.UserID = hexID(actorID)
	ev.IssueID = &issueID
	ev.Details = map[string]string{"from": from, "to": to}
	l.Log(ctx, ev)
}

// IssueUpvoted logs an accepted upvote.
func (l *Logger) IssueUpvoted(ctx context.Context, r *http.Request, actorID string, issueID primitive.ObjectID) {
	ev := base(r, audit.CategoryIssue, audit.EventIssueUpvoted, true)
	ev.UserID = hexID(actorID)
	ev.IssueID = &issueID
	l.Log(ctx, ev)
}
