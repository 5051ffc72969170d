// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/auditlog"
	"github.com/dalemusser/civicbridge/internal/app/system/limits"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devSessionKey is only acceptable outside production.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for CivicBridge.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CIVICBRIDGE_MONGO_URI, CIVICBRIDGE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "", Desc: "MongoDB connection URI (blank runs without a database)"},
	{Name: "mongo_database", Default: "civicbridge", Desc: "MongoDB database name"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "civicbridge_session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Rate limiting
	{Name: "redis_addr", Default: "", Desc: "Redis address for shared rate limits (blank keeps limits in memory)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per client IP per window"},
	{Name: "login_rate_window", Default: "1m", Desc: "Login rate window per client IP"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts per email per window"},
	{Name: "login_email_window", Default: "15m", Desc: "Login rate window per email"},
	{Name: "register_rate_limit", Default: 5, Desc: "Registrations per client IP per window"},
	{Name: "register_rate_window", Default: "1h", Desc: "Registration rate window"},

	{Name: "session_cleanup_interval", Default: "1h", Desc: "How often expired sessions are removed (0 disables)"},
	{Name: "max_body_bytes", Default: int(limits.MaxIssueBody), Desc: "Maximum issue request body size in bytes (photos are inline)"},
	{Name: "metrics_enabled", Default: true, Desc: "Expose Prometheus metrics at /metrics"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_issue", Default: "all", Desc: "Issue event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, in order of precedence,
// flags > env (WAFFLE_* for core, CIVICBRIDGE_* for app) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CIVICBRIDGE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		RedisAddr:          appValues.String("redis_addr"),
		RedisPassword:      appValues.String("redis_password"),
		RedisDB:            appValues.Int("redis_db"),
		LoginRateLimit:     appValues.Int("login_rate_limit"),
		LoginRateWindow:    appValues.Duration("login_rate_window", time.Minute),
		LoginEmailLimit:    appValues.Int("login_email_limit"),
		LoginEmailWindow:   appValues.Duration("login_email_window", 15*time.Minute),
		RegisterRateLimit:  appValues.Int("register_rate_limit"),
		RegisterRateWindow: appValues.Duration("register_rate_window", time.Hour),

		SessionCleanupInterval: appValues.Duration("session_cleanup_interval", time.Hour),
		MaxBodyBytes:           int64(appValues.Int("max_body_bytes")),
		MetricsEnabled:         appValues.Bool("metrics_enabled"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogIssue: appValues.String("audit_log_issue"),
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("overrides", n))
	}
	if appCfg.MongoURI == "" {
		logger.Warn("no MongoDB URI configured; data endpoints will report the database as not configured")
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// A blank Mongo URI is allowed; a malformed one aborts startup. Production
// refuses the development session key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.MongoURI != "" {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	}

	if appCfg.SessionKey == "" {
		return errors.New("session_key must be set")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return errors.New("session_key must be changed from the development default in production")
	}
	if appCfg.SessionName == "" {
		return errors.New("session_name must be set")
	}

	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_issue": appCfg.AuditLogIssue} {
		switch v {
		case "", auditlog.DestAll, auditlog.DestDB, auditlog.DestLog, auditlog.DestOff:
		default:
			return fmt.Errorf("%s: unknown destination %q (want all, db, log or off)", key, v)
		}
	}
	return nil
}
