// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CIVICBRIDGE_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything CivicBridge itself needs
// lives here.
type AppConfig struct {
	// MongoDB connection configuration. An empty MongoURI starts the
	// server without a database; data endpoints then report
	// "Database not configured".
	MongoURI      string
	MongoDatabase string

	// Session cookie configuration
	SessionKey    string // signs the cookie that carries the session token
	SessionName   string // cookie name (default: civicbridge_session)
	SessionDomain string // blank means current host

	// Redis backs the login/register rate limiters when set; otherwise
	// each process keeps its own in-memory windows.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting. Login is limited per client IP and per email.
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	LoginEmailLimit    int
	LoginEmailWindow   time.Duration
	RegisterRateLimit  int
	RegisterRateWindow time.Duration

	// SessionCleanupInterval is how often expired sessions are swept in
	// addition to the TTL index. Zero disables the worker.
	SessionCleanupInterval time.Duration

	// MaxBodyBytes bounds issue request bodies (images are inline data
	// URLs). Auth bodies use the fixed limits.MaxAuthBody.
	MaxBodyBytes int64

	// MetricsEnabled exposes /metrics and records HTTP metrics.
	MetricsEnabled bool

	// Audit logging destinations: "all", "db", "log" or "off".
	AuditLogAuth  string
	AuditLogIssue string
}
