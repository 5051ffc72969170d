// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	analyticsfeature "github.com/dalemusser/civicbridge/internal/app/features/analytics"
	errorsfeature "github.com/dalemusser/civicbridge/internal/app/features/errors"
	healthfeature "github.com/dalemusser/civicbridge/internal/app/features/health"
	issuesfeature "github.com/dalemusser/civicbridge/internal/app/features/issues"
	loginfeature "github.com/dalemusser/civicbridge/internal/app/features/login"
	logoutfeature "github.com/dalemusser/civicbridge/internal/app/features/logout"
	registerfeature "github.com/dalemusser/civicbridge/internal/app/features/register"
	sessionfeature "github.com/dalemusser/civicbridge/internal/app/features/session"
	auditstore "github.com/dalemusser/civicbridge/internal/app/store/audit"
	sessionstore "github.com/dalemusser/civicbridge/internal/app/store/sessions"
	userstore "github.com/dalemusser/civicbridge/internal/app/store/users"
	"github.com/dalemusser/civicbridge/internal/app/system/auditlog"
	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/app/system/httpmw"
	"github.com/dalemusser/civicbridge/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every route answers JSON; the auth,
// issue and analytics APIs live under /api, with /health and /metrics at
// the root.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg != nil && coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, sessionstore.TTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	if db != nil {
		sessionMgr.SetTokenStore(sessionstore.New(db))
		sessionMgr.SetUserFetcher(userstore.NewFetcher(db))
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	audits := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Issue: appCfg.AuditLogIssue,
	})
	loginLimiter, registerLimiter := buildLimiters(appCfg, deps, logger)

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	r.Use(httpmw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httpmw.AccessLog(logger))
	if appCfg.MetricsEnabled {
		m, err := httpmw.NewMetrics(httpmw.MetricsOptions{})
		if err != nil {
			logger.Error("metrics init failed", zap.Error(err))
			return nil, err
		}
		r.Use(m.Handler)
	}

	// Global auth middleware: loads the SessionUser into context when the
	// cookie carries a live session.
	r.Use(sessionMgr.LoadSessionUser)

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		// Authentication
		registerHandler := registerfeature.NewHandler(db, registerLimiter, errLog, audits, logger)
		api.Mount("/auth/register", registerfeature.Routes(registerHandler))

		loginHandler := loginfeature.NewHandler(db, sessionMgr, loginLimiter, errLog, audits, logger)
		api.Mount("/auth/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, audits, logger)
		api.Mount("/auth/logout", logoutfeature.Routes(logoutHandler))

		api.Mount("/auth/session", sessionfeature.Routes(sessionfeature.NewHandler()))

		// Issues
		issuesHandler := issuesfeature.NewHandler(db, errLog, audits, logger)
		if appCfg.MaxBodyBytes > 0 {
			issuesHandler.MaxBody = appCfg.MaxBodyBytes
		}
		api.Mount("/issues", issuesfeature.Routes(issuesHandler, sessionMgr))

		// Officials' analytics
		analyticsHandler := analyticsfeature.NewHandler(db, errLog, logger)
		api.Mount("/analytics", analyticsfeature.Routes(analyticsHandler, sessionMgr))
	})

	return r, nil
}

// buildLimiters returns the login limiter (per IP and per email) and the
// per-IP register limiter. They share Redis when it is connected; otherwise
// each uses in-memory windows that Shutdown stops.
func buildLimiters(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*ratelimit.LoginLimiter, ratelimit.Allower) {
	if deps.Redis != nil {
		ip := ratelimit.NewRedis(deps.Redis, "civicbridge:rl:login:ip", appCfg.LoginRateLimit, appCfg.LoginRateWindow)
		email := ratelimit.NewRedis(deps.Redis, "civicbridge:rl:login:email", appCfg.LoginEmailLimit, appCfg.LoginEmailWindow)
		register := ratelimit.NewRedis(deps.Redis, "civicbridge:rl:register:ip", appCfg.RegisterRateLimit, appCfg.RegisterRateWindow)
		return ratelimit.NewLoginLimiter(ip, email, logger), register
	}

	ip := ratelimit.New(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	email := ratelimit.New(appCfg.LoginEmailLimit, appCfg.LoginEmailWindow)
	register := ratelimit.New(appCfg.RegisterRateLimit, appCfg.RegisterRateWindow)
	if deps.bg != nil {
		deps.bg.limiters = append(deps.bg.limiters, ip, email, register)
	}
	return ratelimit.NewLoginLimiter(ip, email, logger), register
}
