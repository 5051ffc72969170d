// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	sessionstore "github.com/dalemusser/civicbridge/internal/app/store/sessions"
	"github.com/dalemusser/civicbridge/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema setup
// are complete, but before the HTTP handler is built. It starts the
// expired-session sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase != nil && appCfg.SessionCleanupInterval > 0 && deps.bg != nil {
		w := workers.NewSessionCleanup(sessionstore.New(deps.MongoDatabase), logger, appCfg.SessionCleanupInterval)
		w.Start()
		deps.bg.sessionCleanup = w
	}
	return nil
}
