// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/civicbridge/internal/app/system/ratelimit"
	"github.com/dalemusser/civicbridge/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// MongoClient and MongoDatabase are nil when no Mongo URI is configured.
// Redis is nil unless redis_addr is set and reachable at startup.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Redis         *redis.Client

	// bg collects the background pieces started after ConnectDB so that
	// Shutdown can stop them. It is shared by every copy of DBDeps.
	bg *background
}

type background struct {
	sessionCleanup *workers.SessionCleanup
	limiters       []*ratelimit.Limiter
}

func (b *background) stop() {
	if b == nil {
		return
	}
	if b.sessionCleanup != nil {
		b.sessionCleanup.Stop()
	}
	for _, l := range b.limiters {
		l.Stop()
	}
}
