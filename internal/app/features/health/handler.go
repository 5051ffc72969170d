package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB  Pinger // nil when the app runs without a database
	Log *zap.Logger
}

// NewHandler constructs a health Handler. client may be nil.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	h := &Handler{Log: logger}
	if client != nil {
		h.DB = client
	}
	return h
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected" }
//
// Otherwise 503 with status "error" and database "disconnected" or
// "not_configured". Driver errors are logged, not returned.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		httpjson.Write(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "error",
			Database: "not_configured",
			Message:  "Database not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.DB.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		httpjson.Write(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "error",
			Database: "disconnected",
			Message:  "Database unavailable",
		})
		return
	}

	httpjson.OK(w, healthResponse{Status: "ok", Database: "connected"})
}
