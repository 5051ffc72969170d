// internal/app/features/analytics/handler.go
package analytics

import (
	"net/http"

	uierrors "github.com/dalemusser/civicbridge/internal/app/features/errors"
	metricsstore "github.com/dalemusser/civicbridge/internal/app/store/metrics"
	userstore "github.com/dalemusser/civicbridge/internal/app/store/users"
	issuestats "github.com/dalemusser/civicbridge/internal/app/system/analytics"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/authz"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgOfficialsOnly = "Only officials can view analytics"

type Handler struct {
	DB     *mongo.Database
	Users  *userstore.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Users:  userstore.New(db),
		ErrLog: errLog,
		Log:    logger,
	}
}

type trendingView struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	UpvoteCount int    `json:"upvoteCount"`
	CreatedBy   string `json:"createdBy,omitempty"` // reporter's name
}

type summaryResponse struct {
	TotalIssues         int64         `json:"totalIssues"`
	OpenIssues          int64         `json:"openIssues"`
	ResolvedIssues      int64         `json:"resolvedIssues"`
	AvgResolutionTimeMs int64         `json:"avgResolutionTimeMs"`
	MostCommonCategory  string        `json:"mostCommonCategory"`
	TrendingIssue       *trendingView `json:"trendingIssue"`
}

// ServeSummary handles GET /api/analytics. Officials only.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageIssues(r) {
		h.ErrLog.Write(w, r, "analytics", apperr.New(apperr.KindAuthorization, msgOfficialsOnly))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "analytics summary")
	defer cancel()

	sum, err := metricsstore.FetchIssueSummary(ctx, h.DB)
	if err != nil {
		h.ErrLog.Write(w, r, "analytics: summary", err)
		return
	}

	resp := summaryResponse{
		TotalIssues:         sum.Total,
		OpenIssues:          sum.Open,
		ResolvedIssues:      sum.Resolved,
		AvgResolutionTimeMs: issuestats.Millis(issuestats.AverageResolution(sum.Resolutions)),
		MostCommonCategory:  issuestats.MostCommon(sum.Categories),
	}

	if t := sum.Trending; t != nil {
		resp.TrendingIssue = &trendingView{
			ID:          t.ID.Hex(),
			Title:       t.Title,
			UpvoteCount: t.UpvoteCount,
		}
		names, err := h.Users.NamesByIDs(ctx, []primitive.ObjectID{t.CreatedBy})
		if err != nil {
			h.Log.Warn("trending issue reporter lookup failed", zap.Error(err))
		}
		resp.TrendingIssue.CreatedBy = names[t.CreatedBy]
	}

	httpjson.OK(w, resp)
}
