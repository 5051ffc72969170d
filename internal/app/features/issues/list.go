// internal/app/features/issues/list.go
package issues

import (
	"context"
	"net/http"

	issuestore "github.com/dalemusser/civicbridge/internal/app/store/issues"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/timeouts"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /api/issues.
//
// Query: category, severity, status (exact match each) and
// sort=newest|oldest|upvotes. Replies with a JSON array.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list issues")
	defer cancel()

	filter := issuestore.Filter{
		Category: query.Get(r, "category"),
		Severity: query.Get(r, "severity"),
		Status:   query.Get(r, "status"),
	}
	rows, err := h.Issues.List(ctx, filter, issuestore.ParseSort(query.Get(r, "sort")))
	if err != nil {
		h.ErrLog.Write(w, r, "issues: list", err)
		return
	}

	names, err := h.creatorNames(ctx, rows...)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: creator names", err)
		return
	}

	out := make([]issueView, 0, len(rows))
	for _, iss := range rows {
		out = append(out, toView(iss, names))
	}
	httpjson.OK(w, out)
}

// ServeCategories handles GET /api/issues/categories and replies with the
// distinct categories, sorted.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issue categories")
	defer cancel()

	cats, err := h.Issues.Categories(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, "issues: categories", err)
		return
	}
	httpjson.OK(w, cats)
}

// creatorNames resolves the reporters of issues in one query.
func (h *Handler) creatorNames(ctx context.Context, issues ...models.Issue) (map[primitive.ObjectID]string, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(issues))
	ids := make([]primitive.ObjectID, 0, len(issues))
	for _, iss := range issues {
		if _, ok := seen[iss.CreatedBy]; ok {
			continue
		}
		seen[iss.CreatedBy] = struct{}{}
		ids = append(ids, iss.CreatedBy)
	}
	return h.Users.NamesByIDs(ctx, ids)
}
