// internal/app/features/issues/types.go
package issues

import (
	"time"

	"github.com/dalemusser/civicbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgResidentsOnly = "Only residents can submit issues"
	msgOfficialsOnly = "Only officials can update issue status"
	msgCreateMissing = "Title, description, category and severity are required"
	msgHalfLocation  = "Latitude and longitude must be given together"
	msgTrailOfficial = "Only officials can view the audit trail"
)

type creatorView struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type historyView struct {
	Status    string    `json:"status"`
	UpdatedBy string    `json:"updatedBy"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// issueView is the list representation: the voter list is replaced by
// upvoteCount.
type issueView struct {
	ID              string           `json:"_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	Severity        string           `json:"severity"`
	Status          string           `json:"status"`
	Location        *models.Location `json:"location"`
	Image           string           `json:"image,omitempty"`
	ResolutionImage string           `json:"resolutionImage,omitempty"`
	CreatedBy       *creatorView     `json:"createdBy"`
	StatusHistory   []historyView    `json:"statusHistory"`
	UpvoteCount     int              `json:"upvoteCount"`
	ResolvedAt      *time.Time       `json:"resolvedAt"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// detailView adds the voter ids so a client can tell whether the caller
// already voted.
type detailView struct {
	issueView
	Upvotes []string `json:"upvotes"`
}

type createdView struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type createResponse struct {
	Success bool        `json:"success"`
	Issue   createdView `json:"issue"`
}

type updateResponse struct {
	Success bool       `json:"success"`
	Issue   detailView `json:"issue"`
}

type upvoteResponse struct {
	Success     bool `json:"success"`
	UpvoteCount int  `json:"upvoteCount"`
}

// toView builds the list view. names maps creator ids to display names; a
// creator missing from it is rendered as null.
func toView(iss models.Issue, names map[primitive.ObjectID]string) issueView {
	v := issueView{
		ID:              iss.ID.Hex(),
		Title:           iss.Title,
		Description:     iss.Description,
		Category:        iss.Category,
		Severity:        iss.Severity,
		Status:          iss.Status,
		Location:        iss.Location,
		Image:           iss.Image,
		ResolutionImage: iss.ResolutionImage,
		StatusHistory:   make([]historyView, 0, len(iss.StatusHistory)),
		UpvoteCount:     iss.UpvoteCount,
		ResolvedAt:      iss.ResolvedAt,
		CreatedAt:       iss.CreatedAt,
		UpdatedAt:       iss.UpdatedAt,
	}
	if name, ok := names[iss.CreatedBy]; ok {
		v.CreatedBy = &creatorView{ID: iss.CreatedBy.Hex(), Name: name}
	}
	for _, e := range iss.StatusHistory {
		v.StatusHistory = append(v.StatusHistory, historyView{
			Status:    e.Status,
			UpdatedBy: e.UpdatedBy.Hex(),
			Note:      e.Note,
			Timestamp: e.Timestamp,
		})
	}
	return v
}

func toDetail(iss models.Issue, names map[primitive.ObjectID]string) detailView {
	d := detailView{issueView: toView(iss, names), Upvotes: make([]string, 0, len(iss.Upvotes))}
	for _, id := range iss.Upvotes {
		d.Upvotes = append(d.Upvotes, id.Hex())
	}
	return d
}
