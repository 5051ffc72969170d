// internal/domain/models/issue.go
package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Issue severities.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// Issue statuses in their conventional order. Any status may follow any
// other; the order is only used for display and for the open/resolved sets.
const (
	StatusSubmitted    = "Submitted"
	StatusAcknowledged = "Acknowledged"
	StatusAssigned     = "Assigned"
	StatusInProgress   = "In Progress"
	StatusResolved     = "Resolved"
	StatusVerified     = "Verified"
)

// Severities lists the valid severities.
var Severities = []string{SeverityLow, SeverityMedium, SeverityHigh}

// Statuses lists the valid statuses in order.
var Statuses = []string{
	StatusSubmitted,
	StatusAcknowledged,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusVerified,
}

// OpenStatuses are the statuses counted as "open" by analytics.
var OpenStatuses = []string{
	StatusSubmitted,
	StatusAcknowledged,
	StatusAssigned,
	StatusInProgress,
}

// ResolvedStatuses are the statuses that stamp ResolvedAt.
var ResolvedStatuses = []string{StatusResolved, StatusVerified}

// IsValidSeverity reports whether s is a known severity (case-sensitive).
func IsValidSeverity(s string) bool {
	return slices.Contains(Severities, s)
}

// IsValidStatus reports whether s is a known status (case-sensitive).
func IsValidStatus(s string) bool {
	return slices.Contains(Statuses, s)
}

// IsResolvedStatus reports whether s is Resolved or Verified.
func IsResolvedStatus(s string) bool {
	return slices.Contains(ResolvedStatuses, s)
}

// Location is an optional lat/lng pair.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// StatusEntry is one append-only record in an issue's status history.
type StatusEntry struct {
	Status    string             `bson:"status" json:"status"`
	UpdatedBy primitive.ObjectID `bson:"updated_by" json:"updatedBy"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Issue is a civic problem reported by a resident.
//
// NOTE:
//   - Upvotes holds each voter at most once; UpvoteCount mirrors its length
//     and is kept in step by the same update that adds a voter.
//   - StatusHistory always begins with the Submitted entry written at creation.
//   - ResolvedAt is stamped the first time the status becomes Resolved or Verified.
type Issue struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Title           string               `bson:"title"`
	Description     string               `bson:"description"`
	Category        string               `bson:"category"`
	CategoryCI      string               `bson:"category_ci"` // lowercase, diacritics-stripped
	Severity        string               `bson:"severity"`
	Status          string               `bson:"status"`
	Location        *Location            `bson:"location,omitempty"`
	Image           string               `bson:"image,omitempty"`            // data URL
	ResolutionImage string               `bson:"resolution_image,omitempty"` // data URL
	CreatedBy       primitive.ObjectID   `bson:"created_by"`
	StatusHistory   []StatusEntry        `bson:"status_history"`
	Upvotes         []primitive.ObjectID `bson:"upvotes"`
	UpvoteCount     int                  `bson:"upvote_count"`
	ResolvedAt      *time.Time           `bson:"resolved_at,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
