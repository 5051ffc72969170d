// Package analytics holds the pure computations behind the officials'
// summary. The store gathers raw rows; these functions reduce them.
package analytics

import (
	"math"
	"time"
)

// NoCategory is reported as the most common category when there are no issues.
const NoCategory = "N/A"

// Resolution is one issue's creation and resolution time.
type Resolution struct {
	CreatedAt  time.Time
	ResolvedAt time.Time
}

// AverageResolution is the mean of ResolvedAt-CreatedAt over samples, or 0
// when there are none.
func AverageResolution(samples []Resolution) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += float64(s.ResolvedAt.Sub(s.CreatedAt))
	}
	return time.Duration(math.Round(total / float64(len(samples))))
}

// Millis rounds d to the nearest whole millisecond.
func Millis(d time.Duration) int64 {
	return int64(math.Round(float64(d) / float64(time.Millisecond)))
}

// CategoryCount is a category and how many issues carry it.
type CategoryCount struct {
	Category string
	Count    int64
}

// MostCommon picks the category with the highest count. Ties go to the
// category that sorts first. Empty input yields NoCategory.
func MostCommon(counts []CategoryCount) string {
	best := -1
	for i, c := range counts {
		if c.Count <= 0 {
			continue
		}
		if best < 0 || c.Count > counts[best].Count ||
			(c.Count == counts[best].Count && c.Category < counts[best].Category) {
			best = i
		}
	}
	if best < 0 {
		return NoCategory
	}
	return counts[best].Category
}
