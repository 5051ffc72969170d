// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON API.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxAuthBody bounds register and login bodies, which carry only a few
	// short strings.
	MaxAuthBody int64 = 64 << 10 // 64 KB

	// MaxIssueBody bounds issue create and status bodies. Photos travel
	// inline as data URLs, so this is the default for max_body_bytes.
	MaxIssueBody int64 = 12 << 20 // 12 MB
)
