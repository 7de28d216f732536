// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody caps mentorship API request bodies. The largest valid body
	// (a request with a full description and goals) is well under this.
	MaxJSONBody = 64 << 10 // 64 KB
)
