// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct carries what is specific to mentorhub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in the driver pool
	MongoMinPoolSize uint64 // Connections kept warm in the driver pool

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: mentorhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Mentorship rules
	DefaultMaxMentees int // Capacity for mentors whose profile sets none
	RetryMaxTries     int // Attempts for a unit of work that hits a write conflict
	WriteRateLimit    int // Mentorship writes per caller per minute; 0 disables

	// Audit logging: "all", "db", "log" or "off"
	AuditLogMentorship string
	AuditLogSystem     string

	// Timeout tiers; zero keeps the built-in default
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
