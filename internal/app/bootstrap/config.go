// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for mentorhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MENTORHUB_MONGO_URI, MENTORHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mentorhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "mentorhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Mentorship rules
	{Name: "default_max_mentees", Default: 3, Desc: "Active mentee capacity for mentors without a configured limit"},
	{Name: "retry_max_tries", Default: 4, Desc: "Attempts for a mentorship write that hits a concurrent update"},
	{Name: "write_rate_limit", Default: 30, Desc: "Mentorship writes allowed per user per minute (0 disables)"},

	// Audit logging settings
	{Name: "audit_log_mentorship", Default: "all", Desc: "Mentorship event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_system", Default: "all", Desc: "System event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeout tiers
	{Name: "timeout_ping", Default: "2s", Desc: "Timeout for health pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for queries and single writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for transactional units and maintenance"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// MENTORHUB_* environment variables and flags, with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MENTORHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		DefaultMaxMentees: appValues.Int("default_max_mentees"),
		RetryMaxTries:     appValues.Int("retry_max_tries"),
		WriteRateLimit:    appValues.Int("write_rate_limit"),

		AuditLogMentorship: appValues.String("audit_log_mentorship"),
		AuditLogSystem:     appValues.String("audit_log_system"),

		TimeoutPing:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

var auditSettings = map[string]bool{"": true, "all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked here to catch configuration errors
// before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if appCfg.DefaultMaxMentees < 1 {
		return fmt.Errorf("default_max_mentees must be at least 1, got %d", appCfg.DefaultMaxMentees)
	}
	if appCfg.RetryMaxTries < 1 {
		return fmt.Errorf("retry_max_tries must be at least 1, got %d", appCfg.RetryMaxTries)
	}
	if appCfg.WriteRateLimit < 0 {
		return fmt.Errorf("write_rate_limit must not be negative, got %d", appCfg.WriteRateLimit)
	}
	if !auditSettings[appCfg.AuditLogMentorship] {
		return fmt.Errorf("audit_log_mentorship: unknown setting %q", appCfg.AuditLogMentorship)
	}
	if !auditSettings[appCfg.AuditLogSystem] {
		return fmt.Errorf("audit_log_system: unknown setting %q", appCfg.AuditLogSystem)
	}
	return nil
}

func (c AppConfig) auditConfig() auditlog.Config {
	return auditlog.Config{
		Mentorship: c.AuditLogMentorship,
		System:     c.AuditLogSystem,
	}
}

func (c AppConfig) timeoutConfig() timeouts.Config {
	return timeouts.Config{
		Ping:   c.TimeoutPing,
		Short:  c.TimeoutShort,
		Medium: c.TimeoutMedium,
		Long:   c.TimeoutLong,
	}
}
