// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	healthfeature "github.com/dalemusser/mentorhub/internal/app/features/health"
	mentorshipfeature "github.com/dalemusser/mentorhub/internal/app/features/mentorship"
	userinfofeature "github.com/dalemusser/mentorhub/internal/app/features/userinfo"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. The session middleware runs on every
// request so handlers can read the caller with auth.CurrentUser(r); the
// mentorship API additionally requires a signed-in user.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Re-read the user on each request so disabled accounts and mentor
	// flag changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(userstore.New(deps.MentorHubMongoDatabase)))

	return newRouter(sessionMgr, appCfg, deps, logger), nil
}

func newRouter(sessionMgr *auth.SessionManager, appCfg AppConfig, deps DBDeps, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MentorHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	mentorshipHandler := mentorshipfeature.NewHandler(
		newMentorshipService(deps.MentorHubMongoDatabase, appCfg, logger),
		newAuditLogger(deps.MentorHubMongoDatabase, appCfg, logger),
		logger,
	)
	var limiter *ratelimit.Limiter
	if appCfg.WriteRateLimit > 0 {
		limiter = ratelimit.New(appCfg.WriteRateLimit, time.Minute)
	}
	r.Mount("/api/mentorships", mentorshipfeature.Routes(mentorshipHandler, limiter))

	return r
}
