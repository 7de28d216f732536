// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	mentorshipsvc "github.com/dalemusser/mentorhub/internal/app/services/mentorship"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs after DB connections and schema setup are complete, but before
// the HTTP handler is built. It applies the timeout tiers and rebuilds the
// mentor slot documents from the mentorship records so capacity checks start
// from a consistent state.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(appCfg.timeoutConfig())

	svc := newMentorshipService(deps.MentorHubMongoDatabase, appCfg, logger)
	auditLog := newAuditLogger(deps.MentorHubMongoDatabase, appCfg, logger)
	return reconcileSlots(ctx, svc, auditLog, logger)
}

func newMentorshipService(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) *mentorshipsvc.Service {
	svc := mentorshipsvc.New(db, userstore.NewDirectory(db, appCfg.DefaultMaxMentees), logger)
	if appCfg.RetryMaxTries > 0 {
		retry := mentorshipsvc.DefaultRetry
		retry.MaxTries = uint(appCfg.RetryMaxTries)
		svc.SetRetry(retry)
	}
	return svc
}

func newAuditLogger(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(db), logger, appCfg.auditConfig())
}

func reconcileSlots(ctx context.Context, svc *mentorshipsvc.Service, auditLog *auditlog.Logger, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	start := time.Now()
	res, err := svc.ReconcileSlots(ctx)
	if err != nil {
		logger.Error("startup slot reconcile failed", zap.Error(err))
		return err
	}
	logger.Info("startup slot reconcile complete",
		zap.Int("mentors", res.Mentors),
		zap.Int("changed", res.Changed),
		zap.Duration("took", time.Since(start)))
	auditLog.SlotsReconciled(ctx, "startup", res.Mentors, res.Changed)
	return nil
}
