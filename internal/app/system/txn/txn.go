// Package txn runs a unit of work inside a MongoDB transaction.
//
// Standalone servers (local development, some test setups) cannot run
// multi-document transactions. When the server rejects a transaction, Run asks
// the deployment for its topology; only a standalone answer makes it fall back
// to calling units directly, and that decision is kept for the process.
// Replica sets and sharded clusters always get the error back.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
	"go.uber.org/zap"
)

// unsupported latches once a standalone deployment has been confirmed.
var unsupported atomic.Bool

// isStandalone is replaced in tests.
var isStandalone = helloStandalone

// Run executes fn in a transaction. fn must use the ctx it is handed so its
// operations join the session. fn may be invoked more than once when the
// driver retries a transient transaction error.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	if unsupported.Load() {
		return fn(ctx)
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		return fallback(ctx, db, log, err, fn)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		// Nothing was committed: the server rejected the first statement.
		return fallback(ctx, db, log, err, fn)
	}
	return err
}

// fallback runs fn without a transaction if cause says transactions are
// unavailable and the deployment is a standalone server. Otherwise it
// returns cause.
func fallback(ctx context.Context, db *mongo.Database, log *zap.Logger, cause error, fn func(ctx context.Context) error) error {
	if !IsNotSupported(cause) {
		return cause
	}
	alone, err := isStandalone(ctx, db)
	if err != nil {
		if log != nil {
			log.Warn("could not determine mongo topology after transaction was rejected",
				zap.Error(err), zap.NamedError("cause", cause))
		}
		return cause
	}
	if !alone {
		return cause
	}
	if unsupported.CompareAndSwap(false, true) && log != nil {
		log.Warn("mongo deployment is standalone; running units without a transaction",
			zap.Error(cause))
	}
	return fn(ctx)
}

// helloStandalone asks the server whether it is a replica set member or a
// mongos router.
func helloStandalone(ctx context.Context, db *mongo.Database) (bool, error) {
	var reply struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	err := db.Client().Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&reply)
	if err != nil {
		return false, err
	}
	return isStandaloneReply(reply.SetName, reply.Msg), nil
}

func isStandaloneReply(setName, msg string) bool {
	return setName == "" && msg != "isdbgrid"
}

// IsNotSupported reports whether err is the server or driver saying the
// deployment cannot run transactions or sessions at all. Errors about a
// single statement inside a transaction do not count.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	s := strings.ToLower(err.Error())
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 20 && strings.Contains(s, "replica set") {
		// IllegalOperation: "Transaction numbers are only allowed on a replica
		// set member or mongos"
		return true
	}

	return strings.Contains(s, "transaction numbers are only allowed") ||
		strings.Contains(s, "does not support sessions") ||
		strings.Contains(s, "sessions are not supported")
}

// IsTransient reports whether err carries a label the driver uses for
// retryable transaction failures.
func IsTransient(err error) bool {
	var labeled interface{ HasErrorLabel(string) bool }
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel(driver.TransientTransactionError) ||
			labeled.HasErrorLabel(driver.UnknownTransactionCommitResult)
	}
	return false
}
