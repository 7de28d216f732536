// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Index names referenced by stores and tests.
const (
	MentorshipOpenPair = "uniq_mentorships_open_key"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.

The users collection belongs to the directory service and is left alone.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureMentorships(ctx, db); err != nil {
		problems = append(problems, "mentorships: "+err.Error())
	}
	if err := ensureMentorSlots(ctx, db); err != nil {
		problems = append(problems, "mentor_slots: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconciling a desired index set against what the collection already has   */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listBySig(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureOne makes the collection carry index m, reusing a same-key index when
// the options agree and dropping/recreating it when name or uniqueness differ.
func ensureOne(ctx context.Context, coll *mongo.Collection, existing map[string]existingIndex, m mongo.IndexModel) error {
	var name string
	var unique *bool
	if m.Options != nil {
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		unique = m.Options.Unique
	}
	sig := keySig(m.Keys.(bson.D))
	start := time.Now()
	fields := []zap.Field{
		zap.String("collection", coll.Name()),
		zap.String("name", name),
		zap.String("keys", sig),
		zap.Bool("unique", isUnique(unique)),
	}

	if ex, ok := existing[sig]; ok {
		if isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name) {
			zap.L().Info("reusing existing index", append(fields, zap.Duration("took", time.Since(start)))...)
			return nil
		}
		zap.L().Info("replacing index with mismatched options",
			append(fields, zap.String("existing_name", ex.Name))...)
		if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
			return fmt.Errorf("%s: drop %s: %w", name, ex.Name, err)
		}
	}

	created, err := coll.Indexes().CreateOne(ctx, m)
	if err != nil {
		zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
		if isDuplicateKeyErr(err) && isUnique(unique) {
			return fmt.Errorf("%s: cannot create unique index (duplicates present)", name)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	zap.L().Info("index ensured", append(fields,
		zap.String("created_name", created),
		zap.Duration("took", time.Since(start)))...)
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listBySig(ctx, coll)
	if err != nil {
		// A missing collection lists as empty on modern servers; anything
		// else is worth surfacing but should not block creation attempts.
		zap.L().Warn("listing indexes failed", zap.String("collection", coll.Name()), zap.Error(err))
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		if err := ensureOne(ctx, coll, existing, m); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureMentorships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("mentorships"), []mongo.IndexModel{
		// 1) At most one pending/active record per (mentor, mentee).
		//    open_key only exists while the record is open.
		{
			Keys: bson.D{{Key: "open_key", Value: 1}},
			Options: options.Index().
				SetName(MentorshipOpenPair).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"open_key": bson.M{"$exists": true}}),
		},
		// 2) Capacity and stats counts per mentor
		{
			Keys:    bson.D{{Key: "mentor_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_mentorships_mentor_status"),
		},
		// 3) Mentee-side stats
		{
			Keys:    bson.D{{Key: "mentee_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_mentorships_mentee_status"),
		},
		// 4) Slot reconciliation scans all active records
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_mentorships_status"),
		},
		{
			Keys:    bson.D{{Key: "start_date", Value: 1}},
			Options: options.Index().SetName("idx_mentorships_start_date"),
		},
		// 5) "My mentorships" lists, newest first
		{
			Keys:    bson.D{{Key: "mentor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_mentorships_mentor_created"),
		},
		{
			Keys:    bson.D{{Key: "mentee_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_mentorships_mentee_created"),
		},
	})
}

func ensureMentorSlots(ctx context.Context, db *mongo.Database) error {
	// Keyed by _id (the mentor); the index keeps reconciliation sweeps cheap.
	return ensureIndexSet(ctx, db.Collection("mentor_slots"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_mentor_slots_updated"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "mentorship_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_mentorship_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_event_type_timestamp"),
		},
	})
}
