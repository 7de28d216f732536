// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/mentorhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections mentorhub writes (if missing) and tries
// to attach JSON-Schema validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Collections written inside transactions must exist beforehand.
	ensure("mentorships", mentorshipsSchema())
	ensure("mentor_slots", mentorSlotsSchema())

	// Append-only; no validator.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func statusEnum() bson.A {
	return bson.A{
		string(models.StatusPending),
		string(models.StatusActive),
		string(models.StatusCompleted),
		string(models.StatusCancelled),
	}
}

func feedbackSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"rating", "submitted_at"},
		"properties": bson.M{
			"rating":       bson.M{"bsonType": bson.A{"int", "long"}, "minimum": models.MinRating, "maximum": models.MaxRating},
			"comment":      bson.M{"bsonType": "string", "maxLength": models.MaxCommentLen},
			"submitted_at": bson.M{"bsonType": "date"},
		},
	}
}

func mentorshipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"mentor_id", "mentee_id", "status", "mentorship_area", "duration", "is_active", "created_at"},
			"properties": bson.M{
				"mentor_id":       bson.M{"bsonType": "objectId"},
				"mentee_id":       bson.M{"bsonType": "objectId"},
				"status":          bson.M{"enum": statusEnum()},
				"mentorship_area": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"description":     bson.M{"bsonType": "string", "maxLength": models.MaxDescriptionLen},
				"goals":           bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"duration": bson.M{
					"bsonType": bson.A{"int", "long"},
					"minimum":  models.MinDurationMonths,
					"maximum":  models.MaxDurationMonths,
				},
				"is_active": bson.M{"bsonType": "bool"},
				"open_key":  bson.M{"bsonType": "string"},
				"meetings": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"id", "date", "duration_minutes"},
						"properties": bson.M{
							"id":               bson.M{"bsonType": "string", "minLength": 1},
							"date":             bson.M{"bsonType": "date"},
							"duration_minutes": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
							"notes":            bson.M{"bsonType": "string", "maxLength": models.MaxNotesLen},
						},
					},
				},
				"feedback": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"mentor_feedback": feedbackSchema(),
						"mentee_feedback": feedbackSchema(),
					},
				},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func mentorSlotsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"active", "version"},
			"properties": bson.M{
				"active":  bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"version": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}
