package indexes_test

import (
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/system/indexes"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, coll *mongo.Collection) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		out[idx["name"].(string)] = idx
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesMentorshipIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)

	names := indexNames(t, db.Collection("mentorships"))

	for _, want := range []string{
		indexes.MentorshipOpenPair,
		"idx_mentorships_mentor_status",
		"idx_mentorships_mentee_status",
		"idx_mentorships_status",
		"idx_mentorships_start_date",
		"idx_mentorships_mentor_created",
		"idx_mentorships_mentee_created",
	} {
		if _, ok := names[want]; !ok {
			t.Errorf("missing index %q", want)
		}
	}

	open := names[indexes.MentorshipOpenPair]
	if open["unique"] != true {
		t.Errorf("%s should be unique, got %v", indexes.MentorshipOpenPair, open["unique"])
	}
	if open["partialFilterExpression"] == nil {
		t.Errorf("%s should be partial", indexes.MentorshipOpenPair)
	}
}

func TestEnsureAll_ReplacesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("mentorships")
	if _, err := coll.Indexes().DropOne(ctx, "idx_mentorships_status"); err != nil {
		t.Fatalf("DropOne failed: %v", err)
	}
	// Same keys, different name.
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}); err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, coll)
	if _, ok := names["idx_mentorships_status"]; !ok {
		t.Error("expected index to be renamed to idx_mentorships_status")
	}
	if _, ok := names["status_1"]; ok {
		t.Error("expected auto-named index to be dropped")
	}
}
