package slotstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNoCapacity is returned by Claim when every slot is taken.
	ErrNoCapacity = errors.New("mentor has no free active slot")
	// ErrNotFound is returned when a mentor has no slot document yet.
	ErrNotFound = errors.New("mentor slot document not found")
	// ErrVersionChanged is returned by Replace when another writer got there first.
	ErrVersionChanged = errors.New("mentor slot document changed")
)

// Store keeps one document per mentor listing the mentorships that occupy
// an active slot. Every write bumps version, so concurrent transactions on the
// same mentor conflict.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("mentor_slots")}
}

// Ensure creates the mentor's empty slot document if it does not exist.
// It runs outside transactions so racing creators only ever insert once.
func (s *Store) Ensure(ctx context.Context, mentorID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": mentorID},
		bson.M{"$setOnInsert": bson.M{
			"active":     bson.A{},
			"version":    int64(0),
			"updated_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !wafflemongo.IsDup(err) {
		return err
	}
	return nil
}

// Get returns the current slot document.
func (s *Store) Get(ctx context.Context, mentorID primitive.ObjectID) (models.MentorSlot, error) {
	var slot models.MentorSlot
	if err := s.c.FindOne(ctx, bson.M{"_id": mentorID}).Decode(&slot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.MentorSlot{}, ErrNotFound
		}
		return models.MentorSlot{}, err
	}
	return slot, nil
}

// Touch bumps the version and returns the document as of that write. Inside a
// transaction this is the first write on the mentor, which orders competing
// transactions.
func (s *Store) Touch(ctx context.Context, mentorID primitive.ObjectID) (models.MentorSlot, error) {
	var slot models.MentorSlot
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": mentorID},
		bumped(bson.M{}),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.MentorSlot{}, ErrNotFound
	}
	if err != nil {
		return models.MentorSlot{}, err
	}
	return slot, nil
}

// Claim adds mentorshipID to the mentor's active set if it is already there
// or fewer than limit slots are taken. Otherwise it returns ErrNoCapacity.
func (s *Store) Claim(ctx context.Context, mentorID, mentorshipID primitive.ObjectID, limit int) error {
	filter := bson.M{
		"_id": mentorID,
		"$or": bson.A{
			bson.M{"active": mentorshipID},
			bson.M{"$expr": bson.M{"$lt": bson.A{bson.M{"$size": "$active"}, limit}}},
		},
	}
	res, err := s.c.UpdateOne(ctx, filter, bumped(bson.M{
		"$addToSet": bson.M{"active": mentorshipID},
	}))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoCapacity
	}
	return nil
}

// Release removes mentorshipID from the mentor's active set. Releasing an id
// that is not present is a no-op.
func (s *Store) Release(ctx context.Context, mentorID, mentorshipID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": mentorID},
		bumped(bson.M{"$pull": bson.M{"active": mentorshipID}}),
	)
	return err
}

// Occupied returns the ids of mentors whose slot document holds at least one
// mentorship.
func (s *Store) Occupied(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"active.0": bson.M{"$exists": true}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var slots []models.MentorSlot
	if err := cur.All(ctx, &slots); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.MentorID)
	}
	return ids, nil
}

// Replace overwrites the mentor's active set, but only while the document is
// still at version. Any claim or release since that version was read makes it
// return ErrVersionChanged and write nothing.
func (s *Store) Replace(ctx context.Context, mentorID primitive.ObjectID, version int64, ids []primitive.ObjectID) error {
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": mentorID, "version": version},
		bumped(bson.M{"$set": bson.M{"active": ids}}),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionChanged
	}
	return nil
}

// bumped adds the version increment and timestamp every write carries.
func bumped(update bson.M) bson.M {
	update["$inc"] = bson.M{"version": int64(1)}
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
	}
	set["updated_at"] = time.Now().UTC()
	update["$set"] = set
	return update
}
