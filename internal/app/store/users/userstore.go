package userstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no user has the requested id.
var ErrNotFound = errors.New("user not found")

// Store reads the shared users collection. It never writes.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Eligibility is what admission needs to know about a prospective mentor.
type Eligibility struct {
	IsMentor   bool
	IsActive   bool
	MaxMentees int
}

// Directory answers mentor eligibility questions from the users collection.
type Directory struct {
	store      *Store
	defaultMax int
}

// NewDirectory returns a Directory that reports defaultMax for mentors
// without a positive max_mentees. Non-positive defaultMax falls back to
// models.DefaultMaxMentees.
func NewDirectory(db *mongo.Database, defaultMax int) *Directory {
	if defaultMax <= 0 {
		defaultMax = models.DefaultMaxMentees
	}
	return &Directory{store: New(db), defaultMax: defaultMax}
}

// MentorEligibility returns the current flags for userID, or ErrNotFound.
func (d *Directory) MentorEligibility(ctx context.Context, userID primitive.ObjectID) (Eligibility, error) {
	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":         1,
		"status":      1,
		"is_mentor":   1,
		"max_mentees": 1,
	})
	if err := d.store.c.FindOne(ctx, bson.M{"_id": userID}, proj).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Eligibility{}, ErrNotFound
		}
		return Eligibility{}, err
	}

	limit := u.MaxMentees
	if limit <= 0 {
		limit = d.defaultMax
	}
	return Eligibility{
		IsMentor:   u.IsMentor,
		IsActive:   isActive(u.Status),
		MaxMentees: limit,
	}, nil
}

func isActive(status string) bool {
	return !strings.EqualFold(strings.TrimSpace(status), models.UserStatusDisabled)
}
