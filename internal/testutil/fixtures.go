package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a directory user. maxMentees of 0 leaves the field unset.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, isMentor bool, maxMentees int, status string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		Email:      email,
		Status:     status,
		IsMentor:   isMentor,
		MaxMentees: maxMentees,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateMentor creates an active mentor with the given capacity.
func (f *Fixtures) CreateMentor(ctx context.Context, fullName string, maxMentees int) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, emailFor(fullName), true, maxMentees, "active")
}

// CreateMentee creates an active non-mentor user.
func (f *Fixtures) CreateMentee(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, emailFor(fullName), false, 0, "active")
}

// CreateDisabledMentor creates a mentor whose account is disabled.
func (f *Fixtures) CreateDisabledMentor(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, emailFor(fullName), true, 3, "disabled")
}

// SetMaxMentees changes a mentor's capacity in the directory.
func (f *Fixtures) SetMaxMentees(ctx context.Context, userID primitive.ObjectID, maxMentees int) {
	f.t.Helper()
	_, err := f.db.Collection("users").UpdateByID(ctx, userID,
		bson.M{"$set": bson.M{"max_mentees": maxMentees}})
	if err != nil {
		f.t.Fatalf("failed to update max_mentees: %v", err)
	}
}

// CreateMentorship inserts a mentorship record directly, bypassing admission.
// Open records get open_key set; terminal ones do not. Slot documents are not
// touched.
func (f *Fixtures) CreateMentorship(ctx context.Context, mentorID, menteeID primitive.ObjectID, status models.MentorshipStatus) models.Mentorship {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	m := models.Mentorship{
		ID:               primitive.NewObjectID(),
		MentorID:         mentorID,
		MenteeID:         menteeID,
		Status:           status,
		MentorshipArea:   "Software Engineering",
		MentorshipAreaCI: text.Fold("Software Engineering"),
		Description:      "Career guidance",
		Goals:            []string{},
		Duration:         models.DefaultDurationMonths,
		StartDate:        now,
		EndDate:          models.EndDate(now, models.DefaultDurationMonths),
		Meetings:         []models.Meeting{},
		IsActive:         status.IsOpen(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status.IsOpen() {
		m.OpenKey = models.OpenKey(mentorID, menteeID)
	}

	if _, err := f.db.Collection("mentorships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test mentorship: %v", err)
	}
	return m
}

func emailFor(fullName string) string {
	return strings.ReplaceAll(text.Fold(fullName), " ", ".") + "-" + primitive.NewObjectID().Hex()[18:] + "@test.com"
}
