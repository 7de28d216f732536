// internal/domain/models/mentorship.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MentorshipStatus is the lifecycle state of a Mentorship.
type MentorshipStatus string

const (
	StatusPending   MentorshipStatus = "pending"
	StatusActive    MentorshipStatus = "active"
	StatusCompleted MentorshipStatus = "completed"
	StatusCancelled MentorshipStatus = "cancelled"
)

// Field limits shared by validation and storage.
const (
	DefaultDurationMonths = 3
	MinDurationMonths     = 1
	MaxDurationMonths     = 12
	MaxDescriptionLen     = 1000
	MaxNotesLen           = 500
	MaxCommentLen         = 500
	MinRating             = 1
	MaxRating             = 5
)

// Valid reports whether s is one of the four known statuses.
func (s MentorshipStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted out of s.
func (s MentorshipStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsOpen reports whether s counts toward the one-open-record-per-pair rule.
func (s MentorshipStatus) IsOpen() bool {
	return s == StatusPending || s == StatusActive
}

// Mentorship is a proposed or ongoing mentor–mentee relationship.
//
// OpenKey is present only while Status is pending or active. A partial unique
// index on it keeps at most one open record per (mentor, mentee) pair.
type Mentorship struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MentorID primitive.ObjectID `bson:"mentor_id" json:"mentor_id"`
	MenteeID primitive.ObjectID `bson:"mentee_id" json:"mentee_id"`
	Status   MentorshipStatus   `bson:"status" json:"status"`

	MentorshipArea   string   `bson:"mentorship_area" json:"mentorship_area"`
	MentorshipAreaCI string   `bson:"mentorship_area_ci" json:"-"`
	Description      string   `bson:"description" json:"description"`
	Goals            []string `bson:"goals" json:"goals"`
	Duration         int      `bson:"duration" json:"duration"` // months

	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`

	Meetings []Meeting   `bson:"meetings" json:"meetings"`
	Feedback FeedbackSet `bson:"feedback" json:"feedback"`

	IsActive bool   `bson:"is_active" json:"is_active"`
	OpenKey  string `bson:"open_key,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Meeting is one logged mentor–mentee meeting. Entries are append-only.
type Meeting struct {
	ID              string             `bson:"id" json:"id"`
	Date            time.Time          `bson:"date" json:"date"`
	DurationMinutes int                `bson:"duration_minutes" json:"duration_minutes"`
	Notes           string             `bson:"notes" json:"notes"`
	LoggedAt        time.Time          `bson:"logged_at" json:"logged_at"`
	LoggedBy        primitive.ObjectID `bson:"logged_by" json:"logged_by"`
}

// Feedback is a single rating left by one side of a mentorship.
type Feedback struct {
	Rating      int       `bson:"rating" json:"rating"`
	Comment     string    `bson:"comment" json:"comment"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
}

// FeedbackSet holds the per-role feedback slots.
type FeedbackSet struct {
	MentorFeedback *Feedback `bson:"mentor_feedback,omitempty" json:"mentor_feedback,omitempty"`
	MenteeFeedback *Feedback `bson:"mentee_feedback,omitempty" json:"mentee_feedback,omitempty"`
}

// EndDate is the only place a mentorship end date is computed.
// Month overflow normalizes forward (Jan 31 + 1 month = Mar 2/3).
func EndDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, 0)
}

// OpenKey returns the value stored in open_key for a (mentor, mentee) pair.
func OpenKey(mentorID, menteeID primitive.ObjectID) string {
	return mentorID.Hex() + ":" + menteeID.Hex()
}
