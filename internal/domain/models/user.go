// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the subset of the shared users collection this service reads.
//
// NOTE:
//   - Profiles are owned by the directory service; mentorhub never writes
//     users outside of test fixtures.
//   - MaxMentees of 0 means "use the configured default".
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	Email      string             `bson:"email" json:"email"`
	Status     string             `bson:"status,omitempty" json:"status,omitempty"` // active | disabled
	IsMentor   bool               `bson:"is_mentor" json:"is_mentor"`
	MaxMentees int                `bson:"max_mentees,omitempty" json:"max_mentees,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultMaxMentees applies when a mentor has no max_mentees of their own.
const DefaultMaxMentees = 3

// UserStatusDisabled marks an account that may not act or be admitted.
const UserStatusDisabled = "disabled"
