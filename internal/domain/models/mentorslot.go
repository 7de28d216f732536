package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MentorSlot records which mentorships occupy a mentor's active slots.
// _id is the mentor's user ID. Version is bumped by every admission decision
// so concurrent transactions for the same mentor conflict with each other.
type MentorSlot struct {
	MentorID  primitive.ObjectID   `bson:"_id" json:"mentor_id"`
	Active    []primitive.ObjectID `bson:"active" json:"active"`
	Version   int64                `bson:"version" json:"version"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}
