// Package mentorshippolicy holds the mentorship lifecycle rules.
//
// Authorization rules:
//   - Only the mentor may accept a pending request (pending → active)
//   - Either party may withdraw a pending request (pending → cancelled)
//   - Only the mentor may cancel an active mentorship (active → cancelled)
//   - Either party may complete an active mentorship (active → completed)
//   - Completed and cancelled are terminal; nothing leaves them
//
// Engagement (meetings, feedback) is open to both parties in every state.
package mentorshippolicy

import (
	"errors"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the caller's position relative to one mentorship.
type Role int

const (
	RoleNone Role = iota
	RoleMentor
	RoleMentee
)

func (r Role) String() string {
	switch r {
	case RoleMentor:
		return "mentor"
	case RoleMentee:
		return "mentee"
	default:
		return "none"
	}
}

// IsParty reports whether the role belongs to one of the two participants.
func (r Role) IsParty() bool {
	return r == RoleMentor || r == RoleMentee
}

// ResolveRole maps a caller onto the record. Mentor wins when both ids match.
func ResolveRole(m *models.Mentorship, callerID primitive.ObjectID) Role {
	if m == nil || callerID.IsZero() {
		return RoleNone
	}
	switch callerID {
	case m.MentorID:
		return RoleMentor
	case m.MenteeID:
		return RoleMentee
	default:
		return RoleNone
	}
}

var (
	// ErrInvalidTransition means the edge does not exist in the lifecycle.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrRoleNotAllowed means the edge exists but the caller's role may not take it.
	ErrRoleNotAllowed = errors.New("role not allowed to make this transition")
)

type edge struct {
	from, to models.MentorshipStatus
}

// edges lists every legal transition and the roles allowed to take it.
var edges = map[edge][]Role{
	{models.StatusPending, models.StatusActive}:    {RoleMentor},
	{models.StatusPending, models.StatusCancelled}: {RoleMentor, RoleMentee},
	{models.StatusActive, models.StatusCancelled}:  {RoleMentor},
	{models.StatusActive, models.StatusCompleted}:  {RoleMentor, RoleMentee},
}

// Authorize checks a requested transition. The edge is checked before the
// role, so an impossible move reports ErrInvalidTransition for everyone.
func Authorize(from, to models.MentorshipStatus, role Role) error {
	allowed, ok := edges[edge{from, to}]
	if !ok {
		return ErrInvalidTransition
	}
	for _, r := range allowed {
		if r == role {
			return nil
		}
	}
	return ErrRoleNotAllowed
}

// EntersActive reports whether the transition consumes an active slot.
func EntersActive(from, to models.MentorshipStatus) bool {
	return from != models.StatusActive && to == models.StatusActive
}

// LeavesActive reports whether the transition frees an active slot.
func LeavesActive(from, to models.MentorshipStatus) bool {
	return from == models.StatusActive && to != models.StatusActive
}
