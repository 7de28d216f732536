package mentorshippolicy_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/policy/mentorshippolicy"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolveRole(t *testing.T) {
	mentor := primitive.NewObjectID()
	mentee := primitive.NewObjectID()
	m := &models.Mentorship{MentorID: mentor, MenteeID: mentee}

	tests := []struct {
		name   string
		m      *models.Mentorship
		caller primitive.ObjectID
		want   mentorshippolicy.Role
	}{
		{"mentor", m, mentor, mentorshippolicy.RoleMentor},
		{"mentee", m, mentee, mentorshippolicy.RoleMentee},
		{"stranger", m, primitive.NewObjectID(), mentorshippolicy.RoleNone},
		{"zero caller", m, primitive.NilObjectID, mentorshippolicy.RoleNone},
		{"nil record", nil, mentor, mentorshippolicy.RoleNone},
		{"same person on both sides", &models.Mentorship{MentorID: mentor, MenteeID: mentor}, mentor, mentorshippolicy.RoleMentor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mentorshippolicy.ResolveRole(tt.m, tt.caller); got != tt.want {
				t.Errorf("ResolveRole = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	const (
		pending   = models.StatusPending
		active    = models.StatusActive
		completed = models.StatusCompleted
		cancelled = models.StatusCancelled
	)
	mentor := mentorshippolicy.RoleMentor
	mentee := mentorshippolicy.RoleMentee
	none := mentorshippolicy.RoleNone

	tests := []struct {
		from, to models.MentorshipStatus
		role     mentorshippolicy.Role
		want     error
	}{
		{pending, active, mentor, nil},
		{pending, active, mentee, mentorshippolicy.ErrRoleNotAllowed},
		{pending, cancelled, mentor, nil},
		{pending, cancelled, mentee, nil},
		{active, cancelled, mentor, nil},
		{active, cancelled, mentee, mentorshippolicy.ErrRoleNotAllowed},
		{active, completed, mentor, nil},
		{active, completed, mentee, nil},
		{active, completed, none, mentorshippolicy.ErrRoleNotAllowed},

		{pending, completed, mentor, mentorshippolicy.ErrInvalidTransition},
		{pending, pending, mentor, mentorshippolicy.ErrInvalidTransition},
		{active, active, mentor, mentorshippolicy.ErrInvalidTransition},
		{completed, active, mentor, mentorshippolicy.ErrInvalidTransition},
		{completed, cancelled, mentee, mentorshippolicy.ErrInvalidTransition},
		{cancelled, active, mentor, mentorshippolicy.ErrInvalidTransition},
		{cancelled, pending, mentee, mentorshippolicy.ErrInvalidTransition},
		{active, pending, mentor, mentorshippolicy.ErrInvalidTransition},
	}

	for _, tt := range tests {
		name := string(tt.from) + "->" + string(tt.to) + "/" + tt.role.String()
		t.Run(name, func(t *testing.T) {
			err := mentorshippolicy.Authorize(tt.from, tt.to, tt.role)
			if !errors.Is(err, tt.want) {
				t.Errorf("Authorize = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	all := []models.MentorshipStatus{models.StatusPending, models.StatusActive, models.StatusCompleted, models.StatusCancelled}
	roles := []mentorshippolicy.Role{mentorshippolicy.RoleMentor, mentorshippolicy.RoleMentee}

	for _, from := range []models.MentorshipStatus{models.StatusCompleted, models.StatusCancelled} {
		for _, to := range all {
			for _, role := range roles {
				if err := mentorshippolicy.Authorize(from, to, role); !errors.Is(err, mentorshippolicy.ErrInvalidTransition) {
					t.Errorf("%s -> %s as %s: got %v, want ErrInvalidTransition", from, to, role, err)
				}
			}
		}
	}
}

func TestSlotEffects(t *testing.T) {
	if !mentorshippolicy.EntersActive(models.StatusPending, models.StatusActive) {
		t.Error("pending -> active should enter active")
	}
	if mentorshippolicy.EntersActive(models.StatusPending, models.StatusCancelled) {
		t.Error("pending -> cancelled should not enter active")
	}
	if !mentorshippolicy.LeavesActive(models.StatusActive, models.StatusCompleted) {
		t.Error("active -> completed should leave active")
	}
	if !mentorshippolicy.LeavesActive(models.StatusActive, models.StatusCancelled) {
		t.Error("active -> cancelled should leave active")
	}
	if mentorshippolicy.LeavesActive(models.StatusPending, models.StatusCancelled) {
		t.Error("pending -> cancelled should not leave active")
	}
}
