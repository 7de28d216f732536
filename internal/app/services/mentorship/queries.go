package mentorshipsvc

import (
	"context"
	"errors"

	"github.com/dalemusser/mentorhub/internal/app/policy/mentorshippolicy"
	mentorshipstore "github.com/dalemusser/mentorhub/internal/app/store/mentorships"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Get returns a mentorship the caller takes part in.
func (s *Service) Get(ctx context.Context, id, callerID primitive.ObjectID) (models.Mentorship, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "get mentorship")
	defer cancel()

	m, _, err := s.loadForParty(ctx, id, callerID)
	return m, err
}

// ListFilter narrows ListForUser. Role is "", "mentor" or "mentee".
type ListFilter struct {
	Role   string
	Status string
	Area   string
}

// ListForUser returns the caller's mentorships, newest first.
func (s *Service) ListForUser(ctx context.Context, callerID primitive.ObjectID, f ListFilter) ([]models.Mentorship, error) {
	q := mentorshipstore.ListQuery{UserID: callerID, Area: f.Area}

	switch f.Role {
	case "":
		q.Party = mentorshipstore.Either
	case mentorshippolicy.RoleMentor.String():
		q.Party = mentorshipstore.AsMentor
	case mentorshippolicy.RoleMentee.String():
		q.Party = mentorshipstore.AsMentee
	default:
		return nil, invalid("role must be mentor or mentee")
	}
	if f.Status != "" {
		st := models.MentorshipStatus(f.Status)
		if !st.Valid() {
			return nil, invalid("unknown status %q", f.Status)
		}
		q.Status = st
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "list mentorships")
	defer cancel()

	out, err := s.records.List(ctx, q)
	if err != nil {
		return nil, classify(err, "list mentorships")
	}
	return out, nil
}

// MentorStats summarizes the caller's mentorships as a mentor.
type MentorStats struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	AvailableSlots int `json:"available_slots"`
}

// MenteeStats summarizes the caller's mentorships as a mentee.
type MenteeStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// Stats holds both sections; Mentor is nil for callers who are not mentors.
type Stats struct {
	Mentor *MentorStats `json:"mentor,omitempty"`
	Mentee MenteeStats  `json:"mentee"`
}

// Stats counts the caller's mentorships by side and status.
func (s *Service) Stats(ctx context.Context, callerID primitive.ObjectID) (Stats, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "mentorship stats")
	defer cancel()

	var out Stats

	elig, err := s.dir.MentorEligibility(ctx, callerID)
	if err != nil && !errors.Is(err, userstore.ErrNotFound) {
		return Stats{}, classify(err, "load user")
	}
	if err == nil && elig.IsMentor {
		counts, err := s.records.CountByStatus(ctx, callerID, mentorshipstore.AsMentor)
		if err != nil {
			return Stats{}, classify(err, "count mentorships")
		}
		ms := &MentorStats{
			Total:     sum(counts),
			Active:    counts[models.StatusActive],
			Completed: counts[models.StatusCompleted],
			Pending:   counts[models.StatusPending],
		}
		ms.AvailableSlots = max(elig.MaxMentees-ms.Active, 0)
		out.Mentor = ms
	}

	counts, err := s.records.CountByStatus(ctx, callerID, mentorshipstore.AsMentee)
	if err != nil {
		return Stats{}, classify(err, "count mentorships")
	}
	out.Mentee = MenteeStats{
		Total:     sum(counts),
		Active:    counts[models.StatusActive],
		Completed: counts[models.StatusCompleted],
	}
	return out, nil
}

func sum(counts map[models.MentorshipStatus]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
