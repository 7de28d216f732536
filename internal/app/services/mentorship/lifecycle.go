package mentorshipsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/mentorhub/internal/app/policy/mentorshippolicy"
	mentorshipstore "github.com/dalemusser/mentorhub/internal/app/store/mentorships"
	slotstore "github.com/dalemusser/mentorhub/internal/app/store/mentorslots"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/txn"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Change is the outcome of a successful Transition.
type Change struct {
	Mentorship models.Mentorship
	// From is the status the record had when the transition was applied.
	From models.MentorshipStatus
	By   mentorshippolicy.Role
}

// Transition moves a mentorship to target on behalf of callerID.
// Conflicts with concurrent writers are retried from a fresh read, so the
// error returned reflects the record's settled state.
func (s *Service) Transition(ctx context.Context, id, callerID primitive.ObjectID, target models.MentorshipStatus) (Change, error) {
	if !target.Valid() {
		return Change{}, invalid("unknown status %q", target)
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "mentorship transition")
	defer cancel()

	return withRetry(ctx, s.retry, s.log, func() (Change, error) {
		return s.transition(ctx, id, callerID, target)
	})
}

func (s *Service) transition(ctx context.Context, id, callerID primitive.ObjectID, target models.MentorshipStatus) (Change, error) {
	m, role, err := s.loadForParty(ctx, id, callerID)
	if err != nil {
		return Change{}, err
	}

	switch err := mentorshippolicy.Authorize(m.Status, target, role); {
	case errors.Is(err, mentorshippolicy.ErrInvalidTransition):
		return Change{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, m.Status, target)
	case errors.Is(err, mentorshippolicy.ErrRoleNotAllowed):
		return Change{}, fmt.Errorf("%w: %s may not move %s to %s", ErrAccessDenied, role, m.Status, target)
	case err != nil:
		return Change{}, err
	}

	var out models.Mentorship
	switch {
	case mentorshippolicy.EntersActive(m.Status, target):
		out, err = s.activate(ctx, m)
	case mentorshippolicy.LeavesActive(m.Status, target):
		out, err = s.closeActive(ctx, m, target)
	default:
		out, err = s.records.Close(ctx, m.ID, m.Status, target)
	}
	if err != nil {
		return Change{}, classify(err, "change status")
	}

	s.log.Info("mentorship status changed",
		zap.String("mentorship_id", m.ID.Hex()),
		zap.String("from", string(m.Status)),
		zap.String("to", string(out.Status)),
		zap.String("by", role.String()))
	return Change{Mentorship: out, From: m.Status, By: role}, nil
}

// activate claims a slot under the mentor's current capacity and then moves
// the record from pending to active with fresh dates.
func (s *Service) activate(ctx context.Context, m models.Mentorship) (models.Mentorship, error) {
	maxMentees, err := s.eligibleMentor(ctx, m.MentorID)
	if err != nil {
		return models.Mentorship{}, err
	}
	if err := s.slots.Ensure(ctx, m.MentorID); err != nil {
		return models.Mentorship{}, err
	}

	months := m.Duration
	if months <= 0 {
		months = models.DefaultDurationMonths
	}
	start := s.timestamp()
	end := models.EndDate(start, months)

	var out models.Mentorship
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.slots.Touch(ctx, m.MentorID); err != nil {
			return err
		}
		if err := s.slots.Claim(ctx, m.MentorID, m.ID, maxMentees); err != nil {
			return err
		}
		updated, err := s.records.Activate(ctx, m.ID, start, end)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if errors.Is(err, mentorshipstore.ErrStatusChanged) {
		s.releaseUnlessActive(ctx, m)
	}
	return out, err
}

// closeActive ends an active mentorship and frees its slot. The record is
// written before the slot so an interrupted unit never frees a slot that is
// still in use.
func (s *Service) closeActive(ctx context.Context, m models.Mentorship, target models.MentorshipStatus) (models.Mentorship, error) {
	var out models.Mentorship
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.slots.Touch(ctx, m.MentorID); err != nil && !errors.Is(err, slotstore.ErrNotFound) {
			return err
		}
		closed, err := s.records.Close(ctx, m.ID, models.StatusActive, target)
		if err != nil {
			return err
		}
		out = closed
		return s.slots.Release(ctx, m.MentorID, m.ID)
	})
	return out, err
}

// releaseUnlessActive undoes a claim made for a record that someone else
// moved out of pending. If that someone activated it, the slot stays.
func (s *Service) releaseUnlessActive(ctx context.Context, m models.Mentorship) {
	cur, err := s.records.GetByID(ctx, m.ID)
	if err != nil || cur.Status == models.StatusActive {
		return
	}
	if err := s.slots.Release(ctx, m.MentorID, m.ID); err != nil {
		s.log.Warn("could not release slot after lost activation; reconcile will repair",
			zap.String("mentorship_id", m.ID.Hex()),
			zap.Error(err))
	}
}

// loadForParty reads the record and resolves the caller's role on it.
func (s *Service) loadForParty(ctx context.Context, id, callerID primitive.ObjectID) (models.Mentorship, mentorshippolicy.Role, error) {
	m, err := s.records.GetByID(ctx, id)
	if err != nil {
		return models.Mentorship{}, mentorshippolicy.RoleNone, classify(err, "load mentorship")
	}
	role := mentorshippolicy.ResolveRole(&m, callerID)
	if !role.IsParty() {
		return models.Mentorship{}, role, ErrAccessDenied
	}
	return m, role, nil
}
