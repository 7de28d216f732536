package mentorshipsvc

import (
	"context"

	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/txn"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.uber.org/zap"
)

// RequestMentorship creates a pending mentorship after checking, in order:
// the input, the mentor's eligibility, that the pair has no open record, and
// that the mentor has a free active slot.
func (s *Service) RequestMentorship(ctx context.Context, in RequestInput) (models.Mentorship, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return models.Mentorship{}, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "mentorship request")
	defer cancel()

	return withRetry(ctx, s.retry, s.log, func() (models.Mentorship, error) {
		return s.admit(ctx, in)
	})
}

func (s *Service) admit(ctx context.Context, in RequestInput) (models.Mentorship, error) {
	maxMentees, err := s.eligibleMentor(ctx, in.MentorID)
	if err != nil {
		return models.Mentorship{}, err
	}
	if err := s.slots.Ensure(ctx, in.MentorID); err != nil {
		return models.Mentorship{}, classify(err, "prepare mentor slots")
	}

	start := s.timestamp()
	var created models.Mentorship
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		slot, err := s.slots.Touch(ctx, in.MentorID)
		if err != nil {
			return err
		}

		open, err := s.records.HasOpen(ctx, in.MentorID, in.MenteeID)
		if err != nil {
			return err
		}
		if open {
			return ErrDuplicateRequest
		}
		if len(slot.Active) >= maxMentees {
			return ErrCapacityExceeded
		}

		created, err = s.records.Create(ctx, models.Mentorship{
			MentorID:       in.MentorID,
			MenteeID:       in.MenteeID,
			Status:         models.StatusPending,
			MentorshipArea: in.Area,
			Description:    in.Description,
			Goals:          in.Goals,
			Duration:       in.Duration,
			StartDate:      start,
			EndDate:        models.EndDate(start, in.Duration),
		})
		return err
	})
	if err != nil {
		return models.Mentorship{}, classify(err, "create mentorship")
	}

	s.log.Info("mentorship requested",
		zap.String("mentorship_id", created.ID.Hex()),
		zap.String("mentor_id", created.MentorID.Hex()),
		zap.String("mentee_id", created.MenteeID.Hex()))
	return created, nil
}
