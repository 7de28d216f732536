package mentorshipsvc

import (
	"context"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/policy/mentorshippolicy"
	mentorshipstore "github.com/dalemusser/mentorhub/internal/app/store/mentorships"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogMeeting appends a meeting to the mentorship. Either party may log one,
// whatever the status.
func (s *Service) LogMeeting(ctx context.Context, id, callerID primitive.ObjectID, in MeetingInput) (models.Meeting, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return models.Meeting{}, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "log meeting")
	defer cancel()

	if _, _, err := s.loadForParty(ctx, id, callerID); err != nil {
		return models.Meeting{}, err
	}

	mt := models.Meeting{
		ID:              uuid.NewString(),
		Date:            in.Date.UTC().Truncate(time.Millisecond),
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
		LoggedAt:        s.timestamp(),
		LoggedBy:        callerID,
	}
	if err := s.records.AppendMeeting(ctx, id, mt); err != nil {
		return models.Meeting{}, classify(err, "log meeting")
	}
	return mt, nil
}

// FeedbackResult holds both feedback slots after a submission and the side
// the caller wrote.
type FeedbackResult struct {
	Feedback models.FeedbackSet
	Role     mentorshippolicy.Role
}

// SubmitFeedback writes the caller's own feedback slot, replacing any earlier
// submission, and returns both slots.
func (s *Service) SubmitFeedback(ctx context.Context, id, callerID primitive.ObjectID, in FeedbackInput) (FeedbackResult, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return FeedbackResult{}, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "submit feedback")
	defer cancel()

	_, role, err := s.loadForParty(ctx, id, callerID)
	if err != nil {
		return FeedbackResult{}, err
	}

	side := mentorshipstore.MenteeSide
	if role == mentorshippolicy.RoleMentor {
		side = mentorshipstore.MentorSide
	}
	set, err := s.records.SetFeedback(ctx, id, side, models.Feedback{
		Rating:      in.Rating,
		Comment:     in.Comment,
		SubmittedAt: s.timestamp(),
	})
	if err != nil {
		return FeedbackResult{}, classify(err, "submit feedback")
	}
	return FeedbackResult{Feedback: set, Role: role}, nil
}
