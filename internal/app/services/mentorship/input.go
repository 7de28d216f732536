package mentorshipsvc

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/mentorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestInput is a mentee's request for a mentor.
type RequestInput struct {
	MentorID    primitive.ObjectID
	MenteeID    primitive.ObjectID
	Area        string
	Description string
	Goals       []string
	Duration    int // months; 0 means the default
}

// MeetingInput describes one meeting to log.
type MeetingInput struct {
	Date            time.Time
	DurationMinutes int
	Notes           string
}

// FeedbackInput is one party's rating of the mentorship.
type FeedbackInput struct {
	Rating  int
	Comment string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

// normalize strips markup, trims, and fills the default duration.
func (in RequestInput) normalize() RequestInput {
	in.Area = htmlsanitize.PlainText(in.Area)
	in.Description = htmlsanitize.PlainText(in.Description)
	in.Goals = htmlsanitize.PlainTextAll(in.Goals)
	if in.Duration == 0 {
		in.Duration = models.DefaultDurationMonths
	}
	return in
}

func (in RequestInput) validate() error {
	switch {
	case in.MentorID.IsZero():
		return invalid("mentor id is required")
	case in.MenteeID.IsZero():
		return invalid("mentee id is required")
	case in.MentorID == in.MenteeID:
		return invalid("cannot request mentorship from yourself")
	case in.Area == "":
		return invalid("mentorship area is required")
	case in.Description == "":
		return invalid("description is required")
	case utf8.RuneCountInString(in.Description) > models.MaxDescriptionLen:
		return invalid("description must be at most %d characters", models.MaxDescriptionLen)
	case in.Duration < models.MinDurationMonths || in.Duration > models.MaxDurationMonths:
		return invalid("duration must be between %d and %d months", models.MinDurationMonths, models.MaxDurationMonths)
	}
	return nil
}

func (in MeetingInput) normalize() MeetingInput {
	in.Notes = htmlsanitize.PlainText(in.Notes)
	return in
}

func (in MeetingInput) validate() error {
	switch {
	case in.Date.IsZero():
		return invalid("meeting date is required")
	case in.DurationMinutes <= 0:
		return invalid("meeting duration must be a positive number of minutes")
	case utf8.RuneCountInString(in.Notes) > models.MaxNotesLen:
		return invalid("notes must be at most %d characters", models.MaxNotesLen)
	}
	return nil
}

func (in FeedbackInput) normalize() FeedbackInput {
	in.Comment = htmlsanitize.PlainText(in.Comment)
	return in
}

func (in FeedbackInput) validate() error {
	switch {
	case in.Rating < models.MinRating || in.Rating > models.MaxRating:
		return invalid("rating must be between %d and %d", models.MinRating, models.MaxRating)
	case utf8.RuneCountInString(in.Comment) > models.MaxCommentLen:
		return invalid("comment must be at most %d characters", models.MaxCommentLen)
	}
	return nil
}
