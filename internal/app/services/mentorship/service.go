// Package mentorshipsvc admits mentorship requests and drives them through
// their lifecycle.
//
// Capacity and uniqueness hold under concurrent callers:
//   - each mentor has one slot document in mentor_slots; admission and
//     activation write it first, so transactions on the same mentor serialize
//   - activation claims a slot with a conditional $addToSet that only matches
//     while fewer than maxMentees slots are taken
//   - a partial unique index on open_key rejects a second open record for a
//     (mentor, mentee) pair
//
// Without transaction support the same writes run in an order where any
// failure leaves a slot held rather than freed. ReconcileSlots repairs that.
package mentorshipsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	mentorshipstore "github.com/dalemusser/mentorhub/internal/app/store/mentorships"
	slotstore "github.com/dalemusser/mentorhub/internal/app/store/mentorslots"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Directory reports whether a user may currently take mentees.
type Directory interface {
	MentorEligibility(ctx context.Context, userID primitive.ObjectID) (userstore.Eligibility, error)
}

// RetryConfig bounds the internal retry of conflicting units.
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetry is used unless SetRetry overrides it.
var DefaultRetry = RetryConfig{
	MaxTries:        4,
	InitialInterval: 20 * time.Millisecond,
	MaxInterval:     250 * time.Millisecond,
}

type Service struct {
	db      *mongo.Database
	records *mentorshipstore.Store
	slots   *slotstore.Store
	dir     Directory
	log     *zap.Logger
	retry   RetryConfig
	now     func() time.Time

	// beforeSlotReplace runs just before ReconcileSlots rewrites a slot
	// document. Tests use it to interleave other writers.
	beforeSlotReplace func(mentorID primitive.ObjectID)
}

func New(db *mongo.Database, dir Directory, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:      db,
		records: mentorshipstore.New(db),
		slots:   slotstore.New(db),
		dir:     dir,
		log:     log,
		retry:   DefaultRetry,
		now:     time.Now,
	}
}

// SetRetry replaces the conflict retry policy. MaxTries of 1 disables retries.
func (s *Service) SetRetry(cfg RetryConfig) { s.retry = cfg }

// SetClock replaces the time source used for start dates and log entries.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// timestamp is the current time as stored: UTC, millisecond precision.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// eligibleMentor resolves mentorID to an active mentor's capacity.
func (s *Service) eligibleMentor(ctx context.Context, mentorID primitive.ObjectID) (int, error) {
	elig, err := s.dir.MentorEligibility(ctx, mentorID)
	if errors.Is(err, userstore.ErrNotFound) {
		return 0, fmt.Errorf("%w: unknown mentor", ErrMentorUnavailable)
	}
	if err != nil {
		return 0, classify(err, "load mentor")
	}
	if !elig.IsMentor || !elig.IsActive {
		return 0, ErrMentorUnavailable
	}
	return elig.MaxMentees, nil
}

// classify maps store errors onto the service's error kinds. Errors that are
// already service errors pass through unchanged.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var se *Error
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, mentorshipstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, mentorshipstore.ErrDuplicateOpen):
		return ErrDuplicateRequest
	case errors.Is(err, slotstore.ErrNoCapacity):
		return ErrCapacityExceeded
	case errors.Is(err, mentorshipstore.ErrStatusChanged):
		return fmt.Errorf("%w: mentorship changed during %s", ErrConflict, op)
	case errors.Is(err, slotstore.ErrVersionChanged):
		return fmt.Errorf("%w: mentor slot changed during %s", ErrConflict, op)
	case errors.Is(err, context.DeadlineExceeded),
		mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		txn.IsTransient(err):
		return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// withRetry runs op until it succeeds, fails with a non-conflict error, or
// the retry budget is spent.
func withRetry[T any](ctx context.Context, cfg RetryConfig, log *zap.Logger, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval

	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(cfg.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug("retrying after conflict", zap.Error(err), zap.Duration("next", next))
		}),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return v, classify(err, "retry")
}
