package mentorshipsvc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	mentorshipstore "github.com/dalemusser/mentorhub/internal/app/store/mentorships"
	slotstore "github.com/dalemusser/mentorhub/internal/app/store/mentorslots"
	"go.uber.org/zap"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"sentinel", ErrCapacityExceeded, KindCapacityExceeded},
		{"wrapped", fmt.Errorf("%w: mentor full", ErrCapacityExceeded), KindCapacityExceeded},
		{"double wrapped", fmt.Errorf("outer: %w", fmt.Errorf("%w: x", ErrAccessDenied)), KindAccessDenied},
		{"deadline", context.DeadlineExceeded, KindConflict},
		{"unknown", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   error
		want *Error
	}{
		{mentorshipstore.ErrNotFound, ErrNotFound},
		{mentorshipstore.ErrDuplicateOpen, ErrDuplicateRequest},
		{mentorshipstore.ErrStatusChanged, ErrConflict},
		{slotstore.ErrNoCapacity, ErrCapacityExceeded},
		{fmt.Errorf("op: %w", context.DeadlineExceeded), ErrConflict},
		{ErrInvalidTransition, ErrInvalidTransition},
	}
	for _, tt := range tests {
		if got := classify(tt.in, "test"); !errors.Is(got, tt.want) {
			t.Errorf("classify(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := classify(errors.New("disk on fire"), "test"); KindOf(got) != KindInternal {
		t.Errorf("expected internal kind, got %v", got)
	}
	if classify(nil, "test") != nil {
		t.Error("classify(nil) must be nil")
	}
}

func TestWithRetry(t *testing.T) {
	cfg := RetryConfig{MaxTries: 4, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	ctx := context.Background()
	log := zap.NewNop()

	t.Run("retries conflicts until success", func(t *testing.T) {
		calls := 0
		v, err := withRetry(ctx, cfg, log, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, ErrConflict
			}
			return 42, nil
		})
		if err != nil || v != 42 || calls != 3 {
			t.Errorf("got v=%d err=%v calls=%d", v, err, calls)
		}
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		_, err := withRetry(ctx, cfg, log, func() (int, error) {
			calls++
			return 0, fmt.Errorf("%w: full", ErrCapacityExceeded)
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Errorf("expected ErrCapacityExceeded, got %v", err)
		}
	})

	t.Run("surfaces conflict after budget", func(t *testing.T) {
		calls := 0
		_, err := withRetry(ctx, cfg, log, func() (int, error) {
			calls++
			return 0, ErrConflict
		})
		if calls != int(cfg.MaxTries) {
			t.Errorf("calls = %d, want %d", calls, cfg.MaxTries)
		}
		if !Retryable(err) {
			t.Errorf("expected retryable conflict, got %v", err)
		}
	})
}
