package mentorshipsvc

import (
	"context"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReconcileResult reports what ReconcileSlots did.
type ReconcileResult struct {
	Mentors int // mentors with at least one active mentorship
	Changed int // slot documents rewritten
}

// ReconcileSlots brings every mentor's slot document in line with the
// mentorship records. Slots held for closed or missing records are freed and
// active records without a slot get one. Claims for records that are still
// pending are kept: an activation may be between its claim and its record
// update.
//
// Each mentor is rewritten only if the slot document is unchanged since it was
// read, so it is safe to run while other instances serve requests.
func (s *Service) ReconcileSlots(ctx context.Context) (ReconcileResult, error) {
	active, err := s.records.ActiveByMentor(ctx)
	if err != nil {
		return ReconcileResult{}, classify(err, "scan active mentorships")
	}
	occupied, err := s.slots.Occupied(ctx)
	if err != nil {
		return ReconcileResult{}, classify(err, "scan mentor slots")
	}

	mentors := make([]primitive.ObjectID, 0, len(active)+len(occupied))
	for id := range active {
		mentors = append(mentors, id)
	}
	for _, id := range occupied {
		if _, ok := active[id]; !ok {
			mentors = append(mentors, id)
		}
	}

	res := ReconcileResult{Mentors: len(active)}
	for _, mentorID := range mentors {
		changed, err := withRetry(ctx, s.retry, s.log, func() (bool, error) {
			return s.reconcileMentor(ctx, mentorID)
		})
		if err != nil {
			return res, err
		}
		if changed {
			res.Changed++
		}
	}

	if res.Changed > 0 {
		s.log.Warn("mentor slots were out of date and have been rebuilt",
			zap.Int("mentors", res.Mentors),
			zap.Int("changed", res.Changed))
	} else {
		s.log.Info("mentor slots consistent", zap.Int("mentors", res.Mentors))
	}
	return res, nil
}

// reconcileMentor reads the slot document, then the mentor's open records,
// and rewrites the slot at the version it read.
func (s *Service) reconcileMentor(ctx context.Context, mentorID primitive.ObjectID) (bool, error) {
	if err := s.slots.Ensure(ctx, mentorID); err != nil {
		return false, classify(err, "ensure mentor slot")
	}
	slot, err := s.slots.Get(ctx, mentorID)
	if err != nil {
		return false, classify(err, "load mentor slot")
	}
	open, err := s.records.OpenByMentor(ctx, mentorID)
	if err != nil {
		return false, classify(err, "load open mentorships")
	}

	want := slotHolders(slot.Active, open)
	if sameSet(slot.Active, want) {
		return false, nil
	}
	if s.beforeSlotReplace != nil {
		s.beforeSlotReplace(mentorID)
	}
	if err := s.slots.Replace(ctx, mentorID, slot.Version, want); err != nil {
		return false, classify(err, "rewrite mentor slot")
	}
	s.log.Info("mentor slot rewritten",
		zap.String("mentor_id", mentorID.Hex()),
		zap.Int("before", len(slot.Active)),
		zap.Int("after", len(want)))
	return true, nil
}

// slotHolders is every active record plus held claims whose record is still
// pending.
func slotHolders(held []primitive.ObjectID, open map[primitive.ObjectID]models.MentorshipStatus) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(open))
	for id, st := range open {
		if st == models.StatusActive {
			out = append(out, id)
		}
	}
	for _, id := range held {
		if open[id] == models.StatusPending {
			out = append(out, id)
		}
	}
	return out
}

func sameSet(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[primitive.ObjectID]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}
