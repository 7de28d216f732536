package mentorshipsvc

import "go.mongodb.org/mongo-driver/bson/primitive"

// SetBeforeSlotReplace installs a hook that runs before ReconcileSlots
// rewrites a slot document.
func (s *Service) SetBeforeSlotReplace(fn func(mentorID primitive.ObjectID)) {
	s.beforeSlotReplace = fn
}
