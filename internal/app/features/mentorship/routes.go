// internal/app/features/mentorship/routes.go
package mentorship

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the mentorship API, mounted at
// /api/mentorships. Writes are limited per caller; a nil limiter disables it.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(ratelimit.Middleware(limiter, callerKey))

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/meetings", h.LogMeeting)
	r.Put("/{id}/feedback", h.SubmitFeedback)

	return r
}

func callerKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ""
}
