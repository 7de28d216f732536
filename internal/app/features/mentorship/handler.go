package mentorship

import (
	"encoding/json"
	"net/http"
	"time"

	mentorshipsvc "github.com/dalemusser/mentorhub/internal/app/services/mentorship"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/limits"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the mentorship JSON API.
type Handler struct {
	Svc   *mentorshipsvc.Service
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler creates a mentorship handler.
func NewHandler(svc *mentorshipsvc.Service, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Audit: auditLog, Log: logger}
}

type createRequest struct {
	MentorID       string   `json:"mentor_id"`
	MentorshipArea string   `json:"mentorship_area"`
	Description    string   `json:"description"`
	Goals          []string `json:"goals"`
	Duration       int      `json:"duration"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type meetingRequest struct {
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// caller returns the signed-in user's id, writing a 401 if there is none.
func caller(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			return oid, true
		}
	}
	writeFail(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
	return primitive.NilObjectID, false
}

// pathID parses {id}, writing a 404 for malformed ids.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeFail(w, http.StatusNotFound, string(mentorshipsvc.KindNotFound), mentorshipsvc.ErrNotFound.Error())
		return primitive.NilObjectID, false
	}
	return oid, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBody)).Decode(dst); err != nil {
		writeFail(w, http.StatusBadRequest, string(mentorshipsvc.KindInvalidArgument), "malformed JSON body")
		return false
	}
	return true
}

// Create handles POST /api/mentorships. The caller is the mentee.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var req createRequest
	if !decode(w, r, &req) {
		return
	}

	mentorID, err := primitive.ObjectIDFromHex(req.MentorID)
	if err != nil {
		writeFail(w, http.StatusBadRequest, string(mentorshipsvc.KindInvalidArgument), "mentor_id is not a valid id")
		return
	}

	m, err := h.Svc.RequestMentorship(r.Context(), mentorshipsvc.RequestInput{
		MentorID:    mentorID,
		MenteeID:    uid,
		Area:        req.MentorshipArea,
		Description: req.Description,
		Goals:       req.Goals,
		Duration:    req.Duration,
	})
	if err != nil {
		h.Audit.Rejected(r.Context(), r, audit.EventRequestRejected, uid, nil, string(mentorshipsvc.KindOf(err)), err.Error())
		h.writeError(w, r, err)
		return
	}

	h.Audit.MentorshipRequested(r.Context(), r, m)
	writeData(w, http.StatusCreated, m)
}

// List handles GET /api/mentorships?role=&status=&area=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	list, err := h.Svc.ListForUser(r.Context(), uid, mentorshipsvc.ListFilter{
		Role:   q.Get("role"),
		Status: q.Get("status"),
		Area:   q.Get("area"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

// Stats handles GET /api/mentorships/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	stats, err := h.Svc.Stats(r.Context(), uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// Get handles GET /api/mentorships/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.Svc.Get(r.Context(), id, uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, m)
}

// UpdateStatus handles PUT /api/mentorships/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}

	change, err := h.Svc.Transition(r.Context(), id, uid, models.MentorshipStatus(req.Status))
	if err != nil {
		h.Audit.Rejected(r.Context(), r, audit.EventTransitionRejected, uid, &id, string(mentorshipsvc.KindOf(err)), err.Error())
		h.writeError(w, r, err)
		return
	}

	h.Audit.StatusChanged(r.Context(), r, uid, change.Mentorship, change.From)
	writeData(w, http.StatusOK, change.Mentorship)
}

// LogMeeting handles POST /api/mentorships/{id}/meetings.
func (h *Handler) LogMeeting(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req meetingRequest
	if !decode(w, r, &req) {
		return
	}

	mt, err := h.Svc.LogMeeting(r.Context(), id, uid, mentorshipsvc.MeetingInput{
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		h.Audit.Rejected(r.Context(), r, audit.EventEngagementRejected, uid, &id, string(mentorshipsvc.KindOf(err)), err.Error())
		h.writeError(w, r, err)
		return
	}

	h.Audit.MeetingLogged(r.Context(), r, uid, id, mt)
	writeData(w, http.StatusCreated, mt)
}

// SubmitFeedback handles PUT /api/mentorships/{id}/feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Svc.SubmitFeedback(r.Context(), id, uid, mentorshipsvc.FeedbackInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.Audit.Rejected(r.Context(), r, audit.EventEngagementRejected, uid, &id, string(mentorshipsvc.KindOf(err)), err.Error())
		h.writeError(w, r, err)
		return
	}

	h.Audit.FeedbackSubmitted(r.Context(), r, uid, id, res.Role.String(), req.Rating)
	writeData(w, http.StatusOK, res.Feedback)
}
