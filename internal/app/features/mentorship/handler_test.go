package mentorship

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mentorshipsvc "github.com/dalemusser/mentorhub/internal/app/services/mentorship"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.uber.org/zap"
)

type response[T any] struct {
	Success bool       `json:"success"`
	Data    T          `json:"data"`
	Error   *errorBody `json:"error"`
}

type testEnv struct {
	handler  *Handler
	router   http.Handler
	audit    *audit.Store
	fixtures *testutil.Fixtures
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := mentorshipsvc.New(db, userstore.NewDirectory(db, 0), zap.NewNop())
	auditStore := audit.New(db)
	h := NewHandler(svc, auditlog.New(auditStore, zap.NewNop(), auditlog.Config{}), zap.NewNop())
	return &testEnv{
		handler:  h,
		router:   Routes(h, nil),
		audit:    auditStore,
		fixtures: testutil.NewFixtures(t, db),
	}
}

func (e *testEnv) serve(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) create(t *testing.T, mentor, mentee models.User) models.Mentorship {
	t.Helper()
	rec := e.serve(testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", map[string]any{
		"mentor_id":       mentor.ID.Hex(),
		"mentorship_area": "Databases",
		"description":     "Learn indexing",
		"goals":           []string{"query plans"},
	}, mentee))
	rec.AssertStatus(t, http.StatusCreated)
	var resp response[models.Mentorship]
	rec.DecodeJSON(t, &resp)
	return resp.Data
}

func TestRoutes_RequireSignIn(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	rec := testutil.NewRecorder()
	Routes(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, `"kind":"unauthenticated"`)
}

func TestWriteError_StatusMapping(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())

	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{mentorshipsvc.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{mentorshipsvc.ErrNotFound, http.StatusNotFound, "not_found"},
		{mentorshipsvc.ErrMentorUnavailable, http.StatusNotFound, "mentor_unavailable"},
		{mentorshipsvc.ErrDuplicateRequest, http.StatusConflict, "duplicate_request"},
		{mentorshipsvc.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded"},
		{mentorshipsvc.ErrAccessDenied, http.StatusForbidden, "access_denied"},
		{mentorshipsvc.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
		{mentorshipsvc.ErrConflict, http.StatusConflict, "conflict"},
		{errors.New("socket closed"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			rec.AssertStatus(t, tt.status)
			var resp response[any]
			rec.DecodeJSON(t, &resp)
			if resp.Success || resp.Error == nil || resp.Error.Kind != tt.kind {
				t.Errorf("unexpected body: %s", rec.Body.String())
			}
		})
	}
}

func TestWriteError_ConflictSetsRetryAfter(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	rec := testutil.NewRecorder()
	h.writeError(rec, httptest.NewRequest(http.MethodPut, "/", nil), fmt.Errorf("%w: slot document changed", mentorshipsvc.ErrConflict))

	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
}

func TestWriteError_InternalHidesDetail(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	rec := testutil.NewRecorder()
	h.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("mongo: connection refused"))

	var resp response[any]
	rec.DecodeJSON(t, &resp)
	if resp.Error.Message != "internal error" {
		t.Errorf("message = %q, want internal error", resp.Error.Message)
	}
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mentor := env.fixtures.CreateMentor(ctx, "Grace Hopper", 2)
	mentee := env.fixtures.CreateMentee(ctx, "Alan Turing")

	m := env.create(t, mentor, mentee)
	if m.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", m.Status)
	}
	if m.MenteeID != mentee.ID || m.MentorID != mentor.ID {
		t.Error("parties not taken from caller and body")
	}
	if m.Duration != models.DefaultDurationMonths {
		t.Errorf("duration = %d, want default", m.Duration)
	}

	events, err := env.audit.GetByMentorship(ctx, m.ID, 10)
	if err != nil {
		t.Fatalf("GetByMentorship failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventMentorshipRequested {
		t.Errorf("expected one %s event, got %+v", audit.EventMentorshipRequested, events)
	}
}

func TestCreate_BadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mentor := env.fixtures.CreateMentor(ctx, "Grace Hopper", 2)
	mentee := env.fixtures.CreateMentee(ctx, "Alan Turing")

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = testutil.WithUser(req, mentee)
		rec := env.serve(req)
		rec.AssertStatus(t, http.StatusBadRequest)
	})

	t.Run("bad mentor id", func(t *testing.T) {
		rec := env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", map[string]any{
			"mentor_id":       "not-an-id",
			"mentorship_area": "Databases",
		}, mentee))
		rec.AssertStatus(t, http.StatusBadRequest)
	})

	t.Run("missing area", func(t *testing.T) {
		rec := env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", map[string]any{
			"mentor_id": mentor.ID.Hex(),
		}, mentee))
		rec.AssertStatus(t, http.StatusBadRequest)
		rec.AssertContains(t, `"kind":"invalid_argument"`)
	})
}

func TestCreate_DuplicateIsAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mentor := env.fixtures.CreateMentor(ctx, "Grace Hopper", 2)
	mentee := env.fixtures.CreateMentee(ctx, "Alan Turing")
	env.create(t, mentor, mentee)

	rec := env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", map[string]any{
		"mentor_id":       mentor.ID.Hex(),
		"mentorship_area": "Compilers",
		"description":     "Learn parsing",
	}, mentee))
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, `"kind":"duplicate_request"`)

	n, err := env.audit.CountByFilter(ctx, audit.QueryFilter{EventType: audit.EventRequestRejected})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("rejected events = %d, want 1", n)
	}
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mentor := env.fixtures.CreateMentor(ctx, "Grace Hopper", 2)
	mentee := env.fixtures.CreateMentee(ctx, "Alan Turing")
	m := env.create(t, mentor, mentee)
	path := "/" + m.ID.Hex() + "/status"

	rec := env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPut, path, map[string]string{"status": "active"}, mentee))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPut, path, map[string]string{"status": "active"}, mentor))
	rec.AssertStatus(t, http.StatusOK)
	var resp response[models.Mentorship]
	rec.DecodeJSON(t, &resp)
	if resp.Data.Status != models.StatusActive || resp.Data.StartDate.IsZero() {
		t.Errorf("expected active with start date, got %+v", resp.Data)
	}

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPut, path, map[string]string{"status": "pending"}, mentor))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPut, path, map[string]string{"status": "completed"}, mentee))
	rec.AssertStatus(t, http.StatusOK)

	events, err := env.audit.Query(ctx, audit.QueryFilter{MentorshipID: &m.ID, EventType: audit.EventStatusChanged})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("status_changed events = %d, want 2", len(events))
	}
	moves := map[string]bool{}
	for _, ev := range events {
		moves[ev.Details["from"]+"->"+ev.Details["to"]] = true
	}
	if !moves["pending->active"] || !moves["active->completed"] {
		t.Errorf("audited moves = %v, want pending->active and active->completed", moves)
	}
}

func TestGet(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mentor := env.fixtures.CreateMentor(ctx, "Grace Hopper", 2)
	mentee := env.fixtures.CreateMentee(ctx, "Alan Turing")
	outsider := env.fixtures.CreateMentee(ctx, "Ada Lovelace")
	m := env.create(t, mentor, mentee)

	rec := env.serve(testutil.NewAuthenticatedRequest(t, http.MethodGet, "/"+m.ID.Hex(), nil, mentor))
	rec.AssertStatus(t, http.StatusOK)

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodGet, "/"+m.ID.Hex(), nil, outsider))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodGet, "/zzz", nil, mentor))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestLogMeetingAndFeedback(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mentor := env.fixtures.CreateMentor(ctx, "Grace Hopper", 2)
	mentee := env.fixtures.CreateMentee(ctx, "Alan Turing")
	m := env.create(t, mentor, mentee)

	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/meetings", map[string]any{
		"date":             time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		"duration_minutes": 45,
		"notes":            "Reviewed schema design",
	}, mentee)
	rec := testutil.NewRecorder()
	env.handler.LogMeeting(rec, testutil.WithChiURLParam(req, "id", m.ID.Hex()))
	rec.AssertStatus(t, http.StatusCreated)
	var meeting response[models.Meeting]
	rec.DecodeJSON(t, &meeting)
	if meeting.Data.ID == "" || meeting.Data.DurationMinutes != 45 {
		t.Errorf("unexpected meeting: %+v", meeting.Data)
	}

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPost, "/"+m.ID.Hex()+"/meetings", map[string]any{
		"date":             time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		"duration_minutes": 0,
	}, mentee))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPut, "/"+m.ID.Hex()+"/feedback", map[string]any{
		"rating":  5,
		"comment": "Very helpful",
	}, mentor))
	rec.AssertStatus(t, http.StatusOK)
	var fb response[models.FeedbackSet]
	rec.DecodeJSON(t, &fb)
	if fb.Data.MentorFeedback == nil || fb.Data.MentorFeedback.Rating != 5 || fb.Data.MenteeFeedback != nil {
		t.Errorf("unexpected feedback: %+v", fb.Data)
	}

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodPut, "/"+m.ID.Hex()+"/feedback", map[string]any{
		"rating": 9,
	}, mentee))
	rec.AssertStatus(t, http.StatusBadRequest)

	events, err := env.audit.Query(ctx, audit.QueryFilter{MentorshipID: &m.ID, EventType: audit.EventFeedbackSubmitted})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 || events[0].Details["role"] != "mentor" {
		t.Errorf("expected one mentor feedback event, got %+v", events)
	}
}

func TestListAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mentor := env.fixtures.CreateMentor(ctx, "Grace Hopper", 3)
	a := env.fixtures.CreateMentee(ctx, "Alan Turing")
	b := env.fixtures.CreateMentee(ctx, "Ada Lovelace")
	env.create(t, mentor, a)
	env.create(t, mentor, b)

	rec := env.serve(testutil.NewAuthenticatedRequest(t, http.MethodGet, "/?role=mentor&status=pending", nil, mentor))
	rec.AssertStatus(t, http.StatusOK)
	var list response[[]models.Mentorship]
	rec.DecodeJSON(t, &list)
	if len(list.Data) != 2 {
		t.Errorf("listed %d, want 2", len(list.Data))
	}

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodGet, "/?role=mentee", nil, mentor))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"data":[]`)

	rec = env.serve(testutil.NewAuthenticatedRequest(t, http.MethodGet, "/stats", nil, mentor))
	rec.AssertStatus(t, http.StatusOK)
	var stats response[mentorshipsvc.Stats]
	rec.DecodeJSON(t, &stats)
	if stats.Data.Mentor == nil {
		t.Fatal("mentor stats missing")
	}
	if stats.Data.Mentor.Pending != 2 || stats.Data.Mentor.AvailableSlots != 3 {
		t.Errorf("unexpected mentor stats: %+v", *stats.Data.Mentor)
	}
}

func TestRoutes_WriteRateLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Close()
	router := Routes(env.handler, limiter)

	mentor := env.fixtures.CreateMentor(ctx, "Grace Hopper", 2)
	mentee := env.fixtures.CreateMentee(ctx, "Alan Turing")
	body := map[string]any{"mentor_id": mentor.ID.Hex(), "mentorship_area": "Databases", "description": "Learn indexing"}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", body, mentee))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", body, mentee))
	rec.AssertStatus(t, http.StatusTooManyRequests)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/", nil, mentee))
	rec.AssertStatus(t, http.StatusOK)
}
