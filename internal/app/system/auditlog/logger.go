// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
//
// Each field takes "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap
// only) or "off". An empty value means "all".
type Config struct {
	// Mentorship covers requests, transitions, meetings, feedback and rejections.
	Mentorship string
	// System covers maintenance such as slot reconciliation.
	System string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	// First hop of X-Forwarded-For (reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.MentorshipID != nil {
		fields = append(fields, zap.String("mentorship_id", event.MentorshipID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryMentorship:
		setting = l.config.Mentorship
	case audit.CategorySystem:
		setting = l.config.System
	}
	if setting == "" {
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Mentorship events ---

// MentorshipRequested logs a new pending request made by the mentee.
func (l *Logger) MentorshipRequested(ctx context.Context, r *http.Request, m models.Mentorship) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryMentorship,
		EventType:    audit.EventMentorshipRequested,
		MentorshipID: &m.ID,
		ActorID:      &m.MenteeID,
		UserID:       &m.MentorID,
		IP:           getClientIP(r),
		UserAgent:    userAgent(r),
		Success:      true,
		Details: map[string]string{
			"mentorship_area": m.MentorshipArea,
			"duration":        strconv.Itoa(m.Duration),
		},
	})
}

// StatusChanged logs a completed lifecycle transition.
func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, actorID primitive.ObjectID, m models.Mentorship, from models.MentorshipStatus) {
	other := m.MentorID
	if actorID == m.MentorID {
		other = m.MenteeID
	}
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryMentorship,
		EventType:    audit.EventStatusChanged,
		MentorshipID: &m.ID,
		ActorID:      &actorID,
		UserID:       &other,
		IP:           getClientIP(r),
		UserAgent:    userAgent(r),
		Success:      true,
		Details: map[string]string{
			"from": string(from),
			"to":   string(m.Status),
		},
	})
}

// MeetingLogged logs a meeting entry appended by either party.
func (l *Logger) MeetingLogged(ctx context.Context, r *http.Request, actorID, mentorshipID primitive.ObjectID, mt models.Meeting) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryMentorship,
		EventType:    audit.EventMeetingLogged,
		MentorshipID: &mentorshipID,
		ActorID:      &actorID,
		IP:           getClientIP(r),
		UserAgent:    userAgent(r),
		Success:      true,
		Details: map[string]string{
			"meeting_id":       mt.ID,
			"duration_minutes": strconv.Itoa(mt.DurationMinutes),
		},
	})
}

// FeedbackSubmitted logs a feedback write. role is "mentor" or "mentee".
func (l *Logger) FeedbackSubmitted(ctx context.Context, r *http.Request, actorID, mentorshipID primitive.ObjectID, role string, rating int) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryMentorship,
		EventType:    audit.EventFeedbackSubmitted,
		MentorshipID: &mentorshipID,
		ActorID:      &actorID,
		IP:           getClientIP(r),
		UserAgent:    userAgent(r),
		Success:      true,
		Details: map[string]string{
			"role":   role,
			"rating": strconv.Itoa(rating),
		},
	})
}

// Rejected logs an operation refused with a typed error. eventType is one of
// the *Rejected event types; mentorshipID may be nil for new requests.
func (l *Logger) Rejected(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, mentorshipID *primitive.ObjectID, kind, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryMentorship,
		EventType:     eventType,
		MentorshipID:  mentorshipID,
		ActorID:       &actorID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: reason,
		Details: map[string]string{
			"kind": kind,
		},
	})
}

// --- System events ---

// SlotsReconciled logs a rebuild of mentor slot documents. source names the
// trigger ("startup", "cli").
func (l *Logger) SlotsReconciled(ctx context.Context, source string, mentors, changed int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySystem,
		EventType: audit.EventSlotsReconciled,
		Success:   true,
		Details: map[string]string{
			"source":  source,
			"mentors": strconv.Itoa(mentors),
			"changed": strconv.Itoa(changed),
		},
	})
}
