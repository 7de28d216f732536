package mentorship

import (
	"encoding/json"
	"net/http"

	mentorshipsvc "github.com/dalemusser/mentorhub/internal/app/services/mentorship"
	"go.uber.org/zap"
)

// envelope is the body of every response from this feature.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var statusByKind = map[mentorshipsvc.Kind]int{
	mentorshipsvc.KindInvalidArgument:   http.StatusBadRequest,
	mentorshipsvc.KindNotFound:          http.StatusNotFound,
	mentorshipsvc.KindMentorUnavailable: http.StatusNotFound,
	mentorshipsvc.KindDuplicateRequest:  http.StatusConflict,
	mentorshipsvc.KindCapacityExceeded:  http.StatusConflict,
	mentorshipsvc.KindAccessDenied:      http.StatusForbidden,
	mentorshipsvc.KindInvalidTransition: http.StatusUnprocessableEntity,
	mentorshipsvc.KindConflict:          http.StatusConflict,
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, envelope{Error: &errorBody{Kind: kind, Message: msg}})
}

// writeError maps a service error to its status code. Unclassified errors
// are logged and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := mentorshipsvc.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		h.Log.Error("mentorship request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeFail(w, http.StatusInternalServerError, string(mentorshipsvc.KindInternal), "internal error")
		return
	}
	if kind == mentorshipsvc.KindConflict {
		w.Header().Set("Retry-After", "1")
	}
	writeFail(w, status, string(kind), err.Error())
}
