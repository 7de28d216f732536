package userinfo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/features/userinfo"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func serve(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	r := chi.NewRouter()
	userinfo.MountRoutes(r, userinfo.NewHandler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}

	var response map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response JSON: %v", err)
	}
	return response
}

func TestServeUserInfo_Unauthenticated(t *testing.T) {
	response := serve(t, httptest.NewRequest(http.MethodGet, "/api/user", nil))

	if isAuth, ok := response["isAuthenticated"].(bool); !ok || isAuth {
		t.Errorf("isAuthenticated: got %v, want false", response["isAuthenticated"])
	}
	if id, ok := response["id"].(string); !ok || id != "" {
		t.Errorf("id: got %v, want empty string", response["id"])
	}
	if mentor, ok := response["is_mentor"].(bool); !ok || mentor {
		t.Errorf("is_mentor: got %v, want false", response["is_mentor"])
	}
}

func TestServeUserInfo_Authenticated(t *testing.T) {
	userID := primitive.NewObjectID()
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:       userID.Hex(),
		Name:     "Grace Hopper",
		Email:    "grace@example.com",
		IsMentor: true,
	})

	response := serve(t, req)

	if isAuth, ok := response["isAuthenticated"].(bool); !ok || !isAuth {
		t.Errorf("isAuthenticated: got %v, want true", response["isAuthenticated"])
	}
	if id := response["id"]; id != userID.Hex() {
		t.Errorf("id: got %v, want %s", id, userID.Hex())
	}
	if name := response["name"]; name != "Grace Hopper" {
		t.Errorf("name: got %v, want Grace Hopper", name)
	}
	if email := response["email"]; email != "grace@example.com" {
		t.Errorf("email: got %v, want grace@example.com", email)
	}
	if mentor, ok := response["is_mentor"].(bool); !ok || !mentor {
		t.Errorf("is_mentor: got %v, want true", response["is_mentor"])
	}
}
