package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/allowance/internal/auth"
)

const testSecret = "test-secret"

func TestRequireTokenMissing(t *testing.T) {
	handler := RequireToken(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestRequireTokenInvalid(t *testing.T) {
	handler := RequireToken(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireTokenValid(t *testing.T) {
	want := auth.AuthContext{MemberID: 5, HouseholdID: 1, Role: "parent"}
	token, err := auth.IssueToken(testSecret, want, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var gotAC auth.AuthContext
	handler := RequireToken(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC != want {
		t.Errorf("auth = %+v, want %+v", gotAC, want)
	}
}

func TestRequireTokenQueryParam(t *testing.T) {
	token, _ := auth.IssueToken(testSecret, auth.AuthContext{MemberID: 5, HouseholdID: 1}, time.Hour)

	reached := false
	handler := RequireToken(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !reached {
		t.Error("expected handler to be reached with query token")
	}
}

func TestRequireParent(t *testing.T) {
	handler := RequireParent(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		role string
		want int
	}{
		{"parent", http.StatusOK},
		{"child", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{MemberID: 1, HouseholdID: 1, Role: tt.role}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("role %s: status = %d, want %d", tt.role, rec.Code, tt.want)
		}
	}
}
