package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/allowance/internal/auth"
)

// RequireToken verifies the bearer token and populates AuthContext. Browsers
// cannot set headers on websocket upgrades, so a "token" query parameter is
// accepted as well.
func RequireToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			ac, err := auth.VerifyToken(secret, token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			recordMember(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireParent checks that the authenticated member is a parent.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsParent(r.Context()) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="allowance"`)
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
