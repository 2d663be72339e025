package middleware

import (
	"net/http"
	"strings"

	"github.com/trailcap/trailcap/internal/api/models"
)

// ContentTypeJSON sets the Content-Type header to application/json. Handlers
// that serve other media (the GPX export) override it before writing.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects POST, PUT, and PATCH requests whose Content-Type is
// neither empty nor application/json. High-rate sample ingestion goes through
// here, so the check stays a prefix match on the header.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				requestID := GetRequestID(r.Context())
				models.NewUnsupportedMediaType(requestID, "Content-Type must be application/json").Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
