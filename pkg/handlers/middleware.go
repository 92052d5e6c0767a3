package handlers

import (
	"net/http"
	"os"
)

// authMiddleware provides simple API key authentication
func authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// If no API key is configured, allow access
		apiKey := os.Getenv("BANGUMARR_API_KEY")
		if apiKey == "" {
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		expectedHeader := "Bearer " + apiKey

		if authHeader != expectedHeader {
			// Check X-API-Key header as alternative
			if r.Header.Get("X-API-Key") != apiKey {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized","message":"Invalid or missing API key"}`))
				return
			}
		}

		next(w, r)
	}
}
