// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package api

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader is the header carrying the shared API key.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware enforcing the shared API key on every
// request. An empty configured key disables authentication.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing API key", ErrInvalidAPIKey)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
