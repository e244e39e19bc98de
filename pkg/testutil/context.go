package testutil

import (
	"net/http"

	"workpulse/internal/platform/middleware"
)

// WithIdentity injects an authenticated identity into the request context,
// simulating what RequireAuth does for a valid bearer token.
func WithIdentity(req *http.Request, userID, userName, role string) *http.Request {
	ctx := middleware.WithIdentity(req.Context(), userID, userName, role)
	return req.WithContext(ctx)
}

// WithAdmin injects an ADMIN identity.
func WithAdmin(req *http.Request, userID, userName string) *http.Request {
	return WithIdentity(req, userID, userName, "ADMIN")
}
