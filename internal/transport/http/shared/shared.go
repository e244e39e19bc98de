// Package shared centralizes JSON envelopes and error translation so every
// handler returns the same shapes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	pkgerrors "workpulse/pkg/errors"
)

// Meta carries pagination metadata alongside a page of results.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// Paginated is the standard list envelope.
type Paginated[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// NewPaginated builds the envelope, computing total pages.
func NewPaginated[T any](data []T, page, limit int, total int64) Paginated[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return Paginated[T]{
		Data: data,
		Meta: Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages},
	}
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the shared error envelope.
// Internal causes are never leaked to the caller.
func WriteError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	message := "internal server error"
	var de *pkgerrors.Error
	if errors.As(err, &de) && de.Code != pkgerrors.CodeInternal {
		message = de.Message
	}
	WriteJSON(w, pkgerrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": message,
	})
}

// QueryInt parses an integer query parameter, returning fallback when absent.
// A present but malformed value returns an error so validation failures are
// surfaced instead of silently defaulted.
func QueryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid "+key+" parameter")
	}
	return n, nil
}

// QueryPositiveInt parses a pagination-style query parameter. Zero and
// negative values are rejected rather than silently defaulted; a limit of
// zero would otherwise reach the envelope's total-pages division.
func QueryPositiveInt(r *http.Request, key string, fallback int) (int, error) {
	n, err := QueryInt(r, key, fallback)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeBadRequest, key+" must be a positive integer")
	}
	return n, nil
}
