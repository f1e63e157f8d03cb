// Package httputil holds the JSON, error and request helpers shared by the
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
)

const (
	HeaderAdminToken = "X-Admin-Token"
	HeaderUserToken  = "X-User-Token"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError maps domain errors onto status codes. Unauthorized is 401 for an
// anonymous caller and 403 otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		status := http.StatusForbidden
		if access.CallerFrom(r.Context()) == access.Anonymous {
			status = http.StatusUnauthorized
		}

		http.Error(w, err.Error(), status)
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Tokens reads the bootstrap token pair carried by mutating requests.
func Tokens(r *http.Request) access.Tokens {
	return access.Tokens{
		Admin:        r.Header.Get(HeaderAdminToken),
		UserProvided: r.Header.Get(HeaderUserToken),
	}
}

func Int64Param(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", apperr.ErrInvalidInput, name)
	}

	return v, nil
}

// OptionalInt64Query returns nil when the query parameter is absent.
func OptionalInt64Query(r *http.Request, name string) (*int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", apperr.ErrInvalidInput, name)
	}

	return &v, nil
}
