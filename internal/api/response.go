package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/arsenal/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeErrorStatus maps a store error kind onto an HTTP status. The second
// result is false for errors that are not one of the store's kinds.
func storeErrorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest, true
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrInvalidState),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict, true
	case errors.Is(err, store.ErrUnauthorized):
		return http.StatusForbidden, true
	}
	return http.StatusInternalServerError, false
}

// writeStoreError reports a store error. Known kinds carry their message to
// the client; anything else is logged and hidden behind a generic message.
func writeStoreError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, known := storeErrorStatus(err)
	if !known {
		slog.Error("failed to "+action, "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, status, "failed to "+action)
		return
	}
	jsonError(w, status, err.Error())
}

// pathID parses the {name} path value as a positive ID.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// queryID parses an optional positive ID query parameter. Missing means 0.
func queryID(r *http.Request, key string) (int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

// pageQuery reads page and limit. Out-of-range values are clamped by the
// store; only unparseable ones are rejected.
func pageQuery(r *http.Request) (store.PageQuery, error) {
	var p store.PageQuery
	q := r.URL.Query()
	for key, dst := range map[string]*int{"page": &p.Page, "limit": &p.Limit} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid %s", key)
		}
		*dst = n
	}
	return p, nil
}

// date accepts either a full RFC 3339 timestamp or a bare YYYY-MM-DD as sent
// by HTML date inputs. Empty and null leave it zero.
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// ptr returns nil for a zero date.
func (d date) ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
