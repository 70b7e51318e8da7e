package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, r.Body)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var (
		verr *services.ValidationError
		serr *services.Error
	)
	msg := ""
	if errors.As(err, &serr) {
		msg = serr.Message
	}
	pick := func(fallback string) string {
		if msg != "" {
			return msg
		}
		return fallback
	}

	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, pick("invalid credentials"))
	case errors.Is(err, services.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, pick("invalid or expired token"))
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, pick("you do not have access to this resource"))
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, pick("resource not found"))
	case errors.Is(err, services.ErrConflict):
		writeMessage(w, http.StatusConflict, pick("resource already exists"))
	case errors.Is(err, services.ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, pick("too many requests, try again later"))
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "internal server error",
			"error":   err.Error(),
		})
	}
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeMessage(w, http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// pathID reads a positive integer route variable.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, &services.ValidationError{Message: fmt.Sprintf("invalid %s", name)}
	}
	return id, nil
}

// optional tells an absent JSON field (Set false) from an explicit null
// (Set true, Value nil).
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC 3339 timestamps as well as the bare dates and
// datetime-local values HTML inputs produce.
func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &services.ValidationError{Message: fmt.Sprintf("%s must be a date", field)}
}
