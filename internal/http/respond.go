package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"planner/internal/core"
	plog "planner/internal/log"
	"planner/internal/middleware/trace"
	"planner/internal/services"
	"planner/internal/storage"
	"planner/internal/transfer"
)

// errBadRequest marks malformed input: bad JSON, bad query parameters.
var errBadRequest = errors.New("bad request")

// validationErrors are the domain rejections answered with 422.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrEmptyName,
	core.ErrInvalidDate,
	core.ErrInvalidMonth,
	core.ErrInvalidTime,
	core.ErrInvalidFrequency,
	core.ErrInvalidGoalType,
	core.ErrInvalidCategoryKind,
	core.ErrDueBeforeStart,
	core.ErrDuplicateCategory,
	core.ErrUnknownCurrency,
	core.ErrMissingID,
	core.ErrDuplicateID,
}

type errorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// statusFor maps an error returned by the ledger to a status code.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, transfer.ErrInvalidFormat),
		errors.Is(err, services.ErrInvalidStrategy):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRemoteDisabled):
		return http.StatusServiceUnavailable
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the mapped status. Internal errors are logged
// and their text withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{
		Error:     err.Error(),
		RequestID: trace.GetRequestID(r.Context()),
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "validation failed"
		resp.Fields = fieldErrors(verrs)
	}
	if status == http.StatusNotFound {
		resp.Error = "not found"
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		plog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			plog.FieldPath, r.URL.Path,
			plog.FieldError, err)
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

// fieldErrors flattens validator output into field -> failed tag.
func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		out[fe.Field()] = tag
	}
	return out
}

// decodeJSON reads one JSON object into dst and runs the struct validator.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return badRequest("empty body")
		case statusFor(err) == http.StatusUnprocessableEntity:
			// A field rejected its own value, e.g. an unparseable amount.
			return err
		}
		return badRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequest("unexpected data after JSON object")
	}
	return s.validate.Struct(dst)
}

// jsonFieldName makes validator report fields by their JSON names.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
