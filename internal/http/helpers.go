package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-resource-cms/internal/resources"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	render.Status(r, status)
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	render.JSON(w, r, payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := mapError(err)
	writeJSON(w, r, status, payload)
}

// mapError checks validation before not found: a missing parent is reported
// as a field error wrapping ErrNotFound.
func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	var invalid *resources.ValidationError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest, errorResponse{
			Error:   "validation_failed",
			Message: invalid.Error(),
			Fields:  invalid.Fields,
		}
	}
	if goerrors.IsCategory(err, goerrors.CategoryValidation) {
		return http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: err.Error()}
	}

	var config *resources.ConfigurationError
	if errors.As(err, &config) {
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: config.Error()}
	}

	if resources.IsNotFound(err) {
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	}

	if errors.Is(err, resources.ErrEditLocked) {
		return http.StatusForbidden, errorResponse{Error: "forbidden", Message: err.Error()}
	}

	if errors.Is(err, resources.ErrDuplicate) ||
		errors.Is(err, resources.ErrHasChildren) ||
		errors.Is(err, resources.ErrTypeCodeInUse) {
		return http.StatusConflict, errorResponse{Error: "conflict", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()}
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	return uuid.Parse(trimmed)
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}
