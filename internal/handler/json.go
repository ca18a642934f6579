package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
)

const (
	codeValidationFailed  = "VALIDATION_FAILED"
	codeUnauthenticated   = "UNAUTHENTICATED"
	codeForbidden         = "FORBIDDEN"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeConflict          = "CONFLICT"
	codeNotFound          = "NOT_FOUND"
	codeRateLimited       = "RATE_LIMITED"
	codeInternal          = "INTERNAL"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// readOptionalJSON treats an empty body as an empty object.
func (h *Handler) readOptionalJSON(r *http.Request, v any) error {
	if err := h.readJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, code, msg string, data any) {
	h.writeJSON(w, r, status, Response{
		Success: false,
		Message: msg,
		Code:    code,
		Data:    data,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		h.errorResponse(w, r, http.StatusBadRequest, codeValidationFailed, err.Error(), nil)
		return
	}

	h.errorResponse(w, r, http.StatusBadRequest, codeValidationFailed, validationErrors[0].Translate(h.translator), map[string]string{
		"field": validationErrors[0].Field(),
	})
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.errorResponse(w, r, http.StatusInternalServerError, codeInternal, "internal server error", nil)
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// lifecycleError maps engine and repository errors onto the wire codes.
func (h *Handler) lifecycleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *lifecycle.ValidationError
		authErr       *lifecycle.AuthorizationError
		transitionErr *lifecycle.InvalidTransitionError
		geofenceErr   *lifecycle.GeofenceError
		conflictErr   *lifecycle.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		h.errorResponse(w, r, http.StatusBadRequest, codeValidationFailed, validationErr.Error(), map[string]string{
			"field": validationErr.Field,
		})
	case errors.As(err, &authErr):
		h.errorResponse(w, r, http.StatusForbidden, codeForbidden, authErr.Error(), nil)
	case errors.As(err, &transitionErr):
		h.errorResponse(w, r, http.StatusConflict, codeInvalidTransition, transitionErr.Error(), map[string]domain.ShiftStatus{
			"status": transitionErr.Status,
		})
	case errors.As(err, &geofenceErr):
		h.errorResponse(w, r, http.StatusForbidden, lifecycle.GeofenceCode, "you are too far from the venue to clock in", map[string]float64{
			"distanceMeters": geofenceErr.DistanceMeters,
			"radiusMeters":   geofenceErr.RadiusMeters,
		})
	case errors.As(err, &conflictErr):
		h.errorResponse(w, r, http.StatusConflict, codeConflict, conflictErr.Message, nil)
	case errors.Is(err, domain.ErrShiftNotFound):
		h.errorResponse(w, r, http.StatusNotFound, codeNotFound, "shift not found", nil)
	default:
		h.internalServerError(w, r, err)
	}
}
