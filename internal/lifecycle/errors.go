package lifecycle

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError means the caller has no rights for the operation on this shift.
type AuthorizationError struct {
	Op      Operation
	ActorID int64
	Reason  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d may not %s this shift: %s", e.ActorID, e.Op, e.Reason)
}

// InvalidTransitionError means the operation is undefined for the current status.
type InvalidTransitionError struct {
	Op     Operation
	Status domain.ShiftStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a shift that is %s", e.Op, e.Status)
}

// GeofenceCode is the wire code for a rejected clock-in.
const GeofenceCode = "TOO_FAR_FROM_VENUE"

// GeofenceError rejects a clock-in reported outside the venue radius.
type GeofenceError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("%s: %.0fm from venue, limit is %.0fm", GeofenceCode, e.DistanceMeters, e.RadiusMeters)
}

// ConflictError means a concurrent transition won; the caller must refresh.
type ConflictError struct {
	ShiftID uuid.UUID
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("shift %s: %s", e.ShiftID, e.Message)
}
