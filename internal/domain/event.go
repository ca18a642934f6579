package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventShiftCreated        EventType = "shift.created"
	EventShiftPublished      EventType = "shift.published"
	EventShiftInvited        EventType = "shift.invited"
	EventShiftAccepted       EventType = "shift.accepted"
	EventInvitationWithdrawn EventType = "shift.invitation_withdrawn"
	EventShiftDeclined       EventType = "shift.declined"
	EventShiftTimesChanged   EventType = "shift.times_changed"
	EventShiftDetailsChanged EventType = "shift.details_changed"
	EventShiftCancelled      EventType = "shift.cancelled"
	EventShiftClockedIn      EventType = "shift.clocked_in"
	EventShiftFinished       EventType = "shift.finished"
	EventShiftCompleted      EventType = "shift.completed"
)

// ShiftEvent is both the audit record of a transition and the message handed
// to notification consumers. Recipients are the counterparts to notify; the
// actor is never among them.
type ShiftEvent struct {
	ID         uuid.UUID   `json:"id"`
	ShiftID    uuid.UUID   `json:"shiftID"`
	Type       EventType   `json:"type"`
	ActorID    int64       `json:"actorID"`
	FromStatus ShiftStatus `json:"fromStatus"`
	ToStatus   ShiftStatus `json:"toStatus"`
	Reason     string      `json:"reason,omitempty"`
	Recipients []int64     `json:"recipients"`
	OccurredAt time.Time   `json:"occurredAt"`

	// Shift snapshot after the transition, carried on the queue only.
	Shift *Shift `json:"shift,omitempty"`
}
