package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ShiftStatus string

const (
	ShiftStatusDraft             ShiftStatus = "draft"
	ShiftStatusOpen              ShiftStatus = "open"
	ShiftStatusInvited           ShiftStatus = "invited"
	ShiftStatusConfirmed         ShiftStatus = "confirmed"
	ShiftStatusOngoing           ShiftStatus = "ongoing"
	ShiftStatusPendingCompletion ShiftStatus = "pending_completion"
	ShiftStatusCompleted         ShiftStatus = "completed"
	ShiftStatusCancelled         ShiftStatus = "cancelled"
)

// ShiftStatuses lists every canonical status in lifecycle order.
var ShiftStatuses = []ShiftStatus{
	ShiftStatusDraft,
	ShiftStatusOpen,
	ShiftStatusInvited,
	ShiftStatusConfirmed,
	ShiftStatusOngoing,
	ShiftStatusPendingCompletion,
	ShiftStatusCompleted,
	ShiftStatusCancelled,
}

// ParseShiftStatus accepts the canonical names plus the legacy aliases
// "pending" (invited) and "filled" (confirmed) still sent by older clients.
func ParseShiftStatus(s string) (ShiftStatus, error) {
	normalized := ShiftStatus(strings.ToLower(strings.TrimSpace(s)))
	switch normalized {
	case "pending":
		return ShiftStatusInvited, nil
	case "filled":
		return ShiftStatusConfirmed, nil
	}
	for _, status := range ShiftStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown shift status %q", s)
}

func (s ShiftStatus) IsTerminal() bool {
	return s == ShiftStatusCompleted || s == ShiftStatusCancelled
}

// Label is the human readable form shown in notifications and exports.
func (s ShiftStatus) Label() string {
	switch s {
	case ShiftStatusDraft:
		return "Draft"
	case ShiftStatusOpen:
		return "Open"
	case ShiftStatusInvited:
		return "Invited"
	case ShiftStatusConfirmed:
		return "Confirmed"
	case ShiftStatusOngoing:
		return "In progress"
	case ShiftStatusPendingCompletion:
		return "Awaiting confirmation"
	case ShiftStatusCompleted:
		return "Completed"
	case ShiftStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusDeclined  InvitationStatus = "declined"
	InvitationStatusWithdrawn InvitationStatus = "withdrawn"
)

type Invitation struct {
	ProfessionalID int64            `json:"professionalID"`
	Status         InvitationStatus `json:"status"`
	InvitedAt      time.Time        `json:"invitedAt"`
	RespondedAt    *time.Time       `json:"respondedAt"`
}

type Shift struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     int64       `json:"ownerID"`
	AssigneeID  *int64      `json:"assigneeID"` // nil until a single professional is bound
	Status      ShiftStatus `json:"status"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     time.Time   `json:"endTime"`
	HourlyRate  float64     `json:"hourlyRate"`
	Venue       Location    `json:"venueLocation"`

	RequiresCompletionConfirmation bool `json:"requiresCompletionConfirmation"`

	ClockInTime  *time.Time `json:"clockInTime"`
	ClockOutTime *time.Time `json:"clockOutTime"`
	ChangeReason string     `json:"changeReason,omitempty"`
	CancelReason string     `json:"cancelReason,omitempty"`

	// InvitedFrom is the status a declined invitation falls back to.
	InvitedFrom ShiftStatus  `json:"-"`
	Invitations []Invitation `json:"invitations"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int32     `json:"-"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (s *Shift) Clone() *Shift {
	c := *s
	if s.AssigneeID != nil {
		id := *s.AssigneeID
		c.AssigneeID = &id
	}
	if s.ClockInTime != nil {
		t := *s.ClockInTime
		c.ClockInTime = &t
	}
	if s.ClockOutTime != nil {
		t := *s.ClockOutTime
		c.ClockOutTime = &t
	}
	if s.Invitations != nil {
		c.Invitations = make([]Invitation, len(s.Invitations))
		for i, inv := range s.Invitations {
			c.Invitations[i] = inv
			if inv.RespondedAt != nil {
				t := *inv.RespondedAt
				c.Invitations[i].RespondedAt = &t
			}
		}
	}
	return &c
}

func (s *Shift) IsAssignee(userID int64) bool {
	return s.AssigneeID != nil && *s.AssigneeID == userID
}

// Invitation returns the invitation addressed to the professional, if any.
func (s *Shift) Invitation(professionalID int64) (*Invitation, bool) {
	for i := range s.Invitations {
		if s.Invitations[i].ProfessionalID == professionalID {
			return &s.Invitations[i], true
		}
	}
	return nil, false
}

func (s *Shift) PendingInvitees() []int64 {
	ids := make([]int64, 0, len(s.Invitations))
	for _, inv := range s.Invitations {
		if inv.Status == InvitationStatusPending {
			ids = append(ids, inv.ProfessionalID)
		}
	}
	return ids
}

// WorkedHours is measured from clock-in to clock-out, falling back to the
// scheduled window when either timestamp is missing.
func (s *Shift) WorkedHours() float64 {
	if s.ClockInTime != nil && s.ClockOutTime != nil {
		return s.ClockOutTime.Sub(*s.ClockInTime).Hours()
	}
	return s.EndTime.Sub(s.StartTime).Hours()
}

type WeekRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func WeekStarting(start time.Time) WeekRange {
	return WeekRange{Start: start, End: start.AddDate(0, 0, 7)}
}

func (w WeekRange) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

type ShiftFilter struct {
	OwnerID       *int64
	ParticipantID *int64 // assignee or invitee
	IncludeOpen   bool   // with ParticipantID, also match open shifts
	Statuses      []ShiftStatus
	StartsFrom    *time.Time
	StartsBefore  *time.Time
}
