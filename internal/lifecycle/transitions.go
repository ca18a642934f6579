package lifecycle

import (
	"slices"

	"github.com/hubshift/marketplace/backend/internal/domain"
)

type Operation string

const (
	OpCreate      Operation = "create"
	OpPublish     Operation = "publish"
	OpInvite      Operation = "invite"
	OpAccept      Operation = "accept"
	OpDecline     Operation = "decline"
	OpEditTimes   Operation = "edit times of"
	OpEditDetails Operation = "edit details of"
	OpCancel      Operation = "cancel"
	OpClockIn     Operation = "clock in to"
	OpFinish      Operation = "finish"
	OpComplete    Operation = "complete"
	OpDelete      Operation = "delete"
	OpCopy        Operation = "copy"
	OpView        Operation = "view"
)

var nonTerminal = []domain.ShiftStatus{
	domain.ShiftStatusDraft,
	domain.ShiftStatusOpen,
	domain.ShiftStatusInvited,
	domain.ShiftStatusConfirmed,
	domain.ShiftStatusOngoing,
	domain.ShiftStatusPendingCompletion,
}

// allowedFrom is the source side of every edge in the lifecycle graph.
var allowedFrom = map[Operation][]domain.ShiftStatus{
	OpPublish:     {domain.ShiftStatusDraft},
	OpInvite:      {domain.ShiftStatusDraft, domain.ShiftStatusOpen},
	OpAccept:      {domain.ShiftStatusInvited},
	OpDecline:     {domain.ShiftStatusInvited},
	OpEditTimes:   {domain.ShiftStatusOpen, domain.ShiftStatusConfirmed},
	OpEditDetails: {domain.ShiftStatusOpen},
	OpCancel:      nonTerminal,
	OpClockIn:     {domain.ShiftStatusConfirmed},
	OpFinish:      {domain.ShiftStatusOngoing},
	OpComplete:    {domain.ShiftStatusPendingCompletion},
	OpDelete:      {domain.ShiftStatusDraft},
}

// CanApply reports whether op is defined for a shift in status.
func CanApply(op Operation, status domain.ShiftStatus) bool {
	return slices.Contains(allowedFrom[op], status)
}

func requireStatus(op Operation, status domain.ShiftStatus) error {
	if !CanApply(op, status) {
		return &InvalidTransitionError{Op: op, Status: status}
	}
	return nil
}
