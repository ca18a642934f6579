package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/export"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// parseWeekStart accepts a calendar date in the configured time zone or a full RFC 3339 timestamp.
func (h *Handler) parseWeekStart(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &lifecycle.ValidationError{Field: field, Message: "is required"}
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, h.location); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &lifecycle.ValidationError{Field: field, Message: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}
	}
	return t, nil
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title                          string           `json:"title" validate:"required,max=120"`
		Description                    string           `json:"description" validate:"max=2000"`
		StartTime                      time.Time        `json:"startTime" validate:"required"`
		EndTime                        time.Time        `json:"endTime" validate:"required"`
		HourlyRate                     float64          `json:"hourlyRate" validate:"required,gt=0"`
		Venue                          *domain.Location `json:"venueLocation" validate:"required"`
		RequiresCompletionConfirmation bool             `json:"requiresCompletionConfirmation"`
		Status                         string           `json:"status"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var status domain.ShiftStatus
	if req.Status != "" {
		parsed, err := domain.ParseShiftStatus(req.Status)
		if err != nil {
			h.lifecycleError(w, r, &lifecycle.ValidationError{Field: "status", Message: err.Error()})
			return
		}
		status = parsed
	}

	shift, err := h.engine.Create(r.Context(), actorFrom(r), lifecycle.CreateInput{
		Title:                          req.Title,
		Description:                    req.Description,
		StartTime:                      req.StartTime,
		EndTime:                        req.EndTime,
		HourlyRate:                     req.HourlyRate,
		Venue:                          *req.Venue,
		RequiresCompletionConfirmation: req.RequiresCompletionConfirmation,
		Status:                         status,
	})
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, Response{Success: true, Message: "shift created", Data: shift})
}

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter domain.ShiftFilter
	if value := query.Get("weekStart"); value != "" {
		start, err := h.parseWeekStart("weekStart", value)
		if err != nil {
			h.lifecycleError(w, r, err)
			return
		}
		week := domain.WeekStarting(start)
		filter.StartsFrom = &week.Start
		filter.StartsBefore = &week.End
	}

	for _, value := range query["status"] {
		for _, name := range strings.Split(value, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			status, err := domain.ParseShiftStatus(name)
			if err != nil {
				h.lifecycleError(w, r, &lifecycle.ValidationError{Field: "status", Message: err.Error()})
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	shifts, err := h.engine.List(r.Context(), actorFrom(r), filter)
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts loaded", shifts)
}

func (h *Handler) CopyPreviousWeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetWeekStart string `json:"targetWeekStart" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	target, err := h.parseWeekStart("targetWeekStart", req.TargetWeekStart)
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	source := domain.WeekStarting(target.AddDate(0, 0, -7))
	copies, err := h.engine.CopyToWeek(r.Context(), actorFrom(r), source, target)
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "previous week copied", map[string]any{
		"count":  len(copies),
		"shifts": copies,
	})
}

func (h *Handler) PublishAllDrafts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeekStart string `json:"weekStart" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, err := h.parseWeekStart("weekStart", req.WeekStart)
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	published, err := h.engine.PublishAllDrafts(r.Context(), actorFrom(r), domain.WeekStarting(start))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "drafts published", map[string]int{"count": len(published)})
}

func (h *Handler) DownloadTimesheet(w http.ResponseWriter, r *http.Request) {
	start, err := h.parseWeekStart("weekStart", r.URL.Query().Get("weekStart"))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}
	week := domain.WeekStarting(start)

	actor := actorFrom(r)
	shifts, err := h.engine.List(r.Context(), actor, domain.ShiftFilter{
		StartsFrom:   &week.Start,
		StartsBefore: &week.End,
	})
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	names := make(map[int64]string)
	for _, shift := range shifts {
		if shift.AssigneeID == nil {
			continue
		}
		id := *shift.AssigneeID
		if _, ok := names[id]; ok {
			continue
		}
		user, err := h.users.GetUserByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				continue
			}
			h.internalServerError(w, r, err)
			return
		}
		names[id] = user.FullName
	}

	// render fully before writing so a failure can still become a JSON error
	var buf bytes.Buffer
	if err := export.WriteTimesheet(&buf, week, shifts, names, h.location); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="timesheet-%s.xlsx"`, week.Start.In(h.location).Format(time.DateOnly)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.engine.Get(r.Context(), actorFrom(r), shiftIDFrom(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift loaded", shift)
}

// UpdateShift edits the window, the details, or both in one transition.
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartTime   *time.Time `json:"startTime"`
		EndTime     *time.Time `json:"endTime"`
		Reason      string     `json:"reason" validate:"max=500"`
		Title       *string    `json:"title" validate:"omitempty,max=120"`
		HourlyRate  *float64   `json:"hourlyRate"`
		Description *string    `json:"description" validate:"omitempty,max=2000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var times *lifecycle.TimesInput
	if req.StartTime != nil || req.EndTime != nil {
		if req.StartTime == nil || req.EndTime == nil {
			h.lifecycleError(w, r, &lifecycle.ValidationError{Field: "endTime", Message: "startTime and endTime must be changed together"})
			return
		}
		times = &lifecycle.TimesInput{StartTime: *req.StartTime, EndTime: *req.EndTime, Reason: req.Reason}
	}
	details := lifecycle.DetailsInput{Title: req.Title, HourlyRate: req.HourlyRate, Description: req.Description}

	shift, err := h.engine.Edit(r.Context(), actorFrom(r), shiftIDFrom(r), times, details)
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift updated", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Delete(r.Context(), actorFrom(r), shiftIDFrom(r)); err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift deleted", nil)
}

func (h *Handler) GetShiftEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.engine.Events(r.Context(), actorFrom(r), shiftIDFrom(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "history loaded", events)
}

func (h *Handler) PublishShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.engine.Publish(r.Context(), actorFrom(r), shiftIDFrom(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift published", shift)
}

func (h *Handler) InviteToShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfessionalID  *int64  `json:"professionalId" validate:"omitempty,gt=0"`
		ProfessionalIDs []int64 `json:"professionalIds" validate:"omitempty,max=50,dive,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var (
		shift *domain.Shift
		err   error
	)
	switch {
	case req.ProfessionalID != nil && len(req.ProfessionalIDs) > 0:
		h.lifecycleError(w, r, &lifecycle.ValidationError{Field: "professionalIds", Message: "send either professionalId or professionalIds"})
		return
	case req.ProfessionalID != nil:
		shift, err = h.engine.Invite(r.Context(), actorFrom(r), shiftIDFrom(r), *req.ProfessionalID)
	case len(req.ProfessionalIDs) > 0:
		shift, err = h.engine.InviteMany(r.Context(), actorFrom(r), shiftIDFrom(r), req.ProfessionalIDs)
	default:
		h.lifecycleError(w, r, &lifecycle.ValidationError{Field: "professionalId", Message: "is required"})
		return
	}
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "invitation sent", shift)
}

func (h *Handler) AcceptShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.engine.Accept(r.Context(), actorFrom(r), shiftIDFrom(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift accepted", shift)
}

func (h *Handler) DeclineShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.engine.Decline(r.Context(), actorFrom(r), shiftIDFrom(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "invitation declined", shift)
}

func (h *Handler) CancelShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason" validate:"max=500"`
	}

	if err := h.readOptionalJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.engine.Cancel(r.Context(), actorFrom(r), shiftIDFrom(r), req.Reason)
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift cancelled", shift)
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude  *float64 `json:"latitude" validate:"required"`
		Longitude *float64 `json:"longitude" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.engine.ClockIn(r.Context(), actorFrom(r), shiftIDFrom(r), domain.Location{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "clocked in", shift)
}

func (h *Handler) FinishShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.engine.Finish(r.Context(), actorFrom(r), shiftIDFrom(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift finished", shift)
}

func (h *Handler) CompleteShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.engine.Complete(r.Context(), actorFrom(r), shiftIDFrom(r))
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift completed", shift)
}
