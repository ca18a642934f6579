// Package calendar mirrors booked shifts into a Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hubshift/marketplace/backend/internal/domain"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type Sync struct {
	events     *gcal.EventsService
	calendarID string
	timeZone   string
}

func NewSync(ctx context.Context, calendarID, timeZone string, opts ...option.ClientOption) (*Sync, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Sync{events: svc.Events, calendarID: calendarID, timeZone: timeZone}, nil
}

// EventID derives a stable calendar event id from the shift id. Google only
// accepts lowercase base32hex characters, which hex digits are a subset of.
func EventID(shift *domain.Shift) string {
	return "shift" + strings.ReplaceAll(shift.ID.String(), "-", "")
}

// Apply brings the calendar in line with one shift event. Events that do
// not affect a booked shift are ignored.
func (s *Sync) Apply(ctx context.Context, event domain.ShiftEvent) error {
	shift := event.Shift
	if shift == nil {
		return nil
	}

	switch event.Type {
	case domain.EventShiftAccepted:
		return s.upsert(ctx, shift)
	case domain.EventShiftTimesChanged:
		if shift.Status != domain.ShiftStatusConfirmed {
			return nil
		}
		return s.upsert(ctx, shift)
	case domain.EventShiftCancelled:
		if event.FromStatus != domain.ShiftStatusConfirmed && event.FromStatus != domain.ShiftStatusOngoing {
			return nil
		}
		err := s.events.Delete(s.calendarID, EventID(shift)).Context(ctx).Do()
		if isStatus(err, http.StatusNotFound, http.StatusGone) {
			return nil
		}
		return err
	default:
		return nil
	}
}

func (s *Sync) upsert(ctx context.Context, shift *domain.Shift) error {
	ev := s.toEvent(shift)

	_, err := s.events.Update(s.calendarID, ev.Id, ev).Context(ctx).Do()
	if !isStatus(err, http.StatusNotFound) {
		return err
	}
	_, err = s.events.Insert(s.calendarID, ev).Context(ctx).Do()
	return err
}

func (s *Sync) toEvent(shift *domain.Shift) *gcal.Event {
	return &gcal.Event{
		Id:          EventID(shift),
		Summary:     shift.Title,
		Description: fmt.Sprintf("%s\n\nRate: $%.2f/h", shift.Description, shift.HourlyRate),
		Location:    fmt.Sprintf("%.6f,%.6f", shift.Venue.Latitude, shift.Venue.Longitude),
		Start: &gcal.EventDateTime{
			DateTime: shift.StartTime.Format(time.RFC3339),
			TimeZone: s.timeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: shift.EndTime.Format(time.RFC3339),
			TimeZone: s.timeZone,
		},
	}
}

func isStatus(err error, codes ...int) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.Code == code {
			return true
		}
	}
	return false
}
