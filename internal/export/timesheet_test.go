package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

func TestWriteTimesheet(t *testing.T) {
	weekStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	assignee := int64(10)
	clockIn := weekStart.Add(9 * time.Hour)
	clockOut := clockIn.Add(4*time.Hour + 30*time.Minute)

	worked := &domain.Shift{
		ID:           uuid.New(),
		Title:        "Barista",
		Status:       domain.ShiftStatusCompleted,
		AssigneeID:   &assignee,
		StartTime:    weekStart.Add(9 * time.Hour),
		EndTime:      weekStart.Add(14 * time.Hour),
		HourlyRate:   30,
		ClockInTime:  &clockIn,
		ClockOutTime: &clockOut,
	}
	scheduled := &domain.Shift{
		ID:         uuid.New(),
		Title:      "Bar back",
		Status:     domain.ShiftStatusConfirmed,
		AssigneeID: &assignee,
		StartTime:  weekStart.Add(30 * time.Hour),
		EndTime:    weekStart.Add(32 * time.Hour),
		HourlyRate: 25,
	}
	draft := &domain.Shift{ID: uuid.New(), Title: "Not yet", Status: domain.ShiftStatusDraft, StartTime: weekStart, EndTime: weekStart.Add(time.Hour), HourlyRate: 99}
	unstaffed := &domain.Shift{ID: uuid.New(), Title: "Nobody yet", Status: domain.ShiftStatusOpen, StartTime: weekStart, EndTime: weekStart.Add(3 * time.Hour), HourlyRate: 99}
	invited := &domain.Shift{ID: uuid.New(), Title: "Asked", Status: domain.ShiftStatusInvited, StartTime: weekStart, EndTime: weekStart.Add(3 * time.Hour), HourlyRate: 99}

	var buf bytes.Buffer
	err := WriteTimesheet(&buf, domain.WeekStarting(weekStart), []*domain.Shift{worked, scheduled, draft, unstaffed, invited}, map[int64]string{10: "Sam Lee"}, time.UTC)
	if err != nil {
		t.Fatalf("write timesheet: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	// title, header, two staffed shifts, totals
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d: %v", len(rows), rows)
	}
	if rows[2][1] != "Barista" || rows[2][3] != "Sam Lee" || rows[2][8] != "4.5" || rows[2][10] != "135" {
		t.Fatalf("unexpected worked row %v", rows[2])
	}
	if rows[3][2] != "Confirmed" || rows[3][3] != "Sam Lee" || rows[3][8] != "2" {
		t.Fatalf("unexpected scheduled row %v", rows[3])
	}
	if rows[4][0] != "Total" || rows[4][8] != "6.5" || rows[4][10] != "185" {
		t.Fatalf("unexpected totals row %v", rows[4])
	}
}
