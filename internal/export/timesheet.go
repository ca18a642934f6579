// Package export renders weekly shift data as spreadsheets.
package export

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName  = "Timesheet"
	timeLayout = "2006-01-02 15:04"
)

var timesheetHeader = []any{
	"Shift", "Title", "Status", "Professional", "Start", "End", "Clock in", "Clock out", "Hours", "Rate", "Amount",
}

// Billable reports whether a shift belongs on a timesheet: someone has to be
// booked on it.
func Billable(shift *domain.Shift) bool {
	switch shift.Status {
	case domain.ShiftStatusConfirmed, domain.ShiftStatusOngoing, domain.ShiftStatusPendingCompletion, domain.ShiftStatusCompleted:
		return shift.AssigneeID != nil
	}
	return false
}

// WriteTimesheet writes one row per billable shift plus a totals row. Times
// are rendered in loc; names maps professional ids to display names.
func WriteTimesheet(w io.Writer, week domain.WeekRange, shifts []*domain.Shift, names map[int64]string, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	title := fmt.Sprintf("Week of %s", week.Start.In(loc).Format("2 Jan 2006"))
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A2", &timesheetHeader); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "K2", bold); err != nil {
		return err
	}

	row := 3
	var totalHours, totalAmount float64
	for _, shift := range shifts {
		if !Billable(shift) {
			continue
		}

		hours := round2(shift.WorkedHours())
		amount := round2(hours * shift.HourlyRate)
		totalHours += hours
		totalAmount += amount

		professional := ""
		if shift.AssigneeID != nil {
			professional = names[*shift.AssigneeID]
			if professional == "" {
				professional = fmt.Sprintf("#%d", *shift.AssigneeID)
			}
		}

		values := []any{
			shift.ID.String(),
			shift.Title,
			shift.Status.Label(),
			professional,
			shift.StartTime.In(loc).Format(timeLayout),
			shift.EndTime.In(loc).Format(timeLayout),
			formatOptional(shift.ClockInTime, loc),
			formatOptional(shift.ClockOutTime, loc),
			hours,
			shift.HourlyRate,
			amount,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
		row++
	}

	totals := []any{"Total", "", "", "", "", "", "", "", round2(totalHours), "", round2(totalAmount)}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &totals); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(totals), row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, cell, end, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(sheetName, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "H", 18); err != nil {
		return err
	}

	return f.Write(w)
}

func formatOptional(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
