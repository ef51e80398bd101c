package export

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

const (
	sheetAttendance = "Attendance"
	sheetVoice      = "Voice"
)

// BuildWorkbook renders a report as a two-sheet workbook. A blank separator
// row precedes the first day of each month after the first, so multi-month
// ranges stay readable in one sheet.
func BuildWorkbook(rep *service.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	for _, sheet := range []struct {
		name string
		rows [][]string
	}{
		{sheetAttendance, withMonthSeparators(AttendanceRows(rep))},
		{sheetVoice, withMonthSeparators(VoiceRows(rep))},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		if err := writeRows(f, sheet.name, 1, sheet.rows); err != nil {
			return nil, err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheetAttendance); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// AppendDay appends a (usually single-day) report to the workbook at path,
// creating the file if needed. Rows land in month-named sheets, created with
// headers on first use, so the file accumulates one attendance and one voice
// tab per month.
func AppendDay(path string, rep *service.Report) error {
	f, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer f.Close()

	att := AttendanceRows(rep)
	voice := VoiceRows(rep)
	for _, day := range rep.Days {
		monthName, err := monthOf(day.Date)
		if err != nil {
			return err
		}
		for _, sheet := range []struct {
			name   string
			header []string
		}{
			{monthName + " " + sheetAttendance, att[0]},
			{monthName + " " + sheetVoice, voice[0]},
		} {
			if err := ensureSheet(f, sheet.name, sheet.header); err != nil {
				return err
			}
		}
	}
	if err := appendRows(f, rep, att, voice); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func appendRows(f *excelize.File, rep *service.Report, att, voice [][]string) error {
	for i, day := range rep.Days {
		monthName, err := monthOf(day.Date)
		if err != nil {
			return err
		}
		for _, sheet := range []struct {
			name string
			row  []string
		}{
			{monthName + " " + sheetAttendance, att[i+1]},
			{monthName + " " + sheetVoice, voice[i+1]},
		} {
			existing, err := f.GetRows(sheet.name)
			if err != nil {
				return fmt.Errorf("read sheet %s: %w", sheet.name, err)
			}
			if err := writeRows(f, sheet.name, len(existing)+1, [][]string{sheet.row}); err != nil {
				return err
			}
		}
	}
	return nil
}

func openOrCreate(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return excelize.NewFile(), nil
}

func ensureSheet(f *excelize.File, name string, header []string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("look up sheet %s: %w", name, err)
	}
	if idx >= 0 {
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := writeRows(f, name, 1, [][]string{header}); err != nil {
		return err
	}
	// The lazily-created default sheet has no place in an export file.
	if di, err := f.GetSheetIndex("Sheet1"); err == nil && di >= 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("drop default sheet: %w", err)
		}
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, startRow int, rows [][]string) error {
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		ref, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", startRow+i, err)
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return fmt.Errorf("write row %d of %s: %w", startRow+i, sheet, err)
		}
	}
	return nil
}

// withMonthSeparators inserts a blank row before the first data row of each
// month after the first. Rows carry the date in column 0; the header row is
// passed through untouched.
func withMonthSeparators(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return rows
	}
	out := make([][]string, 0, len(rows)+2)
	out = append(out, rows[0])
	prevMonth := ""
	for _, row := range rows[1:] {
		month := ""
		if len(row) > 0 && len(row[0]) >= 7 {
			month = row[0][:7]
		}
		if prevMonth != "" && month != prevMonth {
			out = append(out, []string{})
		}
		prevMonth = month
		out = append(out, row)
	}
	return out
}

func monthOf(date string) (string, error) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return t.Format("January 2006"), nil
}
