package export

import (
	"fmt"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
)

// AttendanceRows flattens a report into the attendance sheet: a header row of
// user names, then one row per day with each user's status.
func AttendanceRows(rep *service.Report) [][]string {
	header := []string{"Date"}
	for _, u := range rep.Users {
		header = append(header, u.Name)
	}
	rows := [][]string{header}
	for _, day := range rep.Days {
		row := []string{day.Date}
		for _, cell := range day.Cells {
			row = append(row, cell.Status)
		}
		rows = append(rows, row)
	}
	return rows
}

// VoiceRows flattens a report into the voice sheet. Each user contributes a
// regular, overtime and total column in hh:mm, a raw total-minutes column,
// and a spacer.
func VoiceRows(rep *service.Report) [][]string {
	header := []string{"Date"}
	for _, u := range rep.Users {
		header = append(header,
			u.Name+" (Voice)",
			u.Name+" (Overtime)",
			"Total",
			"Total Minutes",
			"",
		)
	}
	rows := [][]string{header}
	for _, day := range rep.Days {
		row := []string{day.Date}
		for _, cell := range day.Cells {
			total := cell.RegularMinutes + cell.OvertimeMinutes
			row = append(row,
				toHHMM(cell.RegularMinutes),
				toHHMM(cell.OvertimeMinutes),
				toHHMM(total),
				fmt.Sprintf("%d", total),
				"",
			)
		}
		rows = append(rows, row)
	}
	return rows
}

func toHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
