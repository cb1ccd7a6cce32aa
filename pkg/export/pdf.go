package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/campusgrid/timetabling/pkg/model"
)

const (
	pageWidth   = 277.0 // A4 landscape minus margins
	timeColumn  = 22.0
	headerRow   = 8.0
	minimumCell = 7.0
	lineHeight  = 4.0
)

// WritePDF renders the weekly grid with one column per day and one row per period.
// Unplaceable sessions are listed below the grid.
func WritePDF(out io.Writer, schedule *model.Schedule, title string) error {
	timetable := schedule.Timetable()
	if len(timetable) == 0 {
		return fmt.Errorf("pdf requires at least one day in the grid")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	dayColumn := (pageWidth - timeColumn) / float64(len(timetable))

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(timeColumn, headerRow, "Time", "1", 0, "C", false, 0, "")
	for _, day := range timetable {
		pdf.CellFormat(dayColumn, headerRow, day.Day.String(), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for index, period := range schedule.Grid.Periods {
		// Tallest cell of the row decides its height
		height := minimumCell
		for _, day := range timetable {
			lines := len(cellLines(day.Cells[index]))
			height = max(height, float64(lines)*lineHeight+2)
		}

		x, y := pdf.GetXY()
		pdf.CellFormat(timeColumn, height, period.Start, "1", 0, "C", false, 0, "")
		for column, day := range timetable {
			cell := day.Cells[index]
			left := x + timeColumn + float64(column)*dayColumn
			fill := cell.Type == model.CellLunch
			if fill {
				pdf.SetFillColor(230, 230, 230)
			}
			pdf.Rect(left, y, dayColumn, height, rectStyle(fill))
			pdf.SetXY(left, y+1)
			pdf.MultiCell(dayColumn, lineHeight, strings.Join(cellLines(cell), "\n"), "", "C", false)
		}
		pdf.SetXY(x, y+height)
	}

	if len(schedule.Unplaceable) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 8, "Unplaceable sessions", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, entry := range schedule.Unplaceable {
			pdf.CellFormat(0, 6, fmt.Sprintf("%v (%v): %v", entry.Session.Key(), entry.Rule, entry.Reason), "", 1, "", false, 0, "")
		}
	}

	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func cellLines(cell model.Cell) []string {
	if cell.Type != model.CellSession {
		return []string{cell.Label}
	}
	lines := make([]string, 0, len(cell.Placements))
	for _, placement := range cell.Placements {
		line := placement.Session.Key()
		if placement.Room != "" {
			line += " @ " + placement.Room
		}
		lines = append(lines, line)
	}
	return lines
}

func rectStyle(fill bool) string {
	if fill {
		return "FD"
	}
	return "D"
}
