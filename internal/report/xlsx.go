// Package report renders attendance reports into downloadable spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName       = "Attendance"
	TimestampLayout = "02/01/2006 15:04:05"
	ContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []interface{}{"ID", "Employee", "Username", "Timestamp", "Event Type", "Justification"}

// FileName returns the attachment name for a monthly export.
func FileName(year, month int) string {
	return fmt.Sprintf("attendance_%04d_%02d.xlsx", year, month)
}

// WriteAttendanceXLSX writes one row per event, with timestamps formatted in loc.
func WriteAttendanceXLSX(w io.Writer, rows []models.ReportRow, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(2, 6, 22); err != nil {
		return err
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.EventID,
			r.EmployeeName,
			r.Username,
			r.Timestamp.In(loc).Format(TimestampLayout),
			string(r.Type),
			r.Justification,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
