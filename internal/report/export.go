package report

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	attendanceSheet = "Attendance"
	summarySheet    = "Summary"
	timeLayout      = "15:04:05"
)

var (
	attendanceHeader = []interface{}{"Date", "Name", "Email", "Status", "Check in", "Check out"}
	summaryHeader    = []interface{}{"Date", "Employees", "Present", "Late", "Absent", "Checked out", "Open"}
)

// ExportXLSX writes an Excel workbook for r to w.
func (s *Service) ExportXLSX(ctx context.Context, w io.Writer, r Range) error {
	rows, err := s.Records(ctx, r, "")
	if err != nil {
		return err
	}
	summary, err := s.DailySummary(ctx, r)
	if err != nil {
		return err
	}

	f, err := s.buildWorkbook(rows, summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: write xlsx: %w", err)
	}
	return nil
}

func (s *Service) buildWorkbook(rows []Row, summary []Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(attendanceSheet, "A1", &attendanceHeader); err != nil {
		f.Close()
		return nil, err
	}
	for i, row := range rows {
		checkOut := ""
		if row.CheckOutTime != nil {
			checkOut = row.CheckOutTime.In(s.loc).Format(timeLayout)
		}
		values := []interface{}{
			row.WorkDate,
			row.UserName,
			row.UserEmail,
			string(row.Status),
			row.CheckInTime.In(s.loc).Format(timeLayout),
			checkOut,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(attendanceSheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		f.Close()
		return nil, err
	}
	for i, day := range summary {
		values := []interface{}{day.WorkDate, day.Employees, day.Present, day.Late, day.Absent, day.CheckedOut, day.Open}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetPanes(attendanceSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
