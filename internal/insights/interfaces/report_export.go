package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/insights/application"
)

// BuildMaintenanceReportPDF renders a maintenance report for one home.
func BuildMaintenanceReportPDF(data *application.ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Home Maintenance Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Home: %s", data.Home.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Community: %s", data.Home.CommunityID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Range: %s to %s", data.From.Format("2006-01-02"), data.To.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Entries: %d", data.Timeline.TotalMaintenance))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Cost: %.2f", data.Timeline.TotalCost))
	pdf.Ln(8)

	// Detected patterns table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "System", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Interval (days)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Consistency", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Confidence", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, pattern := range data.Patterns {
		pdf.CellFormat(50, 6, pattern.SystemID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.1f", pattern.IntervalDays), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.0f", pattern.Consistency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, string(pattern.Confidence), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// Monthly timeline table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Entries", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Cost", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Mean Temp (C)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, bucket := range data.Timeline.Buckets {
		meanTemp := "-"
		if bucket.Weather != nil {
			meanTemp = fmt.Sprintf("%.1f", bucket.Weather.MeanTempC)
		}
		pdf.CellFormat(40, 6, bucket.Start.Format("2006-01"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", bucket.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", bucket.TotalCost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, meanTemp, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildMaintenanceReportXLSX renders the same report as a workbook.
func BuildMaintenanceReportXLSX(data *application.ReportData) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	patternsSheet := "patterns"
	timelineSheet := "timeline"
	entriesSheet := "entries"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(patternsSheet)
	f.NewSheet(timelineSheet)
	f.NewSheet(entriesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Home Maintenance Report")
	_ = f.SetCellValue(summarySheet, "A3", "Home")
	_ = f.SetCellValue(summarySheet, "B3", data.Home.Name)
	_ = f.SetCellValue(summarySheet, "A4", "Community")
	_ = f.SetCellValue(summarySheet, "B4", data.Home.CommunityID)
	_ = f.SetCellValue(summarySheet, "A5", "From")
	_ = f.SetCellValue(summarySheet, "B5", data.From.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "To")
	_ = f.SetCellValue(summarySheet, "B6", data.To.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A7", "Entries")
	_ = f.SetCellValue(summarySheet, "B7", data.Timeline.TotalMaintenance)
	_ = f.SetCellValue(summarySheet, "A8", "Total Cost")
	_ = f.SetCellValue(summarySheet, "B8", data.Timeline.TotalCost)
	for i, season := range data.Seasons {
		row := 10 + i
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), season.Season)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), season.Count)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), season.TotalCost)
	}

	_ = f.SetCellValue(patternsSheet, "A1", "System")
	_ = f.SetCellValue(patternsSheet, "B1", "Occurrences")
	_ = f.SetCellValue(patternsSheet, "C1", "Interval (days)")
	_ = f.SetCellValue(patternsSheet, "D1", "Consistency")
	_ = f.SetCellValue(patternsSheet, "E1", "Confidence")
	for i, pattern := range data.Patterns {
		row := i + 2
		_ = f.SetCellValue(patternsSheet, fmt.Sprintf("A%d", row), pattern.SystemID)
		_ = f.SetCellValue(patternsSheet, fmt.Sprintf("B%d", row), pattern.Occurrences)
		_ = f.SetCellValue(patternsSheet, fmt.Sprintf("C%d", row), pattern.IntervalDays)
		_ = f.SetCellValue(patternsSheet, fmt.Sprintf("D%d", row), pattern.Consistency)
		_ = f.SetCellValue(patternsSheet, fmt.Sprintf("E%d", row), string(pattern.Confidence))
	}

	_ = f.SetCellValue(timelineSheet, "A1", "Bucket Start")
	_ = f.SetCellValue(timelineSheet, "B1", "Entries")
	_ = f.SetCellValue(timelineSheet, "C1", "Cost")
	_ = f.SetCellValue(timelineSheet, "D1", "Mean Temp (C)")
	_ = f.SetCellValue(timelineSheet, "E1", "Extreme Events")
	for i, bucket := range data.Timeline.Buckets {
		row := i + 2
		_ = f.SetCellValue(timelineSheet, fmt.Sprintf("A%d", row), bucket.Start.Format("2006-01-02"))
		_ = f.SetCellValue(timelineSheet, fmt.Sprintf("B%d", row), bucket.Count)
		_ = f.SetCellValue(timelineSheet, fmt.Sprintf("C%d", row), bucket.TotalCost)
		if bucket.Weather != nil {
			_ = f.SetCellValue(timelineSheet, fmt.Sprintf("D%d", row), bucket.Weather.MeanTempC)
			_ = f.SetCellValue(timelineSheet, fmt.Sprintf("E%d", row), bucket.Weather.ExtremeEvents)
		}
	}

	_ = f.SetCellValue(entriesSheet, "A1", "Date")
	_ = f.SetCellValue(entriesSheet, "B1", "System")
	_ = f.SetCellValue(entriesSheet, "C1", "Title")
	_ = f.SetCellValue(entriesSheet, "D1", "Total Cost")
	_ = f.SetCellValue(entriesSheet, "E1", "Notes")
	for i, entry := range data.Entries {
		row := i + 2
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("A%d", row), entry.Date.Format("2006-01-02"))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("B%d", row), entry.SystemID)
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("C%d", row), entry.Title)
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("D%d", row), entry.Cost.Total())
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("E%d", row), entry.Notes)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
