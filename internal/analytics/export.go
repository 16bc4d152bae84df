package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportFormat selects the export encoding
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ContentType returns the MIME type for the format
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ParseExportFormat parses a format name, defaulting to CSV
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

var exportColumns = []string{
	"recorded_at", "session_id", "visitor_id", "variant", "source",
	"phase", "duration_ms", "skipped", "auto",
}

func exportRow(rec StepRecord) []interface{} {
	return []interface{}{
		rec.RecordedAt.UTC(),
		rec.SessionID,
		rec.VisitorID,
		rec.Variant,
		rec.Source,
		rec.Phase,
		rec.DurationMs,
		rec.Skipped,
		rec.Auto,
	}
}

// Export writes records in the requested format
func Export(w io.Writer, format ExportFormat, records []StepRecord) error {
	switch format {
	case FormatXLSX:
		return exportExcel(w, records)
	default:
		return exportCSV(w, records)
	}
}

func exportCSV(w io.Writer, records []StepRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(exportColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		row := exportRow(rec)
		record := make([]string, len(row))
		for i, val := range row {
			record[i] = formatCSVValue(val)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCSVValue(val interface{}) string {
	switch v := val.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

const excelSheet = "Tutorial Steps"

func exportExcel(w io.Writer, records []StepRecord) error {
	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", excelSheet)

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	timeStyle, err := file.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return fmt.Errorf("failed to create timestamp style: %w", err)
	}

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(excelSheet, cell, col)
		file.SetCellStyle(excelSheet, cell, cell, headerStyle)
	}

	for r, rec := range records {
		for c, val := range exportRow(rec) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			file.SetCellValue(excelSheet, cell, val)
			if c == 0 {
				file.SetCellStyle(excelSheet, cell, cell, timeStyle)
			}
		}
	}

	file.SetPanes(excelSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	last, _ := excelize.CoordinatesToCellName(len(exportColumns), len(records)+1)
	if err := file.AutoFilter(excelSheet, "A1:"+last, nil); err != nil {
		return fmt.Errorf("failed to set auto filter: %w", err)
	}
	file.SetColWidth(excelSheet, "A", "C", 38)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
