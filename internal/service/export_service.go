package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"eicr-case-reader/internal/domain"
)

// ExportService renders finished records for download as JSON or as an
// XLSX lab worksheet.
type ExportService struct {
	logger domain.Logger
}

// NewExportService creates a record exporter.
func NewExportService(logger domain.Logger) *ExportService {
	return &ExportService{logger: logger}
}

// extractPayload is the wire shape of an extraction: the record fields
// inline plus the diagnostics list.
type extractPayload struct {
	*domain.EicrRecord
	Diagnostics domain.ExtractionDiagnostics `json:"diagnostics"`
}

// ExportJSON marshals the record and its diagnostics. Returns the bytes and
// a download filename derived from the document id.
func (s *ExportService) ExportJSON(record *domain.EicrRecord, diags domain.ExtractionDiagnostics) ([]byte, string, error) {
	if diags == nil {
		diags = make(domain.ExtractionDiagnostics, 0)
	}
	payload := extractPayload{EicrRecord: record, Diagnostics: diags}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal record: %w", err)
	}
	filename := exportBaseName(record) + "_extract.json"
	s.logger.Debug("Exported record", "format", "json", "filename", filename, "bytes", len(data))
	return data, filename, nil
}

// ExportLabResultsXLSX writes the record's lab results as an XLSX workbook.
func (s *ExportService) ExportLabResultsXLSX(record *domain.EicrRecord) ([]byte, string, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Lab Results"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, "", err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Test Name",
		"Value",
		"Unit",
		"Reference Range",
		"Date",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, lab := range record.LabResults {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, lab.TestName)
		write(2, lab.Value)
		write(3, lab.Unit)
		write(4, lab.ReferenceRange)
		write(5, lab.Date)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // test name
	_ = f.SetColWidth(sheet, "B", "C", 14) // value, unit
	_ = f.SetColWidth(sheet, "D", "D", 20) // reference range
	_ = f.SetColWidth(sheet, "E", "E", 14) // date

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("xlsx write: %w", err)
	}

	filename := exportBaseName(record) + "_labs.xlsx"
	s.logger.Debug("Exported record",
		"format", "xlsx",
		"filename", filename,
		"rows", len(record.LabResults),
		"elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), filename, nil
}

// exportBaseName picks a filename stem: the document id when extraction
// found one, otherwise a fresh short id.
func exportBaseName(record *domain.EicrRecord) string {
	if record != nil && record.DocumentID != "" && record.DocumentID != domain.Unknown {
		return record.DocumentID
	}
	return "eicr_" + uuid.New().String()[:8]
}
