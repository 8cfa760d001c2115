// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"eicr-case-reader/internal/domain"
	apperrors "eicr-case-reader/pkg/errors"
)

// ReportHandler handles case-report extraction HTTP requests
type ReportHandler struct {
	engine   domain.ExtractionEngine
	exporter domain.RecordExporter
	config   domain.Config
	logger   domain.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(engine domain.ExtractionEngine, exporter domain.RecordExporter, config domain.Config, logger domain.Logger) *ReportHandler {
	return &ReportHandler{
		engine:   engine,
		exporter: exporter,
		config:   config,
		logger:   logger,
	}
}

// extractResponse is the JSON body of a successful extraction: the record
// fields inline plus the diagnostics list.
type extractResponse struct {
	*domain.EicrRecord
	Diagnostics domain.ExtractionDiagnostics `json:"diagnostics"`
}

// ExtractReport handles POST /reports/extract: multipart PDF upload in,
// structured record plus diagnostics out.
func (h *ReportHandler) ExtractReport(w http.ResponseWriter, r *http.Request) {
	pdfBytes, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	record, diags, err := h.engine.Process(r.Context(), pdfBytes)
	if err != nil {
		h.respondProcessError(w, err, filename)
		return
	}
	if diags == nil {
		diags = make(domain.ExtractionDiagnostics, 0)
	}

	h.logger.Info("Report extracted", "filename", filename, "document_id", record.DocumentID, "diagnostics", len(diags))
	writeJSON(w, http.StatusOK, extractResponse{EicrRecord: record, Diagnostics: diags})
}

// ExportReport handles POST /reports/export?format=json|xlsx: extracts the
// uploaded report and returns the rendered artifact as an attachment.
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "Unsupported export format. Allowed: json, xlsx.")
		return
	}

	pdfBytes, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	record, diags, err := h.engine.Process(r.Context(), pdfBytes)
	if err != nil {
		h.respondProcessError(w, err, filename)
		return
	}

	var (
		data        []byte
		name        string
		contentType string
	)
	switch format {
	case "json":
		data, name, err = h.exporter.ExportJSON(record, diags)
		contentType = "application/json"
	case "xlsx":
		data, name, err = h.exporter.ExportLabResultsXLSX(record)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		appErr := apperrors.NewInternalError("Failed to render export", err)
		h.logger.Error("Export failed", err, "filename", filename, "format", format)
		writeError(w, apperrors.GetStatusCode(appErr), appErr.Message)
		return
	}

	h.logger.Info("Report exported", "filename", filename, "format", format, "attachment", name, "bytes", len(data))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readUpload validates the multipart upload and returns the PDF bytes. On
// failure the response has already been written.
func (h *ReportHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return nil, "", false
	}
	defer file.Close()

	// Sanitize filename (strip any path components)
	originalName := strings.TrimSpace(filepath.Base(header.Filename))
	if originalName == "" || originalName == "." || originalName == string(filepath.Separator) {
		originalName = "report.pdf"
	}

	// Validate extension (strict allow-list)
	if ext := strings.ToLower(filepath.Ext(originalName)); ext != ".pdf" {
		writeError(w, http.StatusBadRequest, "Unsupported file type. Only PDF (.pdf) case reports are accepted.")
		return nil, "", false
	}

	maxSize := h.config.GetMaxFileSize()
	if header.Size > maxSize {
		writeError(w, http.StatusBadRequest, "File too large.")
		return nil, "", false
	}

	// The size header is client-supplied; cap the actual read as well.
	pdfBytes, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		appErr := apperrors.NewInternalError("Failed to read upload", err)
		h.logger.Error("Upload read failed", err, "filename", originalName)
		writeError(w, apperrors.GetStatusCode(appErr), appErr.Message)
		return nil, "", false
	}
	if int64(len(pdfBytes)) > maxSize {
		writeError(w, http.StatusBadRequest, "File too large.")
		return nil, "", false
	}
	return pdfBytes, originalName, true
}

// respondProcessError maps engine errors onto HTTP statuses: unreadable
// documents are a client problem (422), everything else is internal.
func (h *ReportHandler) respondProcessError(w http.ResponseWriter, err error, filename string) {
	if errors.Is(err, domain.ErrUnreadableDocument) {
		appErr := apperrors.NewUnreadableDocumentError("Document could not be read. It may be corrupt, encrypted, or a scan without a text layer.", err)
		h.logger.Warn("Unreadable document", "filename", filename, "error", err.Error())
		writeError(w, apperrors.GetStatusCode(appErr), appErr.Message)
		return
	}
	appErr := apperrors.NewInternalError("Extraction failed", err)
	h.logger.Error("Extraction failed", err, "filename", filename)
	writeError(w, apperrors.GetStatusCode(appErr), appErr.Message)
}
