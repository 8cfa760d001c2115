package domain

import "context"

// TextExtractor defines the strategy interface for turning PDF bytes into a
// RawDocument. Implementations must return ErrUnreadableDocument (wrapped)
// for corrupt, encrypted, or text-free input.
type TextExtractor interface {
	Extract(ctx context.Context, pdfBytes []byte) (*RawDocument, error)
	Name() string
}

// ExtractionEngine is the public entry point of the extraction pipeline.
// Process returns a fully populated record plus diagnostics; the only error
// it propagates is ErrUnreadableDocument from the text extraction layer.
type ExtractionEngine interface {
	Process(ctx context.Context, pdfBytes []byte) (*EicrRecord, ExtractionDiagnostics, error)
}

// RecordExporter renders a finished record for download. Both methods return
// the artifact bytes plus a suggested filename.
type RecordExporter interface {
	ExportJSON(record *EicrRecord, diags ExtractionDiagnostics) ([]byte, string, error)
	ExportLabResultsXLSX(record *EicrRecord) ([]byte, string, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetRulesPath() string
	GetPDFBackend() string
}
