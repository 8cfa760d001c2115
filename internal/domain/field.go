package domain

// FieldStatus describes how confidently a field was extracted.
type FieldStatus string

const (
	StatusFound             FieldStatus = "found"
	StatusNotFound          FieldStatus = "not_found"
	StatusAmbiguous         FieldStatus = "ambiguous"
	StatusSectionNotFound   FieldStatus = "section_not_found"
	StatusGroupingAmbiguous FieldStatus = "grouping_ambiguous"
)

// SourceLocation points at where a value was (or was expected to be) found.
type SourceLocation struct {
	Page int `json:"page"` // 1-indexed; 0 when not applicable
	Line int `json:"line"` // 1-indexed within the page; 0 when not applicable
}

// FieldResult is the outcome of applying one extraction rule to one section
// instance. Value is only meaningful when Status is StatusFound; Raw keeps
// whatever text was captured so ambiguous extractions stay traceable.
type FieldResult struct {
	Field      string // target record path, e.g. "patient.name"
	Value      string
	Raw        string
	Status     FieldStatus
	Confidence float64
	Location   SourceLocation

	// Grouping origin for repeated-group assembly.
	Kind       SectionKind
	Occurrence int
	Row        int // table row origin; -1 when not row-scoped
}

// Found reports whether the result carries a usable value.
func (r FieldResult) Found() bool {
	return r.Status == StatusFound
}

// Diagnostic is the caller-visible form of a non-Found field result.
type Diagnostic struct {
	Field    string         `json:"field"`
	Status   FieldStatus    `json:"status"`
	Location SourceLocation `json:"location"`
	Raw      string         `json:"raw,omitempty"`
}

// ExtractionDiagnostics is the ordered list of fields the engine could not
// confidently extract. Attached to every engine result; never dropped.
type ExtractionDiagnostics []Diagnostic
