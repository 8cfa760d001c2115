package domain

import "strings"

// SectionKind identifies one semantic category of EICR content.
type SectionKind string

const (
	SectionPatient   SectionKind = "patient"
	SectionReporter  SectionKind = "reporter"
	SectionEncounter SectionKind = "encounter"
	SectionCondition SectionKind = "condition"
	SectionLabResult SectionKind = "labResult"
	SectionOther     SectionKind = "other"
)

// KnownSectionKinds lists the extractable section kinds in canonical order.
// Used wherever deterministic iteration over kinds is required.
var KnownSectionKinds = []SectionKind{
	SectionPatient,
	SectionReporter,
	SectionEncounter,
	SectionCondition,
	SectionLabResult,
}

// Valid reports whether k is one of the defined section kinds.
func (k SectionKind) Valid() bool {
	switch k {
	case SectionPatient, SectionReporter, SectionEncounter,
		SectionCondition, SectionLabResult, SectionOther:
		return true
	}
	return false
}

// Section is a contiguous run of fragments assigned to one section kind.
// Sections partition the document completely and never overlap. A Section
// only lives for the duration of a single extraction pass.
type Section struct {
	Kind       SectionKind
	Occurrence int // 1-based among sections of the same kind

	// Fragment range [Start, End) over the flattened document.
	Start int
	End   int

	Page      int // page of the first fragment, 1-indexed
	Fragments []TextFragment
}

// Text returns the section content as newline-joined fragment text.
func (s *Section) Text() string {
	lines := make([]string, 0, len(s.Fragments))
	for _, f := range s.Fragments {
		lines = append(lines, f.Text)
	}
	return strings.Join(lines, "\n")
}
