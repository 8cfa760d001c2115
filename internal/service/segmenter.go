package service

import (
	"eicr-case-reader/internal/domain"
	"eicr-case-reader/internal/rules"
)

// Segmenter partitions a raw document into kind-labelled sections on
// heading boundaries.
type Segmenter struct {
	logger domain.Logger
}

// NewSegmenter creates a section segmenter.
func NewSegmenter(logger domain.Logger) *Segmenter {
	return &Segmenter{logger: logger}
}

// Segment scans fragments in reading order, opening a new section whenever
// a fragment matches a heading literal for a known kind. The heading
// fragment belongs to the section it opens. Output sections are contiguous,
// non-overlapping, and cover every fragment; regions before the first
// heading (or a document without any) come out as kind Other.
func (s *Segmenter) Segment(doc *domain.RawDocument, ruleSet *rules.RuleSet) []domain.Section {
	flat := doc.Fragments()
	if len(flat) == 0 {
		return nil
	}

	var sections []domain.Section
	counts := make(map[domain.SectionKind]int)

	open := func(kind domain.SectionKind, start int) domain.Section {
		counts[kind]++
		return domain.Section{
			Kind:       kind,
			Occurrence: counts[kind],
			Start:      start,
			Page:       flat[start].Page,
		}
	}

	current := open(domain.SectionOther, 0)
	for i, frag := range flat {
		if kind, ok := ruleSet.MatchHeading(frag.Text); ok {
			if i == 0 {
				// The document opens with a heading; replace the implicit
				// leading Other section.
				counts[domain.SectionOther]--
				current = open(kind, 0)
			} else {
				current.End = i
				sections = append(sections, current)
				current = open(kind, i)
			}
		}
		current.Fragments = append(current.Fragments, frag)
	}
	current.End = len(flat)
	sections = append(sections, current)

	s.logger.Debug("Segmented document", "fragments", len(flat), "sections", len(sections))
	return sections
}

// hasRecognizedSection reports whether segmentation found any heading at
// all.
func hasRecognizedSection(sections []domain.Section) bool {
	for _, sec := range sections {
		if sec.Kind != domain.SectionOther {
			return true
		}
	}
	return false
}
