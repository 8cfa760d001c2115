package service

import (
	"strings"

	"eicr-case-reader/internal/domain"
	"eicr-case-reader/internal/rules"
)

// Confidence assigned per extraction outcome. Internal only; surfaced in
// logs, never in the record.
const (
	confidenceAnchored   = 0.9
	confidencePositional = 0.8
	confidenceTableCell  = 0.85
	confidenceAmbiguous  = 0.25
)

// FieldExtractor applies extraction rules to one section at a time and
// produces a FieldResult per rule. It never fails: bad values downgrade to
// ambiguous results instead of errors.
type FieldExtractor struct {
	logger domain.Logger
}

// NewFieldExtractor creates a field extractor.
func NewFieldExtractor(logger domain.Logger) *FieldExtractor {
	return &FieldExtractor{logger: logger}
}

// ExtractSection runs every rule registered for the section's kind. Table
// rules take precedence: when a header row is recognized the section is
// parsed row-wise and the scalar rules are skipped; otherwise the scalar
// rules act as the fallback.
func (fe *FieldExtractor) ExtractSection(sec domain.Section, ruleSet *rules.RuleSet) []domain.FieldResult {
	if sec.Kind == domain.SectionOther {
		return nil
	}

	if table := ruleSet.TableFor(sec.Kind); table != nil {
		if results, ok := fe.extractTable(sec, table); ok {
			fe.logger.Debug("Extracted table section", "kind", sec.Kind, "occurrence", sec.Occurrence, "results", len(results))
			return results
		}
	}

	fieldRules := ruleSet.FieldsFor(sec.Kind)
	results := make([]domain.FieldResult, 0, len(fieldRules))
	for _, rule := range fieldRules {
		results = append(results, fe.applyRule(sec, rule))
	}
	return results
}

// applyRule scans the section's fragments in reading order and applies the
// rule at the first anchor hit. Anchor without a usable value downgrades to
// ambiguous with the raw text retained; no anchor at all is not-found.
func (fe *FieldExtractor) applyRule(sec domain.Section, rule *rules.FieldRule) domain.FieldResult {
	result := domain.FieldResult{
		Field:      rule.Field,
		Kind:       sec.Kind,
		Occurrence: sec.Occurrence,
		Row:        -1,
		Status:     domain.StatusNotFound,
		Location:   sectionLocation(sec),
	}

	for i, frag := range sec.Fragments {
		// The first fragment is the heading that opened the section, not
		// content.
		if i == 0 && sec.Kind != domain.SectionOther {
			continue
		}
		rest, ok := rule.FindAnchor(frag.Text)
		if !ok {
			continue
		}

		target := rest
		result.Location = domain.SourceLocation{Page: frag.Page, Line: frag.Line}
		confidence := confidenceAnchored

		if rule.LineOffset > 0 {
			if i+rule.LineOffset >= len(sec.Fragments) {
				result.Status = domain.StatusAmbiguous
				result.Raw = strings.TrimSpace(frag.Text)
				result.Confidence = confidenceAmbiguous
				return result
			}
			offsetFrag := sec.Fragments[i+rule.LineOffset]
			target = offsetFrag.Text
			result.Location = domain.SourceLocation{Page: offsetFrag.Page, Line: offsetFrag.Line}
			confidence = confidencePositional
		}

		captured, ok := rule.ExtractValue(target)
		if !ok {
			result.Status = domain.StatusAmbiguous
			result.Raw = strings.TrimSpace(target)
			result.Confidence = confidenceAmbiguous
			return result
		}

		normalized, ok := normalizeValue(rule.Normalizer, captured, rule.Vocabulary)
		if !ok {
			fe.logger.Debug("Normalization failed", "field", rule.Field, "normalizer", rule.Normalizer, "raw", captured)
			result.Status = domain.StatusAmbiguous
			result.Raw = strings.TrimSpace(captured)
			result.Confidence = confidenceAmbiguous
			return result
		}

		result.Status = domain.StatusFound
		result.Value = normalized
		result.Raw = strings.TrimSpace(captured)
		result.Confidence = confidence
		return result
	}

	return result
}

// sectionLocation points at the first fragment of a section, or nowhere for
// an empty one.
func sectionLocation(sec domain.Section) domain.SourceLocation {
	if len(sec.Fragments) == 0 {
		return domain.SourceLocation{}
	}
	first := sec.Fragments[0]
	return domain.SourceLocation{Page: first.Page, Line: first.Line}
}
