package rules

import (
	"fmt"
	"regexp"
	"strings"

	"eicr-case-reader/internal/domain"
)

// Normalizer names accepted in rule definitions. The extraction service maps
// them to concrete normalization functions.
const (
	NormalizerString     = "string"
	NormalizerDate       = "date"
	NormalizerCode       = "code"
	NormalizerNumber     = "number"
	NormalizerIdentifier = "identifier"
	NormalizerPhone      = "phone"
)

// NormalizerNames lists every valid normalizer, in schema enum order.
var NormalizerNames = []string{
	NormalizerString,
	NormalizerDate,
	NormalizerCode,
	NormalizerNumber,
	NormalizerIdentifier,
	NormalizerPhone,
}

// HeadingRule maps heading literals to a section kind. Literals are compared
// against normalized lines (trimmed, whitespace-collapsed, uppercased).
type HeadingRule struct {
	Kind     domain.SectionKind `json:"kind"`
	Literals []string           `json:"literals"`
}

// FieldRule describes how to find one scalar field inside a section kind:
// anchor literals tried in order, a value pattern applied to the text after
// the anchor (or to the line at LineOffset below it), and a normalizer.
type FieldRule struct {
	Field      string             `json:"field"`
	Kind       domain.SectionKind `json:"kind"`
	Anchors    []string           `json:"anchors"`
	Value      string             `json:"value,omitempty"`
	LineOffset int                `json:"line_offset,omitempty"`
	Normalizer string             `json:"normalizer"`
	Vocabulary map[string]string  `json:"vocabulary,omitempty"`

	anchorRes []*regexp.Regexp
	valueRe   *regexp.Regexp
}

// TableColumn binds a header-cell pattern to a record field.
type TableColumn struct {
	Match      string `json:"match"`
	Field      string `json:"field"`
	Normalizer string `json:"normalizer"`

	matchRe *regexp.Regexp
}

// TableRule describes row-oriented extraction for a section kind: column
// header patterns plus optional stop literals that end the table body.
type TableRule struct {
	Kind    domain.SectionKind `json:"kind"`
	Columns []TableColumn      `json:"columns"`
	Stop    []string           `json:"stop,omitempty"`

	stopLiterals []string
}

// DocumentIDRule locates the report identifier anywhere in the document.
// Patterns are tried in order; the first capture group of the first match
// wins.
type DocumentIDRule struct {
	Patterns []string `json:"patterns"`

	res []*regexp.Regexp
}

// RuleSet is the full extraction configuration: heading literals, scalar
// field rules, table rules, and the document-id rule. Immutable once
// compiled; loaded at startup and shared across requests.
type RuleSet struct {
	Version    string          `json:"version"`
	Headings   []HeadingRule   `json:"headings"`
	Fields     []FieldRule     `json:"fields"`
	Tables     []TableRule     `json:"tables,omitempty"`
	DocumentID *DocumentIDRule `json:"document_id,omitempty"`
}

// compile validates the rule set and builds the regex state. Returns an
// error wrapping domain.ErrRuleSetInvalid on any bad entry.
func (rs *RuleSet) compile() error {
	if len(rs.Headings) == 0 {
		return fmt.Errorf("%w: at least one heading rule is required", domain.ErrRuleSetInvalid)
	}
	for i := range rs.Headings {
		h := &rs.Headings[i]
		if !h.Kind.Valid() {
			return fmt.Errorf("%w: heading %d: unknown kind %q", domain.ErrRuleSetInvalid, i, h.Kind)
		}
		if len(h.Literals) == 0 {
			return fmt.Errorf("%w: heading %d: no literals", domain.ErrRuleSetInvalid, i)
		}
	}
	for i := range rs.Fields {
		f := &rs.Fields[i]
		if err := f.compile(); err != nil {
			return fmt.Errorf("%w: field %q: %v", domain.ErrRuleSetInvalid, f.Field, err)
		}
	}
	for i := range rs.Tables {
		t := &rs.Tables[i]
		if err := t.compile(); err != nil {
			return fmt.Errorf("%w: table for kind %q: %v", domain.ErrRuleSetInvalid, t.Kind, err)
		}
	}
	if rs.DocumentID != nil {
		if err := rs.DocumentID.compile(); err != nil {
			return fmt.Errorf("%w: document_id: %v", domain.ErrRuleSetInvalid, err)
		}
	}
	return nil
}

func (f *FieldRule) compile() error {
	if f.Field == "" {
		return fmt.Errorf("empty field path")
	}
	if !f.Kind.Valid() || f.Kind == domain.SectionOther {
		return fmt.Errorf("kind %q is not extractable", f.Kind)
	}
	if len(f.Anchors) == 0 {
		return fmt.Errorf("no anchors")
	}
	if !validNormalizer(f.Normalizer) {
		return fmt.Errorf("unknown normalizer %q", f.Normalizer)
	}
	if f.LineOffset < 0 {
		return fmt.Errorf("negative line offset")
	}
	f.anchorRes = make([]*regexp.Regexp, 0, len(f.Anchors))
	for _, a := range f.Anchors {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("blank anchor")
		}
		// The separator after the anchor is mandatory (colon, hash, a column
		// gap, or end of line) so that "Condition" does not anchor inside
		// "Condition Code: ...".
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(a) + `(?:\s*[:#]\s*|\s{2,}|\s*$)`)
		if err != nil {
			return fmt.Errorf("anchor %q: %v", a, err)
		}
		f.anchorRes = append(f.anchorRes, re)
	}
	pattern := f.Value
	if pattern == "" {
		pattern = `(.+)`
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("value pattern %q: %v", f.Value, err)
	}
	f.valueRe = re
	return nil
}

func (t *TableRule) compile() error {
	if !t.Kind.Valid() || t.Kind == domain.SectionOther {
		return fmt.Errorf("kind %q is not extractable", t.Kind)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("no columns")
	}
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Field == "" {
			return fmt.Errorf("column %d: empty field path", i)
		}
		if !validNormalizer(c.Normalizer) {
			return fmt.Errorf("column %d: unknown normalizer %q", i, c.Normalizer)
		}
		re, err := regexp.Compile(c.Match)
		if err != nil {
			return fmt.Errorf("column %d: match pattern %q: %v", i, c.Match, err)
		}
		c.matchRe = re
	}
	t.stopLiterals = make([]string, 0, len(t.Stop))
	for _, s := range t.Stop {
		t.stopLiterals = append(t.stopLiterals, NormalizeHeading(s))
	}
	return nil
}

func (d *DocumentIDRule) compile() error {
	if len(d.Patterns) == 0 {
		return fmt.Errorf("no patterns")
	}
	d.res = make([]*regexp.Regexp, 0, len(d.Patterns))
	for _, p := range d.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("pattern %q: %v", p, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("pattern %q: needs a capture group", p)
		}
		d.res = append(d.res, re)
	}
	return nil
}

func validNormalizer(name string) bool {
	for _, n := range NormalizerNames {
		if n == name {
			return true
		}
	}
	return false
}

// NormalizeHeading canonicalizes a line for heading comparison: trims
// surrounding space, collapses inner whitespace, uppercases, and drops a
// trailing colon.
func NormalizeHeading(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToUpper(s)
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}

// MatchHeading reports the section kind of a heading line, if any. A literal
// matches when the normalized line equals it or continues past it at a word
// boundary. When several literals match, the longest one wins.
func (rs *RuleSet) MatchHeading(line string) (domain.SectionKind, bool) {
	norm := NormalizeHeading(line)
	if norm == "" {
		return "", false
	}
	var (
		bestKind domain.SectionKind
		bestLen  = -1
	)
	for i := range rs.Headings {
		h := &rs.Headings[i]
		for _, lit := range h.Literals {
			normLit := NormalizeHeading(lit)
			if normLit == "" || len(normLit) <= bestLen {
				continue
			}
			if norm == normLit {
				bestKind, bestLen = h.Kind, len(normLit)
				continue
			}
			if strings.HasPrefix(norm, normLit) {
				next := norm[len(normLit)]
				if next == ' ' || next == ':' || next == '-' {
					bestKind, bestLen = h.Kind, len(normLit)
				}
			}
		}
	}
	if bestLen < 0 {
		return "", false
	}
	return bestKind, true
}

// FieldsFor returns the scalar field rules registered for a section kind,
// in declaration order.
func (rs *RuleSet) FieldsFor(kind domain.SectionKind) []*FieldRule {
	var out []*FieldRule
	for i := range rs.Fields {
		if rs.Fields[i].Kind == kind {
			out = append(out, &rs.Fields[i])
		}
	}
	return out
}

// TableFor returns the table rule for a section kind, or nil when the kind
// is not table-driven.
func (rs *RuleSet) TableFor(kind domain.SectionKind) *TableRule {
	for i := range rs.Tables {
		if rs.Tables[i].Kind == kind {
			return &rs.Tables[i]
		}
	}
	return nil
}

// ExpectedKinds returns the section kinds referenced by any field or table
// rule, ordered like domain.KnownSectionKinds. The engine reports a
// diagnostic for each expected kind missing from a document.
func (rs *RuleSet) ExpectedKinds() []domain.SectionKind {
	referenced := make(map[domain.SectionKind]bool)
	for i := range rs.Fields {
		referenced[rs.Fields[i].Kind] = true
	}
	for i := range rs.Tables {
		referenced[rs.Tables[i].Kind] = true
	}
	out := make([]domain.SectionKind, 0, len(referenced))
	for _, kind := range domain.KnownSectionKinds {
		if referenced[kind] {
			out = append(out, kind)
		}
	}
	return out
}

// FindAnchor scans a line for the rule's anchors in declared order and
// returns the text after the first match.
func (f *FieldRule) FindAnchor(line string) (rest string, ok bool) {
	for _, re := range f.anchorRes {
		if loc := re.FindStringIndex(line); loc != nil {
			return line[loc[1]:], true
		}
	}
	return "", false
}

// ExtractValue applies the value pattern to text. Returns the first capture
// group, or the whole match when the pattern has no groups.
func (f *FieldRule) ExtractValue(text string) (string, bool) {
	m := f.valueRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

// ColumnFor returns the column binding whose pattern matches a header cell.
func (t *TableRule) ColumnFor(headerCell string) (*TableColumn, bool) {
	cell := strings.TrimSpace(headerCell)
	for i := range t.Columns {
		if t.Columns[i].matchRe.MatchString(cell) {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// IsStop reports whether a line ends the table body.
func (t *TableRule) IsStop(line string) bool {
	norm := NormalizeHeading(line)
	for _, s := range t.stopLiterals {
		if norm == s {
			return true
		}
	}
	return false
}

// Find returns the document identifier captured by the first matching
// pattern, trimmed.
func (d *DocumentIDRule) Find(text string) (string, bool) {
	for _, re := range d.res {
		if m := re.FindStringSubmatch(text); m != nil && len(m) > 1 {
			id := strings.TrimSpace(m[1])
			if id != "" {
				return id, true
			}
		}
	}
	return "", false
}
