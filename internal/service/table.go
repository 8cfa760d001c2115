package service

import (
	"regexp"
	"strings"

	"eicr-case-reader/internal/domain"
	"eicr-case-reader/internal/rules"
)

// columnGapRe splits a row into cells on tabs or runs of two or more
// spaces. Single spaces stay inside a cell ("SARS-CoV-2 RNA").
var columnGapRe = regexp.MustCompile(`\t+|\s{2,}`)

func splitColumns(line string) []string {
	parts := columnGapRe.Split(line, -1)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

// extractTable parses a section laid out as a column table. The first
// fragment whose cells bind at least two distinct rule columns is the
// header; every following multi-cell fragment is a body row until a stop
// literal. Returns ok=false when no header row is recognized so the caller
// can fall back to scalar rules.
func (fe *FieldExtractor) extractTable(sec domain.Section, table *rules.TableRule) ([]domain.FieldResult, bool) {
	headerIdx := -1
	var bindings []*rules.TableColumn

	for i, frag := range sec.Fragments {
		cells := splitColumns(frag.Text)
		if len(cells) < 2 {
			continue
		}
		candidate := make([]*rules.TableColumn, len(cells))
		seen := make(map[string]bool)
		matched := 0
		for ci, cell := range cells {
			if col, ok := table.ColumnFor(cell); ok && !seen[col.Field] {
				candidate[ci] = col
				seen[col.Field] = true
				matched++
			}
		}
		if matched >= 2 {
			headerIdx = i
			bindings = candidate
			break
		}
	}
	if headerIdx < 0 {
		return nil, false
	}

	var results []domain.FieldResult
	row := 0
	for _, frag := range sec.Fragments[headerIdx+1:] {
		if table.IsStop(frag.Text) {
			break
		}
		cells := splitColumns(frag.Text)
		if len(cells) < 2 {
			// Notes and blank filler between rows are not rows.
			continue
		}
		row++
		for ci, cell := range cells {
			if ci >= len(bindings) || bindings[ci] == nil {
				continue
			}
			col := bindings[ci]
			result := domain.FieldResult{
				Field:      col.Field,
				Kind:       sec.Kind,
				Occurrence: sec.Occurrence,
				Row:        row,
				Raw:        cell,
				Location:   domain.SourceLocation{Page: frag.Page, Line: frag.Line},
			}
			if normalized, ok := normalizeValue(col.Normalizer, cell, nil); ok {
				result.Status = domain.StatusFound
				result.Value = normalized
				result.Confidence = confidenceTableCell
			} else {
				result.Status = domain.StatusAmbiguous
				result.Confidence = confidenceAmbiguous
			}
			results = append(results, result)
		}
	}
	return results, true
}
