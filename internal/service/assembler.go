package service

import (
	"strings"

	"eicr-case-reader/internal/domain"
)

// Assembler folds field results into the final record. The record always
// comes out fully populated, with the unknown marker standing in for every
// leaf that had no Found result, and a diagnostic entry for every result
// with a status other than Found.
type Assembler struct {
	logger domain.Logger
}

// NewAssembler creates a record assembler.
func NewAssembler(logger domain.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble builds the record and diagnostics from all field results of one
// extraction pass, in input order. Scalar fields take the first Found
// result. Repeated groups cluster by section occurrence; table rows
// additionally by row index. Fallback lab results whose source lines are
// too far apart are emitted as singleton groups with a grouping diagnostic
// instead of being merged.
func (a *Assembler) Assemble(results []domain.FieldResult) (*domain.EicrRecord, domain.ExtractionDiagnostics) {
	record := domain.NewEicrRecord()
	diags := make(domain.ExtractionDiagnostics, 0)

	set := make(map[string]bool)
	var conditionResults []domain.FieldResult
	var labResults []domain.FieldResult

	for _, res := range results {
		if res.Status != domain.StatusFound {
			diags = append(diags, toDiagnostic(res))
		}
		switch {
		case strings.HasPrefix(res.Field, "conditions."):
			conditionResults = append(conditionResults, res)
		case strings.HasPrefix(res.Field, "labResults."):
			labResults = append(labResults, res)
		default:
			if res.Status != domain.StatusFound || set[res.Field] {
				continue
			}
			if !setScalarField(record, res.Field, res.Value) {
				a.logger.Warn("Unmapped field path", "field", res.Field)
				continue
			}
			set[res.Field] = true
		}
	}

	record.Conditions = a.assembleConditions(conditionResults)
	var labDiags domain.ExtractionDiagnostics
	record.LabResults, labDiags = a.assembleLabResults(labResults)
	diags = append(diags, labDiags...)

	return record, diags
}

// assembleConditions builds one condition per section occurrence from the
// Found results clustered on it.
func (a *Assembler) assembleConditions(results []domain.FieldResult) []domain.ReportableCondition {
	out := make([]domain.ReportableCondition, 0)
	for _, group := range groupByOccurrence(results) {
		cond := domain.NewReportableCondition()
		found := false
		for _, res := range group.results {
			if res.Status != domain.StatusFound {
				continue
			}
			if setConditionField(&cond, res.Field, res.Value) {
				found = true
			} else {
				a.logger.Warn("Unmapped field path", "field", res.Field)
			}
		}
		if found {
			out = append(out, cond)
		}
	}
	return out
}

// assembleLabResults builds lab rows. Row-scoped results merge on
// (occurrence, row). Fallback results merge per occurrence only when their
// source lines form one tight block; otherwise each becomes a singleton
// group and the occurrence gets a grouping diagnostic.
func (a *Assembler) assembleLabResults(results []domain.FieldResult) ([]domain.LabResult, domain.ExtractionDiagnostics) {
	out := make([]domain.LabResult, 0)
	diags := make(domain.ExtractionDiagnostics, 0)

	for _, group := range groupByOccurrence(results) {
		rowOrder := make([]int, 0)
		byRow := make(map[int][]domain.FieldResult)
		var fallback []domain.FieldResult
		for _, res := range group.results {
			if res.Row >= 1 {
				if _, seen := byRow[res.Row]; !seen {
					rowOrder = append(rowOrder, res.Row)
				}
				byRow[res.Row] = append(byRow[res.Row], res)
			} else if res.Status == domain.StatusFound {
				fallback = append(fallback, res)
			}
		}

		for _, row := range rowOrder {
			if lab, ok := a.buildLab(byRow[row]); ok {
				out = append(out, lab)
			}
		}

		if len(fallback) == 0 {
			continue
		}
		if resultsAdjacent(fallback) {
			if lab, ok := a.buildLab(fallback); ok {
				out = append(out, lab)
			}
			continue
		}
		// Lines are too far apart to belong to one result row. Emit each
		// value on its own rather than conflating separate results.
		a.logger.Warn("Lab results could not be grouped", "occurrence", group.occurrence, "results", len(fallback))
		diags = append(diags, domain.Diagnostic{
			Field:    "labResults",
			Status:   domain.StatusGroupingAmbiguous,
			Location: fallback[0].Location,
		})
		for _, res := range fallback {
			if lab, ok := a.buildLab([]domain.FieldResult{res}); ok {
				out = append(out, lab)
			}
		}
	}
	return out, diags
}

// buildLab folds Found results into one lab row.
func (a *Assembler) buildLab(results []domain.FieldResult) (domain.LabResult, bool) {
	lab := domain.NewLabResult()
	found := false
	for _, res := range results {
		if res.Status != domain.StatusFound {
			continue
		}
		if setLabField(&lab, res.Field, res.Value) {
			found = true
		} else {
			a.logger.Warn("Unmapped field path", "field", res.Field)
		}
	}
	return lab, found
}

type occurrenceGroup struct {
	occurrence int
	results    []domain.FieldResult
}

// groupByOccurrence clusters results on their section occurrence,
// preserving first-appearance order.
func groupByOccurrence(results []domain.FieldResult) []occurrenceGroup {
	var groups []occurrenceGroup
	index := make(map[int]int)
	for _, res := range results {
		i, ok := index[res.Occurrence]
		if !ok {
			i = len(groups)
			index[res.Occurrence] = i
			groups = append(groups, occurrenceGroup{occurrence: res.Occurrence})
		}
		groups[i].results = append(groups[i].results, res)
	}
	return groups
}

// resultsAdjacent reports whether the results' source lines sit on one page
// within a window small enough to read as a single block.
func resultsAdjacent(results []domain.FieldResult) bool {
	if len(results) <= 1 {
		return true
	}
	page := results[0].Location.Page
	minLine, maxLine := results[0].Location.Line, results[0].Location.Line
	for _, res := range results[1:] {
		if res.Location.Page != page {
			return false
		}
		if res.Location.Line < minLine {
			minLine = res.Location.Line
		}
		if res.Location.Line > maxLine {
			maxLine = res.Location.Line
		}
	}
	return maxLine-minLine <= len(results)+1
}

func toDiagnostic(res domain.FieldResult) domain.Diagnostic {
	return domain.Diagnostic{
		Field:    res.Field,
		Status:   res.Status,
		Location: res.Location,
		Raw:      res.Raw,
	}
}

// setScalarField maps a field path to its record leaf. Returns false for
// paths the record does not know.
func setScalarField(rec *domain.EicrRecord, field, value string) bool {
	switch field {
	case "documentId":
		rec.DocumentID = value
	case "patient.name":
		rec.Patient.Name = value
	case "patient.birthDate":
		rec.Patient.BirthDate = value
	case "patient.id":
		rec.Patient.ID = value
	case "patient.sex":
		rec.Patient.Sex = value
	case "patient.address":
		rec.Patient.Address = value
	case "patient.phone":
		rec.Patient.Phone = value
	case "reporter.name":
		rec.Reporter.Name = value
	case "reporter.facility":
		rec.Reporter.Facility = value
	case "reporter.phone":
		rec.Reporter.Phone = value
	case "encounter.facility":
		rec.Encounter.Facility = value
	case "encounter.class":
		rec.Encounter.Class = value
	case "encounter.admissionDate":
		rec.Encounter.AdmissionDate = value
	case "encounter.dischargeDate":
		rec.Encounter.DischargeDate = value
	default:
		return false
	}
	return true
}

func setConditionField(c *domain.ReportableCondition, field, value string) bool {
	switch field {
	case "conditions.code":
		c.Code = value
	case "conditions.description":
		c.Description = value
	case "conditions.onsetDate":
		c.OnsetDate = value
	default:
		return false
	}
	return true
}

func setLabField(l *domain.LabResult, field, value string) bool {
	switch field {
	case "labResults.testName":
		l.TestName = value
	case "labResults.value":
		l.Value = value
	case "labResults.unit":
		l.Unit = value
	case "labResults.referenceRange":
		l.ReferenceRange = value
	case "labResults.date":
		l.Date = value
	default:
		return false
	}
	return true
}
