package service

import (
	"context"
	"sync/atomic"
	"time"

	"eicr-case-reader/internal/domain"
	"eicr-case-reader/internal/rules"
)

// Engine runs the full extraction pipeline: text extraction, segmentation,
// field extraction, assembly. It is safe for concurrent use; a running pass
// keeps the rule set it started with even across a reload.
type Engine struct {
	extractor domain.TextExtractor
	segmenter *Segmenter
	fields    *FieldExtractor
	assembler *Assembler
	logger    domain.Logger

	rules atomic.Pointer[rules.RuleSet]
}

// NewEngine creates an extraction engine with the given text backend and
// rule set.
func NewEngine(extractor domain.TextExtractor, ruleSet *rules.RuleSet, logger domain.Logger) *Engine {
	e := &Engine{
		extractor: extractor,
		segmenter: NewSegmenter(logger),
		fields:    NewFieldExtractor(logger),
		assembler: NewAssembler(logger),
		logger:    logger,
	}
	e.rules.Store(ruleSet)
	return e
}

// Rules returns the rule set currently in effect.
func (e *Engine) Rules() *rules.RuleSet {
	return e.rules.Load()
}

// ReloadRules swaps the rule set. In-flight extractions finish on the set
// they loaded at start.
func (e *Engine) ReloadRules(ruleSet *rules.RuleSet) {
	e.rules.Store(ruleSet)
	e.logger.Info("Rule set reloaded", "version", ruleSet.Version)
}

// Process extracts a structured record from PDF bytes. The only error it
// returns is the text layer's domain.ErrUnreadableDocument (or a context
// error); everything downstream degrades into diagnostics instead of
// failing, since a partial record is still useful to the consumer.
func (e *Engine) Process(ctx context.Context, pdfBytes []byte) (*domain.EicrRecord, domain.ExtractionDiagnostics, error) {
	start := time.Now()
	ruleSet := e.rules.Load()

	doc, err := e.extractor.Extract(ctx, pdfBytes)
	if err != nil {
		e.logger.Error("Text extraction failed", err, "backend", e.extractor.Name(), "bytes", len(pdfBytes))
		return nil, nil, err
	}

	sections := e.segmenter.Segment(doc, ruleSet)

	var all []domain.FieldResult
	if ruleSet.DocumentID != nil {
		all = append(all, e.findDocumentID(doc, ruleSet))
	}

	present := make(map[domain.SectionKind]bool)
	for _, sec := range sections {
		present[sec.Kind] = true
		all = append(all, e.fields.ExtractSection(sec, ruleSet)...)
	}

	if !hasRecognizedSection(sections) {
		e.logger.Warn("No recognizable section headings", "fragments", doc.FragmentCount())
		all = append(all, domain.FieldResult{
			Field:    "document",
			Status:   domain.StatusSectionNotFound,
			Location: firstFragmentLocation(doc),
			Row:      -1,
		})
	}
	for _, kind := range ruleSet.ExpectedKinds() {
		if !present[kind] {
			all = append(all, domain.FieldResult{
				Field:  "section." + string(kind),
				Kind:   kind,
				Status: domain.StatusSectionNotFound,
				Row:    -1,
			})
		}
	}

	record, diags := e.assembler.Assemble(all)
	e.logger.Info("Extraction complete",
		"backend", e.extractor.Name(),
		"pages", len(doc.Pages),
		"sections", len(sections),
		"fields", len(all),
		"diagnostics", len(diags),
		"duration_ms", time.Since(start).Milliseconds())
	return record, diags, nil
}

// findDocumentID scans fragments in reading order for the report
// identifier.
func (e *Engine) findDocumentID(doc *domain.RawDocument, ruleSet *rules.RuleSet) domain.FieldResult {
	result := domain.FieldResult{
		Field:  "documentId",
		Status: domain.StatusNotFound,
		Row:    -1,
	}
	for _, page := range doc.Pages {
		for _, frag := range page.Fragments {
			if id, ok := ruleSet.DocumentID.Find(frag.Text); ok {
				result.Status = domain.StatusFound
				result.Value = id
				result.Raw = id
				result.Confidence = confidenceAnchored
				result.Location = domain.SourceLocation{Page: frag.Page, Line: frag.Line}
				return result
			}
		}
	}
	return result
}

func firstFragmentLocation(doc *domain.RawDocument) domain.SourceLocation {
	for _, page := range doc.Pages {
		for _, frag := range page.Fragments {
			return domain.SourceLocation{Page: frag.Page, Line: frag.Line}
		}
	}
	return domain.SourceLocation{}
}
