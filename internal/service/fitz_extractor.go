package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"eicr-case-reader/internal/domain"
)

// FitzExtractor extracts text with MuPDF via go-fitz. Handles the widest
// range of real-world PDFs but needs the native library at runtime.
type FitzExtractor struct {
	logger domain.Logger
}

// NewFitzExtractor creates a MuPDF-backed text extractor.
func NewFitzExtractor(logger domain.Logger) *FitzExtractor {
	return &FitzExtractor{logger: logger}
}

// Name identifies the backend in logs and config.
func (e *FitzExtractor) Name() string {
	return "fitz"
}

// Extract renders each page to text and splits it into line fragments.
// Returns domain.ErrUnreadableDocument for corrupt or encrypted input and
// for documents with no extractable text at all.
func (e *FitzExtractor) Extract(ctx context.Context, pdfBytes []byte) (*domain.RawDocument, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open PDF: %v", domain.ErrUnreadableDocument, err)
	}
	defer doc.Close()

	docMetadata := doc.Metadata()
	out := &domain.RawDocument{
		Meta: domain.DocumentMeta{
			PageCount: doc.NumPage(),
			Backend:   e.Name(),
		},
	}
	if title, ok := docMetadata["title"]; ok && title != "" {
		out.Meta.Title = title
	}
	if author, ok := docMetadata["author"]; ok && author != "" {
		out.Meta.Author = author
	}

	numPages := doc.NumPage()
	const pageTimeout = 90 * time.Second

	type pageResult struct {
		text string
		err  error
	}

	for pageNum := 0; pageNum < numPages; pageNum++ {
		e.logger.Debug("PDF processing page", "page", pageNum+1, "total", numPages)
		resultCh := make(chan pageResult, 1)
		go func(idx int) {
			t, err := doc.Text(idx)
			resultCh <- pageResult{text: t, err: err}
		}(pageNum)

		var text string
		var pageErr error
		select {
		case res := <-resultCh:
			text, pageErr = res.text, res.err
		case <-ctx.Done():
			go func() { <-resultCh }() // drain so goroutine can exit
			return nil, ctx.Err()
		case <-time.After(pageTimeout):
			e.logger.Warn("PDF page extraction timeout; using empty page", "page", pageNum+1, "total", numPages, "timeout_sec", int(pageTimeout.Seconds()))
			pageErr = fmt.Errorf("timeout after %v", pageTimeout)
			go func() { <-resultCh }() // drain so goroutine can exit
		}

		page := domain.Page{Number: pageNum + 1}
		if pageErr != nil {
			e.logger.Warn("Failed to extract text from page", "page_num", pageNum+1, "total", numPages, "error", pageErr)
			out.Pages = append(out.Pages, page)
			continue
		}

		page.Fragments = splitPageLines(text, pageNum+1)
		out.Pages = append(out.Pages, page)
	}

	if out.Meta.Title == "" {
		out.Meta.Title = firstLine(out)
	}

	quality := measureQuality(out, false)
	e.logger.Debug("PDF extraction quality",
		"backend", e.Name(),
		"pages", quality.PageCount,
		"chars_per_page", int(quality.CharsPerPage),
		"printable_ratio", fmt.Sprintf("%.2f", quality.PrintableRatio),
		"wordlike_ratio", fmt.Sprintf("%.2f", quality.WordlikeRatio))
	if quality.NeedsOCR() {
		e.logger.Warn("Document likely needs OCR", "pages", quality.PageCount, "chars_per_page", int(quality.CharsPerPage))
	}

	if !out.HasText() {
		return nil, fmt.Errorf("%w: no extractable text in %d pages", domain.ErrUnreadableDocument, numPages)
	}
	return out, nil
}

// splitPageLines turns raw page text into one fragment per non-empty line,
// preserving reading order.
func splitPageLines(text string, pageNr int) []domain.TextFragment {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var frags []domain.TextFragment
	for _, raw := range strings.Split(text, "\n") {
		line := cleanFragmentText(sanitizeText(raw))
		if line == "" {
			continue
		}
		frags = append(frags, domain.TextFragment{
			Text: line,
			Page: pageNr,
			Line: len(frags) + 1,
		})
	}
	return frags
}

// sanitizeText removes NULL bytes, stray control characters, and surrogate
// code points that break downstream JSON encoding.
func sanitizeText(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		if r == 0x00 {
			continue
		}
		if r == 0x09 || r == 0x0A || r == 0x0D {
			result.WriteRune(r)
		} else if r >= 0x20 && r < 0x7F {
			result.WriteRune(r)
		} else if r >= 0x7F && r <= 0x10FFFF {
			// Exclude surrogates (0xD800-0xDFFF) which are invalid in JSON
			if r < 0xD800 || r > 0xDFFF {
				result.WriteRune(r)
			}
		}
	}

	return result.String()
}
