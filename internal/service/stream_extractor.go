package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"eicr-case-reader/internal/domain"
)

// StreamExtractor extracts text by parsing PDF content streams with pdfcpu.
// Pure Go, no native dependency; positions and font sizes come straight from
// the text operators.
type StreamExtractor struct {
	logger domain.Logger
}

// NewStreamExtractor creates a content-stream text extractor.
func NewStreamExtractor(logger domain.Logger) *StreamExtractor {
	return &StreamExtractor{logger: logger}
}

// Name identifies the backend in logs and config.
func (e *StreamExtractor) Name() string {
	return "stream"
}

// Extract parses the PDF and returns its text as positioned fragments in
// reading order. Returns domain.ErrUnreadableDocument for corrupt or
// encrypted input and for documents with no extractable text at all.
func (e *StreamExtractor) Extract(ctx context.Context, pdfBytes []byte) (*domain.RawDocument, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdfBytes), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: pdfcpu read: %v", domain.ErrUnreadableDocument, err)
	}

	hasImages := detectImageStreams(pdfCtx)

	doc := &domain.RawDocument{
		Meta: domain.DocumentMeta{
			PageCount: pdfCtx.PageCount,
			Backend:   e.Name(),
		},
	}

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := domain.Page{Number: pageNr}
		if data := readPageContent(pdfCtx, pageNr); len(data) > 0 {
			page.Fragments = parseContentStream(data, pageNr)
		}
		doc.Pages = append(doc.Pages, page)
	}

	if doc.Meta.Title == "" {
		doc.Meta.Title = firstLine(doc)
	}

	quality := measureQuality(doc, hasImages)
	e.logger.Debug("PDF extraction quality",
		"backend", e.Name(),
		"pages", quality.PageCount,
		"chars_per_page", int(quality.CharsPerPage),
		"printable_ratio", fmt.Sprintf("%.2f", quality.PrintableRatio),
		"wordlike_ratio", fmt.Sprintf("%.2f", quality.WordlikeRatio),
		"has_images", quality.HasImageStreams)
	if quality.NeedsOCR() {
		e.logger.Warn("Document likely needs OCR", "pages", quality.PageCount, "chars_per_page", int(quality.CharsPerPage))
	}

	if !doc.HasText() {
		return nil, fmt.Errorf("%w: no extractable text in %d pages", domain.ErrUnreadableDocument, pdfCtx.PageCount)
	}
	return doc, nil
}

// readPageContent returns the raw content stream of a page, or nil.
func readPageContent(ctx *model.Context, pageNr int) []byte {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil
	}
	return data
}

// detectImageStreams checks if the PDF contains image XObjects.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	// Fallback: scan the xref table for image subtype stream objects.
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// pdfStringRe matches PDF string literals in parentheses. Escaped
// parentheses stay inside the literal, so "(Phone: \(360\) 555-0144)"
// captures as one string.
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// parseContentStream walks the text operators of one page and emits a
// fragment per text-show operator, carrying the position and font size
// currently in effect.
func parseContentStream(data []byte, pageNr int) []domain.TextFragment {
	var (
		frags    []domain.TextFragment
		x, y     float64
		fontSize float64
		leading  float64
	)

	emit := func(line []byte) {
		matches := pdfStringRe.FindAllSubmatch(line, -1)
		var sb strings.Builder
		for _, m := range matches {
			sb.WriteString(decodePDFString(m[1]))
		}
		text := cleanFragmentText(sb.String())
		if text == "" {
			return
		}
		frags = append(frags, domain.TextFragment{
			Text:     text,
			Page:     pageNr,
			Line:     len(frags) + 1,
			X:        x,
			Y:        y,
			FontSize: fontSize,
		})
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		// /F1 12 Tf sets the font and size.
		case bytes.HasSuffix(line, []byte("Tf")):
			if v, ok := trailingNumber(line, 2); ok {
				fontSize = v
			}

		// 72 700 Td (and TD) move the text position.
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if vx, vy, ok := trailingPair(line, 2); ok {
				x, y = vx, vy
			}

		// 1 0 0 1 72 700 Tm resets the text matrix; the last two operands
		// are the position.
		case bytes.HasSuffix(line, []byte("Tm")):
			if vx, vy, ok := trailingPair(line, 2); ok {
				x, y = vx, vy
			}

		// 14 TL sets the leading consumed by T* and '.
		case bytes.HasSuffix(line, []byte("TL")):
			if v, ok := trailingNumber(line, 2); ok {
				leading = v
			}

		// T* moves to the start of the next text line.
		case bytes.Equal(line, []byte("T*")):
			y -= leading

		// Tj / TJ / ' show text; ' moves down a line first.
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			emit(line)
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			y -= leading
			emit(line)
		}
	}
	return frags
}

// trailingNumber parses the float immediately before the operator token of
// opLen bytes at the end of the line.
func trailingNumber(line []byte, opLen int) (float64, bool) {
	fields := strings.Fields(string(line[:len(line)-opLen]))
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// trailingPair parses the two floats immediately before the operator token.
func trailingPair(line []byte, opLen int) (float64, float64, bool) {
	fields := strings.Fields(string(line[:len(line)-opLen]))
	if len(fields) < 2 {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(fields[len(fields)-2], 64)
	y, errY := strconv.ParseFloat(fields[len(fields)-1], 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// cleanFragmentText normalises whitespace inside one fragment. Column gaps
// (tabs or runs of two or more spaces) survive as two spaces so label/value
// and table rules can still see them.
func cleanFragmentText(text string) string {
	var sb strings.Builder
	spaceRun := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			if r == '\t' {
				spaceRun += 2
			} else {
				spaceRun++
			}
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		if spaceRun > 0 && sb.Len() > 0 {
			if spaceRun > 1 {
				sb.WriteString("  ")
			} else {
				sb.WriteByte(' ')
			}
		}
		spaceRun = 0
		sb.WriteRune(r)
	}
	return sb.String()
}

// firstLine returns the first non-empty fragment text, truncated, for use
// as a title fallback.
func firstLine(doc *domain.RawDocument) string {
	for _, page := range doc.Pages {
		for _, frag := range page.Fragments {
			t := strings.TrimSpace(frag.Text)
			if t != "" {
				if len(t) > 200 {
					t = t[:200]
				}
				return t
			}
		}
	}
	return ""
}
