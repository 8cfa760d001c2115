package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"eicr-case-reader/internal/domain"
)

func TestStreamExtractor_Extract(t *testing.T) {
	extractor := NewStreamExtractor(NewMockLogger())

	doc, err := extractor.Extract(context.Background(), buildCaseReportPDF())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.Meta.PageCount != 2 || len(doc.Pages) != 2 {
		t.Fatalf("Expected 2 pages, got meta %d / pages %d", doc.Meta.PageCount, len(doc.Pages))
	}
	if doc.Meta.Backend != "stream" {
		t.Errorf("Expected backend stream, got %q", doc.Meta.Backend)
	}
	if doc.Meta.Title != "ELECTRONIC INITIAL CASE REPORT" {
		t.Errorf("Expected the first line as title fallback, got %q", doc.Meta.Title)
	}

	pages := caseReportPages()
	for pi, page := range doc.Pages {
		if len(page.Fragments) != len(pages[pi]) {
			t.Fatalf("Page %d: expected %d fragments, got %d", pi+1, len(pages[pi]), len(page.Fragments))
		}
		for fi, frag := range page.Fragments {
			if frag.Text != pages[pi][fi] {
				t.Errorf("Page %d line %d: expected %q, got %q", pi+1, fi+1, pages[pi][fi], frag.Text)
			}
			if frag.Page != pi+1 || frag.Line != fi+1 {
				t.Errorf("Fragment carries wrong position: %+v", frag)
			}
		}
	}

	// Positions come from the Td operators of the fixture.
	first := doc.Pages[0].Fragments[0]
	if first.X != 72 || first.Y != 720 {
		t.Errorf("Expected position (72, 720), got (%f, %f)", first.X, first.Y)
	}
	if first.FontSize != 12 {
		t.Errorf("Expected font size 12, got %f", first.FontSize)
	}
}

func TestStreamExtractor_ExtractGarbage(t *testing.T) {
	extractor := NewStreamExtractor(NewMockLogger())

	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("plain text, no pdf header")},
		{"truncated header", []byte("%PDF-1.4\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := extractor.Extract(context.Background(), tt.input)
			if !errors.Is(err, domain.ErrUnreadableDocument) {
				t.Errorf("Expected ErrUnreadableDocument, got %v", err)
			}
			if doc != nil {
				t.Error("Expected no document on failure")
			}
		})
	}
}

func TestStreamExtractor_ImageOnly(t *testing.T) {
	extractor := NewStreamExtractor(NewMockLogger())

	_, err := extractor.Extract(context.Background(), buildImageOnlyPDF())
	if !errors.Is(err, domain.ErrUnreadableDocument) {
		t.Fatalf("Expected ErrUnreadableDocument for an image-only PDF, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "no extractable text") {
		t.Errorf("Expected the no-text cause in the error, got %v", err)
	}
}

func TestStreamExtractor_ContextCancelled(t *testing.T) {
	extractor := NewStreamExtractor(NewMockLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractor.Extract(ctx, buildCaseReportPDF())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestParseContentStream(t *testing.T) {
	data := []byte("BT\n/F1 14 Tf\n72 700 Td\n(Patient Name: Jane Doe) Tj\nET\n" +
		"BT\n1 0 0 1 72 660 Tm\n(Second \\(escaped\\) line) Tj\nET\n" +
		"BT\n72 640 Td\n() Tj\nET\n")

	frags := parseContentStream(data, 3)
	if len(frags) != 2 {
		t.Fatalf("Expected 2 fragments (empty strings dropped), got %d", len(frags))
	}
	if frags[0].Text != "Patient Name: Jane Doe" {
		t.Errorf("Unexpected first fragment: %q", frags[0].Text)
	}
	if frags[0].Page != 3 || frags[0].Line != 1 {
		t.Errorf("Unexpected first position: %+v", frags[0])
	}
	if frags[0].FontSize != 14 || frags[0].X != 72 || frags[0].Y != 700 {
		t.Errorf("Unexpected first geometry: %+v", frags[0])
	}
	if frags[1].Text != "Second (escaped) line" {
		t.Errorf("Unexpected second fragment: %q", frags[1].Text)
	}
	if frags[1].Y != 660 {
		t.Errorf("Expected Tm to move the position, got %f", frags[1].Y)
	}
}

func TestParseContentStream_Leading(t *testing.T) {
	data := []byte("BT\n/F1 10 Tf\n14 TL\n72 700 Td\n(First) Tj\nT*\n(Second) Tj\n(Third) '\nET\n")

	frags := parseContentStream(data, 1)
	if len(frags) != 3 {
		t.Fatalf("Expected 3 fragments, got %d", len(frags))
	}
	if frags[0].Y != 700 {
		t.Errorf("Expected first fragment at y 700, got %f", frags[0].Y)
	}
	if frags[1].Y != 686 {
		t.Errorf("Expected T* to move down by the leading, got y %f", frags[1].Y)
	}
	if frags[2].Text != "Third" || frags[2].Y != 672 {
		t.Errorf("Expected ' to move down before showing, got %q at y %f", frags[2].Text, frags[2].Y)
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"escaped parens", `a \(b\) c`, "a (b) c"},
		{"escaped backslash", `a\\b`, `a\b`},
		{"newline", `a\nb`, "a\nb"},
		{"octal space", `a\040b`, "a b"},
		{"octal two digits", `a\40b`, "a b"},
		{"trailing backslash kept literal", `a\b`, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodePDFString([]byte(tt.in)); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCleanFragmentText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Jane Doe", "Jane Doe"},
		{"leading and trailing space", "  Jane Doe  ", "Jane Doe"},
		{"inner run collapsed to gap", "Test Name    Result", "Test Name  Result"},
		{"tab becomes a gap", "Test Name\tResult", "Test Name  Result"},
		{"single spaces preserved", "SARS-CoV-2 RNA Positive", "SARS-CoV-2 RNA Positive"},
		{"control characters dropped", "Ja\x01ne", "Jane"},
		{"only whitespace", " \t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanFragmentText(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTrailingOperands(t *testing.T) {
	if v, ok := trailingNumber([]byte("/F1 12 Tf"), 2); !ok || v != 12 {
		t.Errorf("Expected 12, got %f (ok=%v)", v, ok)
	}
	if _, ok := trailingNumber([]byte("Tf"), 2); ok {
		t.Error("Expected failure on a bare operator")
	}
	if x, y, ok := trailingPair([]byte("72 700 Td"), 2); !ok || x != 72 || y != 700 {
		t.Errorf("Expected (72, 700), got (%f, %f) ok=%v", x, y, ok)
	}
	if x, y, ok := trailingPair([]byte("1 0 0 1 72 660 Tm"), 2); !ok || x != 72 || y != 660 {
		t.Errorf("Expected the last pair (72, 660), got (%f, %f) ok=%v", x, y, ok)
	}
}
