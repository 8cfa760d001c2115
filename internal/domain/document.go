package domain

import "strings"

// TextFragment is one unit of extracted text. Within a page, fragments are
// stored in reading order (top-to-bottom, left-to-right).
type TextFragment struct {
	Text string `json:"text"`
	Page int    `json:"page"` // 1-indexed
	Line int    `json:"line"` // 1-indexed within the page

	// Position and style hints. Zero when the extraction backend does not
	// provide them (the fitz backend yields plain lines).
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
}

// Page holds the ordered fragments of one PDF page.
type Page struct {
	Number    int            `json:"number"` // 1-indexed
	Fragments []TextFragment `json:"fragments"`
}

// DocumentMeta carries document-level metadata for logging and diagnostics.
type DocumentMeta struct {
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	PageCount int    `json:"page_count"`
	Backend   string `json:"backend"`
}

// RawDocument is the output of the text extraction layer: ordered pages of
// ordered fragments. Consumed once per extraction pass.
type RawDocument struct {
	Pages []Page       `json:"pages"`
	Meta  DocumentMeta `json:"meta"`
}

// Fragments returns all fragments of the document flattened in reading order.
func (d *RawDocument) Fragments() []TextFragment {
	var out []TextFragment
	for _, p := range d.Pages {
		out = append(out, p.Fragments...)
	}
	return out
}

// FragmentCount returns the total number of fragments across all pages.
func (d *RawDocument) FragmentCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Fragments)
	}
	return n
}

// HasText reports whether any fragment contains non-blank text.
func (d *RawDocument) HasText() bool {
	for _, p := range d.Pages {
		for _, f := range p.Fragments {
			if strings.TrimSpace(f.Text) != "" {
				return true
			}
		}
	}
	return false
}
