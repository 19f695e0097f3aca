// Package extractor turns PDF files into per-page normalized text plus
// document metadata for downstream chunking and citation.
package extractor

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is the per-file metadata extracted during ingestion. Title and
// Author come from the embedded PDF Info dictionary when present, otherwise
// from the filename. Empty Author or Year mean "unknown" and render as the
// documented placeholders at citation time.
type Document struct {
	DocID      string
	Title      string
	Author     string
	Year       string
	Pages      int
	SourcePath string
}

// Page is one page of normalized text. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Result is the output of extracting a single PDF.
type Result struct {
	Doc   Document
	Pages []Page
}

// ExtractionError reports a PDF that could not be ingested. Ingestion skips
// the file and continues; only an empty corpus aborts the run.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract opens a PDF and returns its metadata and per-page text. It fails
// with *ExtractionError when the file is unreadable, encrypted, or contains
// no extractable text (scanned-image-only PDFs).
func Extract(path string) (*Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	var pages []Page
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single bad page doesn't sink the document.
			continue
		}
		text = normalize(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, &ExtractionError{Path: path, Err: fmt.Errorf("no extractable text")}
	}

	doc := MetadataFromFilename(path)
	doc.Pages = total

	// Embedded metadata wins over filename-derived values.
	info := r.Trailer().Key("Info")
	if title := infoString(info, "Title"); title != "" {
		doc.Title = title
	}
	if author := infoString(info, "Author"); author != "" {
		doc.Author = author
	}
	if doc.Year == "" {
		if created := infoString(info, "CreationDate"); created != "" {
			doc.Year = yearFromCreationDate(created)
		}
	}

	return &Result{Doc: doc, Pages: pages}, nil
}

// infoString reads a string entry from the PDF Info dictionary, returning
// "" for missing or non-string values.
func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.RawString())
}

// yearFromCreationDate parses the year out of a PDF date of the form
// "D:20051103..." or a bare "20051103...".
func yearFromCreationDate(d string) string {
	d = strings.TrimPrefix(d, "D:")
	if len(d) < 4 {
		return ""
	}
	y := d[:4]
	for _, r := range y {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return y
}

// normalize collapses runs of whitespace so chunking sees a clean token
// stream regardless of the PDF's internal layout.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
