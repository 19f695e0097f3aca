package citation

import (
	"fmt"
	"strings"

	"citeseek/internal/store"
)

// Citation binds a source document to its position in one response.
// Ordinals are 1-based and assigned in first-seen order over the ranked
// retrieval results, so they are deterministic for a given result set.
type Citation struct {
	Document  store.Document
	Ordinal   int
	Inline    string
	Reference string
}

// Resolve walks retrieval results in rank order and produces one Citation
// per distinct document. A document retrieved through several chunks
// collapses to a single entry keeping its first-seen ordinal.
func Resolve(results []store.SearchResult) []Citation {
	seen := make(map[string]bool)
	var citations []Citation

	for _, r := range results {
		if seen[r.Document.DocID] {
			continue
		}
		seen[r.Document.DocID] = true
		citations = append(citations, Citation{
			Document:  r.Document,
			Ordinal:   len(citations) + 1,
			Inline:    FormatInline(r.Document),
			Reference: FormatReference(r.Document),
		})
	}
	return citations
}

// Markup renders the numbered sources block appended to a response body.
// Returns "" when there are no citations.
func Markup(citations []Citation) string {
	if len(citations) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n**Sources:**\n")
	for _, c := range citations {
		fmt.Fprintf(&sb, "%d. %s\n", c.Ordinal, c.Reference)
	}
	return sb.String()
}
