// Package chunker splits extracted document text into overlapping,
// fixed-size token windows, the unit of embedding and retrieval.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"citeseek/internal/extractor"
)

// Chunk is a bounded span of document text. UID is a deterministic hash of
// the owning document ID and the sequence index, so re-chunking identical
// input always yields identical IDs.
type Chunk struct {
	UID        string
	DocID      string
	Seq        int
	Text       string
	PageStart  int
	PageEnd    int
	TokenCount int
}

// token is a single word with the page it came from.
type token struct {
	text string
	page int
}

// Split chunks the per-page text of a document into windows of size tokens
// with the given overlap. Tokens are whitespace-delimited words; a window
// never splits mid-word. Each chunk after the first starts size-overlap
// tokens after the previous start, so consecutive chunks share exactly
// overlap tokens except the final chunk, which may be shorter. A document
// shorter than one window yields exactly one chunk.
//
// Preconditions: size > 0 and 0 <= overlap < size.
func Split(pages []extractor.Page, docID string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", overlap, size)
	}

	var tokens []token
	for _, p := range pages {
		for _, w := range strings.Fields(p.Text) {
			tokens = append(tokens, token{text: w, page: p.Number})
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	step := size - overlap
	var chunks []Chunk
	for start := 0; ; start += step {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		words := make([]string, len(window))
		for i, t := range window {
			words[i] = t.text
		}

		seq := len(chunks)
		chunks = append(chunks, Chunk{
			UID:        ChunkUID(docID, seq),
			DocID:      docID,
			Seq:        seq,
			Text:       strings.Join(words, " "),
			PageStart:  window[0].page,
			PageEnd:    window[len(window)-1].page,
			TokenCount: len(window),
		})

		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}

// ChunkUID derives the stable chunk identifier from the document ID and the
// chunk's sequence index.
func ChunkUID(docID string, seq int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", docID, seq)))
	return hex.EncodeToString(sum[:])[:16]
}
