package store

// Document is an ingested source PDF. Created once per file during reindex
// and immutable afterwards; the whole set is replaced wholesale by the next
// reindex. Empty Author or Year mean "unknown".
type Document struct {
	ID         int64
	DocID      string
	Title      string
	Author     string
	Year       string
	Pages      int
	SourcePath string
}

// Chunk is a persisted span of document text. UID is the deterministic
// hash of DocID and Seq assigned by the chunker.
type Chunk struct {
	ID         int64
	DocumentID int64
	UID        string
	Seq        int
	Text       string
	PageStart  int
	PageEnd    int
	TokenCount int
}

// SearchResult is a chunk with its owning document and similarity score.
// Score is cosine similarity mapped to [0,1]; higher is more relevant.
// Results are ephemeral, produced per query and never persisted.
type SearchResult struct {
	Chunk    Chunk
	Document Document
	Score    float64
}
