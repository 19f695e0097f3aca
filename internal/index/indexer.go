// Package index builds the vector store from the PDF source directory.
package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"citeseek/internal/chunker"
	"citeseek/internal/embedder"
	"citeseek/internal/extractor"
	"citeseek/internal/scanner"
	"citeseek/internal/store"
)

// ErrReindexInProgress is returned when a reindex is requested while one is
// already running. Only one rebuild runs at a time; concurrent requests are
// rejected rather than queued.
var ErrReindexInProgress = errors.New("reindex already in progress")

// IndexingError reports an aborted reindex. The previously published store
// stays active untouched.
type IndexingError struct {
	Stage string
	Err   error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing failed during %s: %v", e.Stage, e.Err)
}

func (e *IndexingError) Unwrap() error { return e.Err }

// Stats summarizes one completed reindex run.
type Stats struct {
	DocumentsIndexed int
	DocumentsSkipped int
	ChunksIndexed    int
	Duration         time.Duration
}

// Builder is the write surface of a store generation under construction.
// *store.SQLiteStore satisfies it.
type Builder interface {
	InsertDocument(d store.Document) (int64, error)
	InsertChunks(documentID int64, chunks []store.Chunk) ([]int64, error)
	InsertEmbeddings(chunkIDs []int64, embeddings [][]float32) error
	SetEmbeddingModel(model string) error
	Close() error
}

// Target hands out fresh build generations and swaps them in when complete.
type Target interface {
	NewBuild() (Builder, error)
	Publish() error
	DiscardBuild()
}

// ManagerTarget adapts a store.Manager to the Target interface.
type ManagerTarget struct {
	Manager *store.Manager
}

func (t ManagerTarget) NewBuild() (Builder, error) { return t.Manager.NewBuild() }
func (t ManagerTarget) Publish() error             { return t.Manager.Publish() }
func (t ManagerTarget) DiscardBuild()              { t.Manager.DiscardBuild() }

// Config holds the indexer settings.
type Config struct {
	SourcesDir   string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
}

// Indexer rebuilds the store from scratch: scan, extract, chunk, embed,
// insert, publish. A document that fails extraction is skipped with a log
// line; any other failure aborts the whole rebuild.
type Indexer struct {
	target   Target
	embedder embedder.Embedder
	cfg      Config
	running  atomic.Bool
}

// New creates an indexer writing into the given target.
func New(target Target, e embedder.Embedder, cfg Config) (*Indexer, error) {
	if target == nil || e == nil {
		return nil, errors.New("target and embedder are required")
	}
	if cfg.ChunkSize <= 0 || cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("invalid chunking config: size %d, overlap %d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	return &Indexer{target: target, embedder: e, cfg: cfg}, nil
}

// Running reports whether a reindex is currently in flight.
func (ix *Indexer) Running() bool { return ix.running.Load() }

// Reindex rebuilds the entire store from the source directory and publishes
// the result atomically. Returns ErrReindexInProgress if called while a
// rebuild is already running.
func (ix *Indexer) Reindex(ctx context.Context) (*Stats, error) {
	if !ix.running.CompareAndSwap(false, true) {
		return nil, ErrReindexInProgress
	}
	defer ix.running.Store(false)

	start := time.Now()

	files, err := scanner.Scan(ix.cfg.SourcesDir)
	if err != nil {
		return nil, &IndexingError{Stage: "scan", Err: err}
	}

	builder, err := ix.target.NewBuild()
	if err != nil {
		return nil, &IndexingError{Stage: "open build", Err: err}
	}

	stats, err := ix.build(ctx, builder, files)
	if err == nil && stats.DocumentsIndexed == 0 && stats.DocumentsSkipped > 0 {
		// Skipping is tolerable only while something else survives; a run
		// where every source failed extraction must not replace a working
		// index with an empty one.
		err = &IndexingError{Stage: "extract", Err: fmt.Errorf("all %d documents failed extraction", stats.DocumentsSkipped)}
	}
	if err != nil {
		builder.Close()
		ix.target.DiscardBuild()
		return nil, err
	}

	if err := builder.SetEmbeddingModel(embeddingModel(ix.embedder)); err != nil {
		builder.Close()
		ix.target.DiscardBuild()
		return nil, &IndexingError{Stage: "record metadata", Err: err}
	}
	if err := builder.Close(); err != nil {
		ix.target.DiscardBuild()
		return nil, &IndexingError{Stage: "close build", Err: err}
	}
	if err := ix.target.Publish(); err != nil {
		ix.target.DiscardBuild()
		return nil, &IndexingError{Stage: "publish", Err: err}
	}

	stats.Duration = time.Since(start)
	log.Printf("reindex complete: %d documents, %d chunks, %d skipped in %s",
		stats.DocumentsIndexed, stats.ChunksIndexed, stats.DocumentsSkipped, stats.Duration.Round(time.Millisecond))
	return stats, nil
}

func (ix *Indexer) build(ctx context.Context, builder Builder, files []scanner.FileInfo) (*Stats, error) {
	stats := &Stats{}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, &IndexingError{Stage: "extract", Err: err}
		}

		result, err := extractor.Extract(f.Path)
		if err != nil {
			var exErr *extractor.ExtractionError
			if errors.As(err, &exErr) {
				log.Printf("skipping %s: %v", f.RelPath, err)
				stats.DocumentsSkipped++
				continue
			}
			return nil, &IndexingError{Stage: "extract", Err: err}
		}

		chunks, err := chunker.Split(result.Pages, result.Doc.DocID, ix.cfg.ChunkSize, ix.cfg.ChunkOverlap)
		if err != nil {
			return nil, &IndexingError{Stage: "chunk", Err: err}
		}
		if len(chunks) == 0 {
			log.Printf("skipping %s: no extractable text", f.RelPath)
			stats.DocumentsSkipped++
			continue
		}

		docRowID, err := builder.InsertDocument(store.Document{
			DocID:      result.Doc.DocID,
			Title:      result.Doc.Title,
			Author:     result.Doc.Author,
			Year:       result.Doc.Year,
			Pages:      result.Doc.Pages,
			SourcePath: f.RelPath,
		})
		if err != nil {
			return nil, &IndexingError{Stage: "insert document", Err: err}
		}

		chunkIDs, err := builder.InsertChunks(docRowID, toStoreChunks(chunks))
		if err != nil {
			return nil, &IndexingError{Stage: "insert chunks", Err: err}
		}

		if err := ix.embedAndInsert(ctx, builder, chunks, chunkIDs); err != nil {
			return nil, err
		}

		stats.DocumentsIndexed++
		stats.ChunksIndexed += len(chunks)
	}
	return stats, nil
}

// embedAndInsert embeds the document's chunks in fixed-size batches and
// stores the vectors keyed by chunk row ID.
func (ix *Indexer) embedAndInsert(ctx context.Context, builder Builder, chunks []chunker.Chunk, chunkIDs []int64) error {
	for lo := 0; lo < len(chunks); lo += ix.cfg.BatchSize {
		hi := lo + ix.cfg.BatchSize
		if hi > len(chunks) {
			hi = len(chunks)
		}

		texts := make([]string, hi-lo)
		for i, c := range chunks[lo:hi] {
			texts[i] = c.Text
		}

		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return &IndexingError{Stage: "embed", Err: err}
		}
		if err := builder.InsertEmbeddings(chunkIDs[lo:hi], vectors); err != nil {
			return &IndexingError{Stage: "insert embeddings", Err: err}
		}
	}
	return nil
}

func toStoreChunks(chunks []chunker.Chunk) []store.Chunk {
	out := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = store.Chunk{
			UID:        c.UID,
			Seq:        c.Seq,
			Text:       c.Text,
			PageStart:  c.PageStart,
			PageEnd:    c.PageEnd,
			TokenCount: c.TokenCount,
		}
	}
	return out
}

// embeddingModel pulls the model name when the embedder exposes one.
func embeddingModel(e embedder.Embedder) string {
	type named interface{ Model() string }
	if n, ok := e.(named); ok {
		return n.Model()
	}
	return ""
}
