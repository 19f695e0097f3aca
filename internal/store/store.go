package store

import (
	"database/sql"
	"fmt"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

const (
	metaEmbeddingModel = "embedding_model"
	metaEmbeddingDim   = "embedding_dim"
)

// Store is the read surface consumed by retrieval and the serving layers.
type Store interface {
	// Search finds the top-k chunks closest to the query embedding,
	// sorted by similarity descending with ties broken by ascending
	// chunk UID. An empty store returns an empty slice, not an error.
	Search(queryEmbedding []float32, k int) ([]SearchResult, error)
	// TotalDocuments returns the number of ingested documents.
	TotalDocuments() (int, error)
	// ListDocuments returns all documents ordered by doc_id.
	ListDocuments() ([]Document, error)
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite + sqlite-vec. One instance
// is one immutable index generation: reads happen on the active generation
// while reindex builds the next one in a separate file.
type SQLiteStore struct {
	db  *sql.DB
	dim int
}

// Open creates or opens a SQLite database at the given path and initializes
// the schema for the given embedding dimension. Opening an existing store
// built with a different dimension fails rather than risking a corrupt mix
// of vector sizes.
func Open(dbPath string, dim int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db, dim); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	s := &SQLiteStore{db: db, dim: dim}

	stored, err := s.GetMeta(metaEmbeddingDim)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read embedding dim: %w", err)
	}
	if stored == "" {
		if err := s.SetMeta(metaEmbeddingDim, strconv.Itoa(dim)); err != nil {
			db.Close()
			return nil, fmt.Errorf("record embedding dim: %w", err)
		}
	} else if stored != strconv.Itoa(dim) {
		db.Close()
		return nil, fmt.Errorf("store at %s was built with dimension %s, configured %d", dbPath, stored, dim)
	}
	return s, nil
}

// Dimension returns the embedding dimension this store was opened with.
func (s *SQLiteStore) Dimension() int { return s.dim }

// InsertDocument stores a document record and returns its row ID.
func (s *SQLiteStore) InsertDocument(d Document) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO documents (doc_id, title, author, year, pages, source_path) VALUES (?, ?, ?, ?, ?, ?)",
		d.DocID, d.Title, d.Author, d.Year, d.Pages, d.SourcePath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document %s: %w", d.DocID, err)
	}
	return res.LastInsertId()
}

// InsertChunks stores chunks for a document and returns their row IDs in
// input order.
func (s *SQLiteStore) InsertChunks(documentID int64, chunks []Chunk) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO chunks (document_id, uid, seq, content, page_start, page_end, token_count) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(chunks))
	for _, c := range chunks {
		res, err := stmt.Exec(documentID, c.UID, c.Seq, c.Text, c.PageStart, c.PageEnd, c.TokenCount)
		if err != nil {
			return nil, fmt.Errorf("insert chunk %s: %w", c.UID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// InsertEmbeddings stores embeddings keyed by chunk row ID. Every vector
// must match the store's dimension; a mismatch fails before any write so a
// bad batch cannot corrupt the store.
func (s *SQLiteStore) InsertEmbeddings(chunkIDs []int64, embeddings [][]float32) error {
	if len(chunkIDs) != len(embeddings) {
		return fmt.Errorf("mismatched chunk IDs (%d) and embeddings (%d)", len(chunkIDs), len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) != s.dim {
			return fmt.Errorf("embedding for chunk %d has dimension %d, store requires %d", chunkIDs[i], len(e), s.dim)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, cid := range chunkIDs {
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialize embedding for chunk %d: %w", cid, err)
		}
		if _, err := stmt.Exec(cid, blob); err != nil {
			return fmt.Errorf("insert embedding for chunk %d: %w", cid, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Search(queryEmbedding []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(queryEmbedding) != s.dim {
		return nil, fmt.Errorf("query embedding has dimension %d, store requires %d", len(queryEmbedding), s.dim)
	}
	blob, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	// vec0 KNN queries need the explicit k constraint; a plain LIMIT is not
	// pushed down across the joins.

	rows, err := s.db.Query(`
		SELECT v.distance,
		       c.id, c.document_id, c.uid, c.seq, c.content, c.page_start, c.page_end, c.token_count,
		       d.id, d.doc_id, d.title, d.author, d.year, d.pages, d.source_path
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE v.embedding MATCH ? AND v.k = ?
		ORDER BY v.distance, c.uid
	`, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		err := rows.Scan(
			&distance,
			&r.Chunk.ID, &r.Chunk.DocumentID, &r.Chunk.UID, &r.Chunk.Seq,
			&r.Chunk.Text, &r.Chunk.PageStart, &r.Chunk.PageEnd, &r.Chunk.TokenCount,
			&r.Document.ID, &r.Document.DocID, &r.Document.Title, &r.Document.Author,
			&r.Document.Year, &r.Document.Pages, &r.Document.SourcePath,
		)
		if err != nil {
			return nil, err
		}
		r.Score = similarityFromDistance(distance)
		results = append(results, r)
	}
	return results, rows.Err()
}

// similarityFromDistance maps sqlite-vec's cosine distance in [0,2] to a
// similarity score in [0,1] where higher means more relevant. Downstream
// consumers must not assume anything beyond that ordering.
func similarityFromDistance(d float64) float64 {
	score := 1 - d/2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func (s *SQLiteStore) TotalDocuments() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

func (s *SQLiteStore) ListDocuments() ([]Document, error) {
	rows, err := s.db.Query(
		"SELECT id, doc_id, title, author, year, pages, source_path FROM documents ORDER BY doc_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.DocID, &d.Title, &d.Author, &d.Year, &d.Pages, &d.SourcePath); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetMeta returns a metadata value by key, or "" if not set.
func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetMeta sets a metadata key-value pair.
func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// SetEmbeddingModel records which model produced the stored vectors.
func (s *SQLiteStore) SetEmbeddingModel(model string) error {
	return s.SetMeta(metaEmbeddingModel, model)
}

// EmbeddingModel returns the model recorded at build time, or "".
func (s *SQLiteStore) EmbeddingModel() (string, error) {
	return s.GetMeta(metaEmbeddingModel)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
