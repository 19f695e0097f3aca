package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, dim int) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path, dim)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func insertDoc(t *testing.T, s *SQLiteStore, docID string, chunks []Chunk, embeddings [][]float32) {
	t.Helper()
	docRowID, err := s.InsertDocument(Document{DocID: docID, Title: docID})
	require.NoError(t, err)
	ids, err := s.InsertChunks(docRowID, chunks)
	require.NoError(t, err)
	require.NoError(t, s.InsertEmbeddings(ids, embeddings))
}

func TestOpenRejectsDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := Open(path, 3)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path, 4)
	assert.Error(t, err)
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	s, _ := openTestStore(t, 3)
	insertDoc(t, s, "doc.pdf",
		[]Chunk{
			{UID: "aaa", Seq: 0, Text: "identical"},
			{UID: "bbb", Seq: 1, Text: "orthogonal"},
			{UID: "ccc", Seq: 2, Text: "opposite"},
		},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{-1, 0, 0},
		},
	)

	results, err := s.Search([]float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "aaa", results[0].Chunk.UID)
	assert.Equal(t, "bbb", results[1].Chunk.UID)
	assert.Equal(t, "ccc", results[2].Chunk.UID)

	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.InDelta(t, 0.5, results[1].Score, 1e-4)
	assert.InDelta(t, 0.0, results[2].Score, 1e-4)
}

func TestSearchReturnsAtMostK(t *testing.T) {
	s, _ := openTestStore(t, 3)
	insertDoc(t, s, "doc.pdf",
		[]Chunk{
			{UID: "aaa", Seq: 0, Text: "a"},
			{UID: "bbb", Seq: 1, Text: "b"},
			{UID: "ccc", Seq: 2, Text: "c"},
		},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
	)

	results, err := s.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Asking for more than exists returns everything, not an error.
	results, err = s.Search([]float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchBreaksTiesByUID(t *testing.T) {
	s, _ := openTestStore(t, 3)
	// Identical vectors are equidistant from any query, so ordering can
	// only come from the UID tie-break.
	insertDoc(t, s, "doc.pdf",
		[]Chunk{
			{UID: "zzz", Seq: 0, Text: "z"},
			{UID: "aaa", Seq: 1, Text: "a"},
			{UID: "mmm", Seq: 2, Text: "m"},
		},
		[][]float32{
			{0, 1, 0},
			{0, 1, 0},
			{0, 1, 0},
		},
	)

	results, err := s.Search([]float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "aaa", results[0].Chunk.UID)
	assert.Equal(t, "mmm", results[1].Chunk.UID)
	assert.Equal(t, "zzz", results[2].Chunk.UID)
}

func TestSearchValidation(t *testing.T) {
	s, _ := openTestStore(t, 3)

	_, err := s.Search([]float32{1, 0, 0}, 0)
	assert.Error(t, err)
	_, err = s.Search([]float32{1, 0}, 5)
	assert.Error(t, err)
}

func TestInsertEmbeddingsRejectsBadDimension(t *testing.T) {
	s, _ := openTestStore(t, 3)
	docRowID, err := s.InsertDocument(Document{DocID: "d.pdf"})
	require.NoError(t, err)
	ids, err := s.InsertChunks(docRowID, []Chunk{{UID: "u", Seq: 0, Text: "t"}})
	require.NoError(t, err)

	err = s.InsertEmbeddings(ids, [][]float32{{1, 0}})
	assert.Error(t, err)
	err = s.InsertEmbeddings(ids, nil)
	assert.Error(t, err)
}

func TestMetaRoundTrip(t *testing.T) {
	s, _ := openTestStore(t, 3)

	model, err := s.EmbeddingModel()
	require.NoError(t, err)
	assert.Empty(t, model)

	require.NoError(t, s.SetEmbeddingModel("text-embedding-3-small"))
	model, err = s.EmbeddingModel()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", model)
}

func TestManagerEmptyUntilPublished(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	m, err := OpenManager(path, 3)
	require.NoError(t, err)
	defer m.Close()

	results, err := m.Search([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	total, err := m.TotalDocuments()
	require.NoError(t, err)
	assert.Zero(t, total)

	docs, err := m.ListDocuments()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestManagerPublishSwapsGenerations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	m, err := OpenManager(path, 3)
	require.NoError(t, err)
	defer m.Close()

	builder, err := m.NewBuild()
	require.NoError(t, err)
	insertDoc(t, builder, "first.pdf",
		[]Chunk{{UID: "u1", Seq: 0, Text: "t"}},
		[][]float32{{1, 0, 0}},
	)
	require.NoError(t, builder.Close())
	require.NoError(t, m.Publish())

	total, err := m.TotalDocuments()
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// A second rebuild replaces the first generation wholesale.
	builder, err = m.NewBuild()
	require.NoError(t, err)
	insertDoc(t, builder, "second.pdf",
		[]Chunk{{UID: "u2", Seq: 0, Text: "t"}},
		[][]float32{{0, 1, 0}},
	)
	insertDoc(t, builder, "third.pdf",
		[]Chunk{{UID: "u3", Seq: 0, Text: "t"}},
		[][]float32{{0, 0, 1}},
	)
	require.NoError(t, builder.Close())
	require.NoError(t, m.Publish())

	docs, err := m.ListDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "second.pdf", docs[0].DocID)
	assert.Equal(t, "third.pdf", docs[1].DocID)
}

func TestManagerFailedSwapKeepsOldGenerationQueryable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	m, err := OpenManager(path, 3)
	require.NoError(t, err)
	defer m.Close()

	builder, err := m.NewBuild()
	require.NoError(t, err)
	insertDoc(t, builder, "old.pdf",
		[]Chunk{{UID: "u1", Seq: 0, Text: "t"}},
		[][]float32{{1, 0, 0}},
	)
	require.NoError(t, builder.Close())
	require.NoError(t, m.Publish())

	// A non-empty directory at the build path makes the rename fail after
	// the old generation has already been closed.
	buildPath := path + ".rebuild"
	require.NoError(t, os.MkdirAll(filepath.Join(buildPath, "block"), 0o755))

	err = m.Publish()
	require.Error(t, err)

	// The old generation must still be served.
	total, err := m.TotalDocuments()
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	results, err := m.Search([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "old.pdf", results[0].Document.DocID)
}

func TestManagerDiscardBuildKeepsActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	m, err := OpenManager(path, 3)
	require.NoError(t, err)
	defer m.Close()

	builder, err := m.NewBuild()
	require.NoError(t, err)
	insertDoc(t, builder, "keep.pdf",
		[]Chunk{{UID: "u1", Seq: 0, Text: "t"}},
		[][]float32{{1, 0, 0}},
	)
	require.NoError(t, builder.Close())
	require.NoError(t, m.Publish())

	// Start and abandon a rebuild.
	builder, err = m.NewBuild()
	require.NoError(t, err)
	require.NoError(t, builder.Close())
	m.DiscardBuild()

	total, err := m.TotalDocuments()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
