package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citeseek/internal/llm"
	"citeseek/internal/store"
)

type fakeSearcher struct {
	results []store.SearchResult
	err     error
	gotK    int
}

func (f *fakeSearcher) Search(_ []float32, k int) ([]store.SearchResult, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.results) {
		return f.results[:k], nil
	}
	return f.results, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type fakeGenerator struct {
	answer     string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.answer, f.err
}

func result(docID string, score float64, tokens int) store.SearchResult {
	return store.SearchResult{
		Chunk: store.Chunk{
			UID:        docID + "-chunk",
			Text:       "text from " + docID,
			TokenCount: tokens,
		},
		Document: store.Document{DocID: docID, Title: "Title " + docID, Author: "Ames, A.", Year: "2020"},
		Score:    score,
	}
}

func newTestEngine(t *testing.T, s Searcher, g llm.Generator, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(s, &fakeEmbedder{}, g, opts)
	require.NoError(t, err)
	return e
}

func TestNewEngineValidation(t *testing.T) {
	s := &fakeSearcher{}
	g := &fakeGenerator{}

	_, err := NewEngine(nil, &fakeEmbedder{}, g, Options{TopK: 5, ContextBudget: 100})
	assert.Error(t, err)
	_, err = NewEngine(s, &fakeEmbedder{}, g, Options{TopK: 0, ContextBudget: 100})
	assert.Error(t, err)
	_, err = NewEngine(s, &fakeEmbedder{}, g, Options{TopK: 5, ContextBudget: 0})
	assert.Error(t, err)
}

func TestRetrieveValidation(t *testing.T) {
	e := newTestEngine(t, &fakeSearcher{}, &fakeGenerator{}, Options{TopK: 5, ContextBudget: 100})

	_, err := e.Retrieve(context.Background(), "", 5)
	assert.Error(t, err)
	_, err = e.Retrieve(context.Background(), "   ", 5)
	assert.Error(t, err)
	_, err = e.Retrieve(context.Background(), "ok", 0)
	assert.Error(t, err)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	e := newTestEngine(t, &fakeSearcher{}, &fakeGenerator{}, Options{TopK: 5, ContextBudget: 100})

	results, err := e.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveWrapsFailures(t *testing.T) {
	boom := errors.New("boom")

	e, err := NewEngine(&fakeSearcher{}, &fakeEmbedder{err: boom}, &fakeGenerator{}, Options{TopK: 5, ContextBudget: 100})
	require.NoError(t, err)
	_, err = e.Retrieve(context.Background(), "q", 5)
	var retErr *RetrievalError
	require.ErrorAs(t, err, &retErr)
	assert.ErrorIs(t, err, boom)

	e = newTestEngine(t, &fakeSearcher{err: boom}, &fakeGenerator{}, Options{TopK: 5, ContextBudget: 100})
	_, err = e.Retrieve(context.Background(), "q", 5)
	require.ErrorAs(t, err, &retErr)
	assert.ErrorIs(t, err, boom)
}

func TestAnswerEmptyRetrievalSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{answer: "should not be used"}
	e := newTestEngine(t, &fakeSearcher{}, gen, Options{TopK: 5, ContextBudget: 100})

	resp, err := e.Answer(context.Background(), "unanswerable")
	require.NoError(t, err)
	assert.Equal(t, NoSourcesAnswer, resp.Answer)
	assert.Empty(t, resp.Citations)
	assert.Zero(t, resp.SourceCount)
	assert.Zero(t, gen.calls, "generator must not run without grounding")
}

func TestAnswerGeneratesOnceWithCitations(t *testing.T) {
	searcher := &fakeSearcher{results: []store.SearchResult{
		result("a.pdf", 0.9, 10),
		result("b.pdf", 0.8, 10),
		result("a.pdf", 0.7, 10),
	}}
	gen := &fakeGenerator{answer: "Grounded answer."}
	e := newTestEngine(t, searcher, gen, Options{TopK: 3, ContextBudget: 100})

	resp, err := e.Answer(context.Background(), "what is mediation?")
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 3, searcher.gotK)
	assert.True(t, strings.HasPrefix(resp.Answer, "Grounded answer."))
	assert.Contains(t, resp.Answer, "**Sources:**")
	require.Len(t, resp.Citations, 2, "duplicate documents collapse")
	assert.Equal(t, 2, resp.SourceCount)
	assert.Equal(t, "a.pdf", resp.Citations[0].Document.DocID)
	assert.Equal(t, 1, resp.Citations[0].Ordinal)

	assert.Contains(t, gen.lastUser, "what is mediation?")
	assert.Contains(t, gen.lastUser, "text from a.pdf")
	assert.Contains(t, gen.lastUser, "(Ames, 2020)")
	assert.Contains(t, gen.lastSystem, "Answer only from the provided context")
}

func TestAnswerSurfacesGenerationError(t *testing.T) {
	searcher := &fakeSearcher{results: []store.SearchResult{result("a.pdf", 0.9, 10)}}
	gen := &fakeGenerator{err: &llm.GenerationError{Err: errors.New("rate limited")}}
	e := newTestEngine(t, searcher, gen, Options{TopK: 1, ContextBudget: 100})

	_, err := e.Answer(context.Background(), "q")
	var genErr *llm.GenerationError
	assert.ErrorAs(t, err, &genErr)
	assert.Equal(t, 1, gen.calls)
}

func TestFitBudgetDropsLowRankedChunks(t *testing.T) {
	var results []store.SearchResult
	for i := 0; i < 5; i++ {
		results = append(results, result(fmt.Sprintf("d%d.pdf", i), 1.0-float64(i)/10, 40))
	}
	e := newTestEngine(t, &fakeSearcher{results: results}, &fakeGenerator{answer: "ok"}, Options{TopK: 5, ContextBudget: 100})

	kept := e.fitBudget(results)
	require.Len(t, kept, 2, "40+40 fits in 100, the third chunk would exceed it")
	assert.Equal(t, "d0.pdf", kept[0].Document.DocID)
	assert.Equal(t, "d1.pdf", kept[1].Document.DocID)
}

func TestFitBudgetKeepsBestChunkEvenWhenOversized(t *testing.T) {
	results := []store.SearchResult{result("big.pdf", 0.9, 5000)}
	e := newTestEngine(t, &fakeSearcher{results: results}, &fakeGenerator{answer: "ok"}, Options{TopK: 1, ContextBudget: 100})

	kept := e.fitBudget(results)
	require.Len(t, kept, 1)
}
