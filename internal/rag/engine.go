// Package rag assembles retrieval, citation resolution, and answer
// generation into the query pipeline.
package rag

import (
	"context"
	"fmt"
	"strings"

	"citeseek/internal/citation"
	"citeseek/internal/embedder"
	"citeseek/internal/llm"
	"citeseek/internal/store"
)

// Searcher is the read surface the engine needs from the index.
type Searcher interface {
	Search(queryEmbedding []float32, k int) ([]store.SearchResult, error)
}

// RetrievalError reports a failure while embedding the query or searching
// the index. Input validation errors are returned directly and are not
// wrapped in this type.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for query %q: %v", e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Response is the complete answer to one query.
type Response struct {
	// Answer is the generated text with the sources block appended.
	Answer string
	// Citations lists the distinct source documents in rank order.
	Citations []citation.Citation
	// SourceCount is len(Citations).
	SourceCount int
}

// NoSourcesAnswer is returned verbatim when retrieval finds nothing to
// ground an answer on. The generator is not called in that case.
const NoSourcesAnswer = "I could not find relevant information in the available source documents to answer this question."

const systemPrompt = `You are a research assistant answering questions from a private library of source documents.

Rules for every answer:
1. Answer only from the provided context.
2. If the context does not contain the information, say so plainly.
3. Use an academic, informative tone.
4. Cite the specific source for every claim using the in-text markers given with each excerpt.
5. Answer in the same language as the question.
6. Explain concepts clearly and practically.`

// Engine answers queries by retrieving relevant chunks, grounding a prompt
// on them, and generating at most one completion per query.
type Engine struct {
	searcher      Searcher
	embedder      embedder.Embedder
	generator     llm.Generator
	topK          int
	contextBudget int
}

// Options configure an Engine.
type Options struct {
	// TopK is the number of chunks retrieved per query.
	TopK int
	// ContextBudget caps the total token count of chunks placed in the
	// prompt. Chunks are dropped from the low-relevance end; the best
	// chunk is always kept even when it alone exceeds the budget.
	ContextBudget int
}

// NewEngine wires the engine from its capabilities.
func NewEngine(s Searcher, e embedder.Embedder, g llm.Generator, opts Options) (*Engine, error) {
	if s == nil || e == nil || g == nil {
		return nil, fmt.Errorf("searcher, embedder, and generator are all required")
	}
	if opts.TopK <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", opts.TopK)
	}
	if opts.ContextBudget <= 0 {
		return nil, fmt.Errorf("context budget must be positive, got %d", opts.ContextBudget)
	}
	return &Engine{
		searcher:      s,
		embedder:      e,
		generator:     g,
		topK:          opts.TopK,
		contextBudget: opts.ContextBudget,
	}, nil
}

// Retrieve embeds the query and returns the k most similar chunks in
// descending similarity order. An empty index yields an empty slice.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]store.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	vec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Query: query, Err: fmt.Errorf("embed query: %w", err)}
	}
	results, err := e.searcher.Search(vec, k)
	if err != nil {
		return nil, &RetrievalError{Query: query, Err: fmt.Errorf("search: %w", err)}
	}
	return results, nil
}

// Answer runs the full pipeline for one query: retrieve, ground, generate,
// cite. When nothing is retrieved it returns NoSourcesAnswer without
// invoking the generator; generation failures surface as *llm.GenerationError.
func (e *Engine) Answer(ctx context.Context, query string) (*Response, error) {
	results, err := e.Retrieve(ctx, query, e.topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Response{Answer: NoSourcesAnswer}, nil
	}

	kept := e.fitBudget(results)
	citations := citation.Resolve(kept)

	answer, err := e.generator.Generate(ctx, systemPrompt, e.userPrompt(query, kept))
	if err != nil {
		return nil, err
	}

	return &Response{
		Answer:      answer + citation.Markup(citations),
		Citations:   citations,
		SourceCount: len(citations),
	}, nil
}

// fitBudget trims the ranked result list so the summed token counts stay
// within the context budget. Results arrive best-first, so trimming drops
// the least relevant chunks.
func (e *Engine) fitBudget(results []store.SearchResult) []store.SearchResult {
	total := 0
	for i, r := range results {
		total += r.Chunk.TokenCount
		if total > e.contextBudget && i > 0 {
			return results[:i]
		}
	}
	return results
}

// userPrompt formats the retrieved excerpts and the question into the user
// message. Each excerpt is labeled with its source and inline citation so
// the model can attribute claims.
func (e *Engine) userPrompt(query string, results []store.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("Context:\n\n")
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		title := r.Document.Title
		if title == "" {
			title = r.Document.DocID
		}
		fmt.Fprintf(&sb, "Source: %s %s\n%s", title, citation.FormatInline(r.Document), r.Chunk.Text)
	}
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	return sb.String()
}
