// Package analyst orchestrates the question-answering pipeline: load a
// regulatory document, ingest its chunks, retrieve the relevant ones for
// a question and have the language model answer from that context alone.
package analyst

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"guardian/internal/domain"
	"guardian/internal/ingest"
	"guardian/internal/retrieval"
)

// DefaultAllDocumentsLimit caps context size for questions asked across
// the whole store rather than a single document.
const DefaultAllDocumentsLimit = 10

// ErrNoStore is returned by AskAll when nothing has been ingested yet.
var ErrNoStore = errors.New("no document store found, analyze a document first")

const promptTemplate = `Answer the question based only on the following context from a regulatory document:

Context:
%s

Question: %s

Answer:`

// Answer is the model's response plus where the supporting context came from.
type Answer struct {
	Text         string
	Sources      []string
	Distribution map[string]int
	UsedFallback bool
	Ingested     ingest.Stats
}

type Analyst struct {
	loader   domain.Loader
	chunker  domain.Chunker
	manager  *ingest.Manager
	llm      domain.Generator
	log      *zap.SugaredLogger
	poolSize int
	docLimit int
	allLimit int
}

func New(loader domain.Loader, chunker domain.Chunker, manager *ingest.Manager, llm domain.Generator, log *zap.SugaredLogger) *Analyst {
	return &Analyst{
		loader:   loader,
		chunker:  chunker,
		manager:  manager,
		llm:      llm,
		log:      log,
		poolSize: retrieval.DefaultPoolSize,
		docLimit: retrieval.DefaultLimit,
		allLimit: DefaultAllDocumentsLimit,
	}
}

// Tune adjusts retrieval sizes. Non-positive values keep the current ones.
func (a *Analyst) Tune(poolSize, docLimit, allLimit int) {
	if poolSize > 0 {
		a.poolSize = poolSize
	}
	if docLimit > 0 {
		a.docLimit = docLimit
	}
	if allLimit > 0 {
		a.allLimit = allLimit
	}
}

// AnalyzeDocument ingests the document at path in the given mode and then
// answers the question using only chunks drawn from that document.
func (a *Analyst) AnalyzeDocument(ctx context.Context, path, question string, mode ingest.Mode) (Answer, error) {
	doc, err := a.loader.Load(ctx, path)
	if err != nil {
		return Answer{}, err
	}
	chunks, err := a.chunker.Chunk(doc)
	if err != nil {
		return Answer{}, fmt.Errorf("chunk %s: %w", doc.Name(), err)
	}
	if len(chunks) == 0 {
		return Answer{}, fmt.Errorf("%s contains no extractable text", doc.Name())
	}

	store, stats, err := a.manager.Ingest(ctx, doc, chunks, mode)
	if err != nil {
		return Answer{}, err
	}
	defer store.Close()

	retriever := retrieval.NewRetriever(store, a.poolSize, a.log)
	res, err := retriever.Retrieve(ctx, question, retrieval.SingleDocument(doc.Name()), a.docLimit)
	if err != nil {
		return Answer{}, err
	}

	text, err := a.answer(ctx, question, res)
	if err != nil {
		return Answer{}, err
	}
	return Answer{
		Text:         text,
		Sources:      res.Sources,
		Distribution: res.Distribution,
		UsedFallback: res.UsedFallback,
		Ingested:     stats,
	}, nil
}

// AskAll answers a question from the store as a whole, drawing up to k
// chunks from any ingested document. A non-positive k uses the default.
func (a *Analyst) AskAll(ctx context.Context, question string, k int) (Answer, error) {
	if !a.manager.Exists() {
		return Answer{}, ErrNoStore
	}
	if k <= 0 {
		k = a.allLimit
	}

	store, err := a.manager.Open(ctx)
	if err != nil {
		return Answer{}, err
	}
	defer store.Close()

	retriever := retrieval.NewRetriever(store, a.poolSize, a.log)
	res, err := retriever.Retrieve(ctx, question, retrieval.AllDocuments(), k)
	if err != nil {
		return Answer{}, err
	}

	text, err := a.answer(ctx, question, res)
	if err != nil {
		return Answer{}, err
	}
	return Answer{
		Text:         text,
		Sources:      res.Sources,
		Distribution: res.Distribution,
		UsedFallback: res.UsedFallback,
	}, nil
}

func (a *Analyst) answer(ctx context.Context, question string, res retrieval.Result) (string, error) {
	if len(res.Chunks) == 0 {
		return "", errors.New("no relevant context found in the store")
	}
	parts := make([]string, len(res.Chunks))
	for i, hit := range res.Chunks {
		parts[i] = hit.Chunk.Text
	}
	prompt := fmt.Sprintf(promptTemplate, strings.Join(parts, "\n\n"), question)

	a.log.Debugw("generating answer", "chunks", len(res.Chunks), "question", question)
	text, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return text, nil
}
