// Package knowledge provides an embedded retrieval store agents can draw on
// for retrieval-augmented generation. It wraps chromem-go, a pure Go vector
// database, so no external service is required; swap the embedding function
// to change providers.
package knowledge

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// Document is one retrievable passage with optional metadata.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a retrieved passage with its similarity score.
type Result struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]string
}

// Options configure a Store.
type Options struct {
	// Collection names the underlying chromem collection.
	Collection string
	// EmbeddingFunc computes embeddings for documents and queries. Defaults
	// to the OpenAI text-embedding-3-small endpoint using OPENAI_API_KEY.
	EmbeddingFunc chromem.EmbeddingFunc
	// PersistPath stores the database on disk (gzip gob). Empty keeps it in
	// memory only.
	PersistPath string
}

// Store is an embedded vector store over chromem-go.
type Store struct {
	collection *chromem.Collection
}

// NewStore creates a Store, loading the persisted database when a path is
// configured and present.
func NewStore(optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Collection: "knowledge"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.EmbeddingFunc == nil {
		opts.EmbeddingFunc = chromem.NewEmbeddingFuncDefault()
	}

	var db *chromem.DB
	var err error
	if opts.PersistPath != "" {
		db, err = chromem.NewPersistentDB(opts.PersistPath, true)
		if err != nil {
			return nil, fmt.Errorf("open knowledge db at %s: %w", opts.PersistPath, err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(opts.Collection, nil, opts.EmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", opts.Collection, err)
	}
	return &Store{collection: collection}, nil
}

// WithCollection names the underlying collection.
func WithCollection(name string) func(o *Options) {
	return func(o *Options) { o.Collection = name }
}

// WithEmbeddingFunc overrides the embedding provider.
func WithEmbeddingFunc(fn chromem.EmbeddingFunc) func(o *Options) {
	return func(o *Options) { o.EmbeddingFunc = fn }
}

// WithPersistPath stores the database on disk.
func WithPersistPath(path string) func(o *Options) {
	return func(o *Options) { o.PersistPath = path }
}

// Add embeds and stores the given documents. Documents without an ID get a
// generated one.
func (s *Store) Add(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		chromemDocs[i] = chromem.Document{
			ID:       id,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		}
	}
	if err := s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int { return s.collection.Count() }

// Search returns the top-k most similar passages for the query.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	// chromem rejects queries asking for more results than stored documents.
	if count := s.collection.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge query: %w", err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{ID: r.ID, Content: r.Content, Score: r.Similarity, Metadata: r.Metadata}
	}
	return out, nil
}

// Retrieve implements the agent.Retriever interface, returning passage
// contents only.
func (s *Store) Retrieve(ctx context.Context, query string, limit int) ([]string, error) {
	results, err := s.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Content
	}
	return passages, nil
}
