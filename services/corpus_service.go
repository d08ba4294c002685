package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"hr-rag-assistant/internal/corpus"
	"hr-rag-assistant/internal/extract"
	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/internal/telemetry"
	"hr-rag-assistant/internal/vectorindex"
)

// ErrInvalidDocument means an upload could not be read as a supported document.
var ErrInvalidDocument = errors.New("invalid document")

// CorpusService owns the corpus mutation lifecycle: every change to the
// store is followed by a full rebuild of the index from all documents.
// Mutations are serialized; queries keep reading the last published snapshot.
type CorpusService struct {
	store     *corpus.Store
	extractor *extract.Extractor
	index     *vectorindex.Index
	metrics   *telemetry.Metrics

	mu sync.Mutex
}

// AddResult describes a stored upload and the rebuilt index.
type AddResult struct {
	Name     string
	Path     string
	Passages int
}

func NewCorpusService(store *corpus.Store, extractor *extract.Extractor, index *vectorindex.Index, metrics *telemetry.Metrics) *CorpusService {
	return &CorpusService{store: store, extractor: extractor, index: index, metrics: metrics}
}

// Initialize loads the persisted snapshot, or builds one from the store when
// none exists or it is corrupt. An empty corpus is returned as
// vectorindex.ErrEmptyCorpus and must stop the process.
func (s *CorpusService) Initialize(ctx context.Context) error {
	if s.index.Exists() {
		err := s.index.Load(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, vectorindex.ErrCorruptSnapshot) {
			return err
		}
		logger.Warn("Persisted index unusable, rebuilding from corpus", "error", err)
	} else {
		logger.Info("No persisted index found, building from corpus", "dir", s.store.Dir())
	}

	_, err := s.Rebuild(ctx)
	return err
}

func (s *CorpusService) Ready() bool {
	return s.index.Ready()
}

func (s *CorpusService) PassageCount() int {
	return s.index.Len()
}

// Rebuild re-extracts every document and rebuilds the index. It returns the
// number of indexed passages.
func (s *CorpusService) Rebuild(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(ctx)
}

func (s *CorpusService) rebuildLocked(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordIndexBuild(time.Since(start).Seconds(), n, err)
	}()

	passages, err := s.extractor.ExtractDir(ctx, s.store.Dir())
	if err != nil {
		return 0, fmt.Errorf("%w: extraction: %w", ErrUpstreamUnavailable, err)
	}

	if err := s.index.Build(ctx, passages); err != nil {
		if errors.Is(err, vectorindex.ErrEmptyCorpus) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: index build: %w", ErrUpstreamUnavailable, err)
	}

	logger.Info("Corpus reindexed", "passages", len(passages), "duration", time.Since(start).String())
	return len(passages), nil
}

// AddDocument stores r under filename and rebuilds the index. The upload is
// staged and must extract cleanly before it becomes visible in the corpus;
// an existing document with the same name is replaced.
func (s *CorpusService) AddDocument(ctx context.Context, filename string, r io.Reader) (*AddResult, error) {
	clean, err := corpus.CleanName(filename)
	if err != nil {
		return nil, err
	}
	if !extract.Supported(clean) {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidDocument, extract.ErrUnsupportedType, clean)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged, err := s.store.Stage(clean, r)
	if err != nil {
		return nil, err
	}

	if _, err := s.extractor.ExtractFile(ctx, staged.Path); err != nil {
		s.store.Discard(staged)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	path, err := s.store.Commit(staged)
	if err != nil {
		return nil, err
	}
	logger.Info("Document stored", "file", clean)

	n, err := s.rebuildLocked(ctx)
	if err != nil {
		return nil, err
	}

	return &AddResult{Name: clean, Path: path, Passages: n}, nil
}

// DeleteDocument removes a document from the store. The index is not rebuilt,
// so answers may cite the removed document until the next rebuild.
func (s *CorpusService) DeleteDocument(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(filename); err != nil {
		return err
	}
	logger.Info("Document deleted", "file", filename)
	return nil
}

func (s *CorpusService) ListDocuments() ([]string, error) {
	return s.store.List()
}
