package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/internal/telemetry"
	"hr-rag-assistant/internal/vectorindex"
	"hr-rag-assistant/models"
	"hr-rag-assistant/utils"
)

// ErrUpstreamUnavailable covers every generation, embedding and extraction failure.
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")

const (
	snippetLength  = 180
	defaultSource  = "HR Policy"
	defaultPage    = "N/A"
	contextJoinSep = "\n\n"
)

type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]models.ScoredPassage, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RAGService answers employee questions strictly from retrieved policy passages.
// It holds no per-query state.
type RAGService struct {
	retriever Retriever
	generator Generator
	topK      int
	metrics   *telemetry.Metrics
}

func NewRAGService(retriever Retriever, generator Generator, topK int, metrics *telemetry.Metrics) *RAGService {
	if topK <= 0 {
		topK = 5
	}
	return &RAGService{retriever: retriever, generator: generator, topK: topK, metrics: metrics}
}

// Answer retrieves up to k passages and generates a grounded answer. When no
// usable context is retrieved it returns the refusal sentence with no
// sources and never calls the generator. Category is left empty.
func (s *RAGService) Answer(ctx context.Context, query string, k int) (*models.Answer, error) {
	if k <= 0 {
		k = s.topK
	}

	results, err := s.retriever.Query(ctx, query, k)
	if err != nil {
		s.metrics.RecordAnswer(telemetry.OutcomeError)
		if errors.Is(err, vectorindex.ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: retrieval: %w", ErrUpstreamUnavailable, err)
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = r.Text
	}
	contextBlock := strings.Join(blocks, contextJoinSep)

	if strings.TrimSpace(contextBlock) == "" {
		s.metrics.RecordAnswer(telemetry.OutcomeRefused)
		return &models.Answer{Text: RefusalMessage, Sources: []models.SourceRef{}}, nil
	}

	text, err := s.generator.Generate(ctx, BuildAnswerPrompt(contextBlock, query))
	if err != nil {
		s.metrics.RecordAnswer(telemetry.OutcomeError)
		return nil, fmt.Errorf("%w: generation: %w", ErrUpstreamUnavailable, err)
	}

	s.metrics.RecordAnswer(telemetry.OutcomeAnswered)
	return &models.Answer{
		Text:    strings.TrimSpace(text),
		Sources: buildSources(results),
	}, nil
}

// Classify asks for one of the fixed categories and returns the trimmed reply unvalidated.
func (s *RAGService) Classify(ctx context.Context, query string) (string, error) {
	category, err := s.generator.Generate(ctx, BuildClassifyPrompt(query))
	if err != nil {
		return "", fmt.Errorf("%w: classification: %w", ErrUpstreamUnavailable, err)
	}
	return strings.TrimSpace(category), nil
}

// Ask runs Answer and Classify concurrently and merges them.
func (s *RAGService) Ask(ctx context.Context, query string, k int) (*models.Answer, error) {
	g, gctx := errgroup.WithContext(ctx)

	var answer *models.Answer
	var category string

	g.Go(func() error {
		var err error
		answer, err = s.Answer(gctx, query, k)
		return err
	})
	g.Go(func() error {
		var err error
		category, err = s.Classify(gctx, query)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Warn("Question could not be answered", "error", err)
		return nil, err
	}

	answer.Category = category
	return answer, nil
}

func buildSources(results []models.ScoredPassage) []models.SourceRef {
	sources := make([]models.SourceRef, 0, len(results))
	for _, r := range results {
		document := r.Source
		if document == "" {
			document = defaultSource
		}
		page := r.Page
		if page == "" {
			page = defaultPage
		}
		sources = append(sources, models.SourceRef{
			Document: document,
			Page:     page,
			Snippet:  utils.Snippet(r.Text, snippetLength),
			Path:     r.FullPath,
		})
	}
	return sources
}
