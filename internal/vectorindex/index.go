package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/models"
)

// Index owns the build/load/query lifecycle of the persisted vector snapshot.
// Queries run concurrently against the published snapshot; Build and Load are
// serialized and swap the in-memory snapshot only after they fully succeed.
// On disk the two snapshot files are renamed one after the other, so a crash
// between them leaves a mismatched pair that Load reports as ErrCorruptSnapshot.
type Index struct {
	dir      string
	embedder Embedder
	minScore float64

	buildMu sync.Mutex
	mu      sync.RWMutex
	current *snapshot
}

// New returns an index persisted under dir. Passages must score strictly
// above minScore to be returned by Query.
func New(dir string, embedder Embedder, minScore float64) *Index {
	return &Index{dir: dir, embedder: embedder, minScore: minScore}
}

func (ix *Index) Dir() string {
	return ix.dir
}

// Ready reports whether a snapshot has been built or loaded into memory.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.current != nil
}

// Exists reports whether a persisted snapshot is present on disk.
func (ix *Index) Exists() bool {
	return snapshotExists(ix.dir)
}

// Len is the number of passages in the loaded snapshot.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.current == nil {
		return 0
	}
	return len(ix.current.passages)
}

// Build embeds all passages, persists them and publishes the new snapshot.
// On any failure the previously published snapshot stays in place.
func (ix *Index) Build(ctx context.Context, passages []models.Passage) error {
	if len(passages) == 0 {
		return ErrEmptyCorpus
	}

	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return fmt.Errorf("embedder returned %d vectors for %d passages", len(vectors), len(passages))
	}

	dim := ix.embedder.Dimension()
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim)
		}
		normalize(v)
	}

	snap := &snapshot{
		passages: append([]models.Passage(nil), passages...),
		vectors:  vectors,
	}
	if err := writeSnapshot(ix.dir, ix.embedder.Name(), dim, snap); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	ix.publish(snap)
	logger.Info("Vector index built", "passages", len(passages), "dir", ix.dir, "embedder", ix.embedder.Name())
	return nil
}

// Load reads the persisted snapshot into memory. Failures wrap ErrCorruptSnapshot.
func (ix *Index) Load(ctx context.Context) error {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap, err := readSnapshot(ix.dir, ix.embedder.Name(), ix.embedder.Dimension())
	if err != nil {
		return err
	}

	ix.publish(snap)
	logger.Info("Vector index loaded", "passages", len(snap.passages), "dir", ix.dir)
	return nil
}

func (ix *Index) publish(snap *snapshot) {
	ix.mu.Lock()
	ix.current = snap
	ix.mu.Unlock()
}

// Query returns at most k passages ordered by non-increasing cosine similarity.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]models.ScoredPassage, error) {
	ix.mu.RLock()
	snap := ix.current
	ix.mu.RUnlock()

	if snap == nil {
		return nil, ErrNotReady
	}
	if k <= 0 || len(snap.passages) == 0 {
		return []models.ScoredPassage{}, nil
	}

	vecs, err := ix.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != ix.embedder.Dimension() {
		return nil, fmt.Errorf("embedder returned malformed query vector")
	}
	q := vecs[0]
	if !normalize(q) {
		return []models.ScoredPassage{}, nil
	}

	results := make([]models.ScoredPassage, 0, len(snap.passages))
	for i, v := range snap.vectors {
		score := dot(q, v)
		if score <= ix.minScore {
			continue
		}
		results = append(results, models.ScoredPassage{Passage: snap.passages[i], Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
