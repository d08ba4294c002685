package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-rag-assistant/models"
)

const testDim = 1024

func samplePassages() []models.Passage {
	return []models.Passage{
		{Text: "Employees must submit resignation letters 30 days in advance.", Source: "handbook.txt", FullPath: "/data/handbook.txt"},
		{Text: "Annual leave entitlement is 20 working days per calendar year.", Source: "leave.txt", FullPath: "/data/leave.txt"},
		{Text: "Laptops must use full disk encryption and a screen lock.", Source: "it.txt", FullPath: "/data/it.txt"},
		{Text: "Health insurance covers the employee, spouse and children.", Source: "benefits.txt", Page: "2", FullPath: "/data/benefits.txt"},
	}
}

func newBuiltIndex(t *testing.T) *Index {
	t.Helper()
	ix := New(t.TempDir(), NewHashEmbedder(testDim), 0)
	require.NoError(t, ix.Build(context.Background(), samplePassages()))
	return ix
}

type failingEmbedder struct{ *HashEmbedder }

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding backend down")
}

func TestQuery_BeforeBuild(t *testing.T) {
	ix := New(t.TempDir(), NewHashEmbedder(64), 0)

	assert.False(t, ix.Ready())
	assert.False(t, ix.Exists())

	_, err := ix.Query(context.Background(), "leave", 3)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestBuild_ReadyAndOrdered(t *testing.T) {
	ix := newBuiltIndex(t)

	assert.True(t, ix.Ready())
	assert.True(t, ix.Exists())
	assert.Equal(t, 4, ix.Len())

	for _, k := range []int{1, 2, 3, 10} {
		results, err := ix.Query(context.Background(), "How many days of annual leave do I get?", k)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), k)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
	}
}

func TestQuery_FindsRelatedWordForms(t *testing.T) {
	ix := newBuiltIndex(t)

	results, err := ix.Query(context.Background(), "How can I resign from this job?", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "handbook.txt", results[0].Source)
	assert.Contains(t, results[0].Text, "30 days")
}

func TestQuery_EdgeCases(t *testing.T) {
	ix := newBuiltIndex(t)
	ctx := context.Background()

	results, err := ix.Query(ctx, "leave", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = ix.Query(ctx, "???", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_RelevanceFloor(t *testing.T) {
	dir := t.TempDir()
	ix := New(dir, NewHashEmbedder(testDim), 0.99)
	require.NoError(t, ix.Build(context.Background(), samplePassages()))

	results, err := ix.Query(context.Background(), "insurance", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuild_EmptyKeepsPriorState(t *testing.T) {
	ix := newBuiltIndex(t)

	err := ix.Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
	assert.True(t, ix.Ready())
	assert.Equal(t, 4, ix.Len())

	fresh := New(t.TempDir(), NewHashEmbedder(64), 0)
	assert.ErrorIs(t, fresh.Build(context.Background(), []models.Passage{}), ErrEmptyCorpus)
	assert.False(t, fresh.Ready())
}

func TestBuild_EmbedFailureKeepsPriorState(t *testing.T) {
	dir := t.TempDir()
	ix := New(dir, NewHashEmbedder(128), 0)
	require.NoError(t, ix.Build(context.Background(), samplePassages()))

	ix.embedder = failingEmbedder{NewHashEmbedder(128)}
	err := ix.Build(context.Background(), samplePassages()[:1])
	require.Error(t, err)
	assert.Equal(t, 4, ix.Len())
}

func TestLoad_RoundTrip(t *testing.T) {
	built := newBuiltIndex(t)

	loaded := New(built.Dir(), NewHashEmbedder(testDim), 0)
	require.NoError(t, loaded.Load(context.Background()))
	assert.True(t, loaded.Ready())
	assert.Equal(t, built.Len(), loaded.Len())

	want, err := built.Query(context.Background(), "encryption on laptops", 2)
	require.NoError(t, err)
	got, err := loaded.Query(context.Background(), "encryption on laptops", 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, dir string)
		embed  Embedder
	}{
		{
			name:   "missing vectors",
			mutate: func(t *testing.T, dir string) { require.NoError(t, os.Remove(filepath.Join(dir, vectorsFile))) },
		},
		{
			name:   "missing metadata",
			mutate: func(t *testing.T, dir string) { require.NoError(t, os.Remove(filepath.Join(dir, metadataFile))) },
		},
		{
			name: "garbage vectors",
			mutate: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, vectorsFile), []byte("not brotli"), 0o644))
			},
		},
		{
			name: "count mismatch",
			mutate: func(t *testing.T, dir string) {
				meta := fmt.Sprintf(`{"embedder":%q,"dimension":%d,"passages":[{"text":"x","source":"a"}]}`, NewHashEmbedder(testDim).Name(), testDim)
				require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte(meta), 0o644))
			},
		},
		{
			name: "vectors renamed without metadata",
			mutate: func(t *testing.T, dir string) {
				oldMeta, err := os.ReadFile(filepath.Join(dir, metadataFile))
				require.NoError(t, err)
				require.NoError(t, New(dir, NewHashEmbedder(testDim), 0).Build(context.Background(), samplePassages()[:3]))
				require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), oldMeta, 0o644))
			},
		},
		{
			name:   "different embedder",
			mutate: func(*testing.T, string) {},
			embed:  NewHashEmbedder(128),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			built := newBuiltIndex(t)
			tc.mutate(t, built.Dir())

			emb := tc.embed
			if emb == nil {
				emb = NewHashEmbedder(testDim)
			}
			ix := New(built.Dir(), emb, 0)
			err := ix.Load(context.Background())
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
			assert.False(t, ix.Ready())
		})
	}
}

func TestConcurrentQueriesDuringBuild(t *testing.T) {
	ix := newBuiltIndex(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := ix.Query(ctx, "leave policy", 3)
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, ix.Build(ctx, samplePassages()))
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, ix.Len())
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(64)
	vecs, err := e.Embed(context.Background(), []string{"Annual leave", "annual LEAVE!", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	assert.Len(t, vecs[0], 64)
	assert.Equal(t, vecs[0], vecs[1])
	assert.InDelta(t, 1.0, dot(vecs[0], vecs[0]), 1e-5)
	assert.Zero(t, dot(vecs[2], vecs[2]))
}
