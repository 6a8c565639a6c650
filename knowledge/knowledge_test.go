package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordEmbedding is a deterministic local embedding: a tiny bag-of-words
// vector, good enough to rank exact topic matches above unrelated text.
func wordEmbedding(vocabulary []string) chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, len(vocabulary))
		lower := strings.ToLower(text)
		for i, word := range vocabulary {
			if strings.Contains(lower, word) {
				vec[i] = 1
			}
		}
		// Avoid the zero vector, which cosine similarity cannot normalize.
		vec = append(vec, 1)
		return vec, nil
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(
		WithCollection("test"),
		WithEmbeddingFunc(wordEmbedding([]string{"gopher", "compiler", "weather"})),
	)
	require.NoError(t, err)
	return store
}

func TestStore_AddAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx,
		Document{ID: "d1", Content: "The gopher is the Go mascot"},
		Document{ID: "d2", Content: "The compiler lowers SSA"},
		Document{ID: "d3", Content: "Tomorrow's weather is sunny"},
	))
	assert.Equal(t, 3, store.Count())

	results, err := store.Search(ctx, "tell me about the gopher", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].ID)
}

func TestStore_SearchClampsTopK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, Document{Content: "single gopher document"}))

	results, err := store.Search(ctx, "gopher", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestStore_SearchEmptyStore(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Retrieve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx,
		Document{Content: "gopher facts"},
		Document{Content: "weather report"},
	))

	passages, err := store.Retrieve(ctx, "weather", 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "weather report", passages[0])
}

func TestStore_AddGeneratesIDs(t *testing.T) {
	store := newTestStore(t)

	err := store.Add(context.Background(), Document{Content: "no id given"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count())
}
