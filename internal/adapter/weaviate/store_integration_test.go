package weaviate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "tubequery/internal/adapter/weaviate"
	"tubequery/internal/retrieval"
	"tubequery/internal/testutils"
	"tubequery/internal/worker"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	store := adapter.NewStore(s.Weaviate)
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx))

	exists, err := store.VideoExists(ctx, "vid-1")
	require.NoError(t, err)
	assert.False(t, exists)

	records := []worker.ChunkRecord{
		{VideoID: "vid-1", SourceID: "src-1", UserID: "user-1", Text: "gradient descent minimizes loss",
			StartTime: 0, EndTime: 30, Language: "English", LanguageCode: "en", ChunkIndex: 0, Vector: []float32{0.1, 0.1, 0.1}},
		{VideoID: "vid-2", SourceID: "src-1", UserID: "user-1", Text: "transformers use attention",
			StartTime: 10, EndTime: 45, Language: "English", LanguageCode: "en", ChunkIndex: 0, Vector: []float32{0.9, 0.9, 0.9}},
	}
	require.NoError(t, store.StoreChunks(ctx, records))

	exists, err = store.VideoExists(ctx, "vid-1")
	require.NoError(t, err)
	assert.True(t, exists)

	// re-storing the same chunk must not duplicate it
	require.NoError(t, store.StoreChunks(ctx, records[:1]))

	matches, err := store.Query(ctx, []float32{0.1, 0.1, 0.1}, retrieval.Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "vid-1", matches[0].VideoID)
	assert.Equal(t, "gradient descent minimizes loss", matches[0].Text)
	assert.Equal(t, 30.0, matches[0].EndTime)

	// video filter narrows the result set
	matches, err = store.Query(ctx, []float32{0.1, 0.1, 0.1}, retrieval.Filter{VideoIDs: []string{"vid-2"}}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "vid-2", matches[0].VideoID)

	require.NoError(t, store.DeleteVideoChunks(ctx, "vid-1"))
	exists, err = store.VideoExists(ctx, "vid-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
