package service

import (
	"context"
	"testing"

	"labelhub/internal/repository"
	"labelhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetService_ListDatasets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	empty, err := env.datasets.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
	env.datasets.Invalidate()

	animals := testutil.CreateDataset(t, env.db, "animals", "cat", "dog")
	testutil.CreateDataset(t, env.db, "empty")

	list, err := env.datasets.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, animals.ID, list[0].ID)
	assert.Equal(t, "animals images", list[0].Description)
	require.Len(t, list[0].Labels, 2)
	assert.Equal(t, animals.Labels[0].ID, list[0].Labels[0].ID)
	assert.NotNil(t, list[1].Labels)
	assert.Empty(t, list[1].Labels)
}

func TestDatasetService_Cache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateDataset(t, env.db, "animals", "cat")

	first, err := env.datasets.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	testutil.CreateDataset(t, env.db, "vehicles", "car")

	cached, err := env.datasets.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	env.datasets.Invalidate()
	fresh, err := env.datasets.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	// ttl为0时不缓存
	uncached := NewDatasetService(repository.NewDatasetRepository(env.db), 0, nil)
	testutil.CreateDataset(t, env.db, "plants", "fern")
	list, err := uncached.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
