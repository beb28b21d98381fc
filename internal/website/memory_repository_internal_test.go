package website

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository_DeleteOlderThanReleasesTail(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 4; i++ {
		res := NewCheckResult("loyalhood.xyz", StatusOnline, i, 200)
		if i%2 == 0 {
			res.CreatedAt = now.Add(-48 * time.Hour)
		}
		require.NoError(t, repo.Insert(ctx, res))
	}

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	backing := repo.results[:cap(repo.results)]
	for i := len(repo.results); i < len(backing); i++ {
		assert.Nil(t, backing[i], "slot %d still references a deleted result", i)
	}
}
