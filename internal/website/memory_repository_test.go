package website_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalhood/loyalhood/internal/website"
)

func TestInMemoryRepository_Latest(t *testing.T) {
	repo := website.NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Latest(ctx, "loyalhood.xyz")
	assert.ErrorIs(t, err, website.ErrNoStatusData)

	older := website.NewCheckResult("loyalhood.xyz", website.StatusOffline, 0, 0)
	older.CheckedAt = time.Now().Add(-time.Minute)
	newer := website.NewCheckResult("loyalhood.xyz", website.StatusOnline, 87, 200)
	other := website.NewCheckResult("pm.loyalhood.xyz", website.StatusDegraded, 40, 404)

	require.NoError(t, repo.Insert(ctx, newer))
	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, other))

	latest, err := repo.Latest(ctx, "loyalhood.xyz")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
	assert.Equal(t, website.StatusOnline, latest.Status)
	assert.Equal(t, 87, latest.ResponseTimeMs)
}

func TestInMemoryRepository_InsertRejectsInvalid(t *testing.T) {
	repo := website.NewInMemoryRepository()

	err := repo.Insert(context.Background(), &website.CheckResult{Status: website.StatusOnline})
	assert.ErrorIs(t, err, website.ErrInvalidResult)
	assert.Zero(t, repo.Len())
}

func TestInMemoryRepository_ListBetween(t *testing.T) {
	repo := website.NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := website.NewCheckResult("loyalhood.xyz", website.StatusOnline, 10*i, 200)
		r.CheckedAt = base.Add(time.Duration(4-i) * time.Hour)
		require.NoError(t, repo.Insert(ctx, r))
	}

	results, err := repo.ListBetween(ctx, base.Add(time.Hour), base.Add(4*time.Hour))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].CheckedAt.Before(results[1].CheckedAt))
	assert.True(t, results[1].CheckedAt.Before(results[2].CheckedAt))
}

func TestInMemoryRepository_DeleteOlderThan(t *testing.T) {
	repo := website.NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	old := website.NewCheckResult("loyalhood.xyz", website.StatusOnline, 10, 200)
	old.CreatedAt = now.Add(-31 * 24 * time.Hour)
	fresh := website.NewCheckResult("loyalhood.xyz", website.StatusOnline, 10, 200)

	require.NoError(t, repo.Insert(ctx, old))
	require.NoError(t, repo.Insert(ctx, fresh))

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 1, repo.Len())
}

func TestInMemoryRepository_DeleteOlderThan_Interleaved(t *testing.T) {
	repo := website.NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	cutoff := now.Add(-time.Hour)

	ages := []time.Duration{2 * time.Hour, 0, 3 * time.Hour, 10 * time.Minute, 90 * time.Minute}
	for i, age := range ages {
		res := website.NewCheckResult("loyalhood.xyz", website.StatusOnline, i, 200)
		res.CheckedAt = now.Add(-age)
		res.CreatedAt = now.Add(-age)
		require.NoError(t, repo.Insert(ctx, res))
	}

	deleted, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, 2, repo.Len())

	kept, err := repo.ListBetween(ctx, now.Add(-24*time.Hour), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, 3, kept[0].ResponseTimeMs)
	assert.Equal(t, 1, kept[1].ResponseTimeMs)

	next := website.NewCheckResult("loyalhood.xyz", website.StatusOffline, 0, 0)
	require.NoError(t, repo.Insert(ctx, next))
	assert.Equal(t, 3, repo.Len())
}

func TestInMemoryRepository_Ping(t *testing.T) {
	assert.NoError(t, website.NewInMemoryRepository().Ping(context.Background()))
}
