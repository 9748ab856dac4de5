package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"web-analytics-service/internal/ingest/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferrerRepository_CreateOrFetch_NewOrigin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferrerRepository(db)

	now := time.Now()
	ref, err := repo.CreateOrFetch(context.Background(), "https://blog.example.com", "A Blog", "/icon.png", now)

	require.NoError(t, err)
	assert.NotZero(t, ref.ID)
	assert.Equal(t, "https://blog.example.com", ref.Origin)
	assert.Equal(t, "A Blog", ref.Title)
	assert.Equal(t, "/icon.png", ref.Icon)
	assert.Equal(t, now.Unix(), ref.UpdatedAt.Unix())
}

func TestReferrerRepository_CreateOrFetch_ExistingOriginKeepsWinner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferrerRepository(db)

	first, err := repo.CreateOrFetch(context.Background(), "https://blog.example.com", "winner", "", time.Now())
	require.NoError(t, err)

	second, err := repo.CreateOrFetch(context.Background(), "https://blog.example.com", "loser", "/x.png", time.Now())
	require.NoError(t, err)

	// The losing insert re-reads the winner's row.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "winner", second.Title)

	var count int64
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM referrers`).Scan(&count))
	assert.Equal(t, int64(1), count)
}

func TestReferrerRepository_ConcurrentFirstSight_OneRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferrerRepository(db)

	var wg sync.WaitGroup
	results := make([]*domain.Referrer, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.CreateOrFetch(context.Background(), "https://news.example.com", "News", "", time.Now())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}

	var count int64
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM referrers`).Scan(&count))
	assert.Equal(t, int64(1), count)
}

func TestReferrerRepository_GetByOrigin_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferrerRepository(db)

	ref, err := repo.GetByOrigin(context.Background(), "https://nowhere.example")

	assert.ErrorIs(t, err, domain.ErrReferrerNotFound)
	assert.Nil(t, ref)
}

func TestReferrerRepository_UpdateMetadata(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferrerRepository(db)

	ref, err := repo.CreateOrFetch(context.Background(), "https://blog.example.com", "old", "", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, repo.UpdateMetadata(context.Background(), ref.ID, "new", "/new.png", now))

	updated, err := repo.GetByOrigin(context.Background(), "https://blog.example.com")
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "/new.png", updated.Icon)
	assert.Equal(t, now.Unix(), updated.UpdatedAt.Unix())
}

func TestReferrerRepository_EmptyIconStoredAsNull(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferrerRepository(db)

	ref, err := repo.CreateOrFetch(context.Background(), "https://blog.example.com", "No Icon", "", time.Now())
	require.NoError(t, err)
	assert.Empty(t, ref.Icon)

	var icon any
	require.NoError(t, db.QueryRow(`SELECT icon FROM referrers WHERE id = ?`, ref.ID).Scan(&icon))
	assert.Nil(t, icon)
}
