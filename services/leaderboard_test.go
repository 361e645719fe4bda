package services

import (
	"context"
	"testing"

	"faction-wars-backend/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLeaderboard(t *testing.T, svc *LeaderboardService) {
	t.Helper()
	bats := createFaction(t, svc.DB, "Bats", "bats", "#7c3aed")
	joinWallet(t, svc.DB, "wallet-a", bats, mustDate(t, "2024-01-01"))

	require.NoError(t, svc.DB.Create(&models.Profile{Wallet: "wallet-a", BadgesCount: 5}).Error)
	require.NoError(t, svc.DB.Create(&models.Profile{Wallet: "wallet-b", BadgesCount: 2}).Error)
	require.NoError(t, svc.DB.Create(&models.Profile{Wallet: "wallet-c", BadgesCount: 9}).Error)
}

func TestLeaderboardTop(t *testing.T) {
	t.Run("ranks by badge count without a cache", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewLeaderboardService(db, nil)
		seedLeaderboard(t, svc)

		entries, err := svc.Top(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "wallet-c", entries[0].Wallet)
		assert.Equal(t, "wallet-a", entries[1].Wallet)
		assert.Equal(t, "wallet-b", entries[2].Wallet)

		require.NotNil(t, entries[1].Faction)
		assert.Equal(t, "bats", entries[1].Faction.Slug)
		assert.Nil(t, entries[0].Faction)
	})

	t.Run("serves the cached board while it is fresh", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		db := newTestDB(t)
		svc := NewLeaderboardService(db, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		seedLeaderboard(t, svc)

		entries, err := svc.Top(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.True(t, mr.Exists(leaderboardCacheKey))

		// A new profile is invisible until the cache expires.
		require.NoError(t, db.Create(&models.Profile{Wallet: "wallet-d", BadgesCount: 99}).Error)

		entries, err = svc.Top(context.Background())
		require.NoError(t, err)
		assert.Len(t, entries, 3)

		mr.FastForward(leaderboardCacheTTL)

		entries, err = svc.Top(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, "wallet-d", entries[0].Wallet)
	})
}
