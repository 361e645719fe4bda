package services

import (
	"testing"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	t.Run("creates the membership and awards the faction badge", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewFactionService(db, NewBadgeService(db))
		createFaction(t, db, "Bats", "bats", "#7c3aed")
		now := mustDate(t, "2024-01-03")

		result, err := svc.Join("Wallet-A", "bats", now)
		require.NoError(t, err)
		assert.Equal(t, "wallet-a", result.Address)
		assert.Equal(t, "bats", result.Faction.Slug)
		require.NotNil(t, result.BadgeAward)
		assert.True(t, result.BadgeAward.Awarded)

		var wallet models.Wallet
		require.NoError(t, db.First(&wallet, "address = ?", "wallet-a").Error)
		require.NotNil(t, wallet.JoinedAt)

		var grant models.ProfileBadge
		require.NoError(t, db.First(&grant, "wallet = ? AND badge_slug = ?", "wallet-a", "bat-faction").Error)
	})

	t.Run("changing factions inside the cooldown is rejected", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewFactionService(db, NewBadgeService(db))
		createFaction(t, db, "Bats", "bats", "#7c3aed")
		createFaction(t, db, "Lycans", "lycans", "#d97706")
		joined := mustDate(t, "2024-01-01")

		_, err := svc.Join("wallet-a", "bats", joined)
		require.NoError(t, err)

		_, err = svc.Join("wallet-a", "lycans", joined.AddDate(0, 0, 10))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		assert.Contains(t, err.Error(), "20 day")
	})

	t.Run("changing after the cooldown succeeds", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewFactionService(db, NewBadgeService(db))
		createFaction(t, db, "Bats", "bats", "#7c3aed")
		lycans := createFaction(t, db, "Lycans", "lycans", "#d97706")
		joined := mustDate(t, "2024-01-01")

		_, err := svc.Join("wallet-a", "bats", joined)
		require.NoError(t, err)

		result, err := svc.Join("wallet-a", "lycans", joined.AddDate(0, 0, 31))
		require.NoError(t, err)
		assert.Equal(t, "lycans", result.Faction.Slug)

		var wallet models.Wallet
		require.NoError(t, db.First(&wallet, "address = ?", "wallet-a").Error)
		require.NotNil(t, wallet.JoinedFactionID)
		assert.Equal(t, lycans.ID, *wallet.JoinedFactionID)
	})

	t.Run("unknown faction is not found", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewFactionService(db, NewBadgeService(db))

		_, err := svc.Join("wallet-a", "outsiders", mustDate(t, "2024-01-01"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewFactionService(db, NewBadgeService(db))
	bats := createFaction(t, db, "Bats", "bats", "#7c3aed")

	t.Run("unknown wallet has no membership", func(t *testing.T) {
		membership, err := svc.Membership("wallet-a")
		require.NoError(t, err)
		assert.Nil(t, membership)
	})

	t.Run("joined wallet reports faction and unlock date", func(t *testing.T) {
		joined := mustDate(t, "2024-01-01")
		joinWallet(t, db, "wallet-a", bats, joined)

		membership, err := svc.Membership("wallet-a")
		require.NoError(t, err)
		require.NotNil(t, membership)
		require.NotNil(t, membership.Faction)
		assert.Equal(t, "bats", membership.Faction.Slug)
		require.NotNil(t, membership.UnlockAt)
		assert.Equal(t, "2024-01-31", membership.UnlockAt.Format("2006-01-02"))
	})
}

func TestMembers(t *testing.T) {
	db := newTestDB(t)
	svc := NewFactionService(db, NewBadgeService(db))
	bats := createFaction(t, db, "Bats", "bats", "#7c3aed")
	lycans := createFaction(t, db, "Lycans", "lycans", "#d97706")
	joined := mustDate(t, "2024-01-01")

	joinWallet(t, db, "wallet-a", bats, joined)
	joinWallet(t, db, "wallet-b", bats, joined)
	joinWallet(t, db, "wallet-c", lycans, joined)

	username := "alice"
	require.NoError(t, db.Create(&models.Profile{Wallet: "wallet-a", Username: &username}).Error)

	members, err := svc.Members()
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Len(t, members["bats"].Users, 2)
	assert.Len(t, members["lycans"].Users, 1)

	labels := map[string]string{}
	for _, user := range members["bats"].Users {
		labels[user.Address] = user.Label
	}
	assert.Equal(t, "alice", labels["wallet-a"])
	assert.Equal(t, "wallet-b", labels["wallet-b"])
}

func TestClearMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewFactionService(db, NewBadgeService(db))
	bats := createFaction(t, db, "Bats", "bats", "#7c3aed")

	t.Run("unknown wallet is not found", func(t *testing.T) {
		_, err := svc.ClearMembership("ghost")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("clears the faction and join timestamp together", func(t *testing.T) {
		joinWallet(t, db, "wallet-a", bats, mustDate(t, "2024-01-01"))

		result, err := svc.ClearMembership("wallet-a")
		require.NoError(t, err)
		assert.True(t, result.Cleared)

		var wallet models.Wallet
		require.NoError(t, db.First(&wallet, "address = ?", "wallet-a").Error)
		assert.Nil(t, wallet.JoinedFactionID)
		assert.Nil(t, wallet.JoinedAt)
	})

	t.Run("clearing an unaffiliated wallet is a no-op", func(t *testing.T) {
		result, err := svc.ClearMembership("wallet-a")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.NotEmpty(t, result.Message)
	})
}
