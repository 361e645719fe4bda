package services

import (
	"testing"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAward(t *testing.T) {
	t.Run("first grant creates the profile and caches the badge", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewBadgeService(db)

		result, err := svc.Award("Wallet-A", "grunt", map[string]any{"round_id": "r1"})
		require.NoError(t, err)
		assert.True(t, result.Awarded)

		var profile models.Profile
		require.NoError(t, db.First(&profile, "wallet = ?", "wallet-a").Error)
		assert.Equal(t, 1, profile.BadgesCount)
		assert.Equal(t, []string{"grunt"}, profile.Badges)
	})

	t.Run("re-awarding is a successful no-op", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewBadgeService(db)

		_, err := svc.Award("wallet-a", "grunt", nil)
		require.NoError(t, err)

		result, err := svc.Award("wallet-a", "grunt", nil)
		require.NoError(t, err)
		assert.False(t, result.Awarded)
		assert.Equal(t, "already-earned", result.Reason)

		var grants int64
		require.NoError(t, db.Model(&models.ProfileBadge{}).
			Where("wallet = ? AND badge_slug = ?", "wallet-a", "grunt").
			Count(&grants).Error)
		assert.EqualValues(t, 1, grants)

		var profile models.Profile
		require.NoError(t, db.First(&profile, "wallet = ?", "wallet-a").Error)
		assert.Equal(t, 1, profile.BadgesCount)
	})

	t.Run("missing wallet or slug is a validation error", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewBadgeService(db)

		_, err := svc.Award("", "grunt", nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

		_, err = svc.Award("wallet-a", "", nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}

func TestRemoveBadge(t *testing.T) {
	db := newTestDB(t)
	svc := NewBadgeService(db)

	_, err := svc.Award("wallet-a", "grunt", nil)
	require.NoError(t, err)
	_, err = svc.Award("wallet-a", "novice", nil)
	require.NoError(t, err)

	removed, err := svc.RemoveBadge("wallet-a", "grunt")
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var profile models.Profile
	require.NoError(t, db.First(&profile, "wallet = ?", "wallet-a").Error)
	assert.Equal(t, 1, profile.BadgesCount)
	assert.Equal(t, []string{"novice"}, profile.Badges)

	// Removing a badge the wallet never had removes nothing.
	removed, err = svc.RemoveBadge("wallet-a", "grunt")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestListBadges(t *testing.T) {
	db := newTestDB(t)
	svc := NewBadgeService(db)

	require.NoError(t, db.Create(&models.BadgeDefinition{
		Slug: "grunt", Name: "Grunt", Description: "Boots on the ground.",
		Requirement: "Deploy your first NFT into any zone.",
	}).Error)

	_, err := svc.Award("wallet-a", "grunt", nil)
	require.NoError(t, err)
	_, err = svc.Award("wallet-a", "mystery-badge", nil)
	require.NoError(t, err)

	list, err := svc.ListBadges("wallet-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Grunt", list[0].Name)
	// Grants without a definition fall back to the slug as the name.
	assert.Equal(t, "mystery-badge", list[1].Name)
}

func TestFactionBadgeSlugs(t *testing.T) {
	assert.Equal(t, "bat-faction", FactionBadgeSlug("bats"))
	assert.Equal(t, "bat-faction", FactionBadgeSlug("The-Bats"))
	assert.Equal(t, "lycan-faction", FactionBadgeSlug("lycans"))
	assert.Equal(t, "gangrel-faction", FactionBadgeSlug("gangrels"))
	assert.Empty(t, FactionBadgeSlug("outsiders"))

	assert.Equal(t, "bat-victory", FactionVictoryBadgeSlug("bats"))
	assert.Empty(t, FactionVictoryBadgeSlug(""))

	assert.Equal(t, "zone-midtown", ZoneBadgeSlug("midtown"))
	assert.Empty(t, ZoneBadgeSlug("  "))
}

func TestNormalizeWallet(t *testing.T) {
	assert.Equal(t, "wallet-a", NormalizeWallet("  Wallet-A  "))
	assert.Empty(t, NormalizeWallet("   "))
}
