package services

import (
	"strings"
	"testing"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProfileGet(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)
	bats := createFaction(t, db, "Bats", "bats", "#7c3aed")

	t.Run("missing wallet is a validation error", func(t *testing.T) {
		_, err := svc.Get("  ")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("unknown wallet yields an empty view", func(t *testing.T) {
		view, err := svc.Get("wallet-a")
		require.NoError(t, err)
		assert.Nil(t, view.Profile)
		assert.Nil(t, view.Faction)
	})

	t.Run("joined wallet includes the faction", func(t *testing.T) {
		joinWallet(t, db, "wallet-b", bats, mustDate(t, "2024-01-01"))
		require.NoError(t, db.Create(&models.Profile{Wallet: "wallet-b", BadgesCount: 2}).Error)

		view, err := svc.Get("Wallet-B")
		require.NoError(t, err)
		require.NotNil(t, view.Profile)
		assert.Equal(t, 2, view.Standing.BadgesCount)
		require.NotNil(t, view.Faction)
		assert.Equal(t, "bats", view.Faction.Slug)
	})
}

func TestProfileUpsert(t *testing.T) {
	t.Run("creates and updates fields independently", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewProfileService(db)

		profile, err := svc.Upsert("wallet-a", ProfileUpdate{Username: strPtr("Alice")})
		require.NoError(t, err)
		require.NotNil(t, profile.Username)
		assert.Equal(t, "Alice", *profile.Username)

		// Updating the avatar leaves the username alone.
		profile, err = svc.Upsert("wallet-a", ProfileUpdate{AvatarURL: strPtr("https://cdn.example/a.png")})
		require.NoError(t, err)
		require.NotNil(t, profile.Username)
		assert.Equal(t, "Alice", *profile.Username)
		require.NotNil(t, profile.AvatarURL)
	})

	t.Run("empty string clears a field", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewProfileService(db)

		_, err := svc.Upsert("wallet-a", ProfileUpdate{Username: strPtr("Alice")})
		require.NoError(t, err)

		profile, err := svc.Upsert("wallet-a", ProfileUpdate{Username: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, profile.Username)
	})

	t.Run("long usernames are truncated", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewProfileService(db)

		profile, err := svc.Upsert("wallet-a", ProfileUpdate{Username: strPtr(strings.Repeat("x", 50))})
		require.NoError(t, err)
		require.NotNil(t, profile.Username)
		assert.Len(t, *profile.Username, maxUsernameLength)
	})

	t.Run("no fields is a bare ensure", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewProfileService(db)

		profile, err := svc.Upsert("wallet-a", ProfileUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "wallet-a", profile.Wallet)
		assert.Nil(t, profile.Username)
	})
}
