package services

import (
	"testing"
	"time"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRound(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoundService(db)

	t.Run("creates an open round", func(t *testing.T) {
		round, err := svc.StartRound(mustDate(t, "2024-01-01"), mustDate(t, "2024-01-07"))
		require.NoError(t, err)
		assert.Equal(t, models.RoundStatusOpen, round.Status)
		assert.NotEmpty(t, round.ID)
	})

	t.Run("rejects a second open round", func(t *testing.T) {
		_, err := svc.StartRound(mustDate(t, "2024-01-08"), mustDate(t, "2024-01-14"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("rejects start after end", func(t *testing.T) {
		_, err := svc.StartRound(mustDate(t, "2024-02-10"), mustDate(t, "2024-02-01"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}

func TestEndRound(t *testing.T) {
	t.Run("empty id resolves the unique open round", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		round := createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusOpen)

		ended, err := svc.EndRound("")
		require.NoError(t, err)
		assert.Equal(t, round.ID, ended.ID)
		assert.Equal(t, models.RoundStatusLocked, ended.Status)
	})

	t.Run("empty id with no open round is not found", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)

		_, err := svc.EndRound("")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("empty id with two open rounds is ambiguous", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusOpen)
		createRound(t, db, "2024-01-08", "2024-01-14", models.RoundStatusOpen)

		_, err := svc.EndRound("")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("ending a locked round is a no-op", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		round := createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusLocked)

		ended, err := svc.EndRound(round.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoundStatusLocked, ended.Status)
	})

	t.Run("ending a tallied round is rejected", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		round := createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusTallied)

		_, err := svc.EndRound(round.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)

		_, err := svc.EndRound("does-not-exist")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestCurrentRound(t *testing.T) {
	t.Run("prefers the open round containing today", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		createRound(t, db, "2023-12-18", "2023-12-24", models.RoundStatusTallied)
		want := createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusOpen)

		got, err := svc.CurrentRound(mustDate(t, "2024-01-03"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.ID, got.ID)
	})

	t.Run("locks an expired open round before resolving", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		expired := createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusOpen)

		got, err := svc.CurrentRound(mustDate(t, "2024-01-10"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, expired.ID, got.ID)
		assert.Equal(t, models.RoundStatusLocked, got.Status)

		var stored models.Round
		require.NoError(t, db.First(&stored, "id = ?", expired.ID).Error)
		assert.Equal(t, models.RoundStatusLocked, stored.Status)
	})

	t.Run("falls back to the most recent ended round", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		createRound(t, db, "2023-12-18", "2023-12-24", models.RoundStatusTallied)
		recent := createRound(t, db, "2023-12-25", "2023-12-31", models.RoundStatusTallied)

		got, err := svc.CurrentRound(mustDate(t, "2024-01-03"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, recent.ID, got.ID)
	})

	t.Run("returns nil when no rounds exist", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)

		got, err := svc.CurrentRound(time.Now())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRollover(t *testing.T) {
	t.Run("tallies the current round and opens the next week", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		current := createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusOpen)

		result, err := svc.Rollover(mustDate(t, "2024-01-08"))
		require.NoError(t, err)

		assert.Equal(t, current.ID, result.Tallied.ID)
		assert.Equal(t, models.RoundStatusTallied, result.Tallied.Status)

		assert.Equal(t, models.RoundStatusOpen, result.Opened.Status)
		assert.Equal(t, "2024-01-08", result.Opened.WeekStart.Format("2006-01-02"))
		assert.Equal(t, "2024-01-14", result.Opened.WeekEnd.Format("2006-01-02"))

		var stored models.Round
		require.NoError(t, db.First(&stored, "id = ?", current.ID).Error)
		assert.Equal(t, models.RoundStatusTallied, stored.Status)
	})

	t.Run("rejects a repeat rollover for the same week", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusTallied)

		_, err := svc.Rollover(mustDate(t, "2024-01-03"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("nothing to roll over is not found", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)

		_, err := svc.Rollover(mustDate(t, "2024-01-03"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestRolloverIfDue(t *testing.T) {
	t.Run("skips while a playable round is open", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusOpen)

		rolled, err := svc.RolloverIfDue(mustDate(t, "2024-01-03"))
		require.NoError(t, err)
		assert.False(t, rolled)
	})

	t.Run("rolls over once the week has ended", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusOpen)

		rolled, err := svc.RolloverIfDue(mustDate(t, "2024-01-09"))
		require.NoError(t, err)
		assert.True(t, rolled)

		var open models.Round
		require.NoError(t, db.First(&open, "status = ?", models.RoundStatusOpen).Error)
		assert.Equal(t, "2024-01-08", open.WeekStart.Format("2006-01-02"))
	})

	t.Run("a second scheduler tick is a no-op", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewRoundService(db)
		createRound(t, db, "2024-01-01", "2024-01-07", models.RoundStatusOpen)

		rolled, err := svc.RolloverIfDue(mustDate(t, "2024-01-09"))
		require.NoError(t, err)
		require.True(t, rolled)

		rolled, err = svc.RolloverIfDue(mustDate(t, "2024-01-09"))
		require.NoError(t, err)
		assert.False(t, rolled)
	})
}

func TestListZones(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoundService(db)
	createZone(t, db, "Midtown", "midtown", 2)
	createZone(t, db, "Harlem", "harlem", 0)
	createZone(t, db, "SoHo", "soho", 1)

	zones, err := svc.ListZones()
	require.NoError(t, err)
	require.Len(t, zones, 3)
	assert.Equal(t, "harlem", zones[0].Slug)
	assert.Equal(t, "soho", zones[1].Slug)
	assert.Equal(t, "midtown", zones[2].Slug)
}
