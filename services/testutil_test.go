package services

import (
	"path/filepath"
	"testing"
	"time"

	"faction-wars-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated sqlite database per test and migrates the full
// schema. A file in t.TempDir() is used instead of :memory: so every pooled
// connection sees the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Faction{},
		&models.Wallet{},
		&models.Round{},
		&models.Zone{},
		&models.NFT{},
		&models.Deployment{},
		&models.Profile{},
		&models.ProfileBadge{},
		&models.BadgeDefinition{},
	))
	return db
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func createFaction(t *testing.T, db *gorm.DB, name, slug, color string) *models.Faction {
	t.Helper()
	faction := models.Faction{ID: uuid.NewString(), Slug: slug, Name: name, Color: color}
	require.NoError(t, db.Create(&faction).Error)
	return &faction
}

func createZone(t *testing.T, db *gorm.DB, name, slug string, order int) *models.Zone {
	t.Helper()
	zone := models.Zone{ID: uuid.NewString(), Slug: slug, Name: name, DisplayOrder: order}
	require.NoError(t, db.Create(&zone).Error)
	return &zone
}

func createRound(t *testing.T, db *gorm.DB, weekStart, weekEnd, status string) *models.Round {
	t.Helper()
	round := models.Round{
		ID:        uuid.NewString(),
		WeekStart: mustDate(t, weekStart),
		WeekEnd:   mustDate(t, weekEnd),
		Status:    status,
	}
	require.NoError(t, db.Create(&round).Error)
	return &round
}

func joinWallet(t *testing.T, db *gorm.DB, address string, faction *models.Faction, joinedAt time.Time) *models.Wallet {
	t.Helper()
	wallet := models.Wallet{Address: address, JoinedFactionID: &faction.ID, JoinedAt: &joinedAt}
	require.NoError(t, db.Create(&wallet).Error)
	return &wallet
}
