package services

import (
	"log"

	"faction-wars-backend/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reference data. Factions and zones are never mutated by gameplay; seeding
// is insert-or-ignore so it is safe to run on every boot.

var seedFactions = []struct {
	Name  string
	Color string
}{
	{Name: "Bats", Color: "#7c3aed"},
	{Name: "Lycans", Color: "#d97706"},
	{Name: "Gangrels", Color: "#dc2626"},
}

var seedZones = []string{
	"Upper West",
	"Upper East",
	"Midtown",
	"SoHo",
	"LES",
	"Williamsburg",
	"Bushwick",
	"LIC",
	"Astoria",
	"Harlem",
	"Brooklyn Heights",
}

var seedBadges = []models.BadgeDefinition{
	{Slug: "grunt", Name: "Grunt", Description: "Boots on the ground.", Requirement: "Deploy your first NFT into any zone."},
	{Slug: "novice", Name: "Novice", Description: "Sticking around for the long war.", Requirement: "Deploy in 3 different rounds."},
	{Slug: "early-bird", Name: "Early Bird", Description: "First in line when the week turns.", Requirement: "Deploy within an hour of a round opening."},
	{Slug: "borough-sweeper", Name: "Borough Sweeper", Description: "Spreading out across the city.", Requirement: "Hold 3 different zones in the same round."},
	{Slug: "full-sweep", Name: "Full Sweep", Description: "The whole map, all at once.", Requirement: "Hold every zone in the same round."},
	{Slug: "bat-faction", Name: "Bat Initiate", Description: "Sworn to the Bats.", Requirement: "Join the Bats."},
	{Slug: "lycan-faction", Name: "Lycan Initiate", Description: "Running with the Lycans.", Requirement: "Join the Lycans."},
	{Slug: "gangrel-faction", Name: "Gangrel Initiate", Description: "Blooded into the Gangrels.", Requirement: "Join the Gangrels."},
	{Slug: "bat-victory", Name: "Bat Victory", Description: "The Bats took the week.", Requirement: "Be on the Bats when they win a round."},
	{Slug: "lycan-victory", Name: "Lycan Victory", Description: "The Lycans took the week.", Requirement: "Be on the Lycans when they win a round."},
	{Slug: "gangrel-victory", Name: "Gangrel Victory", Description: "The Gangrels took the week.", Requirement: "Be on the Gangrels when they win a round."},
}

// SeedReferenceData inserts factions, zones, and badge definitions that do
// not exist yet. Zone badges are derived from the zone list so every zone has
// a victory badge to award.
func SeedReferenceData(db *gorm.DB) error {
	for _, f := range seedFactions {
		row := models.Faction{
			ID:    uuid.NewString(),
			Slug:  slug.Make(f.Name),
			Name:  f.Name,
			Color: f.Color,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return err
		}
	}

	badges := append([]models.BadgeDefinition{}, seedBadges...)
	for i, name := range seedZones {
		zoneSlug := slug.Make(name)
		zone := models.Zone{
			ID:           uuid.NewString(),
			Slug:         zoneSlug,
			Name:         name,
			DisplayOrder: i,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&zone).Error; err != nil {
			return err
		}
		badges = append(badges, models.BadgeDefinition{
			Slug:        ZoneBadgeSlug(zoneSlug),
			Name:        name + " Victor",
			Description: "Took " + name + " for the faction.",
			Requirement: "Be on the winning faction in " + name + " when a round ends.",
		})
	}

	for _, b := range badges {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&b).Error; err != nil {
			return err
		}
	}

	log.Printf("[seed] reference data ensured (%d factions, %d zones, %d badges)",
		len(seedFactions), len(seedZones), len(badges))
	return nil
}
