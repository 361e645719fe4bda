package services

import (
	"log"
	"strings"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// AwardResult distinguishes a fresh grant from a harmless re-award.
type AwardResult struct {
	Awarded bool   `json:"awarded"`
	Reason  string `json:"reason,omitempty"`
}

// NormalizeWallet lowercases and trims an address; wallets are
// case-insensitive keys everywhere in this system.
func NormalizeWallet(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Award grants a badge to a wallet. The profile row is upserted first so the
// denormalized badge cache has somewhere to live, then the grant itself is an
// insert-or-ignore on (wallet, badge_slug): hitting the unique index means
// "already earned" and is a successful no-op, never an error.
func (s *BadgeService) Award(wallet, badgeSlug string, context map[string]any) (*AwardResult, error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, apperrors.Validationf("cannot award badge without a wallet address")
	}
	if badgeSlug == "" {
		return nil, apperrors.Validationf("cannot award badge without a badge slug")
	}

	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet"}},
		DoNothing: true,
	}).Create(&models.Profile{Wallet: wallet}).Error; err != nil {
		return nil, apperrors.Dependency(err, "badge award profile upsert failed")
	}

	grant := models.ProfileBadge{
		ID:        uuid.NewString(),
		Wallet:    wallet,
		BadgeSlug: badgeSlug,
		Context:   context,
	}
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet"}, {Name: "badge_slug"}},
		DoNothing: true,
	}).Create(&grant)
	if res.Error != nil {
		return nil, apperrors.Dependency(res.Error, "badge award insert failed")
	}
	if res.RowsAffected == 0 {
		return &AwardResult{Awarded: false, Reason: "already-earned"}, nil
	}

	if err := s.refreshBadgeCache(wallet); err != nil {
		return nil, err
	}

	log.Printf("[badges] awarded %s to %s", badgeSlug, wallet)
	return &AwardResult{Awarded: true}, nil
}

// refreshBadgeCache recomputes the denormalized badges list and count on the
// profile row after a grant or removal.
func (s *BadgeService) refreshBadgeCache(wallet string) error {
	var slugs []string
	if err := s.DB.Model(&models.ProfileBadge{}).
		Where("wallet = ?", wallet).
		Order("earned_at ASC").
		Pluck("badge_slug", &slugs).Error; err != nil {
		return apperrors.Dependency(err, "badge cache read failed")
	}

	if err := s.DB.Model(&models.Profile{}).
		Where("wallet = ?", wallet).
		Updates(map[string]any{"badges": slugs, "badges_count": len(slugs)}).Error; err != nil {
		return apperrors.Dependency(err, "badge cache update failed")
	}
	return nil
}

// BadgeDetail is a grant joined with its definition for display.
type BadgeDetail struct {
	Slug        string  `json:"slug"`
	EarnedAt    string  `json:"earned_at"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Requirement string  `json:"requirement"`
	Image       *string `json:"image"`
}

func (s *BadgeService) ListBadges(wallet string) ([]BadgeDetail, error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, apperrors.Validationf("missing target wallet")
	}

	var grants []models.ProfileBadge
	if err := s.DB.Where("wallet = ?", wallet).Order("earned_at ASC").Find(&grants).Error; err != nil {
		return nil, apperrors.Dependency(err, "badge lookup failed")
	}

	slugs := make([]string, 0, len(grants))
	for _, g := range grants {
		slugs = append(slugs, g.BadgeSlug)
	}

	defsBySlug := map[string]models.BadgeDefinition{}
	if len(slugs) > 0 {
		var defs []models.BadgeDefinition
		if err := s.DB.Where("slug IN ?", slugs).Find(&defs).Error; err != nil {
			return nil, apperrors.Dependency(err, "badge definition lookup failed")
		}
		for _, d := range defs {
			defsBySlug[d.Slug] = d
		}
	}

	out := make([]BadgeDetail, 0, len(grants))
	for _, g := range grants {
		detail := BadgeDetail{Slug: g.BadgeSlug, EarnedAt: g.EarnedAt.UTC().Format("2006-01-02T15:04:05Z07:00")}
		if def, ok := defsBySlug[g.BadgeSlug]; ok {
			detail.Name = def.Name
			detail.Description = def.Description
			detail.Requirement = def.Requirement
			detail.Image = def.Image
		} else {
			detail.Name = g.BadgeSlug
		}
		out = append(out, detail)
	}
	return out, nil
}

// RemoveBadge deletes a grant (admin surface) and refreshes the cache.
// Removing a badge the wallet never had removes zero rows, not an error.
func (s *BadgeService) RemoveBadge(wallet, badgeSlug string) (int64, error) {
	wallet = NormalizeWallet(wallet)
	badgeSlug = strings.TrimSpace(badgeSlug)
	if wallet == "" || badgeSlug == "" {
		return 0, apperrors.Validationf("missing target wallet or badge slug")
	}

	res := s.DB.Where("wallet = ? AND badge_slug = ?", wallet, badgeSlug).Delete(&models.ProfileBadge{})
	if res.Error != nil {
		return 0, apperrors.Dependency(res.Error, "badge removal failed")
	}
	if res.RowsAffected > 0 {
		if err := s.refreshBadgeCache(wallet); err != nil {
			return res.RowsAffected, err
		}
	}
	return res.RowsAffected, nil
}

// FactionBadgeSlug maps a faction slug to its join badge by substring,
// so variants like "the-bats" still resolve.
func FactionBadgeSlug(factionSlug string) string {
	normalized := strings.ToLower(strings.TrimSpace(factionSlug))
	switch {
	case strings.Contains(normalized, "bat"):
		return "bat-faction"
	case strings.Contains(normalized, "lycan"):
		return "lycan-faction"
	case strings.Contains(normalized, "gangrel"):
		return "gangrel-faction"
	default:
		return ""
	}
}

// FactionVictoryBadgeSlug maps a faction slug to its round-victory badge.
func FactionVictoryBadgeSlug(factionSlug string) string {
	normalized := strings.ToLower(strings.TrimSpace(factionSlug))
	switch {
	case strings.Contains(normalized, "bat"):
		return "bat-victory"
	case strings.Contains(normalized, "lycan"):
		return "lycan-victory"
	case strings.Contains(normalized, "gangrel"):
		return "gangrel-victory"
	default:
		return ""
	}
}

// ZoneBadgeSlug prefixes zone slugs to keep badge slugs collision-free.
func ZoneBadgeSlug(zoneSlug string) string {
	normalized := strings.ToLower(strings.TrimSpace(zoneSlug))
	if normalized == "" {
		return ""
	}
	return "zone-" + normalized
}
