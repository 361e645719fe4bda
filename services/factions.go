package services

import (
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FactionChangeCooldownDays is how long a wallet stays locked to a faction
// after joining it.
const FactionChangeCooldownDays = 30

type FactionService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewFactionService(db *gorm.DB, badges *BadgeService) *FactionService {
	return &FactionService{DB: db, Badges: badges}
}

type FactionInfo struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type JoinResult struct {
	Address    string       `json:"address"`
	Faction    FactionInfo  `json:"faction"`
	JoinedAt   time.Time    `json:"joined_at"`
	BadgeAward *AwardResult `json:"badge_award,omitempty"`
}

// Join puts a wallet into a faction, enforcing the 30-day change cooldown.
// The wallet row doubles as the membership record the deployment flow checks.
func (s *FactionService) Join(address, factionSlug string, now time.Time) (*JoinResult, error) {
	address = NormalizeWallet(address)
	factionSlug = strings.TrimSpace(factionSlug)
	if address == "" || factionSlug == "" {
		return nil, apperrors.Validationf("missing address or faction_slug")
	}

	var faction models.Faction
	if err := s.DB.First(&faction, "slug = ?", factionSlug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("faction not found")
		}
		return nil, apperrors.Dependency(err, "faction lookup failed")
	}

	var wallet models.Wallet
	err := s.DB.First(&wallet, "address = ?", address).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Dependency(err, "wallet lookup failed")
	}
	if err == nil && wallet.JoinedAt != nil {
		elapsed := now.Sub(*wallet.JoinedAt)
		cooldown := time.Duration(FactionChangeCooldownDays) * 24 * time.Hour
		if elapsed < cooldown {
			remaining := int(math.Ceil((cooldown - elapsed).Hours() / 24))
			return nil, apperrors.Conflictf("faction change locked; try again in ~%d day(s)", remaining)
		}
	}

	joinedAt := now.UTC()
	row := models.Wallet{
		Address:         address,
		JoinedFactionID: &faction.ID,
		JoinedAt:        &joinedAt,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"joined_faction_id", "joined_at", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return nil, apperrors.Dependency(err, "wallet upsert failed")
	}

	result := &JoinResult{
		Address:  address,
		Faction:  FactionInfo{Slug: faction.Slug, Name: faction.Name, Color: faction.Color},
		JoinedAt: joinedAt,
	}

	// Badge side effect: isolated, never fails the join.
	if badgeSlug := FactionBadgeSlug(faction.Slug); badgeSlug != "" {
		award, err := s.Badges.Award(address, badgeSlug, map[string]any{"faction": faction.Slug})
		if err != nil {
			log.Printf("[badges] faction badge award failed for %s: %v", address, err)
		} else {
			result.BadgeAward = award
		}
	} else {
		log.Printf("[factions] no badge mapping for faction slug %q", faction.Slug)
	}

	return result, nil
}

type Membership struct {
	Faction  *FactionInfo `json:"faction"`
	JoinedAt *time.Time   `json:"joined_at"`
	UnlockAt *time.Time   `json:"unlock_at"`
}

// Membership returns the wallet's faction plus when it can change again;
// nil means the wallet has never joined.
func (s *FactionService) Membership(address string) (*Membership, error) {
	address = NormalizeWallet(address)
	if address == "" {
		return nil, apperrors.Validationf("missing address")
	}

	var wallet models.Wallet
	err := s.DB.Preload("Faction").First(&wallet, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Dependency(err, "wallet lookup failed")
	}

	membership := &Membership{JoinedAt: wallet.JoinedAt}
	if wallet.Faction != nil {
		membership.Faction = &FactionInfo{Slug: wallet.Faction.Slug, Name: wallet.Faction.Name, Color: wallet.Faction.Color}
	}
	if wallet.JoinedAt != nil {
		unlock := wallet.JoinedAt.AddDate(0, 0, FactionChangeCooldownDays)
		membership.UnlockAt = &unlock
	}
	return membership, nil
}

func (s *FactionService) ListFactions() ([]models.Faction, error) {
	var factions []models.Faction
	if err := s.DB.Order("name ASC").Find(&factions).Error; err != nil {
		return nil, apperrors.Dependency(err, "faction lookup failed")
	}
	return factions, nil
}

type FactionMember struct {
	Label   string `json:"label"`
	Address string `json:"address"`
}

type FactionMembers struct {
	Faction FactionInfo     `json:"faction"`
	Users   []FactionMember `json:"users"`
}

// Members groups every affiliated wallet under its faction, labelled with the
// profile username when one exists.
func (s *FactionService) Members() (map[string]FactionMembers, error) {
	var wallets []models.Wallet
	if err := s.DB.Preload("Faction").
		Where("joined_faction_id IS NOT NULL").
		Find(&wallets).Error; err != nil {
		return nil, apperrors.Dependency(err, "wallet lookup failed")
	}

	addresses := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addresses = append(addresses, w.Address)
	}

	usernameByAddress := map[string]string{}
	if len(addresses) > 0 {
		var profiles []models.Profile
		if err := s.DB.Where("wallet IN ?", addresses).Find(&profiles).Error; err != nil {
			return nil, apperrors.Dependency(err, "profile lookup failed")
		}
		for _, p := range profiles {
			if p.Username != nil && *p.Username != "" {
				usernameByAddress[p.Wallet] = *p.Username
			}
		}
	}

	members := map[string]FactionMembers{}
	for _, w := range wallets {
		if w.Faction == nil {
			continue
		}
		group, ok := members[w.Faction.Slug]
		if !ok {
			group = FactionMembers{
				Faction: FactionInfo{Slug: w.Faction.Slug, Name: w.Faction.Name, Color: w.Faction.Color},
			}
		}
		label := w.Address
		if username, ok := usernameByAddress[w.Address]; ok {
			label = username
		}
		group.Users = append(group.Users, FactionMember{Label: label, Address: w.Address})
		members[w.Faction.Slug] = group
	}
	return members, nil
}

type ClearResult struct {
	Address string `json:"address"`
	Cleared bool   `json:"cleared"`
	Message string `json:"message,omitempty"`
}

// ClearMembership drops a wallet out of its faction (admin kick). A wallet
// that is not in a faction is a successful no-op, not an error.
func (s *FactionService) ClearMembership(targetAddress string) (*ClearResult, error) {
	targetAddress = NormalizeWallet(targetAddress)
	if targetAddress == "" {
		return nil, apperrors.Validationf("missing target_wallet")
	}

	var wallet models.Wallet
	if err := s.DB.First(&wallet, "address = ?", targetAddress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("wallet not found")
		}
		return nil, apperrors.Dependency(err, "wallet lookup failed")
	}

	if wallet.JoinedFactionID == nil {
		return &ClearResult{Address: wallet.Address, Cleared: false, Message: "wallet is not currently in a faction"}, nil
	}

	// joined_at goes with joined_faction_id: one is never set without the other.
	if err := s.DB.Model(&wallet).Updates(map[string]any{
		"joined_faction_id": nil,
		"joined_at":         nil,
	}).Error; err != nil {
		return nil, apperrors.Dependency(err, "wallet update failed")
	}
	return &ClearResult{Address: wallet.Address, Cleared: true}, nil
}
