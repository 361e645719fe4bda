package services

import (
	"errors"
	"log"
	"sort"
	"time"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"gorm.io/gorm"
)

// UnaffiliatedSlug buckets deployments whose faction cannot be resolved at
// all; missing membership degrades here instead of failing the tally.
const UnaffiliatedSlug = "unaffiliated"

const unaffiliatedColor = "#9ca3af"

type StandingsService struct {
	DB     *gorm.DB
	Rounds *RoundService
	Badges *BadgeService
}

func NewStandingsService(db *gorm.DB, rounds *RoundService, badges *BadgeService) *StandingsService {
	return &StandingsService{DB: db, Rounds: rounds, Badges: badges}
}

type ZoneStanding struct {
	ZoneSlug string         `json:"zone_slug"`
	ZoneName string         `json:"zone_name"`
	Totals   map[string]int `json:"totals"`
	Winner   string         `json:"winner,omitempty"`
}

type FactionTotal struct {
	FactionSlug string  `json:"faction_slug"`
	NFTCount    int     `json:"nft_count"`
	Color       *string `json:"color"`
}

type Standings struct {
	Round         *models.Round            `json:"round"`
	ByZone        map[string]*ZoneStanding `json:"byZone"`
	FactionTotals []FactionTotal           `json:"factionTotals"`
	FactionColors map[string]string        `json:"factionColors"`
}

// rowFaction resolves the faction for one deployment: the snapshot fields
// captured at deployment time win; older rows without a snapshot fall back to
// the wallet's current faction; anything else is unaffiliated.
func rowFaction(d *models.Deployment) (slug string, color string) {
	if d.FactionSlug != nil && *d.FactionSlug != "" {
		slug = *d.FactionSlug
		if d.FactionColor != nil {
			color = *d.FactionColor
		}
		return slug, color
	}
	if d.Wallet != nil && d.Wallet.Faction != nil {
		return d.Wallet.Faction.Slug, d.Wallet.Faction.Color
	}
	return UnaffiliatedSlug, ""
}

// ComputeStandings tallies deployments per zone per faction and determines
// each zone's winner. A tie for the top count means no winner; ties are never
// broken arbitrarily.
func (s *StandingsService) ComputeStandings(roundID string) (*Standings, error) {
	var round models.Round
	if err := s.DB.First(&round, "id = ?", roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("round not found")
		}
		return nil, apperrors.Dependency(err, "round lookup failed")
	}

	var deployments []models.Deployment
	if err := s.DB.Preload("Zone").Preload("Wallet.Faction").
		Where("round_id = ?", roundID).
		Find(&deployments).Error; err != nil {
		return nil, apperrors.Dependency(err, "deployment lookup failed")
	}

	standings := &Standings{
		Round:         &round,
		ByZone:        map[string]*ZoneStanding{},
		FactionColors: map[string]string{UnaffiliatedSlug: unaffiliatedColor},
	}
	factionTotals := map[string]int{}

	for i := range deployments {
		d := &deployments[i]
		if d.Zone == nil {
			continue
		}

		factionSlug, factionColor := rowFaction(d)
		if factionSlug == "" {
			factionSlug = UnaffiliatedSlug
		}
		if factionColor != "" {
			if _, ok := standings.FactionColors[factionSlug]; !ok {
				standings.FactionColors[factionSlug] = factionColor
			}
		}

		zone := standings.ByZone[d.ZoneID]
		if zone == nil {
			zone = &ZoneStanding{
				ZoneSlug: d.Zone.Slug,
				ZoneName: d.Zone.Name,
				Totals:   map[string]int{},
			}
			standings.ByZone[d.ZoneID] = zone
		}
		zone.Totals[factionSlug]++
		factionTotals[factionSlug]++
	}

	for _, zone := range standings.ByZone {
		zone.Winner = zoneWinner(zone.Totals)
	}

	slugs := make([]string, 0, len(factionTotals))
	for slug := range factionTotals {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	standings.FactionTotals = make([]FactionTotal, 0, len(slugs))
	for _, slug := range slugs {
		total := FactionTotal{FactionSlug: slug, NFTCount: factionTotals[slug]}
		if color, ok := standings.FactionColors[slug]; ok {
			c := color
			total.Color = &c
		}
		standings.FactionTotals = append(standings.FactionTotals, total)
	}

	return standings, nil
}

// zoneWinner returns the faction with the strictly highest count, or "" when
// the top two are tied.
func zoneWinner(totals map[string]int) string {
	type entry struct {
		slug  string
		count int
	}
	entries := make([]entry, 0, len(totals))
	for slug, count := range totals {
		entries = append(entries, entry{slug, count})
	}
	if len(entries) == 0 {
		return ""
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].slug < entries[j].slug
	})
	if len(entries) == 1 || entries[0].count > entries[1].count {
		return entries[0].slug
	}
	return ""
}

// CurrentStandings serves both live standings during an open round and final
// results after lock, by preferring the most recently ended locked/tallied
// round and falling back to the earliest open one. Victory badges are only
// awarded once the target round is past open, since winners are provisional
// until then.
func (s *StandingsService) CurrentStandings(now time.Time) (*Standings, error) {
	if err := s.Rounds.lockExpired(now); err != nil {
		return nil, err
	}

	var target models.Round
	err := s.DB.
		Where("status IN ?", []string{models.RoundStatusLocked, models.RoundStatusTallied}).
		Order("week_end DESC").
		Order("updated_at DESC").
		First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.DB.
			Where("status = ?", models.RoundStatusOpen).
			Order("week_start ASC").
			Order("updated_at DESC").
			First(&target).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Standings{ByZone: map[string]*ZoneStanding{}, FactionTotals: []FactionTotal{}, FactionColors: map[string]string{}}, nil
	}
	if err != nil {
		return nil, apperrors.Dependency(err, "target round lookup failed")
	}

	standings, err := s.ComputeStandings(target.ID)
	if err != nil {
		return nil, err
	}

	if target.Status == models.RoundStatusLocked || target.Status == models.RoundStatusTallied {
		s.awardVictoryBadges(&target, standings)
	}

	return standings, nil
}

// awardVictoryBadges grants zone badges to every wallet on each zone's
// winning faction, plus the faction-victory badge for the round-wide winner.
// Failures are logged; this never fails the standings read.
func (s *StandingsService) awardVictoryBadges(round *models.Round, standings *Standings) {
	for zoneID, zone := range standings.ByZone {
		if zone.Winner == "" {
			continue
		}
		badgeSlug := ZoneBadgeSlug(zone.ZoneSlug)
		if badgeSlug == "" {
			continue
		}

		wallets, err := s.winningWallets(round.ID, zone.Winner, &zoneID)
		if err != nil {
			log.Printf("[badges] zone victory wallet lookup failed for %s: %v", zone.ZoneSlug, err)
			continue
		}
		for _, wallet := range wallets {
			if _, err := s.Badges.Award(wallet, badgeSlug, map[string]any{
				"round_id": round.ID, "zone_slug": zone.ZoneSlug, "faction": zone.Winner,
			}); err != nil {
				log.Printf("[badges] zone victory award failed for %s: %v", wallet, err)
			}
		}
	}

	winner := zoneWinnerFromTotals(standings.FactionTotals)
	badgeSlug := FactionVictoryBadgeSlug(winner)
	if badgeSlug == "" {
		return
	}
	wallets, err := s.winningWallets(round.ID, winner, nil)
	if err != nil {
		log.Printf("[badges] round victory wallet lookup failed: %v", err)
		return
	}
	for _, wallet := range wallets {
		if _, err := s.Badges.Award(wallet, badgeSlug, map[string]any{
			"round_id": round.ID, "faction": winner,
		}); err != nil {
			log.Printf("[badges] round victory award failed for %s: %v", wallet, err)
		}
	}
}

// zoneWinnerFromTotals applies the same strict-majority rule to the
// round-wide faction totals; unaffiliated never wins a round.
func zoneWinnerFromTotals(totals []FactionTotal) string {
	counts := map[string]int{}
	for _, t := range totals {
		if t.FactionSlug == UnaffiliatedSlug {
			continue
		}
		counts[t.FactionSlug] = t.NFTCount
	}
	return zoneWinner(counts)
}

// winningWallets returns the distinct wallets that deployed for the given
// faction snapshot in a round, optionally narrowed to one zone.
func (s *StandingsService) winningWallets(roundID, factionSlug string, zoneID *string) ([]string, error) {
	query := s.DB.Model(&models.Deployment{}).
		Where("round_id = ? AND faction_slug = ?", roundID, factionSlug)
	if zoneID != nil {
		query = query.Where("zone_id = ?", *zoneID)
	}

	var wallets []string
	if err := query.Distinct("wallet_address").Pluck("wallet_address", &wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

// ZoneOccupancy is a per-zone deployment count for the admin panel.
type ZoneOccupancy struct {
	ZoneID   string `json:"zone_id"`
	ZoneSlug string `json:"zone_slug"`
	ZoneName string `json:"zone_name"`
	Count    int    `json:"count"`
}

// Occupancy counts deployments per zone for a round, zero-filling zones with
// no deployments so the admin table always shows the full map.
func (s *StandingsService) Occupancy(roundID string) (string, []ZoneOccupancy, error) {
	if roundID == "" {
		var open []models.Round
		if err := s.DB.Where("status = ?", models.RoundStatusOpen).Find(&open).Error; err != nil {
			return "", nil, apperrors.Dependency(err, "open round lookup failed")
		}
		if len(open) == 0 {
			return "", []ZoneOccupancy{}, nil
		}
		roundID = open[0].ID
	}

	var deployments []models.Deployment
	if err := s.DB.Select("zone_id").Where("round_id = ?", roundID).Find(&deployments).Error; err != nil {
		return "", nil, apperrors.Dependency(err, "deployment lookup failed")
	}
	counts := map[string]int{}
	for _, d := range deployments {
		counts[d.ZoneID]++
	}

	var zones []models.Zone
	if err := s.DB.Order("display_order ASC").Find(&zones).Error; err != nil {
		return "", nil, apperrors.Dependency(err, "zone lookup failed")
	}

	occupancy := make([]ZoneOccupancy, 0, len(zones))
	for _, z := range zones {
		occupancy = append(occupancy, ZoneOccupancy{
			ZoneID:   z.ID,
			ZoneSlug: z.Slug,
			ZoneName: z.Name,
			Count:    counts[z.ID],
		})
	}
	return roundID, occupancy, nil
}

// RoundHistory is one ended round with its per-zone outcomes.
type RoundHistory struct {
	ID        string         `json:"id"`
	WeekStart time.Time      `json:"week_start"`
	WeekEnd   time.Time      `json:"week_end"`
	Status    string         `json:"status"`
	Zones     []ZoneStanding `json:"zones"`
}

// History returns the most recently ended rounds with their zone winners.
func (s *StandingsService) History(limit int) ([]RoundHistory, error) {
	if limit < 1 {
		limit = 5
	}
	if limit > 20 {
		limit = 20
	}

	var rounds []models.Round
	if err := s.DB.
		Where("status IN ?", []string{models.RoundStatusLocked, models.RoundStatusTallied}).
		Order("week_end DESC").
		Order("updated_at DESC").
		Limit(limit).
		Find(&rounds).Error; err != nil {
		return nil, apperrors.Dependency(err, "round history lookup failed")
	}

	history := make([]RoundHistory, 0, len(rounds))
	for _, round := range rounds {
		standings, err := s.ComputeStandings(round.ID)
		if err != nil {
			return nil, err
		}

		zones := make([]ZoneStanding, 0, len(standings.ByZone))
		for _, zone := range standings.ByZone {
			zones = append(zones, *zone)
		}
		sort.Slice(zones, func(i, j int) bool { return zones[i].ZoneSlug < zones[j].ZoneSlug })

		history = append(history, RoundHistory{
			ID:        round.ID,
			WeekStart: round.WeekStart,
			WeekEnd:   round.WeekEnd,
			Status:    round.Status,
			Zones:     zones,
		})
	}
	return history, nil
}
