package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeploymentService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewDeploymentService(db *gorm.DB, badges *BadgeService) *DeploymentService {
	return &DeploymentService{DB: db, Badges: badges}
}

// DeploymentItem is one requested NFT-to-zone assignment.
type DeploymentItem struct {
	Mint     string `json:"mint"`
	ZoneSlug string `json:"zone_slug"`
}

// SaveResult reports what actually happened so the caller can reconcile UI
// state: skipped mints were already locked to a zone for this round.
type SaveResult struct {
	Count   int      `json:"count"`
	Saved   []string `json:"saved"`
	Skipped []string `json:"skipped"`
}

// SaveDeployments records NFT-to-zone assignments with lock-after-first-save
// semantics. The (round_id, nft_mint) unique index is the only concurrency
// control: rows are inserted with ignore-on-conflict, so two racing saves for
// the same mint resolve to exactly one winner regardless of arrival order.
func (s *DeploymentService) SaveDeployments(address, roundID string, items []DeploymentItem, now time.Time) (*SaveResult, error) {
	address = NormalizeWallet(address)
	if address == "" {
		return nil, apperrors.Validationf("missing wallet address")
	}
	if len(items) == 0 {
		return nil, apperrors.Validationf("no deployment items provided")
	}

	// Deploying requires a membership record; the wallet row is created by
	// the faction join flow.
	var wallet models.Wallet
	if err := s.DB.Preload("Faction").First(&wallet, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Authorizationf("wallet not registered; join a faction before deploying")
		}
		return nil, apperrors.Dependency(err, "wallet lookup failed")
	}

	round, err := s.resolveRound(roundID, now)
	if err != nil {
		return nil, err
	}

	// Lazily lock an expired round before rejecting the save.
	if round.HasEnded(now) {
		if round.Status == models.RoundStatusOpen {
			if err := s.DB.Model(round).Update("status", models.RoundStatusLocked).Error; err != nil {
				return nil, apperrors.Dependency(err, "round lock failed")
			}
			round.Status = models.RoundStatusLocked
		}
		return nil, apperrors.Authorizationf("round not open for deployments")
	}
	if round.Status != models.RoundStatusOpen {
		return nil, apperrors.Authorizationf("round not open for deployments")
	}

	// Items referencing unknown zone slugs are dropped, not rejected.
	zoneIDBySlug, err := s.zoneIDsForItems(items)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		mint   string
		zoneID string
	}
	// One candidate per mint; when a batch names the same mint twice the
	// first occurrence wins, mirroring lock-after-first-save within the batch.
	var candidates []candidate
	seen := map[string]struct{}{}
	for _, item := range items {
		zoneID, ok := zoneIDBySlug[item.ZoneSlug]
		if item.Mint == "" || !ok {
			continue
		}
		if _, dup := seen[item.Mint]; dup {
			continue
		}
		seen[item.Mint] = struct{}{}
		candidates = append(candidates, candidate{mint: item.Mint, zoneID: zoneID})
	}
	if len(candidates) == 0 {
		return nil, apperrors.Validationf("no valid items after zone mapping")
	}

	mints := make([]string, 0, len(candidates))
	for _, c := range candidates {
		mints = append(mints, c.mint)
	}

	if err := s.ensureNFTRows(address, mints); err != nil {
		return nil, err
	}

	// Lock-after-first-save: mints already deployed this round are skipped
	// and reported, never updated.
	var existing []models.Deployment
	if err := s.DB.Select("nft_mint").
		Where("round_id = ? AND nft_mint IN ?", round.ID, mints).
		Find(&existing).Error; err != nil {
		return nil, apperrors.Dependency(err, "existing deployment lookup failed")
	}
	lockedSet := map[string]struct{}{}
	for _, d := range existing {
		lockedSet[d.NFTMint] = struct{}{}
	}

	var skipped []string
	var rows []models.Deployment
	for _, c := range candidates {
		if _, locked := lockedSet[c.mint]; locked {
			skipped = append(skipped, c.mint)
			continue
		}
		row := models.Deployment{
			ID:            uuid.NewString(),
			RoundID:       round.ID,
			NFTMint:       c.mint,
			WalletAddress: address,
			ZoneID:        c.zoneID,
			CreatedAt:     now,
		}
		if wallet.Faction != nil {
			// Snapshot of the current faction; deliberately never
			// re-derived for historical rounds.
			row.FactionSlug = &wallet.Faction.Slug
			row.FactionName = &wallet.Faction.Name
			row.FactionColor = &wallet.Faction.Color
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return &SaveResult{Count: 0, Saved: []string{}, Skipped: skipped}, nil
	}

	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_id"}, {Name: "nft_mint"}},
		DoNothing: true,
	}).Create(&rows)
	if res.Error != nil {
		return nil, apperrors.Dependency(res.Error, "deployment insert failed")
	}

	saved := make([]string, 0, len(rows))
	if int(res.RowsAffected) == len(rows) {
		for _, r := range rows {
			saved = append(saved, r.NFTMint)
		}
	} else {
		// A concurrent save won the race for some mints; report the ones
		// another wallet now holds as skipped.
		saved, skipped, err = s.reconcileAfterRace(round.ID, address, rows, skipped)
		if err != nil {
			return nil, err
		}
	}

	result := &SaveResult{Count: int(res.RowsAffected), Saved: saved, Skipped: skipped}
	if result.Skipped == nil {
		result.Skipped = []string{}
	}

	// Badge evaluation is a side effect: a failure here is logged and never
	// fails the save that triggered it.
	if result.Count > 0 {
		s.awardDeploymentBadges(address, round, result.Count, now)
	}

	return result, nil
}

func (s *DeploymentService) resolveRound(roundID string, now time.Time) (*models.Round, error) {
	var round models.Round
	if roundID != "" {
		err := s.DB.First(&round, "id = ?", roundID).Error
		if err == nil {
			return &round, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Dependency(err, "round lookup failed")
		}
	}

	// Fall back to the open round whose date range contains today.
	today := dateOnly(now)
	err := s.DB.
		Where("status = ? AND week_start <= ? AND week_end >= ?", models.RoundStatusOpen, today, today).
		Order("week_start ASC").
		First(&round).Error
	if err == nil {
		return &round, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundf("round not found")
	}
	return nil, apperrors.Dependency(err, "open round lookup failed")
}

func (s *DeploymentService) zoneIDsForItems(items []DeploymentItem) (map[string]string, error) {
	slugSet := map[string]struct{}{}
	var slugs []string
	for _, item := range items {
		if item.ZoneSlug == "" {
			continue
		}
		if _, ok := slugSet[item.ZoneSlug]; ok {
			continue
		}
		slugSet[item.ZoneSlug] = struct{}{}
		slugs = append(slugs, item.ZoneSlug)
	}

	idBySlug := map[string]string{}
	if len(slugs) == 0 {
		return idBySlug, nil
	}

	var zones []models.Zone
	if err := s.DB.Where("slug IN ?", slugs).Find(&zones).Error; err != nil {
		return nil, apperrors.Dependency(err, "zone lookup failed")
	}
	for _, z := range zones {
		idBySlug[z.Slug] = z.ID
	}
	return idBySlug, nil
}

// ensureNFTRows creates minimal stub rows for unseen mints so the deployment
// insert never fails referential integrity.
func (s *DeploymentService) ensureNFTRows(owner string, mints []string) error {
	stubs := make([]models.NFT, 0, len(mints))
	for _, mint := range mints {
		stubs = append(stubs, models.NFT{Mint: mint, OwnerWallet: owner})
	}
	if len(stubs) == 0 {
		return nil
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mint"}},
		DoNothing: true,
	}).Create(&stubs).Error; err != nil {
		return apperrors.Dependency(err, "nft upsert failed")
	}
	return nil
}

func (s *DeploymentService) reconcileAfterRace(roundID, address string, attempted []models.Deployment, skipped []string) ([]string, []string, error) {
	mints := make([]string, 0, len(attempted))
	for _, r := range attempted {
		mints = append(mints, r.NFTMint)
	}

	var stored []models.Deployment
	if err := s.DB.Select("nft_mint, wallet_address").
		Where("round_id = ? AND nft_mint IN ?", roundID, mints).
		Find(&stored).Error; err != nil {
		return nil, nil, apperrors.Dependency(err, "deployment reconciliation failed")
	}

	ownerByMint := map[string]string{}
	for _, d := range stored {
		ownerByMint[d.NFTMint] = d.WalletAddress
	}

	var saved []string
	for _, mint := range mints {
		if ownerByMint[mint] == address {
			saved = append(saved, mint)
		} else {
			skipped = append(skipped, mint)
		}
	}
	return saved, skipped, nil
}

// awardDeploymentBadges checks every deployment-triggered badge after a
// successful save. All failures are logged and swallowed.
func (s *DeploymentService) awardDeploymentBadges(address string, round *models.Round, savedCount int, now time.Time) {
	// Grunt: lifetime deployment count equals the batch just saved, so this
	// was the wallet's very first deployment.
	var lifetime int64
	if err := s.DB.Model(&models.Deployment{}).
		Where("wallet_address = ?", address).
		Count(&lifetime).Error; err != nil {
		log.Printf("[badges] grunt count query failed for %s: %v", address, err)
	} else if lifetime > 0 && lifetime == int64(savedCount) {
		if _, err := s.Badges.Award(address, "grunt", map[string]any{"round_id": round.ID, "saved": savedCount}); err != nil {
			log.Printf("[badges] grunt award failed for %s: %v", address, err)
		}
	}

	// Novice: deployed into at least 3 distinct rounds lifetime.
	var distinctRounds int64
	if err := s.DB.Model(&models.Deployment{}).
		Where("wallet_address = ?", address).
		Distinct("round_id").
		Count(&distinctRounds).Error; err != nil {
		log.Printf("[badges] novice count query failed for %s: %v", address, err)
	} else if distinctRounds >= 3 {
		if _, err := s.Badges.Award(address, "novice", map[string]any{"total_rounds": distinctRounds}); err != nil {
			log.Printf("[badges] novice award failed for %s: %v", address, err)
		}
	}

	// Early bird: saved within the first hour of the round's effective start.
	start := round.EffectiveStart()
	if !now.Before(start) && now.Sub(start) <= time.Hour {
		if _, err := s.Badges.Award(address, "early-bird", map[string]any{"round_id": round.ID, "deployed_at": now.UTC().Format(time.RFC3339)}); err != nil {
			log.Printf("[badges] early-bird award failed for %s: %v", address, err)
		}
	}

	// Zone breadth within this round.
	var distinctZones int64
	if err := s.DB.Model(&models.Deployment{}).
		Where("wallet_address = ? AND round_id = ?", address, round.ID).
		Distinct("zone_id").
		Count(&distinctZones).Error; err != nil {
		log.Printf("[badges] zone breadth query failed for %s: %v", address, err)
		return
	}
	if distinctZones >= 3 {
		if _, err := s.Badges.Award(address, "borough-sweeper", map[string]any{"round_id": round.ID, "unique_zones": distinctZones}); err != nil {
			log.Printf("[badges] borough-sweeper award failed for %s: %v", address, err)
		}
	}

	var totalZones int64
	if err := s.DB.Model(&models.Zone{}).Count(&totalZones).Error; err != nil {
		log.Printf("[badges] zone count query failed: %v", err)
		return
	}
	if totalZones > 0 && distinctZones == totalZones {
		if _, err := s.Badges.Award(address, "full-sweep", map[string]any{"round_id": round.ID, "unique_zones": distinctZones}); err != nil {
			log.Printf("[badges] full-sweep award failed for %s: %v", address, err)
		}
	}
}

// MyDeployment is a wallet's saved assignment with zone display fields.
type MyDeployment struct {
	NFTMint  string `json:"nft_mint"`
	ZoneSlug string `json:"zone_slug"`
	ZoneName string `json:"zone_name"`
}

// MyDeployments lists the wallet's deployments for a round so the UI can
// prefill and lock the corresponding selects.
func (s *DeploymentService) MyDeployments(address, roundID string) ([]MyDeployment, error) {
	address = NormalizeWallet(address)
	if address == "" || roundID == "" {
		return nil, apperrors.Validationf("missing address or round_id")
	}

	var rows []models.Deployment
	if err := s.DB.Preload("Zone").
		Where("wallet_address = ? AND round_id = ?", address, roundID).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Dependency(err, "deployment lookup failed")
	}

	out := make([]MyDeployment, 0, len(rows))
	for _, d := range rows {
		entry := MyDeployment{NFTMint: d.NFTMint}
		if d.Zone != nil {
			entry.ZoneSlug = d.Zone.Slug
			entry.ZoneName = d.Zone.Name
		}
		out = append(out, entry)
	}
	return out, nil
}

// KickMints removes specific deployments from a round (admin eviction).
// Mints not deployed in the round are ignored.
func (s *DeploymentService) KickMints(roundID string, mints []string) ([]string, error) {
	if roundID == "" {
		return nil, apperrors.Validationf("missing round_id")
	}
	cleaned := make([]string, 0, len(mints))
	for _, m := range mints {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, apperrors.Validationf("provide at least one mint to remove")
	}

	var existing []models.Deployment
	if err := s.DB.Select("nft_mint").
		Where("round_id = ? AND nft_mint IN ?", roundID, cleaned).
		Find(&existing).Error; err != nil {
		return nil, apperrors.Dependency(err, "deployment lookup failed")
	}
	if len(existing) == 0 {
		return []string{}, nil
	}

	found := make([]string, 0, len(existing))
	for _, d := range existing {
		found = append(found, d.NFTMint)
	}

	if err := s.DB.Where("round_id = ? AND nft_mint IN ?", roundID, found).
		Delete(&models.Deployment{}).Error; err != nil {
		return nil, apperrors.Dependency(err, "deployment delete failed")
	}
	return found, nil
}

// KickAll evicts every deployment in a round; with no id it targets the
// unique open round.
func (s *DeploymentService) KickAll(roundID string) (string, int64, error) {
	if roundID == "" {
		var open []models.Round
		if err := s.DB.Where("status = ?", models.RoundStatusOpen).Find(&open).Error; err != nil {
			return "", 0, apperrors.Dependency(err, "open round lookup failed")
		}
		if len(open) > 1 {
			return "", 0, apperrors.Conflictf("multiple open rounds detected; specify a round_id")
		}
		if len(open) == 0 {
			return "", 0, apperrors.NotFoundf("no open round found")
		}
		roundID = open[0].ID
	}

	res := s.DB.Where("round_id = ?", roundID).Delete(&models.Deployment{})
	if res.Error != nil {
		return "", 0, apperrors.Dependency(res.Error, "deployment delete failed")
	}
	return roundID, res.RowsAffected, nil
}
