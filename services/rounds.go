package services

import (
	"errors"
	"log"
	"time"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoundService is the single source of truth for which round is playable and
// for the open -> locked -> tallied transitions. Time-based transitions are
// lazy: every read path locks expired rounds before resolving, so no
// in-process timer is needed for correctness.
type RoundService struct {
	DB *gorm.DB
}

func NewRoundService(db *gorm.DB) *RoundService {
	return &RoundService{DB: db}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartRound creates a new open round. The single-open-round invariant is
// checked here: one open round is a normal conflict, more than one means a
// prior invariant violation and is surfaced rather than silently resolved.
func (s *RoundService) StartRound(weekStart, weekEnd time.Time) (*models.Round, error) {
	weekStart = dateOnly(weekStart)
	weekEnd = dateOnly(weekEnd)
	if weekStart.After(weekEnd) {
		return nil, apperrors.Validationf("week_start must be on or before week_end")
	}

	var open []models.Round
	if err := s.DB.Where("status = ?", models.RoundStatusOpen).Find(&open).Error; err != nil {
		return nil, apperrors.Dependency(err, "open round lookup failed")
	}
	if len(open) > 1 {
		return nil, apperrors.Conflictf("multiple open rounds detected; resolve manually before starting a new round")
	}
	if len(open) == 1 {
		return nil, apperrors.Conflictf("a round is already open; end the current round before starting a new one")
	}

	round := models.Round{
		ID:        uuid.NewString(),
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Status:    models.RoundStatusOpen,
	}
	if err := s.DB.Create(&round).Error; err != nil {
		return nil, apperrors.Dependency(err, "round insert failed")
	}
	return &round, nil
}

// EndRound locks a round. With no id it resolves the unique open round;
// finding more than one open round makes auto-detection ambiguous.
func (s *RoundService) EndRound(roundID string) (*models.Round, error) {
	var target models.Round

	if roundID == "" {
		var open []models.Round
		if err := s.DB.Where("status = ?", models.RoundStatusOpen).Find(&open).Error; err != nil {
			return nil, apperrors.Dependency(err, "open round lookup failed")
		}
		if len(open) > 1 {
			return nil, apperrors.Conflictf("multiple open rounds detected; specify a round_id")
		}
		if len(open) == 0 {
			return nil, apperrors.NotFoundf("no open round to end")
		}
		target = open[0]
	} else {
		if err := s.DB.First(&target, "id = ?", roundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFoundf("round not found")
			}
			return nil, apperrors.Dependency(err, "round lookup failed")
		}
	}

	switch target.Status {
	case models.RoundStatusTallied:
		// Terminal; locking again would regress the lifecycle.
		return nil, apperrors.Conflictf("round is already tallied")
	case models.RoundStatusLocked:
		return &target, nil
	}

	if err := s.DB.Model(&target).Update("status", models.RoundStatusLocked).Error; err != nil {
		return nil, apperrors.Dependency(err, "round lock failed")
	}
	target.Status = models.RoundStatusLocked
	return &target, nil
}

// lockExpired locks every open round whose week_end has passed (end-of-day
// boundary). Applied at the top of every round read/write path.
func (s *RoundService) lockExpired(now time.Time) error {
	today := dateOnly(now)
	res := s.DB.Model(&models.Round{}).
		Where("status = ? AND week_end < ?", models.RoundStatusOpen, today).
		Update("status", models.RoundStatusLocked)
	if res.Error != nil {
		return apperrors.Dependency(res.Error, "expired round lock failed")
	}
	if res.RowsAffected > 0 {
		log.Printf("[rounds] locked %d expired round(s)", res.RowsAffected)
	}
	return nil
}

// CurrentRound resolves the playable round: an open round containing today,
// else the most recently updated open round, else the most recent locked or
// tallied round. Returns nil when no rounds exist at all.
func (s *RoundService) CurrentRound(now time.Time) (*models.Round, error) {
	if err := s.lockExpired(now); err != nil {
		return nil, err
	}

	var current models.Round
	today := dateOnly(now)
	err := s.DB.
		Where("status = ? AND week_start <= ? AND week_end >= ?", models.RoundStatusOpen, today, today).
		Order("week_start ASC").
		First(&current).Error
	if err == nil {
		return &current, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Dependency(err, "current round lookup failed")
	}

	err = s.DB.
		Where("status = ?", models.RoundStatusOpen).
		Order("updated_at DESC").
		First(&current).Error
	if err == nil {
		return &current, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Dependency(err, "open round fallback lookup failed")
	}

	err = s.DB.
		Where("status IN ?", []string{models.RoundStatusLocked, models.RoundStatusTallied}).
		Order("week_end DESC").
		Order("updated_at DESC").
		First(&current).Error
	if err == nil {
		return &current, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, apperrors.Dependency(err, "round fallback lookup failed")
}

// RolloverResult reports the round that was tallied and the one that opened.
type RolloverResult struct {
	Tallied *models.Round `json:"tallied"`
	Opened  *models.Round `json:"opened"`
}

// Rollover marks the current round tallied and opens the next 7-day round
// starting the day after the previous week_end. Invoked by the external
// scheduler (or an admin), never by ordinary users.
func (s *RoundService) Rollover(now time.Time) (*RolloverResult, error) {
	if err := s.lockExpired(now); err != nil {
		return nil, err
	}

	current, err := s.rolloverTarget(now)
	if err != nil {
		return nil, err
	}

	nextStart := dateOnly(current.WeekEnd).AddDate(0, 0, 1)
	next := models.Round{
		ID:        uuid.NewString(),
		WeekStart: nextStart,
		WeekEnd:   nextStart.AddDate(0, 0, 6),
		Status:    models.RoundStatusOpen,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Lock then tally: the lifecycle is observed as a subsequence of
		// open, locked, tallied even if a reader lands mid-transition.
		if current.Status == models.RoundStatusOpen {
			if err := tx.Model(&models.Round{}).Where("id = ?", current.ID).
				Update("status", models.RoundStatusLocked).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Round{}).Where("id = ?", current.ID).
			Update("status", models.RoundStatusTallied).Error; err != nil {
			return err
		}

		var otherOpen int64
		if err := tx.Model(&models.Round{}).
			Where("status = ? AND id <> ?", models.RoundStatusOpen, current.ID).
			Count(&otherOpen).Error; err != nil {
			return err
		}
		if otherOpen > 0 {
			return apperrors.Conflictf("another round is already open; cannot roll over")
		}

		return tx.Create(&next).Error
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Dependency(err, "round rollover failed")
	}

	current.Status = models.RoundStatusTallied
	log.Printf("[rounds] rolled over %s -> %s (%s to %s)", current.ID, next.ID,
		next.WeekStart.Format("2006-01-02"), next.WeekEnd.Format("2006-01-02"))
	return &RolloverResult{Tallied: current, Opened: &next}, nil
}

// rolloverTarget picks the round to tally: the round containing today if it
// is still open or locked, else the most recent locked round. A tallied
// target means the rollover already ran for that week.
func (s *RoundService) rolloverTarget(now time.Time) (*models.Round, error) {
	today := dateOnly(now)

	var current models.Round
	err := s.DB.
		Where("week_start <= ? AND week_end >= ?", today, today).
		Order("week_start ASC").
		First(&current).Error
	if err == nil {
		if current.Status == models.RoundStatusTallied {
			return nil, apperrors.Conflictf("current round is already tallied")
		}
		return &current, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Dependency(err, "current round lookup failed")
	}

	err = s.DB.
		Where("status = ?", models.RoundStatusLocked).
		Order("week_end DESC").
		First(&current).Error
	if err == nil {
		return &current, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundf("no current round to roll over")
	}
	return nil, apperrors.Dependency(err, "locked round lookup failed")
}

// RolloverIfDue is the scheduler entry point: it rolls over only when the
// week has actually ended, so running it every hour is safe.
func (s *RoundService) RolloverIfDue(now time.Time) (bool, error) {
	if err := s.lockExpired(now); err != nil {
		return false, err
	}

	today := dateOnly(now)
	var playable int64
	if err := s.DB.Model(&models.Round{}).
		Where("status = ? AND week_start <= ? AND week_end >= ?", models.RoundStatusOpen, today, today).
		Count(&playable).Error; err != nil {
		return false, apperrors.Dependency(err, "playable round count failed")
	}
	if playable > 0 {
		return false, nil
	}

	var due int64
	if err := s.DB.Model(&models.Round{}).
		Where("status = ? AND week_end < ?", models.RoundStatusLocked, today).
		Count(&due).Error; err != nil {
		return false, apperrors.Dependency(err, "due round count failed")
	}
	if due == 0 {
		return false, nil
	}

	if _, err := s.Rollover(now); err != nil {
		return false, err
	}
	return true, nil
}

// ListZones returns the static zone list in display order; served alongside
// the current round so the deploy UI can render selects.
func (s *RoundService) ListZones() ([]models.Zone, error) {
	var zones []models.Zone
	if err := s.DB.Order("display_order ASC").Find(&zones).Error; err != nil {
		return nil, apperrors.Dependency(err, "zone lookup failed")
	}
	return zones, nil
}
