package models

import "time"

const (
	RoundStatusOpen    = "open"
	RoundStatusLocked  = "locked"
	RoundStatusTallied = "tallied"
)

// Round is a weekly play window. Status only ever moves forward:
// open -> locked -> tallied.
type Round struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	WeekStart time.Time `gorm:"type:date;not null;index" json:"week_start"`
	WeekEnd   time.Time `gorm:"type:date;not null" json:"week_end"`
	Status    string    `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasEnded reports whether now is past the round's week_end, using an
// end-of-day boundary so the final day still counts.
func (r *Round) HasEnded(now time.Time) bool {
	end := time.Date(r.WeekEnd.Year(), r.WeekEnd.Month(), r.WeekEnd.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	return now.UTC().After(end)
}

// EffectiveStart is the reference point for the early-bird window:
// updated_at, else created_at, else midnight of week_start.
func (r *Round) EffectiveStart() time.Time {
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	if !r.CreatedAt.IsZero() {
		return r.CreatedAt
	}
	return time.Date(r.WeekStart.Year(), r.WeekStart.Month(), r.WeekStart.Day(), 0, 0, 0, 0, time.UTC)
}
