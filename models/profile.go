package models

import "time"

// Profile carries display data plus a denormalized badge cache. The badge
// engine upserts this row before granting, so the cache always has a row to
// attach to; Badges/BadgesCount are recomputed after every grant or removal.
type Profile struct {
	Wallet      string    `gorm:"primaryKey;type:varchar(128)" json:"wallet"`
	Username    *string   `gorm:"type:varchar(32)" json:"username"`
	AvatarURL   *string   `json:"avatar_url"`
	Badges      []string  `gorm:"serializer:json" json:"badges"`
	BadgesCount int       `gorm:"not null;default:0" json:"badges_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
