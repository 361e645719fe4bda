package models

import "time"

// BadgeDefinition: static reference data describing an achievement.
type BadgeDefinition struct {
	Slug        string  `gorm:"primaryKey;type:varchar(64)" json:"slug"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Requirement string  `json:"requirement"`
	Image       *string `json:"image,omitempty"`
}

// ProfileBadge: awarded instance. The unique index on (wallet, badge_slug)
// makes re-awarding a no-op at the storage layer.
type ProfileBadge struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	Wallet    string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_profile_badges_wallet_slug" json:"wallet"`
	BadgeSlug string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_profile_badges_wallet_slug;index" json:"badge_slug"`
	EarnedAt  time.Time      `gorm:"autoCreateTime" json:"earned_at"`
	Context   map[string]any `gorm:"serializer:json" json:"context,omitempty"`
}
