package models

import "time"

// Wallet keys everything by the lowercased address. JoinedFactionID and
// JoinedAt are set together by a faction join and cleared together by an
// admin kick; one is never present without the other.
type Wallet struct {
	Address         string     `gorm:"primaryKey;type:varchar(128)" json:"address"`
	JoinedFactionID *string    `gorm:"type:uuid;index" json:"joined_faction_id,omitempty"`
	JoinedAt        *time.Time `json:"joined_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Faction *Faction `gorm:"foreignKey:JoinedFactionID" json:"faction,omitempty"`
}
