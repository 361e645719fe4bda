package models

// Faction is seeded reference data. Runtime flows never create or destroy
// factions, they only point wallets at them.
type Faction struct {
	ID     string  `gorm:"primaryKey;type:uuid" json:"id"`
	Slug   string  `gorm:"uniqueIndex;not null" json:"slug"`
	Name   string  `gorm:"not null" json:"name"`
	Color  string  `gorm:"type:varchar(16);not null" json:"color"`
	Emblem *string `json:"emblem,omitempty"`
}
