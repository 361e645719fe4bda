package models

// Zone is static reference data; gameplay never mutates it.
type Zone struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug         string `gorm:"uniqueIndex;not null" json:"slug"`
	Name         string `gorm:"not null" json:"name"`
	DisplayOrder int    `gorm:"not null;default:0" json:"display_order"`
}
