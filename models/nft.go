package models

import "time"

// NFT is upserted lazily whenever an owner's asset is first observed, so
// deployments never fail their mint foreign key. Display metadata is
// denormalized from the indexer and may lag behind chain state.
type NFT struct {
	Mint        string    `gorm:"primaryKey;type:varchar(128)" json:"mint"`
	OwnerWallet string    `gorm:"index;not null" json:"owner_wallet"`
	Name        *string   `json:"name,omitempty"`
	Image       *string   `json:"image,omitempty"`
	Collection  *string   `json:"collection,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
