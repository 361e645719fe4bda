package models

import "time"

// Deployment assigns one NFT to one zone for one round. The composite unique
// index on (round_id, nft_mint) is the storage-level guarantee that an NFT
// occupies a single zone per round even under concurrent saves.
//
// FactionSlug/Name/Color snapshot the wallet's faction at deployment time.
// They are never re-derived: past rounds stay historically accurate even if
// the wallet changes faction later.
type Deployment struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	RoundID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_deployments_round_mint;index" json:"round_id"`
	NFTMint       string    `gorm:"column:nft_mint;type:varchar(128);not null;uniqueIndex:idx_deployments_round_mint" json:"nft_mint"`
	WalletAddress string    `gorm:"type:varchar(128);not null;index" json:"wallet_address"`
	ZoneID        string    `gorm:"type:uuid;not null;index" json:"zone_id"`
	FactionSlug   *string   `json:"faction_slug,omitempty"`
	FactionName   *string   `json:"faction_name,omitempty"`
	FactionColor  *string   `json:"faction_color,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	Zone   *Zone   `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	Wallet *Wallet `gorm:"foreignKey:WalletAddress;references:Address" json:"wallet,omitempty"`
}
