package workers

import (
	"context"
	"log"
	"time"

	"faction-wars-backend/models"
	"faction-wars-backend/services"

	"gorm.io/gorm"
)

// NFTSyncWorker periodically refreshes the cached NFT metadata for wallets
// that are in a faction, so deploy screens show current names and images
// without hitting the indexer on every page load.
type NFTSyncWorker struct {
	DB   *gorm.DB
	NFTs *services.NFTService

	// batchSize caps how many wallets one sweep touches.
	batchSize int
}

func NewNFTSyncWorker(db *gorm.DB, nfts *services.NFTService) *NFTSyncWorker {
	return &NFTSyncWorker{DB: db, NFTs: nfts, batchSize: 200}
}

// PollOwnedNFTs runs the sync loop until the context is cancelled.
func PollOwnedNFTs(ctx context.Context, worker *NFTSyncWorker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[nft-sync] polling every %s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[nft-sync] stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			worker.syncOnce(ctx)
		}
	}
}

func (w *NFTSyncWorker) syncOnce(ctx context.Context) {
	var wallets []models.Wallet
	if err := w.DB.
		Where("joined_faction_id IS NOT NULL").
		Order("updated_at DESC").
		Limit(w.batchSize).
		Find(&wallets).Error; err != nil {
		log.Printf("[nft-sync] wallet lookup failed: %v", err)
		return
	}

	refreshed := 0
	for _, wallet := range wallets {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.NFTs.OwnedNFTs(ctx, wallet.Address); err != nil {
			log.Printf("[nft-sync] refresh failed for %s: %v", wallet.Address, err)
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		log.Printf("[nft-sync] refreshed NFT metadata for %d wallet(s)", refreshed)
	}
}
