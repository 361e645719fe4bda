package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/config"
	"faction-wars-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OwnedNFT is the normalized shape the rest of the system sees; the indexer's
// nested response is flattened here at the adapter boundary.
type OwnedNFT struct {
	Mint       string  `json:"mint"`
	Name       string  `json:"name"`
	Image      *string `json:"image,omitempty"`
	Collection *string `json:"collection,omitempty"`
}

// HeliusClient talks to the Helius DAS API, the external source of truth for
// which NFTs a wallet owns. Results are filtered by the configured
// collection/creator allowlists.
type HeliusClient struct {
	BaseURL            string
	AllowedCollections map[string]struct{}
	AllowedCreators    map[string]struct{}
	HTTPClient         *http.Client
}

func NewHeliusClient(cfg *config.Config) *HeliusClient {
	host := "mainnet.helius-rpc.com"
	if strings.EqualFold(cfg.HeliusNetwork, "devnet") {
		host = "devnet.helius-rpc.com"
	}

	collections := map[string]struct{}{}
	for _, c := range cfg.AllowedCollections {
		collections[c] = struct{}{}
	}
	creators := map[string]struct{}{}
	for _, c := range cfg.AllowedCreators {
		creators[c] = struct{}{}
	}

	return &HeliusClient{
		BaseURL:            fmt.Sprintf("https://%s/?api-key=%s", host, cfg.HeliusAPIKey),
		AllowedCollections: collections,
		AllowedCreators:    creators,
		HTTPClient:         &http.Client{Timeout: 30 * time.Second},
	}
}

type heliusAsset struct {
	ID        string `json:"id"`
	Interface string `json:"interface"`
	Content   struct {
		Metadata struct {
			Name     string `json:"name"`
			Creators []struct {
				Address string `json:"address"`
			} `json:"creators"`
		} `json:"metadata"`
		Links struct {
			Image string `json:"image"`
		} `json:"links"`
	} `json:"content"`
	Grouping []struct {
		GroupKey   string `json:"group_key"`
		GroupValue string `json:"group_value"`
	} `json:"grouping"`
	Creators []struct {
		Address string `json:"address"`
	} `json:"creators"`
}

// FetchByOwner lists the owner's allowlisted NFTs from the indexer.
func (c *HeliusClient) FetchByOwner(ctx context.Context, owner string) ([]OwnedNFT, error) {
	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      "faction-wars",
		"method":  "getAssetsByOwner",
		"params": map[string]any{
			"ownerAddress": owner,
			"page":         1,
			"limit":        1000,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.Dependency(err, "nft indexer request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.Dependency(
			fmt.Errorf("indexer returned status %d: %s", resp.StatusCode, string(snippet)),
			"nft indexer request failed")
	}

	var decoded struct {
		Result struct {
			Items []heliusAsset `json:"items"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.Dependency(err, "nft indexer response decode failed")
	}

	var out []OwnedNFT
	for _, item := range decoded.Result.Items {
		if !isLikelyNFT(item.Interface) || item.ID == "" {
			continue
		}
		if !c.allowed(item) {
			continue
		}

		nft := OwnedNFT{Mint: item.ID, Name: item.Content.Metadata.Name}
		if img := item.Content.Links.Image; img != "" {
			nft.Image = &img
		}
		if collection := assetCollection(item); collection != "" {
			nft.Collection = &collection
		}
		out = append(out, nft)
	}
	return out, nil
}

func isLikelyNFT(iface string) bool {
	switch strings.ToLower(iface) {
	case "v1_nft", "v2_nft", "programmablenft", "legacynft", "mplcoreasset", "v1_print":
		return true
	default:
		return false
	}
}

func assetCollection(item heliusAsset) string {
	for _, g := range item.Grouping {
		if g.GroupKey == "collection" {
			return g.GroupValue
		}
	}
	return ""
}

func (c *HeliusClient) allowed(item heliusAsset) bool {
	if len(c.AllowedCollections) == 0 && len(c.AllowedCreators) == 0 {
		return true
	}
	if collection := assetCollection(item); collection != "" {
		if _, ok := c.AllowedCollections[collection]; ok {
			return true
		}
	}
	for _, creator := range item.Creators {
		if _, ok := c.AllowedCreators[creator.Address]; ok {
			return true
		}
	}
	for _, creator := range item.Content.Metadata.Creators {
		if _, ok := c.AllowedCreators[creator.Address]; ok {
			return true
		}
	}
	return false
}

type NFTService struct {
	DB      *gorm.DB
	Indexer *HeliusClient
}

func NewNFTService(db *gorm.DB, indexer *HeliusClient) *NFTService {
	return &NFTService{DB: db, Indexer: indexer}
}

// OwnedNFTs fetches the wallet's allowlisted assets and upserts them so a
// later deployment never fails its mint foreign key.
func (s *NFTService) OwnedNFTs(ctx context.Context, owner string) ([]OwnedNFT, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, apperrors.Validationf("missing owner")
	}

	nfts, err := s.Indexer.FetchByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(nfts) == 0 {
		return []OwnedNFT{}, nil
	}

	rows := make([]models.NFT, 0, len(nfts))
	for _, n := range nfts {
		name := n.Name
		rows = append(rows, models.NFT{
			Mint:        n.Mint,
			OwnerWallet: NormalizeWallet(owner),
			Name:        &name,
			Image:       n.Image,
			Collection:  n.Collection,
		})
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mint"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_wallet", "name", "image", "collection", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return nil, apperrors.Dependency(err, "nft upsert failed")
	}

	return nfts, nil
}
