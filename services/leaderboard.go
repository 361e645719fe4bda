package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	leaderboardLimit    = 100
	leaderboardCacheKey = "faction-wars:leaderboard"
	leaderboardCacheTTL = 60 * time.Second
)

// LeaderboardService ranks profiles by badge count. The Redis client is
// optional; without one every read goes to the database.
type LeaderboardService struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewLeaderboardService(db *gorm.DB, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{DB: db, Redis: rdb}
}

type LeaderboardEntry struct {
	Wallet      string       `json:"wallet"`
	Username    *string      `json:"username"`
	AvatarURL   *string      `json:"avatar_url"`
	BadgesCount int          `json:"badges_count"`
	Faction     *FactionInfo `json:"faction"`
}

// Top returns the 100 most decorated profiles with their current factions,
// cached for a minute since the board is read far more than badges change.
func (s *LeaderboardService) Top(ctx context.Context) ([]LeaderboardEntry, error) {
	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, leaderboardCacheKey).Result()
		if err == nil {
			var entries []LeaderboardEntry
			if jsonErr := json.Unmarshal([]byte(cached), &entries); jsonErr == nil {
				return entries, nil
			}
		} else if err != redis.Nil {
			log.Printf("[leaderboard] cache read failed: %v", err)
		}
	}

	entries, err := s.loadFromDB()
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if payload, jsonErr := json.Marshal(entries); jsonErr == nil {
			if err := s.Redis.Set(ctx, leaderboardCacheKey, payload, leaderboardCacheTTL).Err(); err != nil {
				log.Printf("[leaderboard] cache write failed: %v", err)
			}
		}
	}

	return entries, nil
}

func (s *LeaderboardService) loadFromDB() ([]LeaderboardEntry, error) {
	var profiles []models.Profile
	if err := s.DB.Order("badges_count DESC").Limit(leaderboardLimit).Find(&profiles).Error; err != nil {
		return nil, apperrors.Dependency(err, "profile lookup failed")
	}

	addresses := make([]string, 0, len(profiles))
	for _, p := range profiles {
		addresses = append(addresses, p.Wallet)
	}

	factionByAddress := map[string]*FactionInfo{}
	if len(addresses) > 0 {
		var wallets []models.Wallet
		if err := s.DB.Preload("Faction").Where("address IN ?", addresses).Find(&wallets).Error; err != nil {
			return nil, apperrors.Dependency(err, "wallet lookup failed")
		}
		for _, w := range wallets {
			if w.Faction != nil {
				factionByAddress[w.Address] = &FactionInfo{Slug: w.Faction.Slug, Name: w.Faction.Name, Color: w.Faction.Color}
			}
		}
	}

	entries := make([]LeaderboardEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, LeaderboardEntry{
			Wallet:      p.Wallet,
			Username:    p.Username,
			AvatarURL:   p.AvatarURL,
			BadgesCount: p.BadgesCount,
			Faction:     factionByAddress[p.Wallet],
		})
	}
	return entries, nil
}
