package config

import (
	"os"
	"strings"
)

// Config is loaded once at process start and passed explicitly into the
// services that need it. Nothing reads the environment after Load returns.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string

	// AdminSecret authenticates the external rollover scheduler.
	AdminSecret string

	// AdminWallets is the lowercase allowlist for the admin control surface.
	AdminWallets map[string]struct{}

	// NFT indexer settings.
	HeliusAPIKey       string
	HeliusNetwork      string
	AllowedCollections []string
	AllowedCreators    []string

	// R2 / avatar storage.
	CloudflareAccountID string
	R2AccessKeyID       string
	R2AccessKeySecret   string
	R2Bucket            string
	CDNBaseURL          string

	SeedReferenceData bool
}

func Load() *Config {
	cfg := &Config{
		Port:                getenv("PORT", "5300"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		AdminSecret:         os.Getenv("ADMIN_SECRET"),
		AdminWallets:        map[string]struct{}{},
		HeliusAPIKey:        os.Getenv("HELIUS_API_KEY"),
		HeliusNetwork:       getenv("HELIUS_NETWORK", "mainnet"),
		AllowedCollections:  splitCSV(os.Getenv("ALLOWED_COLLECTIONS")),
		AllowedCreators:     splitCSV(os.Getenv("ALLOWED_CREATORS")),
		CloudflareAccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:       os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret:   os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:            os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:          os.Getenv("CDN_BASE_URL"),
		SeedReferenceData:   strings.EqualFold(os.Getenv("SEED_REFERENCE_DATA"), "true"),
	}

	for _, w := range splitCSV(os.Getenv("ADMIN_WALLETS")) {
		cfg.AdminWallets[strings.ToLower(w)] = struct{}{}
	}

	return cfg
}

// IsAdminWallet checks the allowlist by exact case-insensitive match.
func (c *Config) IsAdminWallet(address string) bool {
	if address == "" {
		return false
	}
	_, ok := c.AdminWallets[strings.ToLower(strings.TrimSpace(address))]
	return ok
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
