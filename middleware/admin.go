package middleware

import (
	"log"

	"faction-wars-backend/config"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware gates the admin control surface on the wallet
// allowlist. The caller's wallet comes from the X-Admin-Wallet header (or a
// wallet query param for dashboard GETs); the match is case-insensitive and
// a miss is always a 403, never a 404.
func AdminAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wallet := c.Get("X-Admin-Wallet")
		if wallet == "" {
			wallet = c.Query("wallet")
		}

		if !cfg.IsAdminWallet(wallet) {
			log.Printf("[admin] unauthorized wallet %q on %s", wallet, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "unauthorized wallet",
			})
		}

		c.Locals("admin_wallet", wallet)
		return c.Next()
	}
}

// RolloverSecretMiddleware authenticates the external scheduler that triggers
// weekly rollovers via the X-Admin-Secret header. An unset secret disables
// the endpoint entirely rather than leaving it open.
func RolloverSecretMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminSecret == "" || c.Get("X-Admin-Secret") != cfg.AdminSecret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		return c.Next()
	}
}
