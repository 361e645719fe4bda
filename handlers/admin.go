package handlers

import (
	"strconv"
	"time"

	"faction-wars-backend/config"
	"faction-wars-backend/middleware"
	"faction-wars-backend/services"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// SetupAdminRoutes registers the privileged control surface. Every route is
// behind the wallet-allowlist middleware.
func SetupAdminRoutes(
	app *fiber.App,
	cfg *config.Config,
	rounds *services.RoundService,
	standings *services.StandingsService,
	deployments *services.DeploymentService,
	factions *services.FactionService,
	badges *services.BadgeService,
) {
	admin := app.Group("/admin", middleware.AdminAuthMiddleware(cfg))

	admin.Post("/rounds/start", func(c *fiber.Ctx) error {
		var req struct {
			WeekStart string `json:"week_start"`
			WeekEnd   string `json:"week_end"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}
		if req.WeekStart == "" || req.WeekEnd == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing week_start or week_end"})
		}

		weekStart, err := time.Parse(dateLayout, req.WeekStart)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid week_start (use YYYY-MM-DD)"})
		}
		weekEnd, err := time.Parse(dateLayout, req.WeekEnd)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid week_end (use YYYY-MM-DD)"})
		}

		round, err := rounds.StartRound(weekStart, weekEnd)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "round": round})
	})

	admin.Post("/rounds/end", func(c *fiber.Ctx) error {
		var req struct {
			RoundID string `json:"round_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		round, err := rounds.EndRound(req.RoundID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "round": round})
	})

	admin.Get("/rounds/history", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "5"))
		history, err := standings.History(limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"rounds": history})
	})

	admin.Get("/zones/occupancy", func(c *fiber.Ctx) error {
		roundID, occupancy, err := standings.Occupancy(c.Query("round_id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"round_id": roundID, "occupancy": occupancy})
	})

	admin.Post("/zones/kick", func(c *fiber.Ctx) error {
		var req struct {
			RoundID string   `json:"round_id"`
			Mints   []string `json:"mints"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		removed, err := deployments.KickMints(req.RoundID, req.Mints)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "removed": len(removed), "mints": removed})
	})

	admin.Post("/zones/kick-all", func(c *fiber.Ctx) error {
		var req struct {
			RoundID string `json:"round_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		roundID, removed, err := deployments.KickAll(req.RoundID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "round_id": roundID, "removed": removed})
	})

	admin.Get("/factions/members", func(c *fiber.Ctx) error {
		members, err := factions.Members()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"members": members})
	})

	admin.Post("/factions/kick", func(c *fiber.Ctx) error {
		var req struct {
			TargetWallet string `json:"target_wallet"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		result, err := factions.ClearMembership(req.TargetWallet)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	admin.Get("/badges", func(c *fiber.Ctx) error {
		list, err := badges.ListBadges(c.Query("target_wallet"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"badges": list})
	})

	admin.Delete("/badges", func(c *fiber.Ctx) error {
		var req struct {
			TargetWallet string `json:"target_wallet"`
			BadgeSlug    string `json:"badge_slug"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		removed, err := badges.RemoveBadge(req.TargetWallet, req.BadgeSlug)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "removed": removed})
	})
}
