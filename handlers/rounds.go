package handlers

import (
	"time"

	"faction-wars-backend/config"
	"faction-wars-backend/middleware"
	"faction-wars-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRoundRoutes(app *fiber.App, cfg *config.Config, rounds *services.RoundService, standings *services.StandingsService) {
	app.Get("/rounds/current", func(c *fiber.Ctx) error {
		round, err := rounds.CurrentRound(time.Now())
		if err != nil {
			return respondError(c, err)
		}
		if round == nil {
			return c.JSON(fiber.Map{"round": nil, "zones": []any{}})
		}

		zones, err := rounds.ListZones()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"round": round, "zones": zones})
	})

	app.Get("/rounds/current/standings", func(c *fiber.Ctx) error {
		current, err := standings.CurrentStandings(time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(current)
	})

	app.Get("/zones", func(c *fiber.Ctx) error {
		zones, err := rounds.ListZones()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"zones": zones})
	})

	// Invoked by the external cron, not by users.
	app.Post("/rounds/rollover", middleware.RolloverSecretMiddleware(cfg), func(c *fiber.Ctx) error {
		result, err := rounds.Rollover(time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "tallied": result.Tallied, "opened": result.Opened})
	})
}
