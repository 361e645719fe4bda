package handlers

import (
	"time"

	"faction-wars-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupFactionRoutes(app *fiber.App, factions *services.FactionService) {
	app.Get("/factions", func(c *fiber.Ctx) error {
		list, err := factions.ListFactions()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"factions": list})
	})

	app.Post("/factions/join", func(c *fiber.Ctx) error {
		var req struct {
			Address     string `json:"address"`
			FactionSlug string `json:"faction_slug"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		result, err := factions.Join(req.Address, req.FactionSlug, time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"ok":          true,
			"address":     result.Address,
			"faction":     result.Faction,
			"joined_at":   result.JoinedAt,
			"badge_award": result.BadgeAward,
		})
	})

	app.Get("/factions/membership", func(c *fiber.Ctx) error {
		membership, err := factions.Membership(c.Query("address"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"membership": membership})
	})
}
