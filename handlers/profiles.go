package handlers

import (
	"faction-wars-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, profiles *services.ProfileService, leaderboard *services.LeaderboardService) {
	app.Get("/profiles", func(c *fiber.Ctx) error {
		view, err := profiles.Get(c.Query("wallet"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(view)
	})

	app.Post("/profiles", func(c *fiber.Ctx) error {
		var req struct {
			Wallet    string  `json:"wallet"`
			Username  *string `json:"username"`
			AvatarURL *string `json:"avatar_url"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		profile, err := profiles.Upsert(req.Wallet, services.ProfileUpdate{
			Username:  req.Username,
			AvatarURL: req.AvatarURL,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"profile": profile})
	})

	app.Post("/profiles/avatar", func(c *fiber.Ctx) error {
		wallet := c.FormValue("wallet")
		file, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
		}

		profile, err := profiles.UploadAvatar(wallet, file)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"profile": profile})
	})

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		entries, err := leaderboard.Top(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"entries": entries})
	})
}
