package handlers

import (
	"faction-wars-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNFTRoutes(app *fiber.App, nfts *services.NFTService) {
	app.Get("/nfts", func(c *fiber.Ctx) error {
		owned, err := nfts.OwnedNFTs(c.UserContext(), c.Query("owner"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"nfts": owned})
	})
}
