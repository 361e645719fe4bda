package handlers

import (
	"time"

	"faction-wars-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupDeploymentRoutes(app *fiber.App, deployments *services.DeploymentService) {
	app.Post("/deployments/bulk", func(c *fiber.Ctx) error {
		var req struct {
			Address string                    `json:"address"`
			RoundID string                    `json:"round_id"`
			Items   []services.DeploymentItem `json:"items"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		result, err := deployments.SaveDeployments(req.Address, req.RoundID, req.Items, time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"ok":      true,
			"count":   result.Count,
			"saved":   result.Saved,
			"skipped": result.Skipped,
		})
	})

	app.Get("/deployments/me", func(c *fiber.Ctx) error {
		rows, err := deployments.MyDeployments(c.Query("address"), c.Query("round_id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"deployments": rows})
	})
}
