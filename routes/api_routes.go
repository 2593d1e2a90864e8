package routes

import (
	"github.com/districtone/backend/handlers"
	ws "github.com/districtone/backend/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func APIRoutes(app *fiber.App, h *handlers.Handler, hub *ws.Hub) {
	// Single dispatcher endpoint the mobile clients speak.
	app.Post("/", h.Dispatch)

	// Live like-count feed.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.Serve))
}
