package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/swifty-companion/student-api/api/handlers"
)

func StatusRouter(app fiber.Router, ping handlers.Pinger) {
	app.Get("/status", handlers.GetStatus(ping))
}
