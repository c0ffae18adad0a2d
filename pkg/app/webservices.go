package app

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go function.
//  e.g.: go runWebServer()
//  See app.Run()
//  If the web server can't listen, the application is shut down.
func (app *App) runWebServer() {
	if err := app.web.Listen(app.urlParsed.Host); err != nil {
		app.fail("web server", err)
	}
}

// HandleData returns the last periodic or on demand sample.
func (app *App) HandleData() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request data")

		smp := app.sampler.Last()
		if smp.TimeStamp.IsZero() {
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no sample measured yet"})
		}

		return ctx.JSON(smp)
	}
}

// HandleStats returns the statistics of the sample history.
func (app *App) HandleStats() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request stats")

		return ctx.JSON(app.sampler.Stats())
	}
}

// HandleMeasure measures a pulse on demand.
// The request is blocked while a periodic measurement is running.
func (app *App) HandleMeasure() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request measure")

		return ctx.JSON(app.sampler.Measure())
	}
}
