package app

import (
	"fmt"

	"mesa/pkg/port"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go function.
//  e.g.: go runWebServer()
//  See app.Run()
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// HandlePorts returns the port values of the last iteration.
// output example:
//  {"P1":255,"P2":15,"P3":240,"P5":255,"P6":255,"P7":255}
func (app *App) HandlePorts() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request ports")

		app.status.Lock()
		s := app.status.ports
		app.status.Unlock()

		return ctx.JSON(s.Map())
	}
}

// HandlePort returns the value of a single port, e.g. /ports/P3.
func (app *App) HandlePort() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request port")

		id, err := port.ParseID(ctx.Params("port"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}

		app.status.Lock()
		v := app.status.ports.Get(id)
		app.status.Unlock()

		return ctx.JSON(fiber.Map{
			"port":  id.String(),
			"value": v,
			"bits":  fmt.Sprintf("%08b", v),
		})
	}
}
