package app

import (
	"os"

	"mesa/pkg/raspberry"
	"mesa/pkg/render"

	"github.com/pkg/errors"
	"github.com/womat/debug"
)

// initRenderers creates the configured renderer and the GPIO panel if enabled.
func (app *App) initRenderers() (err error) {
	app.renderers = render.NewMulti()

	switch app.config.Renderer {
	case "ebiten":
		if app.window, err = render.NewEbiten(app.backplane, app.config.Scale); err != nil {
			return errors.Wrap(err, "can't open window")
		}
		app.renderers.Add(app.window)
	case "terminal":
		app.terminal = render.NewTerminal(app.backplane, os.Stdin, os.Stdout)
		if err = app.terminal.Start(); err != nil {
			return errors.Wrap(err, "can't start terminal")
		}
		app.renderers.Add(app.terminal)
	case "headless":
		app.headless = render.NewHeadless()
		app.renderers.Add(app.headless)
	default:
		return errors.Errorf("unknown renderer %q", app.config.Renderer)
	}

	if app.config.Gpio.Enabled {
		if app.gpio, err = raspberry.Open(app.config.Gpio); err != nil {
			return errors.Wrap(err, "can't open gpio")
		}
		app.renderers.Add(app.gpio)
	}

	debug.InfoLog.Printf("renderer %s with %d outputs", app.config.Renderer, app.renderers.Len())
	return nil
}
