package app

import (
	"context"
	"net/url"
	"sync"

	"mesa/pkg/app/config"
	"mesa/pkg/blink"
	"mesa/pkg/cycle"
	"mesa/pkg/mqtt"
	"mesa/pkg/panel"
	"mesa/pkg/port"
	"mesa/pkg/raspberry"
	"mesa/pkg/render"
	"mesa/pkg/script"

	"github.com/go-echarts/statsview"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/womat/debug"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Url parameter
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// stats serves the runtime charts if configured
	stats *statsview.ViewManager

	backplane *panel.Backplane
	scheduler *cycle.Scheduler

	// renderers is the renderer handed to the scheduler
	renderers *render.Multi
	// window is the desktop window, if the ebiten renderer is selected
	window *render.Ebiten
	// terminal is the text renderer, if selected
	terminal *render.Terminal
	// headless is the renderer without output, if selected
	headless *render.Headless
	// gpio is the panel on the Raspberry Pi header, if enabled
	gpio *raspberry.Panel

	// status is the state shown by the web services
	status status

	// done is closed when the control program returned
	done chan struct{}
	err  error
}

// status is written by the scheduler goroutine and read by web handlers.
type status struct {
	sync.Mutex
	ports      port.Snapshot
	iterations uint64
	boundaries uint64
	elapsed    float64
}

// New checks the Web server URL and initialize the main app structure
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return nil, errors.Wrapf(err, "parsing url %q", config.Webserver.URL)
	}

	return &App{
		config:    config,
		urlParsed: u,

		web:  fiber.New(fiber.Config{DisableStartupMessage: true}),
		mqtt: mqtt.New(),

		done: make(chan struct{}),
	}, nil
}

// Run starts the application and blocks until the control program ended,
// the window was closed or ctx is cancelled. A host teardown is no error.
//
// With the ebiten renderer Run must be called on the main goroutine.
func (app *App) Run(ctx context.Context) error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	if app.urlParsed.Host != "" {
		go app.runWebServer()
	}
	if app.config.Statsview != "" {
		app.stats = startStatsview(app.config.Statsview)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go app.control(ctx)

	if app.window != nil {
		if err := app.window.Run(); err != nil {
			debug.ErrorLog.Printf("window: %v", err)
		}
		// the closed window tears the control program down
		app.teardown()
		<-app.done
	} else {
		select {
		case <-app.done:
		case <-ctx.Done():
			debug.InfoLog.Print("teardown requested")
			app.teardown()
			<-app.done
		}
	}

	if errors.Is(app.err, cycle.ErrTeardown) || errors.Is(app.err, context.Canceled) {
		return nil
	}
	return app.err
}

// init initializes the application.
func (app *App) init() (err error) {
	if app.backplane, err = panel.NewBackplane(app.config.Modules, panel.DefaultGeometry); err != nil {
		return errors.Wrap(err, "can't create backplane")
	}

	if err = app.initRenderers(); err != nil {
		return err
	}

	channels, err := app.config.Channels()
	if err != nil {
		return err
	}
	driver, err := blink.New(channels)
	if err != nil {
		return errors.Wrap(err, "can't create blink driver")
	}

	app.scheduler = cycle.New(app.config.Tick, app.renderers, driver)
	app.scheduler.Observe(app.observe)

	if err = app.mqtt.Connect(app.config.MQTT.Connection, MODULE); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// initDefaultRoutes should be always called last
	app.initDefaultRoutes()

	return nil
}

// control runs the control program on its own goroutine, which becomes the
// scheduler goroutine.
func (app *App) control(ctx context.Context) {
	defer close(app.done)

	rt := script.New(app.scheduler)
	defer rt.Close()

	if app.config.Script == "" {
		debug.InfoLog.Print("no script configured, running the echo program")
		app.err = rt.DoString(ctx, "echo", script.Echo)
	} else {
		app.err = rt.DoFile(ctx, app.config.Script)
	}

	switch {
	case app.err == nil:
		debug.InfoLog.Print("control program finished")
	case errors.Is(app.err, cycle.ErrTeardown):
		debug.InfoLog.Print("control program stopped by host teardown")
	default:
		debug.ErrorLog.Printf("control program: %v", app.err)
	}

	// a finished program also closes the window
	if app.window != nil {
		app.window.Close()
	}
}

// teardown closes every renderer, the next scheduler iteration returns cycle.ErrTeardown.
func (app *App) teardown() {
	if app.headless != nil {
		app.headless.Close()
	}
	if app.window != nil {
		app.window.Close()
	}
	if app.terminal != nil {
		app.terminal.Close()
	}
}

// observe runs on the scheduler goroutine after every iteration.
func (app *App) observe(s port.Snapshot) {
	app.status.Lock()
	changed := s != app.status.ports || app.status.iterations == 0
	app.status.ports = s
	app.status.iterations = app.scheduler.Iterations()
	app.status.boundaries = app.scheduler.Boundaries()
	app.status.elapsed = app.scheduler.Elapsed()
	app.status.Unlock()

	if changed {
		app.publishPorts(s)
	}
}

// Close releases every resource held by the app.
func (app *App) Close() error {
	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}
	if app.terminal != nil {
		app.terminal.Stop()
	}
	if app.gpio != nil {
		if err := app.gpio.Close(); err != nil {
			debug.ErrorLog.Printf("closing gpio: %v", err)
		}
	}
	if app.stats != nil {
		app.stats.Stop()
	}
	if app.web != nil {
		_ = app.web.Shutdown()
	}
	return nil
}
