package main

import (
	"os"
	"os/signal"
	"sort"
	"syscall"

	"mesa/pkg/app"
	"mesa/pkg/app/config"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "simulator of the MESA PLC training rig",
		Version: app.VERSION,
		Description: "Runs a control program written in Lua against three simulated I/O modules" +
			"\n (MM20 LED/switch modules and an 8x8 LED matrix) with a 1ms cycle." +
			"\n Switches are toggled with the mouse, the keyboard or buttons on the GPIO header.",
		UsageText: "mesa [--config <file>] [--script <file>] [--renderer ebiten|terminal|headless] [--log standard|debug|trace]" +
			"\n\nEXAMPLE:" +
			"\n\tstart the simulator in the terminal with the control program traffic.lua" +
			"\n\t\tmesa --renderer terminal --script traffic.lua",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.Debug, Usage: "`LEVEL` defines the log level (standard|debug|trace|full)"},
			&cli.StringFlag{Name: "script", Aliases: []string{"s"}, Destination: &cfg.Flag.Script, Usage: "run the control program in `FILE`"},
			&cli.StringFlag{Name: "renderer", Aliases: []string{"r"}, Destination: &cfg.Flag.Renderer, Usage: "`NAME` of the renderer (ebiten|terminal|headless)"},
		},
		Action: func(ctx *cli.Context) error {
			if err := cfg.LoadConfig(); err != nil {
				return err
			}

			debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
			defer func() {
				debug.InfoLog.Printf("closing debug file %s", cfg.Debug.FileString)
				_ = cfg.Debug.File.Close()
			}()

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() {
				debug.InfoLog.Printf("closing app %s", app.Version())
				_ = a.Close()
			}()

			// capture exit signals to ensure resources are released on exit.
			sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			debug.InfoLog.Printf("starting app %s", app.Version())
			return a.Run(sigCtx)
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	err := cliApp.Run(os.Args)
	if err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
}
