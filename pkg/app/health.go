package app

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// HandleHealth returns data about the health of myself and the simulator.
// output example:
//  {"NumGoroutines":11,"NumCPU":4,"HeapAllocatedBytes":332256,"HeapAllocatedMB":0,
//   "SysMemoryBytes":360290312,"SysMemoryMB":343,"Version":"1.0.0+20261001","ProgLang":"go1.24",
//   "Renderer":"ebiten","Iterations":120345,"Boundaries":120345,"ElapsedMs":1.02,...}
func (app *App) HandleHealth() fiber.Handler {
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}

	host, _ := os.Hostname()
	start := time.Now()

	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request health")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		app.status.Lock()
		iterations, boundaries, elapsed := app.status.iterations, app.status.boundaries, app.status.elapsed
		app.status.Unlock()

		healthData := struct {
			NumGoroutines      int
			NumCPU             int
			HeapAllocatedBytes uint64
			HeapAllocatedMB    uint64
			SysMemoryBytes     uint64
			SysMemoryMB        uint64
			Version            string
			ProgLang           string
			HostName           string
			Time               string
			Uptime             string
			Renderer           string
			Script             string
			Iterations         uint64
			Boundaries         uint64
			ElapsedMs          float64
		}{
			NumGoroutines:      runtime.NumGoroutine(),
			NumCPU:             runtime.NumCPU(),
			HeapAllocatedBytes: m.Alloc,
			HeapAllocatedMB:    bToMb(m.Alloc),
			SysMemoryBytes:     m.Sys,
			SysMemoryMB:        bToMb(m.Sys),
			ProgLang:           runtime.Version(),
			Version:            VERSION,
			HostName:           host,
			Time:               time.Now().Format(time.RFC3339),
			Uptime:             time.Since(start).Round(time.Second).String(),
			Renderer:           app.config.Renderer,
			Script:             app.config.Script,
			Iterations:         iterations,
			Boundaries:         boundaries,
			ElapsedMs:          elapsed,
		}
		ctx.Status(http.StatusOK)
		return ctx.JSON(healthData)
	}
}
