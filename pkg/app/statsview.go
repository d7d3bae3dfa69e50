package app

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/womat/debug"
)

// startStatsview serves runtime charts at http://addr/debug/statsview.
func startStatsview(addr string) *statsview.ViewManager {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	debug.InfoLog.Printf("stats server available at %s/debug/statsview", addr)
	return mgr
}
