package app

import (
	"os"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// health is the state of the running service.
type health struct {
	Version     string
	GoVersion   string
	HostName    string
	Uptime      string
	Goroutines  int
	HeapMB      uint64
	Driver      string
	Lines       []int
	Interval    string
	LastSample  string `json:",omitempty"`
	LastOutcome string `json:",omitempty"`
}

// HandleHealth reports the runtime state and the state of the measurement, e.g.
//  {"Version":"1.0.0+20261001","GoVersion":"go1.19.2","HostName":"pi","Uptime":"2h0m0s","Goroutines":9,
//   "HeapMB":2,"Driver":"gpiomem","Lines":[17],"Interval":"1s",
//   "LastSample":"2026-10-01T12:00:00+02:00","LastOutcome":"measured"}
func (app *App) HandleHealth() fiber.Handler {
	host, _ := os.Hostname()

	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request health")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		h := health{
			Version:    VERSION,
			GoVersion:  runtime.Version(),
			HostName:   host,
			Uptime:     time.Since(app.started).Round(time.Second).String(),
			Goroutines: runtime.NumGoroutine(),
			HeapMB:     m.HeapAlloc >> 20,
			Driver:     app.config.Gpio.Driver,
			Lines:      app.config.Gpio.Lines,
			Interval:   app.config.Pulse.Interval.String(),
		}

		if smp := app.sampler.Last(); !smp.TimeStamp.IsZero() {
			h.LastSample = smp.TimeStamp.Format(time.RFC3339)
			h.LastOutcome = smp.Outcome.String()
		}

		return ctx.JSON(h)
	}
}
