package app

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// VERSION is <major>.<minor>.<patch>+<date of the first day of the release month>.
const (
	VERSION = "1.0.0+20261001"
	MODULE  = "pulsein"
)

// HandleVersion returns the name and version of the application.
func (app *App) HandleVersion() fiber.Handler {
	type version struct {
		Module  string `json:"module"`
		Version string `json:"version"`
		About   string `json:"about"`
	}

	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request version")
		return ctx.JSON(version{Module: MODULE, Version: VERSION, About: Version()})
	}
}

// Version returns e.g. "pulsein V1.0.0".
func Version() string {
	v, _, _ := strings.Cut(VERSION, "+")
	return MODULE + " V" + v
}
