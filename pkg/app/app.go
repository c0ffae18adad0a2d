package app

import (
	"net/url"
	"sync"
	"time"

	"pulsein/pkg/app/config"
	"pulsein/pkg/mqtt"
	"pulsein/pkg/raspberry"
	"pulsein/pkg/sampler"

	"github.com/gofiber/fiber/v2"
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
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL

	// started is the start time of the application
	started time.Time

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// bank is the port built from the configured gpio lines
	bank raspberry.Bank

	// sampler measures the pulses of bank
	sampler *sampler.Sampler

	// mqttData is the last sample sent to the mqtt broker
	mqttData struct {
		sync.Mutex
		sample sampler.Sample
		sent   bool
	}

	// serviceDone signals that service() is stopped
	serviceDone chan struct{}

	// shutdown is closed if the application can't continue, e.g. the web server failed
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New checks the Web server URL and initialize the main app structure
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    config,
		urlParsed: u,
		started:   time.Now(),

		web:  fiber.New(fiber.Config{DisableStartupMessage: true}),
		mqtt: mqtt.New(),

		shutdown: make(chan struct{}),
	}, err
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	app.serviceDone = make(chan struct{})

	go app.mqtt.Service()
	go app.runWebServer()
	go app.service()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	if app.bank, err = openBank(app.config); err != nil {
		debug.ErrorLog.Printf("can't open gpio: %v", err)
		return err
	}

	app.sampler = newSampler(app.config, app.bank)

	if err = app.mqtt.Connect(app.config.MQTT.Connection, app.config.MQTT.ClientID); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// initDefaultRoutes should be always called last because it may access things like app.sampler
	// which must be initialized before
	app.initDefaultRoutes()

	return nil
}

// Shutdown returns the read only shutdown channel.
// It is closed if a service of the application stopped with a fatal error (see cmd/pulsein.go).
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

// fail logs the fatal error of a service and signals the shutdown of the application.
func (app *App) fail(service string, err error) {
	debug.ErrorLog.Printf("%s stopped: %v", service, err)
	app.shutdownOnce.Do(func() { close(app.shutdown) })
}

// Close stops measuring and releases the gpio lines, the mqtt broker and the web server.
func (app *App) Close() error {
	if app.web != nil {
		_ = app.web.Shutdown()
	}
	if app.sampler != nil {
		_ = app.sampler.Close()
	}
	if app.serviceDone != nil {
		<-app.serviceDone
	}
	if app.bank != nil {
		_ = app.bank.Close()
	}
	if app.mqtt != nil {
		_ = app.mqtt.Close()
	}
	return nil
}

func openBank(c *config.Config) (raspberry.Bank, error) {
	return raspberry.Open(raspberry.Config{
		Driver:       c.Gpio.Driver,
		Chip:         c.Gpio.Chip,
		Lines:        c.Gpio.Lines,
		Terminator:   c.Gpio.Terminator,
		EmulatorHigh: c.Gpio.Emulator.High,
		EmulatorLow:  c.Gpio.Emulator.Low,
	})
}

func newSampler(c *config.Config, b raspberry.Bank) *sampler.Sampler {
	return sampler.New(b, sampler.Options{
		Bit:         c.Pulse.Bit,
		State:       c.Pulse.State,
		MaxLoops:    c.Pulse.MaxLoops,
		Interval:    c.Pulse.Interval,
		History:     c.Pulse.History,
		Calibration: c.Calibration.Calibration,
	})
}

// MeasureOnce opens the configured port, measures one pulse and releases the port.
func MeasureOnce(c *config.Config) (sampler.Sample, error) {
	b, err := openBank(c)
	if err != nil {
		return sampler.Sample{}, err
	}
	defer func() { _ = b.Close() }()

	opts := *c
	opts.Pulse.Interval = 0
	s := newSampler(&opts, b)
	defer func() { _ = s.Close() }()

	return s.Measure(), nil
}
