package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"

	"pulsein/pkg/pulse"
	"pulsein/pkg/raspberry"
)

var ErrInvalidMask = errors.New("invalid pulse mask")

// Config holds the application configuration.
// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	Gpio        GpioConfig        `yaml:"gpio"`
	Pulse       PulseConfig       `yaml:"pulse"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Flag        FlagConfig        `yaml:"-"`
	Debug       DebugConfig       `yaml:"debug"`
	Webserver   WebserverConfig   `yaml:"webserver"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	Debug      string
	ConfigFile string
}

// GpioConfig defines the lines which build the measured port.
// Line i of Lines is bit i of the port value.
type GpioConfig struct {
	Driver     string         `yaml:"driver"`
	Chip       string         `yaml:"chip"`
	Lines      []int          `yaml:"lines"`
	Terminator string         `yaml:"terminator"`
	Emulator   EmulatorConfig `yaml:"emulator"`
}

// EmulatorConfig defines the emulated square wave (count of port reads per high and low level).
type EmulatorConfig struct {
	High uint `yaml:"high"`
	Low  uint `yaml:"low"`
}

// PulseConfig defines the measurement
type PulseConfig struct {
	Bit         uint8         `yaml:"bit"`
	State       uint8         `yaml:"state"`
	MaxLoops    uint          `yaml:"maxloops"`
	IntervalInt int           `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
	History     int           `yaml:"history"`
}

// CalibrationConfig defines how widths are converted to durations.
// If Clock is set, the calibration is calculated from the cycle counts,
// otherwise NanosPerLoop and Offset (ns) are used.
type CalibrationConfig struct {
	NanosPerLoop   float64           `yaml:"nanosperloop"`
	OffsetInt      int               `yaml:"offset"`
	Clock          uint64            `yaml:"clock"`
	CyclesPerLoop  uint              `yaml:"cyclesperloop"`
	OverheadCycles uint              `yaml:"overheadcycles"`
	Calibration    pulse.Calibration `yaml:"-"`
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection  string        `yaml:"connection"`
	ClientID    string        `yaml:"clientid"`
	Interval    time.Duration `yaml:"-"`
	IntervalInt int           `yaml:"interval"`
	Topic       string        `yaml:"topic"`
	DeltaWidth  uint          `yaml:"deltawidth"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Gpio: GpioConfig{
			Driver:     "gpiomem",
			Chip:       "gpiochip0",
			Lines:      []int{17},
			Terminator: "pulldown",
			Emulator:   EmulatorConfig{High: 500, Low: 1500},
		},
		Pulse: PulseConfig{
			Bit:         0x01,
			State:       0x01,
			MaxLoops:    1000000,
			IntervalInt: 1000,
			History:     100,
		},
		Flag: FlagConfig{},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"data":    true,
				"stats":   true,
				"measure": true,
			},
		},
		MQTT: MQTTConfig{
			Connection:  "",
			ClientID:    "pulsein",
			IntervalInt: 60,
			Topic:       "/test/pulsein",
			DeltaWidth:  10,
		},
	}
}

func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.Debug != "" {
		c.Debug.FlagString = c.Flag.Debug
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	if c.Pulse.Bit == 0 || c.Pulse.State&^c.Pulse.Bit != 0 {
		return fmt.Errorf("%w: bit %#02x state %#02x", ErrInvalidMask, c.Pulse.Bit, c.Pulse.State)
	}

	// bits above the configured lines are always 0, a pulse could never be seen
	if lines := (raspberry.Config{Lines: c.Gpio.Lines}).Mask(); c.Pulse.Bit&^lines != 0 {
		return fmt.Errorf("%w: bit %#02x is not covered by gpio lines %v", ErrInvalidMask, c.Pulse.Bit, c.Gpio.Lines)
	}

	c.Pulse.Interval = time.Duration(c.Pulse.IntervalInt) * time.Millisecond
	c.MQTT.Interval = time.Duration(c.MQTT.IntervalInt) * time.Second

	if c.Calibration.Clock > 0 {
		c.Calibration.Calibration = pulse.FromCycles(c.Calibration.CyclesPerLoop, c.Calibration.OverheadCycles, c.Calibration.Clock)
	} else {
		c.Calibration.Calibration = pulse.Calibration{
			NanosPerLoop: c.Calibration.NanosPerLoop,
			Offset:       time.Duration(c.Calibration.OffsetInt) * time.Nanosecond,
		}
	}

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	// defines Debug section of global.Config
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
