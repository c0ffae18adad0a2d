package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"pulsein/pkg/app"
	"pulsein/pkg/app/config"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

const defaultConfigFile = "/opt/womat/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	// loadConfig reads the configuration file and opens the debug file,
	// the returned function closes the debug file.
	loadConfig := func() (func(), error) {
		if err := cfg.LoadConfig(); err != nil {
			return func() {}, err
		}

		debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
		return func() {
			debug.InfoLog.Printf("closing debug file %s", cfg.Debug.FileString)
			_ = cfg.Debug.File.Close()
		}, nil
	}

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "Pulse width counter for gpio lines",
		Version: app.VERSION,
		Description: "Measure the width of pulses on gpio lines of a Raspberry Pi by polling the port" +
			"\n and publish the measurements to mqtt and a web service." +
			"\n The width is counted in polling loops, 0 means timeout.",
		UsageText: "pulsein [--config <file>] [--log standard|debug|trace] [command]" +
			"\n\nEXAMPLE:" +
			"\n\tstart the pulse counter and use the configuration file pulsein.yaml" +
			"\n\t\tpulsein --config /opt/womat/pulsein.yaml" +
			"\n\tmeasure one pulse" +
			"\n\t\tpulsein --config /opt/womat/pulsein.yaml measure",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.Debug, Usage: "`LEVEL` overrides the log level of the configuration file (standard|debug|trace)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "measure",
				Usage: "measure one pulse and print the sample as json",
				Action: func(ctx *cli.Context) error {
					closeDebug, err := loadConfig()
					defer closeDebug()
					if err != nil {
						return err
					}

					smp, err := app.MeasureOnce(cfg)
					if err != nil {
						return err
					}

					b, err := json.MarshalIndent(smp, "", "  ")
					if err != nil {
						return err
					}

					fmt.Println(string(b))
					return nil
				},
			},
		},
		Action: func(ctx *cli.Context) error {
			closeDebug, err := loadConfig()
			defer closeDebug()
			if err != nil {
				return err
			}

			a, err := app.New(cfg)
			defer func() {
				debug.InfoLog.Printf("closing app %s", app.Version())
				_ = a.Close()
			}()

			if err != nil {
				return err
			}

			debug.InfoLog.Printf("starting app %s", app.Version())
			if err = a.Run(); err != nil {
				return err
			}

			// capture exit signals to ensure resources are released on exit.
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			// wait for an os.Interrupt signal (CTRL C) or a fatal error of the app
			select {
			case sig := <-quit:
				debug.InfoLog.Printf("Got %s signal. Aborting...", sig)
				return nil
			case <-a.Shutdown():
				return fmt.Errorf("%s stopped after a fatal error", app.MODULE)
			}
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
	return
}
