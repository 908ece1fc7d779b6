package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/mklimuk/rotary/snsctx"
)

var sensorFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML file with sensor options",
	},
	&cli.IntFlag{Name: "hysteresis", Usage: "hysteresis 0-3 (off, 1, 2, 3 LSB)"},
	&cli.IntFlag{Name: "power-mode", Usage: "power mode 0-3 (NOM, LPM1-3)"},
	&cli.IntFlag{Name: "watchdog", Usage: "watchdog 0-1"},
	&cli.IntFlag{Name: "fast-filter", Usage: "fast filter threshold 0-7"},
	&cli.IntFlag{Name: "slow-filter", Usage: "slow filter 0-3 (16x, 8x, 4x, 2x)"},
	&cli.IntFlag{Name: "pwm-frequency", Usage: "PWM frequency 0-3 (115, 230, 460, 920 Hz)"},
	&cli.IntFlag{Name: "output-stage", Usage: "output stage 0-1 (analog full, analog reduced)"},
}

// sensorConfig loads the YAML file (if any) and overlays the options given
// on the command line.
func sensorConfig(c *cli.Context) (position.Config, error) {
	var config position.Config
	if path := c.String("config"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return config, fmt.Errorf("could not open config file: %w", err)
		}
		defer func() { _ = f.Close() }()
		config, err = parseConfig(f)
		if err != nil {
			return config, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}
	if c.IsSet("hysteresis") {
		config.Hysteresis = position.Hysteresis(c.Int("hysteresis"))
	}
	if c.IsSet("power-mode") {
		config.PowerMode = position.PowerMode(c.Int("power-mode"))
	}
	if c.IsSet("watchdog") {
		config.Watchdog = position.Watchdog(c.Int("watchdog"))
	}
	if c.IsSet("fast-filter") {
		config.FastFilterThreshold = position.FastFilterThreshold(c.Int("fast-filter"))
	}
	if c.IsSet("slow-filter") {
		config.SlowFilter = position.SlowFilter(c.Int("slow-filter"))
	}
	if c.IsSet("pwm-frequency") {
		config.PWMFrequency = position.PWMFrequency(c.Int("pwm-frequency"))
	}
	if c.IsSet("output-stage") {
		config.OutputStage = position.OutputStage(c.Int("output-stage"))
	}
	return config, nil
}

func parseConfig(r io.Reader) (position.Config, error) {
	var config position.Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&config)
	if errors.Is(err, io.EOF) {
		return position.Config{}, nil
	}
	return config, err
}

type configReport struct {
	Written  position.Config `yaml:"written"`
	Stored   position.Config `yaml:"stored"`
	Raw      string          `yaml:"raw"`
	Verified bool            `yaml:"verified"`
}

var configCmd = cli.Command{
	Name:  "config",
	Usage: "sensor configuration",
	Subcommands: []*cli.Command{
		&configShowCmd,
		&configWriteCmd,
		&configReadCmd,
	},
}

var configShowCmd = cli.Command{
	Name:  "show",
	Usage: "print the resolved options and CONF bytes without touching the device",
	Action: func(c *cli.Context) error {
		config, err := sensorConfig(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if err := config.Validate(); err != nil {
			console.Warnf("%s", err)
		}
		c1, c2 := config.Encode()
		if err := yaml.NewEncoder(console.Output()).Encode(config); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		console.PInfof(console.PictoGear, "CONF %s", confBytes(c1, c2))
		return nil
	},
}

var configWriteCmd = cli.Command{
	Name:  "write",
	Usage: "write the CONF register",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask about out of range options"},
	},
	Action: func(c *cli.Context) error {
		config, err := sensorConfig(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if err := config.Validate(); err != nil && !c.Bool("yes") {
			console.Warnf("%s", err)
			answer, err := console.YesOrNo("out of range options will be written as 0, continue?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				return nil
			}
		}
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "could not configure sensor: %s", console.Red(err))
		}
		defer closeBus()
		c1, c2 := sensor.Config().Encode()
		console.PInfof(console.PictoGear, "wrote CONF %s", confBytes(c1, c2))
		return nil
	},
}

var configReadCmd = cli.Command{
	Name:  "read",
	Usage: "write the CONF register and read it back",
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "could not configure sensor: %s", console.Red(err))
		}
		defer closeBus()
		raw, err := sensor.GetRawConfig(ctx)
		if err != nil {
			return console.Exit(1, "error reading config: %s", console.Red(err))
		}
		report := newConfigReport(sensor.Config(), raw)
		if err := yaml.NewEncoder(console.Output()).Encode(report); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		if !report.Verified {
			return console.Exit(2, "stored configuration differs from the written one")
		}
		return nil
	},
}

func newConfigReport(written position.Config, raw uint16) configReport {
	c1, c2 := written.Encode()
	return configReport{
		// out of range fields were written as 0, report what the device got
		Written:  position.DecodeConfig(uint16(c1)<<8 | uint16(c2)),
		Stored:   position.DecodeConfig(raw),
		Raw:      fmt.Sprintf("%#04x", raw),
		Verified: raw == uint16(c1)<<8|uint16(c2),
	}
}

// confBytes prints C1 and C2 the way they go on the wire. The %#x width
// counts digits only.
func confBytes(c1, c2 byte) string {
	return fmt.Sprintf("%#02x %#02x", c1, c2)
}
