package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/rotary"
	"github.com/mklimuk/rotary/adapter"
	"github.com/mklimuk/rotary/i2c"
	"github.com/mklimuk/rotary/position"
)

var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Value:   "mcp2221",
		Usage:   "bus adapter: mcp2221, generic or nanopi",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Value:   "/dev/i2c-1",
		Usage:   "bus name for the generic adapter",
	},
	&cli.IntFlag{
		Name:  "bus",
		Value: -1,
		Usage: "bus number for the nanopi adapter, -1 for the board default",
	},
	&cli.IntFlag{
		Name:  "adapter-index",
		Value: -1,
		Usage: "MCP2221 index when several bridges are attached",
	},
	&cli.StringFlag{
		Name:  "speed",
		Value: i2c.DefaultSpeed.String(),
		Usage: "bus clock for the generic adapter",
	},
}

type closeFunc func()

// openBus returns the selected transport behind a SerializedBus so that a
// cancelled context stops a command between two transfers.
func openBus(c *cli.Context) (rotary.I2CBus, closeFunc, error) {
	switch c.String("adapter") {
	case "mcp2221":
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("adapter-index")))
		if err := a.Init(); err != nil {
			return nil, nil, err
		}
		return i2c.NewSerializedBus(a), func() {}, nil
	case "generic":
		var speed physic.Frequency
		if err := speed.Set(c.String("speed")); err != nil {
			return nil, nil, fmt.Errorf("invalid bus speed %q: %w", c.String("speed"), err)
		}
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, err
		}
		if err := bus.SetSpeed(speed); err != nil {
			_ = bus.Close()
			return nil, nil, err
		}
		return i2c.NewSerializedBus(bus), closer("generic", bus.Close), nil
	case "nanopi":
		bus, err := i2c.NewNanoPiBus(c.Int("bus"))
		if err != nil {
			return nil, nil, err
		}
		return i2c.NewSerializedBus(bus), closer("nanopi", bus.Close), nil
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
	}
}

func closer(name string, closeBus func() error) closeFunc {
	return func() {
		if err := closeBus(); err != nil {
			slog.Error("error closing bus", "adapter", name, "error", err)
		}
	}
}

// openSensor opens the bus and writes the sensor configuration.
func openSensor(ctx context.Context, c *cli.Context) (*position.AS5600L, closeFunc, error) {
	config, err := sensorConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(); err != nil {
		slog.Warn("out of range options are written as 0", "error", err)
	}
	bus, closeBus, err := openBus(c)
	if err != nil {
		return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
	}
	sensor, err := position.NewAS5600L(ctx, bus, position.WithConfig(config))
	if err != nil {
		closeBus()
		return nil, nil, err
	}
	slog.Debug("sensor configured", "config", config)
	return sensor, closeBus, nil
}
