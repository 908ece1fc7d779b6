package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/mklimuk/rotary/snsctx"
)

var angleCmd = cli.Command{
	Name:  "angle",
	Usage: "read the magnet angle",
	Subcommands: []*cli.Command{
		&angleReadCmd,
		&angleWatchCmd,
	},
}

var angleReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Flags: []cli.Flag{
		formatFlag,
		&cli.BoolFlag{Name: "raw", Usage: "print the raw 12-bit value without checking the status"},
	},
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "could not configure sensor: %s", console.Red(err))
		}
		defer closeBus()
		if c.Bool("raw") {
			raw, err := sensor.GetRawAngle(ctx)
			if err != nil {
				return console.Exit(1, "error reading angle: %s", console.Red(err))
			}
			console.Printf("%d\n", raw)
			return nil
		}
		reading, err := sensor.GetReading(ctx)
		if err != nil {
			return console.Exit(1, "error reading angle: %s", console.Red(err))
		}
		err = writeFormatted(console.Output(), c.String("format"), reading, func() {
			printStatus(reading.Status)
			printDegrees(reading.Degrees, reading.Valid)
		})
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var angleWatchCmd = cli.Command{
	Name:  "watch",
	Usage: "print the angle periodically until interrupted",
	Flags: []cli.Flag{
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Value: 333 * time.Millisecond},
		&cli.BoolFlag{Name: "fast", Usage: "skip the magnet status check (one transaction per sample)"},
	},
	Action: func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx = snsctx.SetVerbose(ctx, c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "could not configure sensor: %s", console.Red(err))
		}
		defer closeBus()

		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		for {
			if err := sampleAngle(ctx, sensor, c.Bool("fast")); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return console.Exit(1, "error reading angle: %s", console.Red(err))
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func sampleAngle(ctx context.Context, sensor position.RotarySensor, fast bool) error {
	if fast {
		deg, err := sensor.GetAngleDegreesFast(ctx)
		if err != nil {
			return err
		}
		printDegrees(deg, true)
		return nil
	}
	deg, ok, err := sensor.GetAngleDegrees(ctx)
	if err != nil {
		return err
	}
	printDegrees(deg, ok)
	return nil
}

func printDegrees(deg float64, ok bool) {
	if !ok {
		console.PInfof(console.PictoStop, "%s", console.Yellow("magnet unavailable"))
		return
	}
	console.PInfof(console.PictoCompass, "%s", console.White(position.ToAngle(deg)))
}
