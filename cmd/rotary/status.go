package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/mklimuk/rotary/snsctx"
)

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "read magnet status and AGC",
	Flags: []cli.Flag{formatFlag},
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "could not configure sensor: %s", console.Red(err))
		}
		defer closeBus()
		status, err := sensor.GetStatus(ctx)
		if err != nil {
			return console.Exit(1, "error reading status: %s", console.Red(err))
		}
		err = writeFormatted(console.Output(), c.String("format"), status, func() { printStatus(status) })
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

func printStatus(status position.Status) {
	console.PInfof(console.PictoMagnet, "detected: %s  too weak: %s  too strong: %s  agc: %s",
		console.Flag(status.MagnetDetected, true),
		console.Flag(status.MagnetTooWeak, false),
		console.Flag(status.MagnetTooStrong, false),
		console.White(status.AGC))
}
