package main

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Value:   "text",
	Usage:   "output format: text, yaml or cbor",
}

// writeFormatted encodes v in the requested format. For text the caller
// supplied printer is used.
func writeFormatted(w io.Writer, format string, v any, text func()) error {
	switch format {
	case "text":
		text()
		return nil
	case "yaml":
		return yaml.NewEncoder(w).Encode(v)
	case "cbor":
		data, err := cbor.Marshal(v)
		if err != nil {
			return fmt.Errorf("could not encode cbor: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
