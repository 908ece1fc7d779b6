package console

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		color.NoColor = noColor
		SetOutput(os.Stdout, os.Stderr)
	})

	Errorf("bus %d: %s", 1, "nack")
	assert.Equal(t, "ERROR: bus 1: nack\n", errOut.String())
	assert.Empty(t, out.String())
}
