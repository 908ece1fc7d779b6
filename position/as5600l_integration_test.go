//go:build integration

package position_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/rotary/i2c"
	"github.com/mklimuk/rotary/position"
)

// Requires an AS5600L with a magnet on the bus named by ROTARY_I2C_BUS
// (e.g. /dev/i2c-1).
func TestAS5600L_Hardware(t *testing.T) {
	dev := os.Getenv("ROTARY_I2C_BUS")
	if dev == "" {
		t.Skip("ROTARY_I2C_BUS not set")
	}
	bus, err := i2c.NewGenericBus(dev)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	ctx := context.Background()

	sensor, err := position.NewAS5600L(ctx, bus, position.WithHysteresis(position.Hysteresis1LSB))
	require.NoError(t, err)

	raw, err := sensor.GetRawConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, sensor.Config(), position.DecodeConfig(raw&0x3FFF))

	status, err := sensor.GetStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.Ok(), "magnet not readable: %+v", status)

	deg, ok, err := sensor.GetAngleDegrees(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, deg, 0.0)
	assert.Less(t, deg, 360.0)

	angle, err := sensor.GetRawAngle(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, angle, uint16(4095))
}
