package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gi2c "gobot.io/x/gobot/v2/drivers/i2c"
)

// fakeConnection implements the parts of gi2c.Connection the bus uses; any
// other method panics through the nil embedded interface.
type fakeConnection struct {
	gi2c.Connection
	written  [][]byte
	response []byte
	readErr  error
	closed   bool
}

func (c *fakeConnection) Write(b []byte) (int, error) {
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConnection) Read(b []byte) (int, error) {
	if c.readErr != nil {
		return 0, c.readErr
	}
	return copy(b, c.response), nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	gi2c.Connector
	conns  map[int]*fakeConnection
	opened []int
	busNr  int
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (gi2c.Connection, error) {
	f.opened = append(f.opened, address)
	f.busNr = busNr
	conn, ok := f.conns[address]
	if !ok {
		return nil, errors.New("no device")
	}
	return conn, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 1
}

func TestGobotBus_ConnectionPerAddress(t *testing.T) {
	conn := &fakeConnection{response: []byte{0x0F, 0xFF}}
	connector := &fakeConnector{conns: map[int]*fakeConnection{0x40: conn}}
	bus := NewGobotBus(connector, -1)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, 0x40, []byte{0x0E}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x40, buf))

	assert.Equal(t, []byte{0x0F, 0xFF}, buf)
	assert.Equal(t, [][]byte{{0x0E}}, conn.written)
	assert.Equal(t, []int{0x40}, connector.opened, "connection must be reused")
	assert.Equal(t, 1, connector.busNr)

	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
}

func TestGobotBus_Errors(t *testing.T) {
	readErr := errors.New("nack")
	connector := &fakeConnector{conns: map[int]*fakeConnection{
		0x40: {readErr: readErr},
		0x41: {response: []byte{0x01}},
	}}
	bus := NewGobotBus(connector, 2)
	ctx := context.Background()

	assert.ErrorIs(t, bus.ReadFromAddr(ctx, 0x40, make([]byte, 1)), readErr)
	assert.ErrorContains(t, bus.ReadFromAddr(ctx, 0x41, make([]byte, 2)), "short read")
	assert.ErrorContains(t, bus.WriteToAddr(ctx, 0x42, []byte{0x00}), "no device")
	assert.Equal(t, 2, connector.busNr)
}
