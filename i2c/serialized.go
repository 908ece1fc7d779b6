package i2c

import (
	"context"
	"sync"

	"github.com/mklimuk/rotary"
)

var _ rotary.I2CBus = &SerializedBus{}

// SerializedBus guards a transport shared by several goroutines so that no
// two transfers overlap. Register pointers are kept per device, so drivers
// for different addresses may interleave their select/read pairs safely;
// a single driver instance should still be used from one goroutine.
type SerializedBus struct {
	mx  sync.Mutex
	bus rotary.I2CBus
}

func NewSerializedBus(bus rotary.I2CBus) *SerializedBus {
	return &SerializedBus{bus: bus}
}

func (s *SerializedBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.bus.ReadFromAddr(ctx, address, buffer)
}

func (s *SerializedBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.bus.WriteToAddr(ctx, address, buffer)
}

func (s *SerializedBus) Release(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.bus.Release(ctx)
}
