package rotary

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a byte oriented request/response transport. Every register read
// is a register-select write followed by a separate read, both addressed to
// the same 7-bit device address.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
