package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/rotary"
	"github.com/mklimuk/rotary/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID report commands (MCP2221 datasheet, section 3.1)
const (
	cmdStatusSetParams = 0x10
	cmdI2CWriteData    = 0x90
	cmdI2CReadData     = 0x91
	cmdI2CGetData      = 0x40
)

const (
	reportSize       = 64
	maxTransferSize  = reportSize - 4
	statusCancelI2C  = 0x10
	responseFailed   = 0x01
	responseReadFail = 0x41
	readSizeError    = 127
)

var ErrDeviceNotFound = errors.New("MCP2221 device not found")

var _ rotary.I2CBus = &MCP2221{}

// MCP2221 is the Microchip USB to I2C bridge. The device is opened for every
// report and closed right after, so the adapter may be unplugged between calls.
type MCP2221 struct {
	mx           sync.Mutex
	index        int
	request      []byte
	response     []byte
	responseWait time.Duration
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Opt func(*MCP2221)

// WithDeviceIndex selects one of several attached bridges in enumeration order.
func WithDeviceIndex(index int) MCP2221Opt {
	return func(d *MCP2221) {
		d.index = index
	}
}

func WithResponseWait(wait time.Duration) MCP2221Opt {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	d := &MCP2221{
		index:        -1,
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init checks that exactly one bridge (or the selected one) is attached.
func (d *MCP2221) Init() error {
	_, err := d.deviceInfo()
	return err
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	if err := encodeWrite(d.request, address, buffer); err != nil {
		return err
	}
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == responseFailed {
		slog.Debug("adapter busy", "address", address)
		return rotary.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	if err := encodeRead(d.request, address, len(buffer)); err != nil {
		return err
	}
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == responseFailed {
		return rotary.ErrBusBusy
	}
	resetBuffer(d.request)
	resetBuffer(d.response)
	d.request[0] = cmdI2CGetData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	return decodeReadData(d.response, buffer)
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// Release cancels the current I2C transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = statusCancelI2C
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func encodeWrite(req []byte, address byte, data []byte) error {
	if len(data) > maxTransferSize {
		return fmt.Errorf("write of %d bytes exceeds single report limit %d", len(data), maxTransferSize)
	}
	req[0] = cmdI2CWriteData
	binary.LittleEndian.PutUint16(req[1:3], uint16(len(data)))
	req[3] = address << 1
	copy(req[4:], data)
	return nil
}

func encodeRead(req []byte, address byte, size int) error {
	if size > maxTransferSize {
		return fmt.Errorf("read of %d bytes exceeds single report limit %d", size, maxTransferSize)
	}
	req[0] = cmdI2CReadData
	binary.LittleEndian.PutUint16(req[1:3], uint16(size))
	req[3] = address<<1 | 0x01
	return nil
}

func decodeReadData(resp []byte, buffer []byte) error {
	if resp[1] == responseReadFail {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if resp[3] == readSizeError || int(resp[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), resp[3])
	}
	copy(buffer, resp[4:])
	return nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) deviceInfo() (hid.DeviceInfo, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return hid.DeviceInfo{}, ErrDeviceNotFound
	}
	if d.index < 0 {
		if len(devs) > 1 {
			return hid.DeviceInfo{}, fmt.Errorf("ambiguous device identification: %d bridges attached", len(devs))
		}
		return devs[0], nil
	}
	if d.index >= len(devs) {
		return hid.DeviceInfo{}, fmt.Errorf("no device with index %d", d.index)
	}
	return devs[d.index], nil
}

func (d *MCP2221) send(ctx context.Context) error {
	info, err := d.deviceInfo()
	if err != nil {
		return err
	}
	dev, err := info.Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("could not close adapter", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "report", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "report", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0x00
	}
}
