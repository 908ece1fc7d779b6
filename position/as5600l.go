package position

import (
	"context"
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/rotary"
)

const as5600lAddress = 0x40

const (
	as5600lConfRegister   = 0x07
	as5600lStatusRegister = 0x0B
	as5600lAngleRegister  = 0x0E
	as5600lAGCRegister    = 0x1A
)

// STATUS register bits
const (
	statusMagnetTooStrong = 0b00001000 // MH
	statusMagnetTooWeak   = 0b00010000 // ML
	statusMagnetDetected  = 0b00100000 // MD
)

// angleSteps is the number of counts in a full turn of the 12-bit output.
const angleSteps = 4096

// Status is a diagnostic snapshot of the STATUS and AGC registers.
type Status struct {
	MagnetDetected  bool `yaml:"magnet_detected" cbor:"magnet_detected"`
	MagnetTooWeak   bool `yaml:"magnet_too_weak" cbor:"magnet_too_weak"`
	MagnetTooStrong bool `yaml:"magnet_too_strong" cbor:"magnet_too_strong"`
	AGC             byte `yaml:"agc" cbor:"agc"`
}

// Ok is true when the magnet is detected and its field strength is within
// range.
func (s Status) Ok() bool {
	return s.MagnetDetected && !s.MagnetTooStrong && !s.MagnetTooWeak
}

func decodeStatus(status byte) Status {
	return Status{
		MagnetTooStrong: status&statusMagnetTooStrong != 0,
		MagnetTooWeak:   status&statusMagnetTooWeak != 0,
		MagnetDetected:  status&statusMagnetDetected != 0,
	}
}

// Reading bundles one status snapshot with the angle taken right after it.
// Raw and Degrees are only set when Valid is true.
type Reading struct {
	Status  Status  `yaml:"status" cbor:"status"`
	Raw     uint16  `yaml:"raw" cbor:"raw"`
	Degrees float64 `yaml:"degrees" cbor:"degrees"`
	Valid   bool    `yaml:"valid" cbor:"valid"`
}

// AS5600L represents ams OSRAM AS5600L 12-bit magnetic rotary position sensor
// See: https://ams-osram.com/products/sensor-solutions/position-sensors/ams-as5600l-magnetic-rotary-position-sensor
//
// Typical usage:
//
//	s, err := NewAS5600L(ctx, bus, WithHysteresis(Hysteresis1LSB))
//	deg, ok, err := s.GetAngleDegrees(ctx)
//
// The driver keeps no measurement state; every call goes to the device. It
// does not lock the transport. Share one bus between goroutines through
// i2c.SerializedBus.
type AS5600L struct {
	transport rotary.I2CBus
	address   byte
	config    Config
}

// NewAS5600L writes the CONF register built from opts in a single
// transaction and returns the driver. The written value is not read back.
func NewAS5600L(ctx context.Context, trans rotary.I2CBus, opts ...Option) (*AS5600L, error) {
	var config Config
	for _, opt := range opts {
		opt(&config)
	}
	sensor := &AS5600L{transport: trans, address: as5600lAddress, config: config}
	c1, c2 := config.Encode()
	err := sensor.transport.WriteToAddr(ctx, sensor.address, []byte{as5600lConfRegister, c1, c2})
	if err != nil {
		return nil, fmt.Errorf("as5600l: could not write config register: %w", err)
	}
	return sensor, nil
}

// Config returns the options the driver was constructed with.
func (sensor *AS5600L) Config() Config {
	return sensor.config
}

func (sensor *AS5600L) readRegister(ctx context.Context, reg byte, resp []byte) error {
	err := sensor.transport.WriteToAddr(ctx, sensor.address, []byte{reg})
	if err != nil {
		return fmt.Errorf("as5600l: could not select register %#x: %w", reg, err)
	}
	err = sensor.transport.ReadFromAddr(ctx, sensor.address, resp)
	if err != nil {
		return fmt.Errorf("as5600l: could not read register %#x: %w", reg, err)
	}
	return nil
}

func (sensor *AS5600L) readStatus(ctx context.Context) (Status, error) {
	resp := make([]byte, 1)
	if err := sensor.readRegister(ctx, as5600lStatusRegister, resp); err != nil {
		return Status{}, err
	}
	return decodeStatus(resp[0]), nil
}

// GetStatus reads STATUS and AGC in two separate transactions. It reports
// all fields whether or not the magnet can be read.
func (sensor *AS5600L) GetStatus(ctx context.Context) (Status, error) {
	status, err := sensor.readStatus(ctx)
	if err != nil {
		return Status{}, err
	}
	resp := make([]byte, 1)
	if err := sensor.readRegister(ctx, as5600lAGCRegister, resp); err != nil {
		return Status{}, err
	}
	status.AGC = resp[0]
	return status, nil
}

// IsOk reads STATUS and reports whether the magnet can be read reliably.
func (sensor *AS5600L) IsOk(ctx context.Context) (bool, error) {
	status, err := sensor.readStatus(ctx)
	if err != nil {
		return false, err
	}
	return status.Ok(), nil
}

// GetRawAngle returns the 12-bit ANGLE register (0-4095).
func (sensor *AS5600L) GetRawAngle(ctx context.Context) (uint16, error) {
	resp := make([]byte, 2)
	if err := sensor.readRegister(ctx, as5600lAngleRegister, resp); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(resp), nil
}

// GetAngleDegrees returns the angle in [0, 360) when the magnet can be read.
// Otherwise ok is false and ANGLE is not read.
func (sensor *AS5600L) GetAngleDegrees(ctx context.Context) (deg float64, ok bool, err error) {
	ok, err = sensor.IsOk(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	raw, err := sensor.GetRawAngle(ctx)
	if err != nil {
		return 0, false, err
	}
	return Degrees(raw), true, nil
}

// GetAngleDegreesFast reads ANGLE without checking the magnet status first.
// The value may be meaningless when no magnet is present.
func (sensor *AS5600L) GetAngleDegreesFast(ctx context.Context) (float64, error) {
	raw, err := sensor.GetRawAngle(ctx)
	if err != nil {
		return 0, err
	}
	return Degrees(raw), nil
}

// GetRawConfig reads back the 16-bit CONF register as stored on the device.
func (sensor *AS5600L) GetRawConfig(ctx context.Context) (uint16, error) {
	resp := make([]byte, 2)
	if err := sensor.readRegister(ctx, as5600lConfRegister, resp); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(resp), nil
}

// GetReading takes a full status snapshot and, when the magnet can be read,
// the angle.
func (sensor *AS5600L) GetReading(ctx context.Context) (Reading, error) {
	status, err := sensor.GetStatus(ctx)
	if err != nil {
		return Reading{}, err
	}
	reading := Reading{Status: status}
	if !status.Ok() {
		return reading, nil
	}
	reading.Raw, err = sensor.GetRawAngle(ctx)
	if err != nil {
		return Reading{}, err
	}
	reading.Degrees = Degrees(reading.Raw)
	reading.Valid = true
	return reading, nil
}

// Degrees converts a raw 12-bit angle to degrees.
func Degrees(raw uint16) float64 {
	return float64(raw) / angleSteps * 360
}

func ToAngle(deg float64) physic.Angle {
	return physic.Angle(deg * float64(physic.Degree))
}
