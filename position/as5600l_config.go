package position

import (
	"errors"
	"fmt"
)

var ErrInvalidOption = errors.New("as5600l: invalid configuration option")

// Hysteresis (HYST, CONF[3:2]) in LSB of the 12-bit output: off, 1, 2 or 3.
type Hysteresis int

const (
	HysteresisOff Hysteresis = iota
	Hysteresis1LSB
	Hysteresis2LSB
	Hysteresis3LSB
)

// PowerMode (PM, CONF[1:0]).
type PowerMode int

const (
	PowerModeNominal PowerMode = iota
	PowerModeLPM1
	PowerModeLPM2
	PowerModeLPM3
)

// Watchdog (WD, CONF[13]).
type Watchdog int

const (
	WatchdogOff Watchdog = iota
	WatchdogOn
)

// FastFilterThreshold (FTH, CONF[12:10]). Zero keeps the slow filter only.
type FastFilterThreshold int

const (
	FastFilterSlowOnly FastFilterThreshold = iota
	FastFilter6LSB
	FastFilter7LSB
	FastFilter9LSB
	FastFilter18LSB
	FastFilter21LSB
	FastFilter24LSB
	FastFilter10LSB
)

// SlowFilter (SF, CONF[9:8]) step response multiplier.
type SlowFilter int

const (
	SlowFilter16x SlowFilter = iota
	SlowFilter8x
	SlowFilter4x
	SlowFilter2x
)

// PWMFrequency (PWMF, CONF[7:6]).
type PWMFrequency int

const (
	PWMFrequency115Hz PWMFrequency = iota
	PWMFrequency230Hz
	PWMFrequency460Hz
	PWMFrequency920Hz
)

// OutputStage (OUTS, CONF[5:4]). The register field is two bits wide but
// only the two analog modes are accepted by the encoder.
type OutputStage int

const (
	OutputStageAnalogFull OutputStage = iota
	OutputStageAnalogReduced
)

// Config holds the seven CONF register options. The zero value is the
// device power-on default.
type Config struct {
	Hysteresis          Hysteresis          `yaml:"hysteresis"`
	PowerMode           PowerMode           `yaml:"power_mode"`
	Watchdog            Watchdog            `yaml:"watchdog"`
	FastFilterThreshold FastFilterThreshold `yaml:"fast_filter_threshold"`
	SlowFilter          SlowFilter          `yaml:"slow_filter"`
	PWMFrequency        PWMFrequency        `yaml:"pwm_frequency"`
	OutputStage         OutputStage         `yaml:"output_stage"`
}

type confField struct {
	name  string
	value int
	max   int
	shift uint
}

func (c Config) highFields() []confField {
	return []confField{
		{"watchdog", int(c.Watchdog), 1, 5},
		{"fast_filter_threshold", int(c.FastFilterThreshold), 7, 2},
		{"slow_filter", int(c.SlowFilter), 3, 0},
	}
}

func (c Config) lowFields() []confField {
	return []confField{
		{"pwm_frequency", int(c.PWMFrequency), 3, 6},
		{"output_stage", int(c.OutputStage), 1, 4},
		{"hysteresis", int(c.Hysteresis), 3, 2},
		{"power_mode", int(c.PowerMode), 3, 0},
	}
}

// pack ORs the in-range fields into one byte. Out of range fields contribute
// no bits, which leaves them at the zero default.
func pack(fields []confField) byte {
	var b byte
	for _, f := range fields {
		if f.value < 0 || f.value > f.max {
			continue
		}
		b |= byte(f.value << f.shift)
	}
	return b
}

// Encode returns the two CONF bytes in wire order (C1 is the high byte).
// Out-of-range options are silently dropped; call Validate first to detect
// them.
func (c Config) Encode() (c1 byte, c2 byte) {
	return pack(c.highFields()), pack(c.lowFields())
}

// Validate reports every option outside its documented range. Construction
// does not call it.
func (c Config) Validate() error {
	var errs []error
	for _, f := range append(c.highFields(), c.lowFields()...) {
		if f.value < 0 || f.value > f.max {
			errs = append(errs, fmt.Errorf("%w: %s=%d not in 0..%d", ErrInvalidOption, f.name, f.value, f.max))
		}
	}
	return errors.Join(errs...)
}

// DecodeConfig splits a raw CONF register value as returned by GetRawConfig.
// Output stage is decoded over its full two-bit register width, so a device
// left in PWM mode decodes to a value Validate rejects.
func DecodeConfig(raw uint16) Config {
	c1 := byte(raw >> 8)
	c2 := byte(raw)
	return Config{
		Watchdog:            Watchdog((c1>>5)&0x01),
		FastFilterThreshold: FastFilterThreshold((c1>>2)&0x07),
		SlowFilter:          SlowFilter(c1&0x03),
		PWMFrequency:        PWMFrequency((c2>>6)&0x03),
		OutputStage:         OutputStage((c2>>4)&0x03),
		Hysteresis:          Hysteresis((c2>>2)&0x03),
		PowerMode:           PowerMode(c2&0x03),
	}
}

type Option func(*Config)

func WithConfig(config Config) Option {
	return func(c *Config) {
		*c = config
	}
}

func WithHysteresis(h Hysteresis) Option {
	return func(c *Config) {
		c.Hysteresis = h
	}
}

func WithPowerMode(pm PowerMode) Option {
	return func(c *Config) {
		c.PowerMode = pm
	}
}

func WithWatchdog(wd Watchdog) Option {
	return func(c *Config) {
		c.Watchdog = wd
	}
}

func WithFastFilterThreshold(fth FastFilterThreshold) Option {
	return func(c *Config) {
		c.FastFilterThreshold = fth
	}
}

func WithSlowFilter(sf SlowFilter) Option {
	return func(c *Config) {
		c.SlowFilter = sf
	}
}

func WithPWMFrequency(f PWMFrequency) Option {
	return func(c *Config) {
		c.PWMFrequency = f
	}
}

func WithOutputStage(outs OutputStage) Option {
	return func(c *Config) {
		c.OutputStage = outs
	}
}
