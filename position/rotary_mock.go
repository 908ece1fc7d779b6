package position

import (
	"context"
)

// AngleBehaviorFunc defines the function signature for angle behavior.
// It returns the raw 12-bit angle or an error.
type AngleBehaviorFunc func(ctx context.Context) (uint16, error)

// StatusBehaviorFunc defines the function signature for status behavior.
type StatusBehaviorFunc func(ctx context.Context) (Status, error)

// MockRotarySensor is a mock implementation of a rotary position sensor that
// uses behavior functions to produce results without requiring any hardware.
// The status gate follows the same rules as AS5600L: GetAngleDegrees does not
// call the angle behavior when the status is not Ok.
type MockRotarySensor struct {
	angleBehavior  AngleBehaviorFunc
	statusBehavior StatusBehaviorFunc
}

// NewMockRotarySensor creates a new mock rotary sensor with the given behavior functions.
//
// Example usage:
//
//	sensor := NewMockRotarySensor(
//		func(ctx context.Context) (uint16, error) { return 2048, nil },
//		func(ctx context.Context) (Status, error) { return Status{MagnetDetected: true}, nil },
//	)
func NewMockRotarySensor(angleBehavior AngleBehaviorFunc, statusBehavior StatusBehaviorFunc) *MockRotarySensor {
	return &MockRotarySensor{
		angleBehavior:  angleBehavior,
		statusBehavior: statusBehavior,
	}
}

func (m *MockRotarySensor) GetStatus(ctx context.Context) (Status, error) {
	return m.statusBehavior(ctx)
}

func (m *MockRotarySensor) IsOk(ctx context.Context) (bool, error) {
	status, err := m.statusBehavior(ctx)
	if err != nil {
		return false, err
	}
	return status.Ok(), nil
}

func (m *MockRotarySensor) GetRawAngle(ctx context.Context) (uint16, error) {
	return m.angleBehavior(ctx)
}

func (m *MockRotarySensor) GetAngleDegrees(ctx context.Context) (float64, bool, error) {
	ok, err := m.IsOk(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	raw, err := m.angleBehavior(ctx)
	if err != nil {
		return 0, false, err
	}
	return Degrees(raw), true, nil
}

func (m *MockRotarySensor) GetAngleDegreesFast(ctx context.Context) (float64, error) {
	raw, err := m.angleBehavior(ctx)
	if err != nil {
		return 0, err
	}
	return Degrees(raw), nil
}

// NewMockAS5600L creates a new mock AS5600L sensor (alias for NewMockRotarySensor).
func NewMockAS5600L(angleBehavior AngleBehaviorFunc, statusBehavior StatusBehaviorFunc) *MockRotarySensor {
	return NewMockRotarySensor(angleBehavior, statusBehavior)
}
