package position

import "context"

// RotarySensor is the caller-facing surface shared by AS5600L and
// MockRotarySensor.
type RotarySensor interface {
	GetStatus(ctx context.Context) (Status, error)
	IsOk(ctx context.Context) (bool, error)
	GetRawAngle(ctx context.Context) (uint16, error)
	GetAngleDegrees(ctx context.Context) (float64, bool, error)
	GetAngleDegreesFast(ctx context.Context) (float64, error)
}

var (
	_ RotarySensor = &AS5600L{}
	_ RotarySensor = &MockRotarySensor{}
)
