package i2c

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockI2CBus is a mock implementation of rotary.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
	concurrentOps int64
	maxConcurrent int64
}

func (m *MockI2CBus) track() func() {
	concurrent := atomic.AddInt64(&m.concurrentOps, 1)
	for {
		maxSeen := atomic.LoadInt64(&m.maxConcurrent)
		if concurrent <= maxSeen || atomic.CompareAndSwapInt64(&m.maxConcurrent, maxSeen, concurrent) {
			break
		}
	}
	// widen the window so overlapping calls would be observed
	time.Sleep(time.Millisecond)
	return func() { atomic.AddInt64(&m.concurrentOps, -1) }
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	defer m.track()()
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	defer m.track()()
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestSerializedBus_NoOverlappingTransfers(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x40), mock.Anything).Return(nil)
	bus.On("ReadFromAddr", mock.Anything, byte(0x40), mock.Anything).Return([]byte{0x12, 0x34}, nil)
	serialized := NewSerializedBus(bus)
	ctx := context.Background()

	const numOps = 8
	var wg sync.WaitGroup
	wg.Add(numOps)
	for i := 0; i < numOps; i++ {
		go func() {
			defer wg.Done()
			buf := make([]byte, 2)
			assert.NoError(t, serialized.WriteToAddr(ctx, 0x40, []byte{0x0E}))
			assert.NoError(t, serialized.ReadFromAddr(ctx, 0x40, buf))
			assert.Equal(t, []byte{0x12, 0x34}, buf)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&bus.maxConcurrent), "transfers must not overlap")
	bus.AssertNumberOfCalls(t, "WriteToAddr", numOps)
	bus.AssertNumberOfCalls(t, "ReadFromAddr", numOps)
}

func TestSerializedBus_CancelledContext(t *testing.T) {
	bus := new(MockI2CBus)
	serialized := NewSerializedBus(bus)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, serialized.WriteToAddr(ctx, 0x40, []byte{0x0B}), context.Canceled)
	assert.ErrorIs(t, serialized.ReadFromAddr(ctx, 0x40, make([]byte, 1)), context.Canceled)
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestSerializedBus_Release(t *testing.T) {
	bus := new(MockI2CBus)
	bus.On("Release", mock.Anything).Return(nil).Once()
	assert.NoError(t, NewSerializedBus(bus).Release(context.Background()))
	bus.AssertExpectations(t)
}
