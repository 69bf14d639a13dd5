package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSensor is a fake sensor Module, standing in for gnss.Reader or
// compass.Reader without touching real hardware.
type stubSensor struct {
	*BaseModule
	enableCalled  bool
	disableCalled bool
	enableErr     error
	disableErr    error
}

func newStubSensor(name string) *stubSensor {
	return &stubSensor{BaseModule: NewBaseModule(name)}
}

func (s *stubSensor) Enable(ctx context.Context) error {
	s.enableCalled = true
	if s.enableErr != nil {
		return s.enableErr
	}
	return s.BaseModule.Enable(ctx)
}

func (s *stubSensor) Disable(ctx context.Context) error {
	s.disableCalled = true
	if s.disableErr != nil {
		return s.disableErr
	}
	return s.BaseModule.Disable(ctx)
}

func TestBaseModuleLifecycle(t *testing.T) {
	ctx := context.Background()
	module := NewBaseModule("gnss")

	assert.Equal(t, "gnss", module.Name())
	assert.False(t, module.IsActive())

	require.NoError(t, module.Enable(ctx))
	assert.True(t, module.IsActive())

	require.NoError(t, module.Disable(ctx))
	assert.False(t, module.IsActive())
}

func TestStubSensorReportsEnableFailureWithoutBecomingActive(t *testing.T) {
	ctx := context.Background()
	sensor := newStubSensor("gnss")
	sensor.enableErr = assert.AnError

	err := sensor.Enable(ctx)
	assert.Equal(t, assert.AnError, err)
	assert.True(t, sensor.enableCalled)
	assert.False(t, sensor.IsActive())
}

func TestStubSensorDisableFailureLeavesModuleActive(t *testing.T) {
	ctx := context.Background()
	sensor := newStubSensor("compass")
	require.NoError(t, sensor.Enable(ctx))

	sensor.disableErr = assert.AnError
	err := sensor.Disable(ctx)
	assert.Equal(t, assert.AnError, err)
	assert.True(t, sensor.disableCalled)
	assert.True(t, sensor.IsActive(), "a module that fails to disable should report itself still active")
}

func TestStubSensorSatisfiesModuleInterface(t *testing.T) {
	var module Module = newStubSensor("gnss")

	assert.Equal(t, "gnss", module.Name())
	assert.False(t, module.IsActive())

	ctx := context.Background()
	require.NoError(t, module.Enable(ctx))
	assert.True(t, module.IsActive())

	require.NoError(t, module.Disable(ctx))
	assert.False(t, module.IsActive())
}
