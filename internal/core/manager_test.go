package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRegister(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		manager := NewManager()
		assert.Equal(t, 0, manager.ModuleCount())
		assert.False(t, manager.IsEnabled())
	})

	t.Run("registers a module", func(t *testing.T) {
		manager := NewManager()
		err := manager.Register(newStubSensor("gnss"))
		require.NoError(t, err)
		assert.Equal(t, 1, manager.ModuleCount())
	})

	t.Run("rejects a nil module", func(t *testing.T) {
		manager := NewManager()
		err := manager.Register(nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot register nil module")
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		manager := NewManager()
		err := manager.Register(newStubSensor(""))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "module name cannot be empty")
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		manager := NewManager()
		require.NoError(t, manager.Register(newStubSensor("gnss")))

		err := manager.Register(newStubSensor("gnss"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})
}

// TestEnableAllStopsAtFirstFailure exercises §7's fatal/non-fatal startup
// split: GNSS is registered first because its failure must abort startup;
// a module registered after a failed one must never be enabled.
func TestEnableAllStopsAtFirstFailure(t *testing.T) {
	manager := NewManager()
	ctx := context.Background()

	gnss := newStubSensor("gnss")
	gnss.enableErr = assert.AnError
	compass := newStubSensor("compass")

	require.NoError(t, manager.Register(gnss))
	require.NoError(t, manager.Register(compass))

	err := manager.EnableAll(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gnss")
	assert.False(t, gnss.IsActive())
	assert.False(t, compass.enableCalled, "a module registered after a failed one should never be enabled")
	assert.False(t, manager.IsEnabled())
}

func TestEnableAllSucceedsInRegistrationOrder(t *testing.T) {
	manager := NewManager()
	ctx := context.Background()

	gnss := newStubSensor("gnss")
	compass := newStubSensor("compass")

	require.NoError(t, manager.Register(gnss))
	require.NoError(t, manager.Register(compass))

	require.NoError(t, manager.EnableAll(ctx))
	assert.True(t, manager.IsEnabled())
	assert.True(t, gnss.IsActive())
	assert.True(t, compass.IsActive())
}

// TestCompassFailureIsNonFatal models compass.Reader's actual behavior:
// its Enable always returns nil even when the hardware setup failed
// internally, so the Manager never sees compass startup as an error.
func TestCompassFailureIsNonFatal(t *testing.T) {
	manager := NewManager()
	ctx := context.Background()

	gnss := newStubSensor("gnss")
	compass := newStubSensor("compass") // enableErr left nil: compass swallows its own failures

	require.NoError(t, manager.Register(gnss))
	require.NoError(t, manager.Register(compass))

	require.NoError(t, manager.EnableAll(ctx))
	assert.True(t, manager.IsEnabled())
}

func TestDisableAllRunsInReverseOrderBestEffort(t *testing.T) {
	manager := NewManager()
	ctx := context.Background()

	gnss := newStubSensor("gnss")
	compass := newStubSensor("compass")
	compass.disableErr = assert.AnError

	require.NoError(t, manager.Register(gnss))
	require.NoError(t, manager.Register(compass))
	require.NoError(t, manager.EnableAll(ctx))

	err := manager.DisableAll(ctx)
	require.NoError(t, err, "a single module's disable failure should not fail the whole shutdown")

	assert.True(t, compass.disableCalled)
	assert.True(t, gnss.disableCalled, "gnss should still be disabled even though compass failed to disable")
	assert.False(t, gnss.IsActive())
	assert.False(t, manager.IsEnabled())
}

func TestDisableAllWhenNeverEnabledIsANoop(t *testing.T) {
	manager := NewManager()
	gnss := newStubSensor("gnss")
	require.NoError(t, manager.Register(gnss))

	require.NoError(t, manager.DisableAll(context.Background()))
	assert.False(t, gnss.disableCalled)
}

func TestManagerConcurrentRegister(t *testing.T) {
	manager := NewManager()
	done := make(chan struct{}, 10)

	for i := 0; i < 10; i++ {
		go func(i int) {
			_ = manager.Register(newStubSensor(string(rune('a' + i))))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, 10, manager.ModuleCount())
}
