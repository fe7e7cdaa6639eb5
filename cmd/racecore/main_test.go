package main

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setFlag(t *testing.T, name, value string) {
	t.Helper()
	f := flag.Lookup(name)
	require.NotNil(t, f, "flag %s", name)
	prev := f.Value.String()
	require.NoError(t, flag.Set(name, value))
	t.Cleanup(func() { flag.Set(name, prev) })
}

// offline disables every listener and the run log.
func offline(t *testing.T) {
	t.Helper()
	setFlag(t, "listen", "")
	setFlag(t, "comms", "")
	setFlag(t, "grpc", "")
	setFlag(t, "db", "")
	setFlag(t, "config", "")
}

func mockDriver(t *testing.T) *driver.MockDriver {
	t.Helper()
	mock := driver.NewMockDriver()
	prev := newDriver
	newDriver = func(driver.Capabilities, driver.Opener) (driver.Driver, error) { return mock, nil }
	t.Cleanup(func() { newDriver = prev })
	return mock
}

func TestRunClosesDriverWhenRunLogFails(t *testing.T) {
	offline(t)
	setFlag(t, "db", filepath.Join(t.TempDir(), "missing", "runlog.db"))
	drv := mockDriver(t)

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open run log")
	assert.True(t, drv.Closed(), "driver must be closed on a startup failure")
}

func TestRunClosesDriverWhenLiveTelemetryFails(t *testing.T) {
	offline(t)
	setFlag(t, "grpc", "127.0.0.1:99999")
	drv := mockDriver(t)

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start live telemetry")
	assert.True(t, drv.Closed())
}

func TestRunStopsVehicleOnCancel(t *testing.T) {
	offline(t)
	drv := mockDriver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, run(ctx))

	drives := drv.Drives()
	require.NotEmpty(t, drives)
	assert.Equal(t, command.Stop, drives[len(drives)-1])
	assert.True(t, drv.Closed())
}

func TestRunRejectsMissingConfig(t *testing.T) {
	offline(t)
	setFlag(t, "config", filepath.Join(t.TempDir(), "absent.json"))
	drv := mockDriver(t)

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Empty(t, drv.Drives(), "no driver is opened before the config loads")
}
