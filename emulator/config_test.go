package emulator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/wispsim/power"
)

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(strings.Join([]string{
		"[cpu]",
		"frequency = 8000000",
		"[power]",
		`supply = "ideal"`,
		"ideal_voltage = 3.3",
		"[checkpoint]",
		`function = "save"`,
		"oracle_threshold = 2.0",
		"[node]",
		"max_retries = 2",
		"retry_adjustment = 0.1",
	}, "\n")))
	require.NoError(t, err)

	expected := DefaultConfig()
	expected.Cpu.Frequency = 8_000_000
	expected.Power.Supply = SUPPLY_IDEAL
	expected.Power.IdealVoltage = 3.3
	expected.Checkpoint.Function = "save"
	expected.Checkpoint.OracleThreshold = 2.0
	expected.Node.MaxRetries = 2
	expected.Node.RetryAdjustment = 0.1

	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeConfigEmpty(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(""))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeConfigErrors(t *testing.T) {
	table := [](struct {
		name   string
		config string
		err    error
	}){
		{"key", "[cpu]\nspeed = 1", ErrConfigKey},
		{"capacitance", "[power]\ncapacitance = -1.0", ErrConfigValue},
		{"initial", "[power]\ninitial_voltage = 6.0", ErrConfigValue},
		{"initial_dead", "[power]\ninitial_voltage = 1.5", ErrConfigValue},
		{"initial_threshold", "[power]\ninitial_voltage = 2.0\ndeath_threshold = 2.0\nresurrection_threshold = 2.5", ErrConfigValue},
		{"thresholds", "[power]\nresurrection_threshold = 1.0", ErrConfigValue},
		{"frequency", "[cpu]\nfrequency = 0", ErrConfigValue},
		{"retries", "[node]\nmax_retries = -1", ErrConfigValue},
		{"supply", "[power]\nsupply = \"solar\"", ErrConfigSupply},
		{"ideal_trace", "[power]\nsupply = \"ideal\"\ntrace = \"x.csv\"", ErrTraceSupply},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			_, err := DecodeConfig(strings.NewReader(entry.config))
			assert.ErrorIs(t, err, entry.err)
		})
	}
}

func TestDecodeConfigInitialVoltage(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("[power]\ninitial_voltage = 1.8\n"))
	require.ErrorIs(t, err, ErrConfigValue)

	var field *ErrConfigField
	require.True(t, errors.As(err, &field))
	assert.Equal(t, "power.initial_voltage", field.Field)

	cfg := idealConfig(1.0)
	cfg.Power.InitialVoltage = 0
	assert.NoError(t, cfg.Validate())
}

func TestDecodeConfigSyntax(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("[cpu\n"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "wisp.toml")
	require.NoError(t, os.WriteFile(path, []byte("[power]\ncapacitance = 47e-6\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(47e-6, cfg.Power.Capacitance)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(err, os.ErrNotExist)
}

func TestConfigTrace(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	csv := filepath.Join(dir, "trace.csv")
	require.NoError(t, os.WriteFile(csv, []byte("ms,volts\n0,3.0\n10,4.0\n"), 0o644))

	cfg := DefaultConfig()
	cfg.Power.Trace = csv
	cfg.Power.TracePeriodic = true

	emu, err := NewEmulator(cfg)
	require.NoError(t, err)
	require.True(t, emu.Capacitor.TraceDriven())

	trace, ok := emu.Capacitor.Trace.(*power.CsvTrace)
	require.True(t, ok)
	assert.True(trace.Periodic)
	assert.InDelta(3.5, trace.VoltageAt(5), 1e-9)

	script := filepath.Join(dir, "trace.star")
	require.NoError(t, os.WriteFile(script, []byte("def voltage(t):\n    return 3.0 + t\n"), 0o644))
	cfg.Power.Trace = script

	emu, err = NewEmulator(cfg)
	require.NoError(t, err)
	assert.InDelta(4.0, emu.Capacitor.Trace.VoltageAt(1), 1e-9)

	cfg.Power.Trace = filepath.Join(dir, "trace.txt")
	_, err = NewEmulator(cfg)
	assert.ErrorIs(err, ErrTraceFormat)
}
