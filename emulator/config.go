package emulator

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/wispsim/checkpoint"
	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/event"
	"github.com/ezrec/wispsim/power"
)

const (
	SUPPLY_CAPACITOR = "capacitor" // Capacitor backed supply.
	SUPPLY_IDEAL     = "ideal"     // Constant voltage supply.
)

// WISP defaults.
const (
	DEFAULT_CAPACITANCE    = 10e-6 // Farads.
	DEFAULT_VOLTAGE        = 4.5   // Initial and rated voltage.
	DEFAULT_DIVIDER        = 3.0   // Voltage divider in front of the ADC.
	DEFAULT_REFERENCE      = 2.5   // ADC reference voltage.
	DEFAULT_SINE_FREQUENCY = 500   // Hz.
	DEFAULT_SINE_AMPLITUDE = 127   // ADC counts.
)

// CpuConfig selects the engine.
type CpuConfig struct {
	Frequency    int64  `toml:"frequency"`     // Hz.
	Extended     bool   `toml:"extended"`      // MSP430X registers and address space.
	MaxInterrupt int    `toml:"max_interrupt"` // Reset priority.
	Main         string `toml:"main"`          // Entry symbol reported to the profiler.
}

// PowerConfig selects the supply.
type PowerConfig struct {
	Supply                string  `toml:"supply"` // SUPPLY_CAPACITOR or SUPPLY_IDEAL.
	Capacitance           float64 `toml:"capacitance"`
	InitialVoltage        float64 `toml:"initial_voltage"`
	RatedVoltage          float64 `toml:"rated_voltage"`
	DeathThreshold        float64 `toml:"death_threshold"`
	ResurrectionThreshold float64 `toml:"resurrection_threshold"`
	MaxConvalescence      float64 `toml:"max_convalescence"` // Milliseconds.
	IdealVoltage          float64 `toml:"ideal_voltage"`
	Divider               float64 `toml:"divider"`
	Reference             float64 `toml:"reference"`
	Trace                 string  `toml:"trace"` // .csv or .star energy trace.
	TracePeriodic         bool    `toml:"trace_periodic"`
}

// CheckpointConfig selects the checkpoint validator.
type CheckpointConfig struct {
	Function        string  `toml:"function"` // Symbol of the checkpoint function.
	Marker          uint32  `toml:"marker"`   // Completion marker address, or 0.
	MarkerValue     uint32  `toml:"marker_value"`
	OracleThreshold float64 `toml:"oracle_threshold"` // Volts.
}

// NodeConfig is the node retry policy, and its sensor.
type NodeConfig struct {
	MaxRetries      int     `toml:"max_retries"`
	RetryAdjustment float64 `toml:"retry_adjustment"` // Oracle threshold change per retry.
	SineFrequency   float64 `toml:"sine_frequency"`
	SineAmplitude   float64 `toml:"sine_amplitude"`
}

// Config of an emulated WISP node.
type Config struct {
	Cpu        CpuConfig        `toml:"cpu"`
	Power      PowerConfig      `toml:"power"`
	Checkpoint CheckpointConfig `toml:"checkpoint"`
	Node       NodeConfig       `toml:"node"`
}

// DefaultConfig returns the configuration of a WISP: an MSP430F2132 at
// 1MHz on a 10uF capacitor.
func DefaultConfig() Config {
	return Config{
		Cpu: CpuConfig{
			Frequency:    event.DEFAULT_HZ,
			MaxInterrupt: cpu.MAX_INTERRUPT,
			Main:         "main",
		},
		Power: PowerConfig{
			Supply:                SUPPLY_CAPACITOR,
			Capacitance:           DEFAULT_CAPACITANCE,
			InitialVoltage:        DEFAULT_VOLTAGE,
			RatedVoltage:          DEFAULT_VOLTAGE,
			DeathThreshold:        power.DEFAULT_DEATH_THRESHOLD,
			ResurrectionThreshold: power.DEFAULT_RESURRECTION_THRESHOLD,
			MaxConvalescence:      power.DEFAULT_MAX_CONVALESCENCE,
			IdealVoltage:          DEFAULT_VOLTAGE,
			Divider:               DEFAULT_DIVIDER,
			Reference:             DEFAULT_REFERENCE,
		},
		Checkpoint: CheckpointConfig{
			Function:        checkpoint.DEFAULT_FUNCTION,
			OracleThreshold: cpu.ORACLE_NEVER,
		},
		Node: NodeConfig{
			SineFrequency: DEFAULT_SINE_FREQUENCY,
			SineAmplitude: DEFAULT_SINE_AMPLITUDE,
		},
	}
}

// DecodeConfig reads a TOML configuration over the defaults. Unknown keys
// are an error.
func DecodeConfig(input io.Reader) (cfg Config, err error) {
	cfg = DefaultConfig()

	md, err := toml.NewDecoder(input).Decode(&cfg)
	if err != nil {
		return
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		err = &ErrConfigField{Field: undecoded[0].String(), Err: ErrConfigKey}
		return
	}

	err = cfg.Validate()
	return
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (cfg Config, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	return DecodeConfig(inf)
}

// Validate checks the configuration ranges.
func (cfg *Config) Validate() (err error) {
	bad := func(field string) error {
		return &ErrConfigField{Field: field, Err: ErrConfigValue}
	}

	switch {
	case cfg.Cpu.Frequency <= 0:
		return bad("cpu.frequency")
	case cfg.Cpu.MaxInterrupt <= 0:
		return bad("cpu.max_interrupt")
	case cfg.Node.MaxRetries < 0:
		return bad("node.max_retries")
	}

	pc := &cfg.Power
	switch pc.Supply {
	case SUPPLY_IDEAL:
		if pc.IdealVoltage <= 0 {
			return bad("power.ideal_voltage")
		}
		if pc.Trace != "" {
			return &ErrConfigField{Field: "power.trace", Err: ErrTraceSupply}
		}
	case SUPPLY_CAPACITOR:
		switch {
		case pc.Capacitance <= 0:
			return bad("power.capacitance")
		case pc.RatedVoltage <= 0:
			return bad("power.rated_voltage")
		case pc.InitialVoltage < 0 || pc.InitialVoltage > pc.RatedVoltage:
			return bad("power.initial_voltage")
		case pc.InitialVoltage <= pc.DeathThreshold:
			return bad("power.initial_voltage")
		case pc.ResurrectionThreshold <= pc.DeathThreshold:
			return bad("power.resurrection_threshold")
		case pc.MaxConvalescence <= 0:
			return bad("power.max_convalescence")
		}
	default:
		return &ErrConfigField{Field: "power.supply", Err: ErrConfigSupply}
	}

	return
}

// LoadTrace opens the energy trace named by the configuration, if any. CSV
// traces are "ms,volts" records; anything ending in .star or .py is a
// script defining voltage(t).
func (pc *PowerConfig) LoadTrace() (trace power.Trace, err error) {
	if pc.Trace == "" {
		return
	}

	switch strings.ToLower(filepath.Ext(pc.Trace)) {
	case ".csv":
		var inf *os.File
		inf, err = os.Open(pc.Trace)
		if err != nil {
			return
		}
		defer inf.Close()

		var csv *power.CsvTrace
		csv, err = power.LoadCsvTrace(inf)
		if err != nil {
			return
		}
		csv.Periodic = pc.TracePeriodic
		trace = csv
	case ".star", ".py":
		var script *power.ScriptTrace
		script, err = power.NewScriptTrace(pc.Trace, nil)
		if err != nil {
			return
		}
		trace = script
	default:
		err = &ErrConfigField{Field: "power.trace", Err: ErrTraceFormat}
	}

	return
}
