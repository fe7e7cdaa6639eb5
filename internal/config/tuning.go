package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical navigation defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/navigation.defaults.json"

// TuningConfig represents the root configuration for navigation tuning.
// Every field is optional; the Get* accessors fall back to the built-in
// defaults, so partial configs are safe.
type TuningConfig struct {
	// Point map params
	CellSize     *float64 `json:"cell_size,omitempty"`
	NearestRings *int     `json:"nearest_rings,omitempty"`

	// Expiry params
	MaxKeepFor    *string  `json:"max_keep_for,omitempty"` // duration string like "4s"
	MinKeepFor    *string  `json:"min_keep_for,omitempty"`
	DensityFactor *float64 `json:"density_factor,omitempty"`
	KeepJitter    *float64 `json:"keep_jitter,omitempty"`

	// Planner params
	StepLength         *float64 `json:"step_length,omitempty"`
	MaxSteps           *int     `json:"max_steps,omitempty"`
	CurvatureOptions   *int     `json:"curvature_options,omitempty"`
	MaxCurvature       *float64 `json:"max_curvature,omitempty"`
	TimeBudget         *string  `json:"time_budget,omitempty"` // duration string like "40ms"
	StepBias           *float64 `json:"step_bias,omitempty"`
	SafeDistance       *float64 `json:"safe_distance,omitempty"`
	MaxObstaclePenalty *float64 `json:"max_obstacle_penalty,omitempty"`
	MarkerCutoff       *float64 `json:"marker_cutoff,omitempty"`
	MarkerProbe        *float64 `json:"marker_probe,omitempty"`
	MarkerBonus        *float64 `json:"marker_bonus,omitempty"`
	SmoothnessWeight   *float64 `json:"smoothness_weight,omitempty"`
	SmoothnessExponent *float64 `json:"smoothness_exponent,omitempty"`

	// Odometry params
	ActuationDelay *string  `json:"actuation_delay,omitempty"`
	TurnFudge      *float64 `json:"turn_fudge,omitempty"`
	SpeedFudge     *float64 `json:"speed_fudge,omitempty"`

	// Follower and command params
	Lookahead      *int     `json:"lookahead,omitempty"`
	NominalSpeed   *float64 `json:"nominal_speed,omitempty"`
	MaxManualSpeed *float64 `json:"max_manual_speed,omitempty"`
	CommandTimeout *string  `json:"command_timeout,omitempty"`

	// Loop params
	CycleRate   *float64 `json:"cycle_rate,omitempty"` // target cycles per second
	StatsWindow *int     `json:"stats_window,omitempty"`

	// Hardware selects the serial driver instead of the mock driver.
	Hardware *bool `json:"hardware,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a config with every field populated from the
// built-in defaults. Useful for writing a fresh defaults file.
func DefaultTuningConfig() *TuningConfig {
	e := EmptyTuningConfig()
	return &TuningConfig{
		CellSize:           ptrFloat64(e.GetCellSize()),
		NearestRings:       ptrInt(e.GetNearestRings()),
		MaxKeepFor:         ptrString(e.GetMaxKeepFor().String()),
		MinKeepFor:         ptrString(e.GetMinKeepFor().String()),
		DensityFactor:      ptrFloat64(e.GetDensityFactor()),
		KeepJitter:         ptrFloat64(e.GetKeepJitter()),
		StepLength:         ptrFloat64(e.GetStepLength()),
		MaxSteps:           ptrInt(e.GetMaxSteps()),
		CurvatureOptions:   ptrInt(e.GetCurvatureOptions()),
		MaxCurvature:       ptrFloat64(e.GetMaxCurvature()),
		TimeBudget:         ptrString(e.GetTimeBudget().String()),
		StepBias:           ptrFloat64(e.GetStepBias()),
		SafeDistance:       ptrFloat64(e.GetSafeDistance()),
		MaxObstaclePenalty: ptrFloat64(e.GetMaxObstaclePenalty()),
		MarkerCutoff:       ptrFloat64(e.GetMarkerCutoff()),
		MarkerProbe:        ptrFloat64(e.GetMarkerProbe()),
		MarkerBonus:        ptrFloat64(e.GetMarkerBonus()),
		SmoothnessWeight:   ptrFloat64(e.GetSmoothnessWeight()),
		SmoothnessExponent: ptrFloat64(e.GetSmoothnessExponent()),
		ActuationDelay:     ptrString(e.GetActuationDelay().String()),
		TurnFudge:          ptrFloat64(e.GetTurnFudge()),
		SpeedFudge:         ptrFloat64(e.GetSpeedFudge()),
		Lookahead:          ptrInt(e.GetLookahead()),
		NominalSpeed:       ptrFloat64(e.GetNominalSpeed()),
		MaxManualSpeed:     ptrFloat64(e.GetMaxManualSpeed()),
		CommandTimeout:     ptrString(e.GetCommandTimeout().String()),
		CycleRate:          ptrFloat64(e.GetCycleRate()),
		StatsWindow:        ptrInt(e.GetStatsWindow()),
		Hardware:           ptrBool(e.GetHardware()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	positive := map[string]*float64{
		"cell_size":     c.CellSize,
		"step_length":   c.StepLength,
		"max_curvature": c.MaxCurvature,
		"safe_distance": c.SafeDistance,
		"cycle_rate":    c.CycleRate,
		"turn_fudge":    c.TurnFudge,
		"speed_fudge":   c.SpeedFudge,
	}
	for name, v := range positive {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}

	nonNegative := map[string]*float64{
		"density_factor":       c.DensityFactor,
		"max_obstacle_penalty": c.MaxObstaclePenalty,
		"marker_cutoff":        c.MarkerCutoff,
		"marker_probe":         c.MarkerProbe,
		"marker_bonus":         c.MarkerBonus,
		"smoothness_weight":    c.SmoothnessWeight,
		"nominal_speed":        c.NominalSpeed,
		"max_manual_speed":     c.MaxManualSpeed,
	}
	for name, v := range nonNegative {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}

	if c.KeepJitter != nil && (*c.KeepJitter < 0 || *c.KeepJitter >= 1) {
		return fmt.Errorf("keep_jitter must be in [0, 1), got %f", *c.KeepJitter)
	}
	if c.SmoothnessExponent != nil && *c.SmoothnessExponent <= 1 {
		return fmt.Errorf("smoothness_exponent must be greater than 1, got %f", *c.SmoothnessExponent)
	}
	if c.CurvatureOptions != nil {
		if n := *c.CurvatureOptions; n < 1 || n%2 == 0 {
			return fmt.Errorf("curvature_options must be a positive odd number, got %d", n)
		}
	}
	for name, v := range map[string]*int{
		"nearest_rings": c.NearestRings,
		"max_steps":     c.MaxSteps,
		"lookahead":     c.Lookahead,
		"stats_window":  c.StatsWindow,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, *v)
		}
	}

	for name, v := range map[string]*string{
		"max_keep_for":    c.MaxKeepFor,
		"min_keep_for":    c.MinKeepFor,
		"time_budget":     c.TimeBudget,
		"actuation_delay": c.ActuationDelay,
		"command_timeout": c.CommandTimeout,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, d)
		}
	}

	if c.GetMinKeepFor() > c.GetMaxKeepFor() {
		return fmt.Errorf("min_keep_for (%s) exceeds max_keep_for (%s)", c.GetMinKeepFor(), c.GetMaxKeepFor())
	}
	if c.GetTimeBudget() <= 0 {
		return fmt.Errorf("time_budget must be positive")
	}

	return nil
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// GetCellSize returns the grid cell edge in meters.
func (c *TuningConfig) GetCellSize() float64 {
	if c.CellSize == nil {
		return 0.15
	}
	return *c.CellSize
}

// GetNearestRings returns the ring ceiling of the nearest-point query.
func (c *TuningConfig) GetNearestRings() int {
	if c.NearestRings == nil {
		return 10
	}
	return *c.NearestRings
}

// GetMaxKeepFor returns the lifetime of a point in an empty cell.
func (c *TuningConfig) GetMaxKeepFor() time.Duration {
	return parseDurationOr(c.MaxKeepFor, 4*time.Second)
}

// GetMinKeepFor returns the shortest lifetime granted to any point.
func (c *TuningConfig) GetMinKeepFor() time.Duration {
	return parseDurationOr(c.MinKeepFor, 500*time.Millisecond)
}

// GetDensityFactor returns the density_factor value or the default.
func (c *TuningConfig) GetDensityFactor() float64 {
	if c.DensityFactor == nil {
		return 0.25
	}
	return *c.DensityFactor
}

// GetKeepJitter returns the keep_jitter value or the default.
func (c *TuningConfig) GetKeepJitter() float64 {
	if c.KeepJitter == nil {
		return 0.1
	}
	return *c.KeepJitter
}

// GetStepLength returns the planner arc length per step in meters.
func (c *TuningConfig) GetStepLength() float64 {
	if c.StepLength == nil {
		return 0.2
	}
	return *c.StepLength
}

// GetMaxSteps returns the planner depth ceiling.
func (c *TuningConfig) GetMaxSteps() int {
	if c.MaxSteps == nil {
		return 15
	}
	return *c.MaxSteps
}

// GetCurvatureOptions returns the number of discretized curvature choices.
func (c *TuningConfig) GetCurvatureOptions() int {
	if c.CurvatureOptions == nil {
		return 7
	}
	return *c.CurvatureOptions
}

// GetMaxCurvature returns the max_curvature value or the default.
func (c *TuningConfig) GetMaxCurvature() float64 {
	if c.MaxCurvature == nil {
		return 1.5
	}
	return *c.MaxCurvature
}

// GetTimeBudget returns the planner wall-clock budget.
func (c *TuningConfig) GetTimeBudget() time.Duration {
	return parseDurationOr(c.TimeBudget, 40*time.Millisecond)
}

// GetStepBias returns the step_bias value or the default.
func (c *TuningConfig) GetStepBias() float64 {
	if c.StepBias == nil {
		return -0.1
	}
	return *c.StepBias
}

// GetSafeDistance returns the safe_distance value or the default.
func (c *TuningConfig) GetSafeDistance() float64 {
	if c.SafeDistance == nil {
		return 0.5
	}
	return *c.SafeDistance
}

// GetMaxObstaclePenalty returns the max_obstacle_penalty value or the default.
func (c *TuningConfig) GetMaxObstaclePenalty() float64 {
	if c.MaxObstaclePenalty == nil {
		return 10
	}
	return *c.MaxObstaclePenalty
}

// GetMarkerCutoff returns the marker_cutoff value or the default.
func (c *TuningConfig) GetMarkerCutoff() float64 {
	if c.MarkerCutoff == nil {
		return 1.0
	}
	return *c.MarkerCutoff
}

// GetMarkerProbe returns the marker_probe value or the default.
func (c *TuningConfig) GetMarkerProbe() float64 {
	if c.MarkerProbe == nil {
		return 0.05
	}
	return *c.MarkerProbe
}

// GetMarkerBonus returns the marker_bonus value or the default.
func (c *TuningConfig) GetMarkerBonus() float64 {
	if c.MarkerBonus == nil {
		return 0.5
	}
	return *c.MarkerBonus
}

// GetSmoothnessWeight returns the smoothness_weight value or the default.
func (c *TuningConfig) GetSmoothnessWeight() float64 {
	if c.SmoothnessWeight == nil {
		return 0.1
	}
	return *c.SmoothnessWeight
}

// GetSmoothnessExponent returns the smoothness_exponent value or the default.
func (c *TuningConfig) GetSmoothnessExponent() float64 {
	if c.SmoothnessExponent == nil {
		return 2
	}
	return *c.SmoothnessExponent
}

// GetActuationDelay returns the modeled actuator latency.
func (c *TuningConfig) GetActuationDelay() time.Duration {
	return parseDurationOr(c.ActuationDelay, 200*time.Millisecond)
}

// GetTurnFudge returns the turn_fudge value or the default.
func (c *TuningConfig) GetTurnFudge() float64 {
	if c.TurnFudge == nil {
		return 1.0
	}
	return *c.TurnFudge
}

// GetSpeedFudge returns the speed_fudge value or the default.
func (c *TuningConfig) GetSpeedFudge() float64 {
	if c.SpeedFudge == nil {
		return 1.0
	}
	return *c.SpeedFudge
}

// GetLookahead returns the lookahead value or the default.
func (c *TuningConfig) GetLookahead() int {
	if c.Lookahead == nil {
		return 3
	}
	return *c.Lookahead
}

// GetNominalSpeed returns the nominal_speed value or the default.
func (c *TuningConfig) GetNominalSpeed() float64 {
	if c.NominalSpeed == nil {
		return 1.0
	}
	return *c.NominalSpeed
}

// GetMaxManualSpeed returns the max_manual_speed value or the default.
func (c *TuningConfig) GetMaxManualSpeed() float64 {
	if c.MaxManualSpeed == nil {
		return 1.5
	}
	return *c.MaxManualSpeed
}

// GetCommandTimeout returns the remote command liveness timeout.
func (c *TuningConfig) GetCommandTimeout() time.Duration {
	return parseDurationOr(c.CommandTimeout, 100*time.Millisecond)
}

// GetCycleRate returns the target control loop rate in Hz.
func (c *TuningConfig) GetCycleRate() float64 {
	if c.CycleRate == nil {
		return 30
	}
	return *c.CycleRate
}

// GetStatsWindow returns the number of cycles in the frame statistics window.
func (c *TuningConfig) GetStatsWindow() int {
	if c.StatsWindow == nil {
		return 60
	}
	return *c.StatsWindow
}

// GetHardware returns the hardware value or the default.
func (c *TuningConfig) GetHardware() bool {
	if c.Hardware == nil {
		return false
	}
	return *c.Hardware
}
