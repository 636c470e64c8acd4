package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/radarcluster/internal/radar"
	"github.com/banshee-data/radarcluster/internal/radar/l4perception"
	"github.com/banshee-data/radarcluster/internal/units"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the clustering engine.
// The clustering fields match the /api/radar/params endpoint so the same
// JSON can be used for both startup configuration and runtime updates.
type TuningConfig struct {
	// Clustering params
	DBSCANEps    *float64 `json:"dbscan_eps,omitempty"`
	DBSCANMinPts *int     `json:"dbscan_min_pts,omitempty"`
	SpatialIndex *string  `json:"spatial_index,omitempty"` // "kdtree" or "grid"
	GridCellSize *float64 `json:"grid_cell_size,omitempty"`

	// Producer params
	FrameWidth    *int    `json:"frame_width,omitempty"`
	FrameHeight   *int    `json:"frame_height,omitempty"`
	FrameInterval *string `json:"frame_interval,omitempty"` // duration string like "100ms"

	// Output params
	SpeedUnits    *string `json:"speed_units,omitempty"`
	RecordObjects *bool   `json:"record_objects,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the Get* defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		DBSCANEps:     ptrFloat64(empty.GetDBSCANEps()),
		DBSCANMinPts:  ptrInt(empty.GetDBSCANMinPts()),
		SpatialIndex:  ptrString(empty.GetSpatialIndex()),
		GridCellSize:  ptrFloat64(empty.GetGridCellSize()),
		FrameWidth:    ptrInt(empty.GetFrameWidth()),
		FrameHeight:   ptrInt(empty.GetFrameHeight()),
		FrameInterval: ptrString(empty.GetFrameInterval().String()),
		SpeedUnits:    ptrString(empty.GetSpeedUnits()),
		RecordObjects: ptrBool(empty.GetRecordObjects()),
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

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/radar/pipeline/
		"../../../../" + DefaultConfigPath, // from internal/radar/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. Clustering
// parameter errors wrap radar.ErrInvalidParameter.
func (c *TuningConfig) Validate() error {
	if _, err := c.ClusteringParams(); err != nil {
		return err
	}

	if c.FrameWidth != nil && *c.FrameWidth < 1 {
		return fmt.Errorf("%w: frame_width must be positive, got %d", radar.ErrInvalidParameter, *c.FrameWidth)
	}
	if c.FrameHeight != nil && *c.FrameHeight < 1 {
		return fmt.Errorf("%w: frame_height must be positive, got %d", radar.ErrInvalidParameter, *c.FrameHeight)
	}

	if c.FrameInterval != nil && *c.FrameInterval != "" {
		d, err := time.ParseDuration(*c.FrameInterval)
		if err != nil {
			return fmt.Errorf("invalid frame_interval '%s': %w", *c.FrameInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("%w: frame_interval must not be negative, got %s", radar.ErrInvalidParameter, d)
		}
	}

	if c.SpeedUnits != nil {
		if err := units.Validate(*c.SpeedUnits); err != nil {
			return err
		}
	}

	return nil
}

// ClusteringParams builds validated DBSCAN parameters from the config.
func (c *TuningConfig) ClusteringParams() (l4perception.Params, error) {
	index, err := l4perception.ParseIndexKind(c.GetSpatialIndex())
	if err != nil {
		return l4perception.Params{}, err
	}
	params := l4perception.Params{
		Epsilon:      c.GetDBSCANEps(),
		MinPts:       c.GetDBSCANMinPts(),
		Index:        index,
		GridCellSize: c.GetGridCellSize(),
	}
	if err := params.Validate(); err != nil {
		return l4perception.Params{}, err
	}
	return params, nil
}

// GetDBSCANEps returns the dbscan_eps value or the default.
func (c *TuningConfig) GetDBSCANEps() float64 {
	if c.DBSCANEps == nil {
		return l4perception.DefaultDBSCANEps
	}
	return *c.DBSCANEps
}

// GetDBSCANMinPts returns the dbscan_min_pts value or the default.
func (c *TuningConfig) GetDBSCANMinPts() int {
	if c.DBSCANMinPts == nil {
		return l4perception.DefaultDBSCANMinPts
	}
	return *c.DBSCANMinPts
}

// GetSpatialIndex returns the spatial_index value or the default.
func (c *TuningConfig) GetSpatialIndex() string {
	if c.SpatialIndex == nil || *c.SpatialIndex == "" {
		return string(l4perception.IndexKDTree)
	}
	return *c.SpatialIndex
}

// GetGridCellSize returns the grid_cell_size value or the default (0, the
// neighbourhood radius).
func (c *TuningConfig) GetGridCellSize() float64 {
	if c.GridCellSize == nil {
		return 0
	}
	return *c.GridCellSize
}

// GetFrameWidth returns the frame_width value or the default.
func (c *TuningConfig) GetFrameWidth() int {
	if c.FrameWidth == nil {
		return 256
	}
	return *c.FrameWidth
}

// GetFrameHeight returns the frame_height value or the default.
func (c *TuningConfig) GetFrameHeight() int {
	if c.FrameHeight == nil {
		return 16
	}
	return *c.FrameHeight
}

// GetFrameInterval parses and returns the FrameInterval as a time.Duration.
func (c *TuningConfig) GetFrameInterval() time.Duration {
	if c.FrameInterval == nil || *c.FrameInterval == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.FrameInterval)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetSpeedUnits returns the speed_units value or the default.
func (c *TuningConfig) GetSpeedUnits() string {
	if c.SpeedUnits == nil || *c.SpeedUnits == "" {
		return units.MPS
	}
	return *c.SpeedUnits
}

// GetRecordObjects returns the record_objects value or the default.
func (c *TuningConfig) GetRecordObjects() bool {
	if c.RecordObjects == nil {
		return true
	}
	return *c.RecordObjects
}
