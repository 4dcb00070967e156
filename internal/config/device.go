// Package config loads the device configuration of the RTC6 controller.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/rtc6-controller/internal/fsutil"
	"github.com/banshee-data/rtc6-controller/internal/rtc"
)

// Defaults reproduce the lab installation the controller was written for.
const (
	DefaultHost               = "172.23.17.192"
	DefaultProgramDir         = "./rtc6_files/program_files"
	DefaultCorrectionFile     = "./correction_files/D2_2034.ct5"
	DefaultCoordTransformFile = "./correction_files/coord_transform"
	DefaultDriver             = "rtc6eth"
	DefaultListMemorySize     = 8000
	DefaultListSlot           = 1
	DefaultLaserMode          = "YAG5"
	DefaultListen             = "localhost:8080"
	DefaultDBPath             = "rtc6_journal.db"

	maxFileSize = 1 * 1024 * 1024 // 1MB
)

// DeviceConfig is the on-disk configuration. Every field is optional; the
// Get* accessors fall back to the defaults above, so partial files are safe.
type DeviceConfig struct {
	// Card link
	Host           *string `json:"host,omitempty" yaml:"host,omitempty"`
	ProgramDir     *string `json:"program_dir,omitempty" yaml:"program_dir,omitempty"`
	CorrectionFile *string `json:"correction_file,omitempty" yaml:"correction_file,omitempty"`
	RetryConnect   *bool   `json:"retry_connect,omitempty" yaml:"retry_connect,omitempty"`
	Driver         *string `json:"driver,omitempty" yaml:"driver,omitempty"`

	// Coordinate correction
	CoordTransformFile *string `json:"coord_transform_file,omitempty" yaml:"coord_transform_file,omitempty"`

	// Motion list memory
	ListMemorySize *int `json:"list_memory_size,omitempty" yaml:"list_memory_size,omitempty"`
	ListSlot       *int `json:"list_slot,omitempty" yaml:"list_slot,omitempty"`

	// Stage settings
	LaserMode    *string `json:"laser_mode,omitempty" yaml:"laser_mode,omitempty"`
	LaserControl *int    `json:"laser_control,omitempty" yaml:"laser_control,omitempty"`

	// Service
	Listen *string `json:"listen,omitempty" yaml:"listen,omitempty"`
	DBPath *string `json:"db_path,omitempty" yaml:"db_path,omitempty"` // empty disables the journal
}

// LoadDeviceConfig reads a .json, .yaml or .yml file from fsys and validates
// it.
func LoadDeviceConfig(fsys fsutil.FileSystem, path string) (*DeviceConfig, error) {
	cleanPath := filepath.Clean(path)
	data, err := fsutil.ReadLimited(fsys, cleanPath, maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &DeviceConfig{}
	switch ext := strings.ToLower(filepath.Ext(cleanPath)); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *DeviceConfig) Validate() error {
	var errs []error
	if c.Host != nil && *c.Host == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}
	if c.ListMemorySize != nil && *c.ListMemorySize <= 0 {
		errs = append(errs, fmt.Errorf("list_memory_size must be positive, got %d", *c.ListMemorySize))
	}
	if c.ListSlot != nil && *c.ListSlot != 1 && *c.ListSlot != 2 {
		errs = append(errs, fmt.Errorf("list_slot must be 1 or 2, got %d", *c.ListSlot))
	}
	if c.LaserMode != nil {
		if _, err := rtc.ParseLaserMode(*c.LaserMode); err != nil {
			errs = append(errs, fmt.Errorf("laser_mode: %w", err))
		}
	}
	if c.LaserControl != nil && *c.LaserControl < 0 {
		errs = append(errs, fmt.Errorf("laser_control must be non-negative, got %d", *c.LaserControl))
	}
	return errors.Join(errs...)
}

func getString(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// GetHost returns the card address.
func (c *DeviceConfig) GetHost() string { return getString(c.Host, DefaultHost) }

// GetProgramDir returns the directory holding the card firmware files.
func (c *DeviceConfig) GetProgramDir() string { return getString(c.ProgramDir, DefaultProgramDir) }

// GetCorrectionFile returns the card's own scanner correction table.
func (c *DeviceConfig) GetCorrectionFile() string {
	return getString(c.CorrectionFile, DefaultCorrectionFile)
}

// GetRetryConnect reports whether connecting retries until the card answers.
func (c *DeviceConfig) GetRetryConnect() bool {
	if c.RetryConnect == nil {
		return false
	}
	return *c.RetryConnect
}

// GetDriver returns the name of the registered card driver.
func (c *DeviceConfig) GetDriver() string { return getString(c.Driver, DefaultDriver) }

// GetCoordTransformFile returns the 2×2 coordinate transform file.
func (c *DeviceConfig) GetCoordTransformFile() string {
	return getString(c.CoordTransformFile, DefaultCoordTransformFile)
}

func (c *DeviceConfig) GetListMemorySize() int { return getInt(c.ListMemorySize, DefaultListMemorySize) }
func (c *DeviceConfig) GetListSlot() int       { return getInt(c.ListSlot, DefaultListSlot) }
func (c *DeviceConfig) GetLaserMode() string   { return getString(c.LaserMode, DefaultLaserMode) }
func (c *DeviceConfig) GetLaserControl() int   { return getInt(c.LaserControl, 0) }
func (c *DeviceConfig) GetListen() string      { return getString(c.Listen, DefaultListen) }
func (c *DeviceConfig) GetDBPath() string      { return getString(c.DBPath, DefaultDBPath) }
