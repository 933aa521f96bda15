// Package config loads dexsweep configuration from a YAML or JSON file,
// then applies environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dexsweep/internal/triage"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "config.json"

// Config holds all dexsweep configuration. The account keys stay flat so
// older config.json files load unchanged.
type Config struct {
	// Account
	AuthService string `yaml:"auth_service" json:"auth_service,omitempty"` // ptc or google
	Username    string `yaml:"username" json:"username,omitempty"`
	Password    string `yaml:"password" json:"password,omitempty"`
	Location    string `yaml:"location" json:"location,omitempty"`

	// Run switches
	Debug bool `yaml:"debug" json:"debug,omitempty"`
	Test  bool `yaml:"test" json:"test,omitempty"` // resolve the location and stop
	Show  bool `yaml:"show" json:"show,omitempty"` // dry run, never release

	// Reference data and inventory source
	Data DataConfig `yaml:"data" json:"data,omitempty"`

	// Quality heuristic
	Triage triage.Thresholds `yaml:"triage" json:"triage,omitempty"`

	// Release pacing
	Sweep SweepConfig `yaml:"sweep" json:"sweep,omitempty"`

	// Geocoding
	Geocoding GeocodingConfig `yaml:"geocoding" json:"geocoding,omitempty"`

	// Logging
	Logging LoggingConfig `yaml:"logging" json:"logging,omitempty"`
}

// DataConfig points at the static reference data and the inventory snapshot.
type DataConfig struct {
	SpeciesCatalog string `yaml:"species_catalog" json:"species_catalog,omitempty"`
	NameList       string `yaml:"name_list" json:"name_list,omitempty"`
	Inventory      string `yaml:"inventory" json:"inventory,omitempty"`
}

// SweepConfig configures the release loop.
type SweepConfig struct {
	// Minimum pause between two releases.
	ReleaseInterval string `yaml:"release_interval" json:"release_interval,omitempty"`
}

// GeocodingConfig configures location lookup.
type GeocodingConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key,omitempty"`
	BaseURL string `yaml:"base_url" json:"base_url,omitempty"`
	Timeout string `yaml:"timeout" json:"timeout,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			SpeciesCatalog: "data/pokemon.json",
			NameList:       "data/keep.json",
			Inventory:      "data/inventory.json",
		},
		Triage: triage.DefaultThresholds(),
		Sweep: SweepConfig{
			ReleaseInterval: "1s",
		},
		Geocoding: GeocodingConfig{
			BaseURL: "https://maps.googleapis.com/maps/api/geocode/json",
			Timeout: "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML or JSON file. A missing file yields
// the defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEXSWEEP_AUTH_SERVICE"); v != "" {
		c.AuthService = v
	}
	if v := os.Getenv("DEXSWEEP_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("DEXSWEEP_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("DEXSWEEP_LOCATION"); v != "" {
		c.Location = v
	}
	if v := os.Getenv("DEXSWEEP_INVENTORY"); v != "" {
		c.Data.Inventory = v
	}
	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		c.Geocoding.APIKey = key
	}
}

// ValidAuthServices lists the accepted auth services.
var ValidAuthServices = []string{"ptc", "google"}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	validService := false
	for _, s := range ValidAuthServices {
		if c.AuthService == s {
			validService = true
			break
		}
	}
	if !validService {
		return fmt.Errorf("invalid auth service specified: %q (valid: %v)", c.AuthService, ValidAuthServices)
	}
	if c.Username == "" {
		return fmt.Errorf("username not configured (use --username or set DEXSWEEP_USERNAME)")
	}
	if c.Location == "" {
		return fmt.Errorf("location not configured (use --location or set DEXSWEEP_LOCATION)")
	}
	if c.Triage.MinQuality < 0 || c.Triage.MinQuality > 1 {
		return fmt.Errorf("triage.min_quality must be within [0,1], got %v", c.Triage.MinQuality)
	}
	if c.Triage.MinIndividual < 0 || c.Triage.MinIndividual > 15 {
		return fmt.Errorf("triage.min_individual must be within [0,15], got %d", c.Triage.MinIndividual)
	}
	return nil
}

// GetReleaseInterval returns the minimum pause between releases.
func (c *Config) GetReleaseInterval() time.Duration {
	d, err := time.ParseDuration(c.Sweep.ReleaseInterval)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// GetGeocodingTimeout returns the geocoding request timeout.
func (c *Config) GetGeocodingTimeout() time.Duration {
	d, err := time.ParseDuration(c.Geocoding.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
