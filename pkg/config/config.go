// Package config provides a reusable loader for the chain's configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"perovskite-chain/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// GridFactorOverride lets a deployment add or replace a region's grid
// emission factor without recompiling the binary.
type GridFactorOverride struct {
	Region string  `mapstructure:"region" json:"region"`
	Factor float64 `mapstructure:"factor" json:"factor"`
}

// Config represents the unified configuration for a chain node. It mirrors
// the structure of the YAML files under cmd/config.
type Config struct {
	Chain struct {
		SolarIrradianceKwhPerM2Year float64 `mapstructure:"solar_irradiance_kwh_per_m2_year" json:"solar_irradiance_kwh_per_m2_year"`
		InitialReferenceReduction   float64 `mapstructure:"initial_reference_reduction" json:"initial_reference_reduction"`
		GenesisTimestamp            string  `mapstructure:"genesis_timestamp" json:"genesis_timestamp"`
	} `mapstructure:"chain" json:"chain"`

	Pow struct {
		Base        float64 `mapstructure:"base" json:"base"`
		Sensitivity float64 `mapstructure:"sensitivity" json:"sensitivity"`
		MinDiff     int     `mapstructure:"min_diff" json:"min_diff"`
		MaxDiff     int     `mapstructure:"max_diff" json:"max_diff"`
	} `mapstructure:"pow" json:"pow"`

	GridFactors []GridFactorOverride `mapstructure:"grid_factors" json:"grid_factors"`

	Storage struct {
		SnapshotDir string `mapstructure:"snapshot_dir" json:"snapshot_dir"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env via godotenv in cmd/cli

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the CHAIN_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("CHAIN_ENV", ""))
}
