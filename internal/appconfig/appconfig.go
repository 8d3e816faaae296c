// Package appconfig loads the ambient application configuration — worker
// pool size, operation deadlines, data directory, and graph/delta
// bounds — via viper + godotenv, following the same env-file-then-viper
// layering as the teacher's internal/config package.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/archdrift/archdrift/internal/commitdelta"
	"github.com/archdrift/archdrift/internal/depgraph"
)

// Config holds every ambient setting the conformance engine needs outside
// of its per-repo ArchitectureConfig.
type Config struct {
	Workers int `yaml:"workers"`

	DataDir string `yaml:"data_dir"`

	Timeouts TimeoutConfig `yaml:"timeouts"`

	GraphBounds  depgraph.Bounds    `yaml:"graph_bounds"`
	DeltaBounds  commitdelta.Bounds `yaml:"delta_bounds"`
}

// TimeoutConfig holds the per-operation deadlines from spec.md §5.
type TimeoutConfig struct {
	BaselineBuild time.Duration `yaml:"baseline_build"`
	Analysis      time.Duration `yaml:"analysis"`
	SnapshotList  time.Duration `yaml:"snapshot_list"`
}

// Default returns the engine's default configuration, per spec.md §5
// (2 workers, 10m/5m/30s deadlines) and §4.4/§4.6 (graph/delta bounds).
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Workers: 2,
		DataDir: filepath.Join(homeDir, ".archdrift", "data"),
		Timeouts: TimeoutConfig{
			BaselineBuild: 10 * time.Minute,
			Analysis:      5 * time.Minute,
			SnapshotList:  30 * time.Second,
		},
		GraphBounds: depgraph.Bounds{
			MaxFiles:     20000,
			MaxFileBytes: 1 << 20, // 1 MiB
			MaxEvidence:  5000,
		},
		DeltaBounds: commitdelta.Bounds{
			MaxChangedFiles: 500,
			MaxBytesPerFile: 1 << 20, // 1 MiB
		},
	}
}

// Load loads configuration from path (or standard locations when path is
// empty), layering .env files, a YAML config file, and environment
// variable overrides on top of Default(), mirroring the teacher's
// internal/config.Load.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("timeouts", cfg.Timeouts)
	v.SetDefault("graph_bounds", cfg.GraphBounds)
	v.SetDefault("delta_bounds", cfg.DeltaBounds)

	v.SetEnvPrefix("ARCHDRIFT")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".archdrift")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".archdrift"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".archdrift", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		_ = godotenv.Load(homeEnvFile)
	}
}

func applyEnvOverrides(cfg *Config) {
	if dir := os.Getenv("ARCHDRIFT_DATA_DIR"); dir != "" {
		cfg.DataDir = expandPath(dir)
	}
}

// Save writes cfg to path as YAML, mirroring the teacher's config.Save
// (there written via viper.WriteConfigAs; here written directly with
// yaml.v3 since Config's struct tags already describe the exact document
// shape, with no need for viper's generic map conversion round-trip).
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func expandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, p[1:])
}
