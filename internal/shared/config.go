package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	SourceTokenEnv = "CARDX_SOURCE_TOKEN"
	TargetTokenEnv = "CARDX_TARGET_TOKEN"
)

// MaxPageSize is the largest limit the card listing honours; larger requests are silently capped.
const MaxPageSize = 100

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source    InstanceConfig  `toml:"source"`
	Target    InstanceConfig  `toml:"target"`
	Migration MigrationConfig `toml:"migration"`
	Database  DatabaseConfig  `toml:"database"`
	Log       LogConfig       `toml:"log"`
}

// InstanceConfig describes one kanban instance (either end of a migration).
type InstanceConfig struct {
	Domain  string `toml:"domain"`
	Token   string `toml:"token"`
	SpaceID int    `toml:"space_id"`
}

// MigrationConfig tunes the migration engine.
type MigrationConfig struct {
	PageSize          int     `toml:"page_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TempDir           string  `toml:"temp_dir"`
	SortComments      bool    `toml:"sort_comments"`
	CommentTemplate   string  `toml:"comment_template"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults and token environment variables win over the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run `cardx setup config`)", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that both instances are addressable and the engine settings are usable.
func (c *Config) Validate() error {
	for name, inst := range map[string]InstanceConfig{"source": c.Source, "target": c.Target} {
		if inst.Domain == "" {
			return fmt.Errorf("%w: %s.domain is empty", ErrInvalidConfig, name)
		}
		if inst.Token == "" {
			return fmt.Errorf("%w: %s.token is empty", ErrMissingCredentials, name)
		}
	}
	if c.Migration.PageSize <= 0 || c.Migration.PageSize > MaxPageSize {
		return fmt.Errorf("%w: migration.page_size must be between 1 and %d", ErrInvalidConfig, MaxPageSize)
	}
	if c.Migration.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: migration.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) applyEnv() {
	if token := os.Getenv(SourceTokenEnv); token != "" {
		c.Source.Token = token
	}
	if token := os.Getenv(TargetTokenEnv); token != "" {
		c.Target.Token = token
	}
	c.Source.Domain = NormalizeDomain(c.Source.Domain)
	c.Target.Domain = NormalizeDomain(c.Target.Domain)
}
