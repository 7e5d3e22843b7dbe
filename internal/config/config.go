// Package config provides Viper-based configuration loading for the battle tools.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on profile persistence. The remaining fields are validated
	// only when it is set.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// BattleConfig holds the scheduler and engine pacing settings.
type BattleConfig struct {
	// TickInterval is how often the headless runner calls Battle.Update.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// HitDelay is the channel hit pacing used when an ability sets none.
	HitDelay time.Duration `mapstructure:"hit_delay"`
	// AdversaryActionDelay separates consecutive adversary actions.
	AdversaryActionDelay time.Duration `mapstructure:"adversary_action_delay"`
	// MaxDamageReduction caps the summed reduction percent of any entity.
	MaxDamageReduction float64 `mapstructure:"max_damage_reduction"`
	// Seed selects a deterministic random source; 0 uses the crypto source.
	Seed int64 `mapstructure:"seed"`
	// MaxTurns stops a headless battle that has not finished.
	MaxTurns int `mapstructure:"max_turns"`
}

// ContentConfig locates the YAML content tree.
type ContentConfig struct {
	Dir string `mapstructure:"dir"`
	// ScriptInstructionLimit caps the Lua opcodes of one hook call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateDatabase checks the database section regardless of Enabled, for
// tools that always need a connection.
func (c Config) ValidateDatabase() error {
	return validateDatabase(c.Database)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("battle.tick_interval must be > 0, got %s", b.TickInterval))
	}
	if b.HitDelay < 0 {
		errs = append(errs, "battle.hit_delay must not be negative")
	}
	if b.AdversaryActionDelay < 0 {
		errs = append(errs, "battle.adversary_action_delay must not be negative")
	}
	if b.MaxDamageReduction < 0 || b.MaxDamageReduction >= 100 {
		errs = append(errs, fmt.Sprintf("battle.max_damage_reduction must be in [0, 100), got %v", b.MaxDamageReduction))
	}
	if b.MaxTurns < 1 {
		errs = append(errs, fmt.Sprintf("battle.max_turns must be >= 1, got %d", b.MaxTurns))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.Dir == "" {
		return errors.New("content.dir must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		return fmt.Errorf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and
// environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with ARENA_ prefix
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.password", "arena")
	v.SetDefault("database.name", "arena")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("battle.tick_interval", "16ms")
	v.SetDefault("battle.hit_delay", "400ms")
	v.SetDefault("battle.adversary_action_delay", "600ms")
	v.SetDefault("battle.max_damage_reduction", 90)
	v.SetDefault("battle.seed", 0)
	v.SetDefault("battle.max_turns", 200)

	v.SetDefault("content.dir", "content")
	v.SetDefault("content.script_instruction_limit", 100000)
}
