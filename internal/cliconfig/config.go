package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gifcase/gifship/internal/adapters/ble"
	"github.com/gifcase/gifship/internal/app"
	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/pacing"
)

// DefaultMaxPayloadBytes is the largest payload the firmware accepts.
const DefaultMaxPayloadBytes = 500 * 1024

// Config holds CLI configuration for gifship.
type Config struct {
	Address string
	Payload string

	ServiceUUID string
	ControlUUID string
	DataUUID    string
	StatusUUID  string

	MaxAttempts int
	BaseDelay   time.Duration
	SettleDelay time.Duration

	ConnectTimeout   time.Duration
	PostConnectDelay time.Duration
	FinalizeDelay    time.Duration

	ChunkSize          int
	YieldEveryWrites   int
	BreatherEveryBytes int
	BreatherSleep      time.Duration
	MaxBreatherSleep   time.Duration

	MaxPayloadBytes int
	ReportDir       string
	Clear           bool
	Simulate        bool
	LogLevel        string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	session := app.DefaultSessionConfig()
	pol := pacing.Default()
	return Config{
		ServiceUUID:        ble.DefaultServiceUUID,
		ControlUUID:        ble.DefaultControlUUID,
		DataUUID:           ble.DefaultDataUUID,
		StatusUUID:         ble.DefaultStatusUUID,
		MaxAttempts:        app.DefaultMaxAttempts,
		BaseDelay:          app.DefaultBaseDelay,
		SettleDelay:        app.DefaultSettleDelay,
		ConnectTimeout:     session.ConnectTimeout,
		PostConnectDelay:   session.PostConnectDelay,
		FinalizeDelay:      session.FinalizeDelay,
		ChunkSize:          pol.ChunkSize,
		YieldEveryWrites:   pol.YieldEveryWrites,
		BreatherEveryBytes: pol.BreatherEveryBytes,
		BreatherSleep:      pol.BreatherSleep,
		MaxBreatherSleep:   pol.MaxBreatherSleep,
		MaxPayloadBytes:    DefaultMaxPayloadBytes,
		ReportDir:          defaultReportDir(),
		LogLevel:           "info",
	}
}

func defaultReportDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".gifship")
	}
	return ""
}

// Validate checks the configuration for errors.
// Address is only required outside simulate mode.
func (c *Config) Validate() error {
	if c.Address == "" && !c.Simulate {
		return fmt.Errorf("%w: address is required", domain.ErrInvalidConfig)
	}

	for name, v := range map[string]string{
		"service-uuid": c.ServiceUUID,
		"control-uuid": c.ControlUUID,
		"data-uuid":    c.DataUUID,
		"status-uuid":  c.StatusUUID,
	} {
		if _, err := uuid.Parse(v); err != nil {
			return fmt.Errorf("%w: %s %q: %v", domain.ErrInvalidConfig, name, v, err)
		}
	}

	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max-attempts must be positive", domain.ErrInvalidConfig)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: connect-timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.BaseDelay < 0 || c.SettleDelay < 0 || c.PostConnectDelay < 0 || c.FinalizeDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", domain.ErrInvalidConfig)
	}
	if c.MaxPayloadBytes < 0 {
		return fmt.Errorf("%w: max-payload-bytes must not be negative", domain.ErrInvalidConfig)
	}
	return c.Pacing().Validate()
}

// Pacing returns the initial pacing policy described by the config.
func (c *Config) Pacing() pacing.Policy {
	p := pacing.Default()
	p.ChunkSize = c.ChunkSize
	p.YieldEveryWrites = c.YieldEveryWrites
	p.BreatherEveryBytes = c.BreatherEveryBytes
	p.BreatherSleep = c.BreatherSleep
	p.MaxBreatherSleep = c.MaxBreatherSleep
	return p
}

// BLE returns the GATT identifiers.
func (c *Config) BLE() ble.Config {
	return ble.Config{
		ServiceUUID: c.ServiceUUID,
		ControlUUID: c.ControlUUID,
		DataUUID:    c.DataUUID,
		StatusUUID:  c.StatusUUID,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
