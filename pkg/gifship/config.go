package gifship

import (
	"fmt"
	"time"

	"github.com/gifcase/gifship/internal/adapters/ble"
	"github.com/gifcase/gifship/internal/app"
	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/pacing"
)

// DefaultMaxPayloadBytes is the largest payload the firmware accepts.
const DefaultMaxPayloadBytes = 500 * 1024

// Config holds the settings of a Shipper.
type Config struct {
	// DeviceID identifies the peripheral (its BLE address). Required unless a
	// transport is supplied with WithTransport.
	DeviceID string

	// GATT identifiers used by the default BLE transport.
	ServiceUUID string
	ControlUUID string
	DataUUID    string
	StatusUUID  string

	// MaxAttempts bounds one Ship call. Default: 6
	MaxAttempts int

	// BaseDelay scales the linear backoff after a transport fault. Default: 500ms
	BaseDelay time.Duration

	// SettleDelay is the pause after an unconfirmed transfer. Default: 300ms
	SettleDelay time.Duration

	// ConnectTimeout bounds connection establishment. Default: 20s
	ConnectTimeout time.Duration

	// PostConnectDelay, CommandDelay, FinalizeDelay and InfoDelay are the
	// settle times after connect, after CLEAR/START, after END and after INFO.
	PostConnectDelay time.Duration
	CommandDelay     time.Duration
	FinalizeDelay    time.Duration
	InfoDelay        time.Duration

	// Pacing is the initial pacing of every Ship call. Zero fields take
	// defaults.
	Pacing Pacing

	// MaxPayloadBytes rejects larger payloads. Default: 500 KiB
	MaxPayloadBytes int

	// Clear sends CLEAR before each handshake.
	Clear bool
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	session := app.DefaultSessionConfig()
	pol := pacing.Default()

	if c.ServiceUUID == "" {
		c.ServiceUUID = ble.DefaultServiceUUID
	}
	if c.ControlUUID == "" {
		c.ControlUUID = ble.DefaultControlUUID
	}
	if c.DataUUID == "" {
		c.DataUUID = ble.DefaultDataUUID
	}
	if c.StatusUUID == "" {
		c.StatusUUID = ble.DefaultStatusUUID
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = app.DefaultMaxAttempts
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = app.DefaultBaseDelay
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = app.DefaultSettleDelay
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = session.ConnectTimeout
	}
	if c.PostConnectDelay == 0 {
		c.PostConnectDelay = session.PostConnectDelay
	}
	if c.CommandDelay == 0 {
		c.CommandDelay = session.CommandDelay
	}
	if c.FinalizeDelay == 0 {
		c.FinalizeDelay = session.FinalizeDelay
	}
	if c.InfoDelay == 0 {
		c.InfoDelay = session.InfoDelay
	}
	if c.Pacing.ChunkSize == 0 {
		c.Pacing.ChunkSize = pol.ChunkSize
	}
	if c.Pacing.YieldEveryWrites == 0 {
		c.Pacing.YieldEveryWrites = pol.YieldEveryWrites
	}
	if c.Pacing.BreatherEveryBytes == 0 {
		c.Pacing.BreatherEveryBytes = pol.BreatherEveryBytes
	}
	if c.Pacing.BreatherSleep == 0 {
		c.Pacing.BreatherSleep = pol.BreatherSleep
	}
	if c.Pacing.BreatherStep == 0 {
		c.Pacing.BreatherStep = pol.BreatherStep
	}
	if c.Pacing.MaxBreatherSleep == 0 {
		c.Pacing.MaxBreatherSleep = pol.MaxBreatherSleep
	}
	if c.MaxPayloadBytes == 0 {
		c.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
}

// Validate checks the configuration. Call SetDefaults first.
func (c *Config) Validate() error {
	if err := c.controllerConfig().Validate(); err != nil {
		return err
	}
	if c.ConnectTimeout < 0 || c.PostConnectDelay < 0 || c.CommandDelay < 0 || c.FinalizeDelay < 0 || c.InfoDelay < 0 {
		return fmt.Errorf("%w: session delays must not be negative", domain.ErrInvalidConfig)
	}
	if c.MaxPayloadBytes < 0 {
		return fmt.Errorf("%w: max payload bytes must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

func (c *Config) controllerConfig() app.ControllerConfig {
	return app.ControllerConfig{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		SettleDelay: c.SettleDelay,
		Pacing:      c.Pacing,
	}
}

func (c *Config) sessionConfig() app.SessionConfig {
	return app.SessionConfig{
		DeviceID:         c.DeviceID,
		ConnectTimeout:   c.ConnectTimeout,
		PostConnectDelay: c.PostConnectDelay,
		CommandDelay:     c.CommandDelay,
		FinalizeDelay:    c.FinalizeDelay,
		InfoDelay:        c.InfoDelay,
		Clear:            c.Clear,
	}
}

func (c *Config) bleConfig() ble.Config {
	return ble.Config{
		ServiceUUID: c.ServiceUUID,
		ControlUUID: c.ControlUUID,
		DataUUID:    c.DataUUID,
		StatusUUID:  c.StatusUUID,
	}
}
