package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gifcase/gifship/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxAttempts != 6 {
		t.Errorf("MaxAttempts = %v, want 6", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 500*time.Millisecond {
		t.Errorf("BaseDelay = %v, want 500ms", cfg.BaseDelay)
	}
	if cfg.ChunkSize != 240 {
		t.Errorf("ChunkSize = %v, want 240", cfg.ChunkSize)
	}
	if cfg.MaxPayloadBytes != 500*1024 {
		t.Errorf("MaxPayloadBytes = %v, want 500 KiB", cfg.MaxPayloadBytes)
	}
	if cfg.ServiceUUID != "6e400001-b5a3-f393-e0a9-e50e24dcca9e" {
		t.Errorf("ServiceUUID = %v", cfg.ServiceUUID)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		c := DefaultConfig()
		c.Address = "D0:CF:13:08:90:D9"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults with address", func(*Config) {}, false},
		{"missing address", func(c *Config) { c.Address = "" }, true},
		{"simulate needs no address", func(c *Config) { c.Address = ""; c.Simulate = true }, false},
		{"bad uuid", func(c *Config) { c.StatusUUID = "status" }, true},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, true},
		{"zero connect timeout", func(c *Config) { c.ConnectTimeout = 0 }, true},
		{"negative settle", func(c *Config) { c.SettleDelay = -time.Second }, true},
		{"chunk above ladder", func(c *Config) { c.ChunkSize = 512 }, true},
		{"breather above max", func(c *Config) { c.BreatherSleep = time.Second }, true},
		{"smaller chunk", func(c *Config) { c.ChunkSize = 160 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_Pacing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 200
	cfg.BreatherSleep = 20 * time.Millisecond

	p := cfg.Pacing()
	if p.ChunkSize != 200 || p.BreatherSleep != 20*time.Millisecond {
		t.Errorf("Pacing() = %+v", p)
	}
	if p.BreatherStep != 10*time.Millisecond {
		t.Errorf("BreatherStep = %v, want default", p.BreatherStep)
	}
}

func TestLogger(t *testing.T) {
	l, err := Logger("debug")
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if l.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", l.GetLevel())
	}

	if _, err := Logger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
