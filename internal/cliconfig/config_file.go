package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Address            string `toml:"address"`
	Payload            string `toml:"payload"`
	ServiceUUID        string `toml:"service_uuid"`
	ControlUUID        string `toml:"control_uuid"`
	DataUUID           string `toml:"data_uuid"`
	StatusUUID         string `toml:"status_uuid"`
	MaxAttempts        int    `toml:"max_attempts"`
	BaseDelay          string `toml:"base_delay"`
	SettleDelay        string `toml:"settle_delay"`
	ConnectTimeout     string `toml:"connect_timeout"`
	PostConnectDelay   string `toml:"post_connect_delay"`
	FinalizeDelay      string `toml:"finalize_delay"`
	ChunkSize          int    `toml:"chunk_size"`
	YieldEveryWrites   int    `toml:"yield_every_writes"`
	BreatherEveryBytes int    `toml:"breather_every_bytes"`
	BreatherSleep      string `toml:"breather_sleep"`
	MaxBreatherSleep   string `toml:"max_breather_sleep"`
	MaxPayloadBytes    int    `toml:"max_payload_bytes"`
	ReportDir          string `toml:"report_dir"`
	Clear              *bool  `toml:"clear"`
	Simulate           *bool  `toml:"simulate"`
	LogLevel           string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.gifship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".gifship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("address", fc.Address, &cfg.Address)
	s.setString("payload", fc.Payload, &cfg.Payload)
	s.setString("service-uuid", fc.ServiceUUID, &cfg.ServiceUUID)
	s.setString("control-uuid", fc.ControlUUID, &cfg.ControlUUID)
	s.setString("data-uuid", fc.DataUUID, &cfg.DataUUID)
	s.setString("status-uuid", fc.StatusUUID, &cfg.StatusUUID)
	s.setString("report-dir", fc.ReportDir, &cfg.ReportDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"base-delay", fc.BaseDelay, &cfg.BaseDelay},
		{"settle-delay", fc.SettleDelay, &cfg.SettleDelay},
		{"connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout},
		{"post-connect-delay", fc.PostConnectDelay, &cfg.PostConnectDelay},
		{"finalize-delay", fc.FinalizeDelay, &cfg.FinalizeDelay},
		{"breather-sleep", fc.BreatherSleep, &cfg.BreatherSleep},
		{"max-breather-sleep", fc.MaxBreatherSleep, &cfg.MaxBreatherSleep},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setInt("max-attempts", fc.MaxAttempts, &cfg.MaxAttempts)
	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)
	s.setInt("yield-every", fc.YieldEveryWrites, &cfg.YieldEveryWrites)
	s.setInt("breather-every", fc.BreatherEveryBytes, &cfg.BreatherEveryBytes)
	s.setInt("max-payload-bytes", fc.MaxPayloadBytes, &cfg.MaxPayloadBytes)

	s.setBool("clear", fc.Clear, &cfg.Clear)
	s.setBool("simulate", fc.Simulate, &cfg.Simulate)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
