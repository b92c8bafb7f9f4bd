package cliconfig

import (
	"os"
	"time"
)

// ApplyEnvConfig applies configuration from environment variables (GIFSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("address", os.Getenv("GIFSHIP_ADDRESS"), &cfg.Address)
	s.setString("payload", os.Getenv("GIFSHIP_PAYLOAD"), &cfg.Payload)
	s.setString("service-uuid", os.Getenv("GIFSHIP_SERVICE_UUID"), &cfg.ServiceUUID)
	s.setString("control-uuid", os.Getenv("GIFSHIP_CONTROL_UUID"), &cfg.ControlUUID)
	s.setString("data-uuid", os.Getenv("GIFSHIP_DATA_UUID"), &cfg.DataUUID)
	s.setString("status-uuid", os.Getenv("GIFSHIP_STATUS_UUID"), &cfg.StatusUUID)
	s.setString("report-dir", os.Getenv("GIFSHIP_REPORT_DIR"), &cfg.ReportDir)
	s.setString("log-level", os.Getenv("GIFSHIP_LOG_LEVEL"), &cfg.LogLevel)

	durations := []struct {
		flag string
		env  string
		dst  *time.Duration
	}{
		{"base-delay", "GIFSHIP_BASE_DELAY", &cfg.BaseDelay},
		{"settle-delay", "GIFSHIP_SETTLE_DELAY", &cfg.SettleDelay},
		{"connect-timeout", "GIFSHIP_CONNECT_TIMEOUT", &cfg.ConnectTimeout},
		{"post-connect-delay", "GIFSHIP_POST_CONNECT_DELAY", &cfg.PostConnectDelay},
		{"finalize-delay", "GIFSHIP_FINALIZE_DELAY", &cfg.FinalizeDelay},
		{"breather-sleep", "GIFSHIP_BREATHER_SLEEP", &cfg.BreatherSleep},
		{"max-breather-sleep", "GIFSHIP_MAX_BREATHER_SLEEP", &cfg.MaxBreatherSleep},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, os.Getenv(d.env), d.dst); err != nil {
			return err
		}
	}

	ints := []struct {
		flag string
		env  string
		dst  *int
	}{
		{"max-attempts", "GIFSHIP_MAX_ATTEMPTS", &cfg.MaxAttempts},
		{"chunk-size", "GIFSHIP_CHUNK_SIZE", &cfg.ChunkSize},
		{"yield-every", "GIFSHIP_YIELD_EVERY_WRITES", &cfg.YieldEveryWrites},
		{"breather-every", "GIFSHIP_BREATHER_EVERY_BYTES", &cfg.BreatherEveryBytes},
		{"max-payload-bytes", "GIFSHIP_MAX_PAYLOAD_BYTES", &cfg.MaxPayloadBytes},
	}
	for _, i := range ints {
		if err := s.setIntFromString(i.flag, os.Getenv(i.env), i.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("clear", os.Getenv("GIFSHIP_CLEAR"), &cfg.Clear)
	s.setBoolFromString("simulate", os.Getenv("GIFSHIP_SIMULATE"), &cfg.Simulate)

	return nil
}
