package domain

import "time"

// RunReport is a diagnostic record of a finished run.
// It is written for inspection only and never read back to resume a transfer.
type RunReport struct {
	RunID         string    `json:"run_id"`
	DeviceID      string    `json:"device_id"`
	PayloadBytes  int       `json:"payload_bytes"`
	Attempts      int       `json:"attempts"`
	Success       bool      `json:"success"`
	Reason        string    `json:"reason,omitempty"`
	ChunkSize     int       `json:"chunk_size"`
	BreatherSleep string    `json:"breather_sleep"`
	LastStatus    string    `json:"last_status,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}
