package domain

import "strconv"

// Channel identifies one of the logical paths exposed by the peripheral.
type Channel int

const (
	// ChannelControl carries ASCII commands (START, END, REPLAY, INFO, CLEAR).
	ChannelControl Channel = iota
	// ChannelData carries raw payload chunks.
	ChannelData
	// ChannelStatus is read (and optionally subscribed) for status text.
	ChannelStatus
)

// String returns a human-readable representation of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelControl:
		return "control"
	case ChannelData:
		return "data"
	case ChannelStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Control commands understood by the peripheral.
const (
	CmdEnd    = "END"
	CmdReplay = "REPLAY"
	CmdInfo   = "INFO"
	CmdClear  = "CLEAR"

	startPrefix = "START:"
)

// StartCommand builds the handshake command announcing the payload size.
func StartCommand(total int) []byte {
	return []byte(startPrefix + strconv.Itoa(total))
}

// ParseStartCommand extracts the announced size from a handshake command.
func ParseStartCommand(b []byte) (int, bool) {
	s := string(b)
	if len(s) <= len(startPrefix) || s[:len(startPrefix)] != startPrefix {
		return 0, false
	}
	n, err := strconv.Atoi(s[len(startPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
