// Package status turns raw text read from the peripheral's status channel
// into a domain.TransferStatus and decides whether a transfer is confirmed.
package status

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gifcase/gifship/internal/domain"
)

// Success tokens reported by the peripheral once it has closed the file.
var successTokens = []string{
	"OK:rx_done_auto",
	"OK:rx_done",
}

var (
	bytesPattern = regexp.MustCompile(`bytes=(\d+)/(\d+)`)
	filePattern  = regexp.MustCompile(`file=(\d+)`)
)

// Class is the controller-facing classification of an unconfirmed status.
type Class int

const (
	// ClassValidated means the peripheral confirmed the full payload.
	ClassValidated Class = iota
	// ClassIncomplete means partial or mismatched delivery; pacing should tighten.
	ClassIncomplete
	// ClassUnrecognized means there is not enough evidence to blame pacing.
	ClassUnrecognized
)

// String returns a human-readable representation of the class.
func (c Class) String() string {
	switch c {
	case ClassValidated:
		return "validated"
	case ClassIncomplete:
		return "incomplete"
	case ClassUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Parse decodes raw status bytes. NUL padding and surrounding whitespace are
// stripped and invalid UTF-8 is dropped before tokens are extracted.
func Parse(raw []byte) domain.TransferStatus {
	text := strings.ToValidUTF8(string(raw), "")
	text = strings.TrimRight(text, "\x00")
	text = strings.TrimSpace(text)

	st := domain.TransferStatus{Raw: text}

	for _, tok := range successTokens {
		if strings.Contains(text, tok) {
			st.Done = true
			break
		}
	}

	lower := strings.ToLower(text)
	st.Mismatch = strings.Contains(lower, "mismatch")

	if m := bytesPattern.FindStringSubmatch(text); m != nil {
		a, errA := strconv.Atoi(m[1])
		b, errB := strconv.Atoi(m[2])
		if errA == nil && errB == nil {
			st.BytesReceived, st.BytesExpected, st.HasProgress = a, b, true
		}
	}

	if m := filePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			st.FileSize, st.HasFileSize = n, true
		}
	}

	return st
}

// Validated reports whether st confirms delivery of exactly total bytes.
// The first matching rule wins:
//  1. a success token
//  2. bytes=<a>/<b>, true iff a == b == total
//  3. file=<n>, true iff n == total
//  4. otherwise false
func Validated(st domain.TransferStatus, total int) bool {
	switch {
	case st.Done:
		return true
	case st.HasProgress:
		return st.BytesReceived == st.BytesExpected && st.BytesExpected == total
	case st.HasFileSize:
		return st.FileSize == total
	default:
		return false
	}
}

// Classify maps a status to the controller's next step.
func Classify(st domain.TransferStatus, total int) Class {
	if Validated(st, total) {
		return ClassValidated
	}
	if st.Mismatch || st.Incomplete() {
		return ClassIncomplete
	}
	return ClassUnrecognized
}

// Err returns the domain error matching a class, or nil for ClassValidated.
func (c Class) Err() error {
	switch c {
	case ClassIncomplete:
		return domain.ErrProtocolIncomplete
	case ClassUnrecognized:
		return domain.ErrProtocolUnrecognized
	default:
		return nil
	}
}
