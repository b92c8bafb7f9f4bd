package domain

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFaultError_MatchesTransportFault(t *testing.T) {
	err := error(&FaultError{Phase: "stream", Sent: 480, Err: io.ErrUnexpectedEOF})

	if !errors.Is(err, ErrTransportFault) {
		t.Error("FaultError should match ErrTransportFault")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("FaultError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "after 480 bytes") {
		t.Errorf("stream fault message missing offset: %s", err)
	}

	var fe *FaultError
	if !errors.As(err, &fe) || fe.Phase != "stream" {
		t.Errorf("errors.As failed or wrong phase: %+v", fe)
	}
}

func TestExhaustedError(t *testing.T) {
	cause := &FaultError{Phase: "connect", Err: ErrConnectTimeout}
	err := error(&ExhaustedError{Attempts: 6, LastCause: cause})

	if !errors.Is(err, ErrExhaustedAttempts) {
		t.Error("ExhaustedError should match ErrExhaustedAttempts")
	}
	if !errors.Is(err, ErrConnectTimeout) {
		t.Error("ExhaustedError should unwrap through the last cause")
	}

	withStatus := &ExhaustedError{Attempts: 2, LastStatus: "bytes=10/20"}
	if !strings.Contains(withStatus.Error(), `"bytes=10/20"`) {
		t.Errorf("message = %s", withStatus.Error())
	}
}

func TestOutcomeConstructors(t *testing.T) {
	st := TransferStatus{Raw: "OK:rx_done", Done: true}

	if o := Validated(st, 240); o.Kind != OutcomeValidated || o.Status.Raw != st.Raw || o.Chunk != 240 {
		t.Errorf("Validated() = %+v", o)
	}
	if o := NotValidated(st, 182); o.Kind != OutcomeNotValidated || o.Chunk != 182 {
		t.Errorf("NotValidated() = %+v", o)
	}
	if o := TransportFault(io.EOF); o.Kind != OutcomeTransportFault || o.Err != io.EOF {
		t.Errorf("TransportFault() = %+v", o)
	}
	if OutcomeKind(9).String() != "Unknown" {
		t.Error("unknown kind should stringify as Unknown")
	}
}
