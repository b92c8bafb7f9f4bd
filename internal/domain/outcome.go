package domain

// OutcomeKind tags an AttemptOutcome.
type OutcomeKind int

const (
	OutcomeTransportFault OutcomeKind = iota
	OutcomeNotValidated
	OutcomeValidated
)

// String returns a human-readable representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeTransportFault:
		return "TransportFault"
	case OutcomeNotValidated:
		return "NotValidated"
	case OutcomeValidated:
		return "Validated"
	default:
		return "Unknown"
	}
}

// AttemptOutcome is the result of one connect→stream→finalize→validate attempt.
// Status and Chunk are set for Validated and NotValidated; Err is set for
// TransportFault.
type AttemptOutcome struct {
	Kind   OutcomeKind
	Status TransferStatus
	Err    error

	// Chunk is the data write size actually used, after any MTU cap.
	Chunk int
}

// Validated builds an outcome for a confirmed transfer streamed in chunk-byte writes.
func Validated(status TransferStatus, chunk int) AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeValidated, Status: status, Chunk: chunk}
}

// NotValidated builds an outcome for a transfer the peripheral did not confirm.
func NotValidated(status TransferStatus, chunk int) AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeNotValidated, Status: status, Chunk: chunk}
}

// TransportFault builds an outcome for a connection, write or read failure.
func TransportFault(err error) AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeTransportFault, Err: err}
}
