package domain

// TransferStatus is the parsed result of one status channel read.
// It is created fresh per read and never modified afterwards.
type TransferStatus struct {
	// Raw is the decoded text with padding and surrounding whitespace removed.
	Raw string

	// Done is set when an explicit success token is present.
	Done bool

	// Mismatch is set when an explicit mismatch marker is present.
	Mismatch bool

	// BytesReceived and BytesExpected come from a bytes=<a>/<b> token.
	// They are only meaningful when HasProgress is true.
	BytesReceived int
	BytesExpected int
	HasProgress   bool

	// FileSize comes from a file=<n> token; only meaningful when HasFileSize is true.
	FileSize    int
	HasFileSize bool
}

// Incomplete reports whether the peripheral announced fewer bytes than it expected.
func (s TransferStatus) Incomplete() bool {
	return s.HasProgress && s.BytesReceived < s.BytesExpected
}
