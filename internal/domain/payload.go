package domain

// Payload is the immutable blob delivered to the peripheral.
// It is created once before a run and shared read-only with every attempt.
type Payload struct {
	data []byte
}

// NewPayload copies b into a new Payload.
func NewPayload(b []byte) Payload {
	data := make([]byte, len(b))
	copy(data, b)
	return Payload{data: data}
}

// Len returns the total number of bytes.
func (p Payload) Len() int {
	return len(p.data)
}

// Empty returns true if the payload has no bytes.
func (p Payload) Empty() bool {
	return len(p.data) == 0
}

// Chunk returns the slice [offset, offset+size) clamped to the payload end.
// The returned slice aliases the payload and must not be modified.
func (p Payload) Chunk(offset, size int) []byte {
	if offset >= len(p.data) || size <= 0 {
		return nil
	}
	end := offset + size
	if end > len(p.data) {
		end = len(p.data)
	}
	return p.data[offset:end:end]
}

// Bytes returns a copy of the payload contents.
func (p Payload) Bytes() []byte {
	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out
}
