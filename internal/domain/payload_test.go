package domain

import (
	"bytes"
	"testing"
)

func TestPayload_CopiesInput(t *testing.T) {
	src := []byte("hello")
	p := NewPayload(src)
	src[0] = 'j'

	if got := string(p.Bytes()); got != "hello" {
		t.Fatalf("payload = %q, want hello", got)
	}
	if p.Len() != 5 {
		t.Errorf("Len() = %d, want 5", p.Len())
	}
}

func TestPayload_Chunk(t *testing.T) {
	p := NewPayload([]byte("0123456789"))

	tests := []struct {
		name   string
		offset int
		size   int
		want   string
	}{
		{"first chunk", 0, 4, "0123"},
		{"middle chunk", 4, 4, "4567"},
		{"short tail", 8, 4, "89"},
		{"past end", 10, 4, ""},
		{"zero size", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Chunk(tt.offset, tt.size)
			if !bytes.Equal(got, []byte(tt.want)) {
				t.Errorf("Chunk(%d, %d) = %q, want %q", tt.offset, tt.size, got, tt.want)
			}
		})
	}
}

func TestPayload_ChunkCannotGrowIntoPayload(t *testing.T) {
	p := NewPayload([]byte("abcdef"))
	c := p.Chunk(0, 2)
	c = append(c, 'X')

	if got := string(p.Bytes()); got != "abcdef" {
		t.Fatalf("append on chunk modified payload: %q", got)
	}
	_ = c
}

func TestStartCommand(t *testing.T) {
	cmd := StartCommand(5000)
	if string(cmd) != "START:5000" {
		t.Fatalf("StartCommand(5000) = %q", cmd)
	}

	n, ok := ParseStartCommand(cmd)
	if !ok || n != 5000 {
		t.Errorf("ParseStartCommand = (%d, %v), want (5000, true)", n, ok)
	}

	for _, bad := range []string{"START:", "START:x", "END", "START:-1"} {
		if _, ok := ParseStartCommand([]byte(bad)); ok {
			t.Errorf("ParseStartCommand(%q) accepted", bad)
		}
	}
}

func TestChannel_String(t *testing.T) {
	tests := []struct {
		ch   Channel
		want string
	}{
		{ChannelControl, "control"},
		{ChannelData, "data"},
		{ChannelStatus, "status"},
		{Channel(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ch.String(); got != tt.want {
			t.Errorf("Channel(%d).String() = %s, want %s", tt.ch, got, tt.want)
		}
	}
}
