package pacing

import (
	"errors"
	"testing"
	"time"

	"github.com/gifcase/gifship/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if p.ChunkSize != 240 {
		t.Errorf("default chunk = %d, want 240", p.ChunkSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"zero chunk", func(p *Policy) { p.ChunkSize = 0 }},
		{"chunk above max", func(p *Policy) { p.ChunkSize = MaxChunk + 1 }},
		{"zero yield", func(p *Policy) { p.YieldEveryWrites = 0 }},
		{"zero breather interval", func(p *Policy) { p.BreatherEveryBytes = 0 }},
		{"negative breather", func(p *Policy) { p.BreatherSleep = -time.Millisecond }},
		{"cap below breather", func(p *Policy) { p.MaxBreatherSleep = p.BreatherSleep - time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			if err := p.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestTighten_WalksLadder(t *testing.T) {
	p := Default()

	want := []int{200, 160, 120}
	for i, w := range want {
		ch := p.Tighten()
		if p.ChunkSize != w {
			t.Fatalf("step %d: chunk = %d, want %d", i, p.ChunkSize, w)
		}
		if !ch.Changed() || ch.BreatherSleep != ch.PrevBreatherSleep {
			t.Errorf("step %d: change = %+v, want chunk-only change", i, ch)
		}
	}
	if !p.AtFloor() {
		t.Error("expected policy at floor")
	}
}

func TestTighten_MonotonicAndIdempotentAtFloor(t *testing.T) {
	p := Default()
	prevChunk := p.ChunkSize
	prevSleep := p.BreatherSleep

	for i := 0; i < 50; i++ {
		p.Tighten()

		if p.ChunkSize > prevChunk {
			t.Fatalf("iteration %d: chunk grew from %d to %d", i, prevChunk, p.ChunkSize)
		}
		if p.ChunkSize < MinChunk {
			t.Fatalf("iteration %d: chunk %d below floor", i, p.ChunkSize)
		}
		if p.BreatherSleep < prevSleep {
			t.Fatalf("iteration %d: breather shrank from %s to %s", i, prevSleep, p.BreatherSleep)
		}
		if p.BreatherSleep > p.MaxBreatherSleep {
			t.Fatalf("iteration %d: breather %s above cap", i, p.BreatherSleep)
		}
		if prevChunk > MinChunk && p.BreatherSleep != prevSleep {
			t.Fatalf("iteration %d: breather changed before floor", i)
		}
		prevChunk, prevSleep = p.ChunkSize, p.BreatherSleep
	}

	if p.ChunkSize != MinChunk {
		t.Errorf("final chunk = %d, want %d", p.ChunkSize, MinChunk)
	}
	if p.BreatherSleep != p.MaxBreatherSleep {
		t.Errorf("final breather = %s, want cap %s", p.BreatherSleep, p.MaxBreatherSleep)
	}

	if ch := p.Tighten(); ch.Changed() {
		t.Errorf("tightening at floor and cap should be a no-op, got %+v", ch)
	}
}

func TestTighten_FromOffLadderChunk(t *testing.T) {
	tests := []struct {
		start int
		want  int
	}{
		{230, 200},
		{200, 160},
		{130, 120},
		{100, 100},
	}

	for _, tt := range tests {
		p := Default()
		p.ChunkSize = tt.start
		p.Tighten()
		if p.ChunkSize != tt.want {
			t.Errorf("Tighten from %d: chunk = %d, want %d", tt.start, p.ChunkSize, tt.want)
		}
	}
}

func TestTightenFrom_StepsBelowWireChunk(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		wire      int
		wantPrev  int
		wantChunk int
	}{
		{"mtu capped at 182", 240, 182, 182, 160},
		{"mtu capped at 200", 240, 200, 200, 160},
		{"no cap", 240, 0, 240, 200},
		{"wire above policy", 160, 182, 160, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			p.ChunkSize = tt.start
			ch := p.TightenFrom(tt.wire)
			if ch.PrevChunkSize != tt.wantPrev || ch.ChunkSize != tt.wantChunk {
				t.Errorf("change = %+v, want %d -> %d", ch, tt.wantPrev, tt.wantChunk)
			}
			if p.ChunkSize != tt.wantChunk {
				t.Errorf("chunk = %d, want %d", p.ChunkSize, tt.wantChunk)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	p := Default()
	if p.Clamp(0) || p.Clamp(300) || p.ChunkSize != MaxChunk {
		t.Fatalf("zero or larger limit must not change chunk, got %d", p.ChunkSize)
	}
	if !p.Clamp(182) || p.ChunkSize != 182 {
		t.Errorf("chunk = %d, want 182", p.ChunkSize)
	}
}

func TestEffectiveChunk(t *testing.T) {
	tests := []struct {
		name  string
		chunk int
		mtu   int
		want  int
	}{
		{"unknown mtu", 240, 0, 240},
		{"default att mtu treated as unknown", 240, 23, 240},
		{"small negotiated mtu", 240, 100, 97},
		{"large mtu capped by policy", 240, 517, 240},
		{"tightened policy below mtu", 160, 247, 160},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			p.ChunkSize = tt.chunk
			if got := p.EffectiveChunk(tt.mtu); got != tt.want {
				t.Errorf("EffectiveChunk(%d) = %d, want %d", tt.mtu, got, tt.want)
			}
		})
	}
}
