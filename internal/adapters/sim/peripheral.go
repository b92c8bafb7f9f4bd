// Package sim provides an in-process peripheral that speaks the gifship
// control/data/status protocol. It backs the --simulate CLI mode and the
// end-to-end tests, and can inject connect, write and delivery faults.
package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/ports"
)

// ErrDisconnected is returned by a handle used after Disconnect.
var ErrDisconnected = errors.New("sim: disconnected")

// Write records one write seen by the peripheral.
type Write struct {
	Connection int
	Channel    domain.Channel
	Data       []byte
	Ack        bool
}

// Option configures a Peripheral.
type Option func(*Peripheral)

// WithConnectError makes Connect fail whenever fn returns a non-nil error.
// fn receives the 1-based connection number.
func WithConnectError(fn func(conn int) error) Option {
	return func(p *Peripheral) { p.connectErr = fn }
}

// WithWriteError makes data writes fail. fn receives the connection number and
// the 0-based chunk index within that connection.
func WithWriteError(fn func(conn, chunk int) error) Option {
	return func(p *Peripheral) { p.writeErr = fn }
}

// WithDrop silently discards data chunks for which fn returns true.
func WithDrop(fn func(conn, chunk int) bool) Option {
	return func(p *Peripheral) { p.drop = fn }
}

// WithStatus overrides the status text returned by reads.
func WithStatus(fn func(s State) string) Option {
	return func(p *Peripheral) { p.statusFn = fn }
}

// WithMTU sets the MTU reported by handles.
func WithMTU(mtu int) Option {
	return func(p *Peripheral) { p.mtu = mtu }
}

// WithPadding NUL-pads status reads to n bytes, as GATT characteristics often are.
func WithPadding(n int) Option {
	return func(p *Peripheral) { p.padding = n }
}

// State is a snapshot of the peripheral's receive state.
type State struct {
	Connection int
	Expected   int
	Received   int
	Stored     int
	Ended      bool
	InfoCount  int
}

// Peripheral simulates the receiving device.
type Peripheral struct {
	mu sync.Mutex

	connectErr func(conn int) error
	writeErr   func(conn, chunk int) error
	drop       func(conn, chunk int) bool
	statusFn   func(s State) string
	mtu        int
	padding    int

	connections int
	open        int
	writes      []Write
	rx          []byte
	expected    int
	ended       bool
	infos       int
	stored      []byte
	replays     int
	chunkIndex  int
}

var _ ports.Transport = (*Peripheral)(nil)

// New creates a simulated peripheral.
func New(opts ...Option) *Peripheral {
	p := &Peripheral{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect opens a new simulated connection.
func (p *Peripheral) Connect(ctx context.Context, id string) (ports.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.connections++
	conn := p.connections
	if p.connectErr != nil {
		if err := p.connectErr(conn); err != nil {
			return nil, err
		}
	}
	p.open++
	p.chunkIndex = 0
	return &handle{p: p, conn: conn, id: id}, nil
}

// Connections returns how many connections were attempted.
func (p *Peripheral) Connections() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connections
}

// Open returns the number of connections not yet disconnected.
func (p *Peripheral) Open() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Writes returns every write seen, in order.
func (p *Peripheral) Writes() []Write {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Write(nil), p.writes...)
}

// Commands returns control-channel commands of a connection (0 for all).
func (p *Peripheral) Commands(conn int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, w := range p.writes {
		if w.Channel == domain.ChannelControl && (conn == 0 || w.Connection == conn) {
			out = append(out, string(w.Data))
		}
	}
	return out
}

// DataWrites returns data-channel writes of a connection (0 for all).
func (p *Peripheral) DataWrites(conn int) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out [][]byte
	for _, w := range p.writes {
		if w.Channel == domain.ChannelData && (conn == 0 || w.Connection == conn) {
			out = append(out, w.Data)
		}
	}
	return out
}

// Stored returns the last completely received file.
func (p *Peripheral) Stored() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.stored...)
}

// Replays returns how many REPLAY commands were received.
func (p *Peripheral) Replays() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.replays
}

func (p *Peripheral) state(conn int) State {
	return State{
		Connection: conn,
		Expected:   p.expected,
		Received:   len(p.rx),
		Stored:     len(p.stored),
		Ended:      p.ended,
		InfoCount:  p.infos,
	}
}

// defaultStatus mirrors the firmware: progress while receiving, and the file
// size once an INFO snapshot has been requested.
func defaultStatus(s State) string {
	if s.Ended && s.Received != s.Expected {
		return fmt.Sprintf("ERR:mismatch bytes=%d/%d", s.Received, s.Expected)
	}
	return fmt.Sprintf("bytes=%d/%d", s.Received, s.Expected)
}

type handle struct {
	p        *Peripheral
	conn     int
	id       string
	closed   bool
	onStatus func([]byte)
}

func (h *handle) Write(ctx context.Context, ch domain.Channel, b []byte, ack bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Notifications are delivered after the lock is released.
	var note []byte
	var notify func([]byte)
	defer func() {
		if notify != nil {
			notify(note)
		}
	}()

	p := h.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if h.closed {
		return ErrDisconnected
	}

	data := append([]byte(nil), b...)

	switch ch {
	case domain.ChannelData:
		idx := p.chunkIndex
		p.chunkIndex++
		if p.writeErr != nil {
			if err := p.writeErr(h.conn, idx); err != nil {
				return err
			}
		}
		p.writes = append(p.writes, Write{Connection: h.conn, Channel: ch, Data: data, Ack: ack})
		if p.drop != nil && p.drop(h.conn, idx) {
			return nil
		}
		p.rx = append(p.rx, data...)

	case domain.ChannelControl:
		p.writes = append(p.writes, Write{Connection: h.conn, Channel: ch, Data: data, Ack: ack})
		if p.control(string(data)) && h.onStatus != nil {
			note, notify = p.statusText(h.conn), h.onStatus
		}

	default:
		return fmt.Errorf("sim: channel %s is not writable", ch)
	}
	return nil
}

// control applies a command to the receive state and reports whether the
// status changed in a way the firmware notifies. Caller holds p.mu.
func (p *Peripheral) control(cmd string) bool {
	if n, ok := domain.ParseStartCommand([]byte(cmd)); ok {
		p.expected = n
		p.rx = p.rx[:0]
		p.ended = false
		return false
	}

	switch strings.TrimSpace(cmd) {
	case domain.CmdEnd:
		p.ended = true
		if len(p.rx) == p.expected {
			p.stored = append(p.stored[:0], p.rx...)
		}
	case domain.CmdInfo:
		p.infos++
	case domain.CmdReplay:
		p.replays++
		return false
	case domain.CmdClear:
		p.stored = p.stored[:0]
		p.rx = p.rx[:0]
		p.expected = 0
		p.ended = false
		return false
	default:
		return false
	}
	return true
}

func (h *handle) Read(ctx context.Context, ch domain.Channel) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ch != domain.ChannelStatus {
		return nil, fmt.Errorf("sim: channel %s is not readable", ch)
	}

	p := h.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if h.closed {
		return nil, ErrDisconnected
	}

	return p.statusText(h.conn), nil
}

// statusText renders the padded status characteristic. Caller holds p.mu.
func (p *Peripheral) statusText(conn int) []byte {
	fn := p.statusFn
	if fn == nil {
		fn = defaultStatus
	}
	text := []byte(fn(p.state(conn)))
	if len(text) < p.padding {
		text = append(text, make([]byte, p.padding-len(text))...)
	}
	return text
}

// Subscribe delivers the status after END and INFO, on the writer's goroutine.
func (h *handle) Subscribe(ch domain.Channel, onData func([]byte)) error {
	if ch != domain.ChannelStatus {
		return fmt.Errorf("sim: channel %s does not notify", ch)
	}

	h.p.mu.Lock()
	defer h.p.mu.Unlock()
	if h.closed {
		return ErrDisconnected
	}
	h.onStatus = onData
	return nil
}

func (h *handle) MTU() int {
	return h.p.mtu
}

func (h *handle) Disconnect() error {
	p := h.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	p.open--
	return nil
}
