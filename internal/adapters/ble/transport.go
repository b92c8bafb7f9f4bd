// Package ble implements ports.Transport over a GATT connection using
// tinygo.org/x/bluetooth. The peripheral exposes one service with control,
// data and status characteristics.
package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/gifcase/gifship/internal/domain"
	"github.com/gifcase/gifship/internal/ports"
)

// Default GATT identifiers of the receiving firmware.
const (
	DefaultServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	DefaultControlUUID = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	DefaultDataUUID    = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
	DefaultStatusUUID  = "6e400004-b5a3-f393-e0a9-e50e24dcca9e"
)

// statusReadSize is large enough for any status line the firmware produces.
const statusReadSize = 512

// ErrNotFound is returned when the service or a characteristic is missing.
var ErrNotFound = errors.New("ble: gatt attribute not found")

// Config names the GATT service and characteristics.
type Config struct {
	ServiceUUID string
	ControlUUID string
	DataUUID    string
	StatusUUID  string
}

// DefaultConfig returns the firmware's UUIDs.
func DefaultConfig() Config {
	return Config{
		ServiceUUID: DefaultServiceUUID,
		ControlUUID: DefaultControlUUID,
		DataUUID:    DefaultDataUUID,
		StatusUUID:  DefaultStatusUUID,
	}
}

type uuids struct {
	service bluetooth.UUID
	chars   map[domain.Channel]bluetooth.UUID
}

func (c Config) parse() (uuids, error) {
	var u uuids
	var err error
	if u.service, err = bluetooth.ParseUUID(c.ServiceUUID); err != nil {
		return uuids{}, fmt.Errorf("%w: service uuid %q: %v", domain.ErrInvalidConfig, c.ServiceUUID, err)
	}
	u.chars = make(map[domain.Channel]bluetooth.UUID, 3)
	for ch, s := range map[domain.Channel]string{
		domain.ChannelControl: c.ControlUUID,
		domain.ChannelData:    c.DataUUID,
		domain.ChannelStatus:  c.StatusUUID,
	} {
		id, err := bluetooth.ParseUUID(s)
		if err != nil {
			return uuids{}, fmt.Errorf("%w: %s uuid %q: %v", domain.ErrInvalidConfig, ch, s, err)
		}
		u.chars[ch] = id
	}
	return u, nil
}

// Transport connects to the peripheral through a host Bluetooth adapter.
type Transport struct {
	adapter *bluetooth.Adapter
	ids     uuids
	logger  ports.Logger

	enableOnce sync.Once
	enableErr  error
}

var _ ports.Transport = (*Transport)(nil)

// New creates a transport. The adapter is enabled on first Connect.
func New(adapter *bluetooth.Adapter, cfg Config, logger ports.Logger) (*Transport, error) {
	ids, err := cfg.parse()
	if err != nil {
		return nil, err
	}
	return &Transport{adapter: adapter, ids: ids, logger: logger}, nil
}

// Connect opens a GATT connection to the device with the given address and
// discovers the transfer characteristics.
func (t *Transport) Connect(ctx context.Context, id string) (ports.Handle, error) {
	t.enableOnce.Do(func() { t.enableErr = t.adapter.Enable() })
	if t.enableErr != nil {
		return nil, fmt.Errorf("enable adapter: %w", t.enableErr)
	}

	if _, err := bluetooth.ParseMAC(id); err != nil {
		return nil, fmt.Errorf("%w: device address %q: %v", domain.ErrInvalidConfig, id, err)
	}
	var addr bluetooth.Address
	addr.Set(id)

	params := bluetooth.ConnectionParams{}
	if deadline, ok := ctx.Deadline(); ok {
		params.ConnectionTimeout = bluetooth.NewDuration(time.Until(deadline))
	}

	type result struct {
		device bluetooth.Device
		err    error
	}
	done := make(chan result, 1)
	go func() {
		d, err := t.adapter.Connect(addr, params)
		done <- result{device: d, err: err}
	}()

	var device bluetooth.Device
	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		device = r.device
	case <-ctx.Done():
		// Release a connection that completes after we gave up.
		go func() {
			if r := <-done; r.err == nil {
				_ = r.device.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}

	h, err := t.discover(device)
	if err != nil {
		_ = device.Disconnect()
		return nil, err
	}

	t.logger.Debug("gatt connected", ports.String("device", id), ports.Int("mtu", h.MTU()))
	return h, nil
}

func (t *Transport) discover(device bluetooth.Device) (*handle, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{t.ids.service})
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("%w: service %s", ErrNotFound, t.ids.service)
	}

	want := []bluetooth.UUID{
		t.ids.chars[domain.ChannelControl],
		t.ids.chars[domain.ChannelData],
		t.ids.chars[domain.ChannelStatus],
	}
	chars, err := services[0].DiscoverCharacteristics(want)
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}

	h := &handle{device: device, chars: make(map[domain.Channel]bluetooth.DeviceCharacteristic, 3)}
	for _, c := range chars {
		for ch, id := range t.ids.chars {
			if c.UUID() == id {
				h.chars[ch] = c
			}
		}
	}
	for ch, id := range t.ids.chars {
		if _, ok := h.chars[ch]; !ok {
			return nil, fmt.Errorf("%w: %s characteristic %s", ErrNotFound, ch, id)
		}
	}
	return h, nil
}

type handle struct {
	device bluetooth.Device
	chars  map[domain.Channel]bluetooth.DeviceCharacteristic

	mu     sync.Mutex
	closed bool
}

func (h *handle) char(ch domain.Channel) (bluetooth.DeviceCharacteristic, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return bluetooth.DeviceCharacteristic{}, errors.New("ble: handle disconnected")
	}
	return h.chars[ch], nil
}

func (h *handle) Write(ctx context.Context, ch domain.Channel, p []byte, ack bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := h.char(ch)
	if err != nil {
		return err
	}
	if ack {
		_, err = c.Write(p)
	} else {
		_, err = c.WriteWithoutResponse(p)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", ch, err)
	}
	return nil
}

func (h *handle) Read(ctx context.Context, ch domain.Channel) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := h.char(ch)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, statusReadSize)
	n, err := c.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ch, err)
	}
	return buf[:n], nil
}

func (h *handle) Subscribe(ch domain.Channel, onData func([]byte)) error {
	c, err := h.char(ch)
	if err != nil {
		return err
	}
	return c.EnableNotifications(func(b []byte) {
		onData(append([]byte(nil), b...))
	})
}

// MTU returns the negotiated ATT MTU, or 0 when the stack does not report it.
func (h *handle) MTU() int {
	c, err := h.char(domain.ChannelData)
	if err != nil {
		return 0
	}
	mtu, err := c.GetMTU()
	if err != nil {
		return 0
	}
	return int(mtu)
}

func (h *handle) Disconnect() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()
	return h.device.Disconnect()
}
