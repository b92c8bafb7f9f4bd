package ports

import (
	"context"

	"github.com/gifcase/gifship/internal/domain"
)

// Transport opens connections to a peripheral.
// Discovery and pairing happen outside; Connect receives an identifier the
// caller already knows (for BLE, the device address).
type Transport interface {
	// Connect establishes a connection. It must honour ctx cancellation and
	// deadline; the caller bounds it with a connect timeout.
	Connect(ctx context.Context, id string) (Handle, error)
}

// Handle is one open connection. It is owned by a single attempt and never
// reused after Disconnect.
type Handle interface {
	// Write sends p on the channel. ack selects an acknowledged write
	// (write-with-response) over a fire-and-forget one.
	Write(ctx context.Context, ch domain.Channel, p []byte, ack bool) error

	// Read pulls the current value of the channel.
	Read(ctx context.Context, ch domain.Channel) ([]byte, error)

	// Subscribe registers onData for push notifications on the channel.
	// Implementations without notification support return an error.
	Subscribe(ch domain.Channel, onData func([]byte)) error

	// MTU returns the negotiated link MTU, or 0 if unknown.
	MTU() int

	// Disconnect releases the connection.
	Disconnect() error
}
