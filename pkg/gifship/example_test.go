package gifship_test

import (
	"context"
	"fmt"
	"time"

	"github.com/gifcase/gifship/internal/adapters/sim"
	"github.com/gifcase/gifship/pkg/gifship"
)

// ExampleNew ships a payload to a simulated peripheral.
func ExampleNew() {
	cfg := gifship.Config{
		DeviceID:         "D0:CF:13:08:90:D9",
		PostConnectDelay: time.Millisecond,
		CommandDelay:     time.Millisecond,
		FinalizeDelay:    time.Millisecond,
		InfoDelay:        time.Millisecond,
	}

	s, err := gifship.New(cfg, gifship.WithTransport(sim.New()))
	if err != nil {
		fmt.Printf("failed to create shipper: %v\n", err)
		return
	}

	res, err := s.Ship(context.Background(), []byte("GIF89a..."))
	if err != nil {
		fmt.Printf("transfer failed: %v\n", err)
		return
	}
	fmt.Printf("delivered in %d attempt(s), status %s\n", res.Attempts, res.Status.Raw)

	// Output: delivered in 1 attempt(s), status bytes=9/9
}

type progressPrinter struct {
	gifship.BaseEventHandler
}

func (progressPrinter) OnAttemptComplete(e gifship.AttemptEvent) {
	fmt.Printf("attempt %d validated=%v\n", e.Attempt, e.Validated)
}

// Example_withEventHandler observes attempts through an EventHandler.
func Example_withEventHandler() {
	cfg := gifship.Config{
		DeviceID:         "D0:CF:13:08:90:D9",
		BaseDelay:        time.Millisecond,
		PostConnectDelay: time.Millisecond,
		CommandDelay:     time.Millisecond,
		FinalizeDelay:    time.Millisecond,
		InfoDelay:        time.Millisecond,
	}

	flaky := sim.New(sim.WithConnectError(func(conn int) error {
		if conn == 1 {
			return fmt.Errorf("device busy")
		}
		return nil
	}))

	s, err := gifship.New(cfg,
		gifship.WithTransport(flaky),
		gifship.WithEventHandler(progressPrinter{}),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	if _, err := s.Ship(context.Background(), []byte("GIF89a")); err != nil {
		fmt.Println(err)
	}

	// Output:
	// attempt 1 validated=false
	// attempt 2 validated=true
}
