// Package gifship delivers a binary payload, typically an animated GIF, to a
// BLE peripheral and only reports success once the peripheral confirms it
// received every byte.
//
// # Basic Usage
//
//	s, err := gifship.New(gifship.Config{DeviceID: "D0:CF:13:08:90:D9"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := s.ShipFile(ctx, "cat.gif")
//	if err != nil {
//	    log.Fatalf("transfer failed after %d attempts: %v", res.Attempts, err)
//	}
//
// # Protocol
//
// Each attempt connects, sends START:<n> on the control channel, streams the
// payload in chunks on the data channel, sends END and reads the status
// channel. A status is accepted when it reports OK:rx_done, OK:rx_done_auto,
// bytes=n/n or file=n for the payload length n. An accepted transfer is
// followed by REPLAY.
//
// # Retries
//
// Transport faults back off linearly (BaseDelay * attempt) without changing
// pacing. An unconfirmed transfer whose status shows partial or mismatched
// delivery tightens pacing one step down the 240, 200, 160, 120 chunk ladder,
// then lengthens the breather pause. Tightening lasts for the rest of the Ship
// call; the next call starts from Config.Pacing again.
//
// # Event Handling
//
// Implement [EventHandler] (or embed [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe phases, progress, attempts and pacing changes.
// Events are called synchronously from the transfer goroutine.
//
// # Testing
//
// [WithTransport] replaces the BLE transport, for example with the in-process
// simulated peripheral used by the gifship CLI's --simulate mode.
package gifship
