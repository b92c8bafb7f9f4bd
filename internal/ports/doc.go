// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// The application core (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with concrete technology:
// BLE GATT, an in-process simulated peripheral, JSON files, zerolog.
//
// # Port Interfaces
//
//   - [Transport]: opens a connection to the peripheral
//   - [Handle]: one open connection exposing the control, data and status channels
//   - [ReportRepository]: persists the diagnostic report of a run
//   - [Logger]: structured logging abstraction
package ports
