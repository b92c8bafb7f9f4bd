// Package domain contains the core entities and value objects for gifship.
//
// This package is the innermost layer. It has no dependencies on transports,
// the file system or logging and holds only the transfer vocabulary.
//
// # Entities
//
//   - [Payload]: the immutable blob being delivered
//   - [TransferStatus]: one parsed read of the peripheral's status channel
//   - [AttemptOutcome]: the tagged result of a single transfer attempt
//   - [RunReport]: diagnostic summary of a finished run
//
// # Channels and commands
//
// The peripheral exposes three logical [Channel] values. Control commands are
// short ASCII strings; see [StartCommand] and the Cmd constants.
package domain
