// Package connection provides the connection lifecycle pieces of the
// telemetry service.
//
// This package handles:
//   - The service state model (Uninitialized → Waking → Authenticating → Ready)
//   - Retry delays for the wake probe
//   - The wake loop against a collector that may be asleep
//
// # Wake Strategy
//
// A collector hosted on a sleeping platform may take arbitrarily long to cold
// start. The client probes the liveness endpoint until any probe succeeds:
//
//  1. Probe the liveness endpoint
//  2. On failure wait the retry delay (1 second, fixed)
//  3. Repeat until a probe succeeds or the context is cancelled
//
// The loop is uncapped. Authentication failures are not retried
// here; they leave the service Disconnected until it is requested again.
package connection
