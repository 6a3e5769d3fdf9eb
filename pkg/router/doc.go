// Package router is the public logging surface of the telemetry pipeline.
//
// A host application places one Logger in each of its contexts (scenes,
// screens, subsystems) and logs through the Router, which picks the right
// logger for the context the event came from:
//
//  1. the logger cached for that context,
//  2. any other live logger created in that context,
//  3. a logger returned by the host's Finder,
//  4. the earliest registered logger of some other context.
//
// The last step mis-attributes the event's section and is reported as a
// warning. Logging with no logger anywhere is reported as an error and
// otherwise ignored. Logging never returns an error and never panics.
//
// Loggers connect lazily. The first Log, ChangeSection or Awake call
// obtains the Service for the logger's settings from the service.Registry.
package router
