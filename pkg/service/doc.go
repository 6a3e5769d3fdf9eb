// Package service owns the connection to a telemetry collector.
//
// One Service exists per *config.Settings. It queues events from every
// logger sharing those settings and moves through a small state machine:
//
//	UNINITIALIZED -> WAKING -> AUTHENTICATING -> READY
//	                                         \-> DISCONNECTED
//
// WAKING probes the collector until it answers, one second apart, for as
// long as it takes. AUTHENTICATING exchanges the credentials for a session
// key. Events logged before READY carry a placeholder key that is patched on
// their first transmission. When networking is disabled the service goes
// straight to READY with a negative session index and an empty key and
// records events in the journal only.
//
// At most one worker goroutine runs per Service. It performs the connection
// attempt and then drains the queue at MaxLogsPerSecond. Submitting while the
// worker runs only enqueues.
//
// Example usage:
//
//	reg := service.NewRegistry(service.Options{Logger: slog.Default()})
//	defer reg.Close()
//
//	svc, err := reg.Connect(settings, logger)
//	if err != nil {
//		return err
//	}
//	svc.Submit("Level1", telemetry.New("Jump", map[string]int{"height": 2}))
package service
