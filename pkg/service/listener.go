package service

// Listener is notified about the outcome of connection attempts.
// Calls are made from the service worker, never with service locks held.
type Listener interface {
	// ConnectionSucceeded is called with the session index once READY.
	ConnectionSucceeded(sessionIndex int)

	// ConnectionFailed is called with a human-readable reason when
	// authentication fails.
	ConnectionFailed(reason string)
}

// Requester is a logger asking a Service for a connection.
type Requester interface {
	Listener

	// Section is the requester's current section label.
	Section() string
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
// Use it by pointer so listeners can be removed again.
type ListenerFuncs struct {
	Succeeded func(sessionIndex int)
	Failed    func(reason string)
}

// ConnectionSucceeded calls f.Succeeded.
func (f *ListenerFuncs) ConnectionSucceeded(sessionIndex int) {
	if f.Succeeded != nil {
		f.Succeeded(sessionIndex)
	}
}

// ConnectionFailed calls f.Failed.
func (f *ListenerFuncs) ConnectionFailed(reason string) {
	if f.Failed != nil {
		f.Failed(reason)
	}
}

// Compile-time interface satisfaction check.
var _ Listener = (*ListenerFuncs)(nil)
