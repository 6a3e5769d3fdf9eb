package connection

// State represents the connection state of a telemetry service.
// Uninitialized, Waking and Authenticating precede Ready; Disconnected is
// entered only from Authenticating.
type State uint8

const (
	// StateUninitialized indicates no connection has been requested.
	StateUninitialized State = iota

	// StateWaking indicates the collector's liveness endpoint is being probed.
	StateWaking

	// StateAuthenticating indicates a session is being requested.
	StateAuthenticating

	// StateReady indicates a session key is known and events can be sent.
	StateReady

	// StateDisconnected indicates authentication failed.
	StateDisconnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateWaking:
		return "WAKING"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateReady:
		return "READY"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// IsReady returns true once a session has been established.
func (s State) IsReady() bool {
	return s == StateReady
}
