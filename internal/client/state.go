package client

// State is where a Session is in its connection lifecycle.
//
//	Idle → Connecting → ConnectedUnregistered → Registered
//	ConnectedUnregistered / Registered → Disconnected → Connecting
type State int

const (
	// StateIdle means the session is not running, either never started
	// or closed.
	StateIdle State = iota

	// StateConnecting means a dial is in progress.
	StateConnecting

	// StateConnectedUnregistered means the transport is up and the
	// register request was sent but not yet confirmed.
	StateConnectedUnregistered

	// StateRegistered means the relay confirmed the registration.
	StateRegistered

	// StateDisconnected means the transport was lost or could not be
	// established; a reconnect is scheduled.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnectedUnregistered:
		return "connected"
	case StateRegistered:
		return "registered"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Connected reports whether the transport is up.
func (s State) Connected() bool {
	return s == StateConnectedUnregistered || s == StateRegistered
}

// StateEvent represents a state change.
type StateEvent struct {
	OldState State
	NewState State
	Error    error // transport error behind a move to StateDisconnected
}
