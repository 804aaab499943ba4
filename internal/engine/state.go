package engine

// State is the session's top-level phase (§3, §4.5).
type State int

const (
	StateEncryptionHandshake State = iota
	StateAuthentication
	StateRegistering
	StateArenaLogin
	StateMapDownload
	StatePlaying
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateEncryptionHandshake:
		return "EncryptionHandshake"
	case StateAuthentication:
		return "Authentication"
	case StateRegistering:
		return "Registering"
	case StateArenaLogin:
		return "ArenaLogin"
	case StateMapDownload:
		return "MapDownload"
	case StatePlaying:
		return "Playing"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}
