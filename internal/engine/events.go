package engine

import (
	"github.com/subspace-go/client/internal/clock"
	"github.com/subspace-go/client/internal/mapcache"
	"github.com/subspace-go/client/internal/message"
)

// Event is the interface satisfied by every typed event the Session hands
// to an embedder. Game-simulation concerns (physics, combat, prize
// handling) are explicitly out of scope (§1 Non-goals); the engine's job
// ends at surfacing these in typed form.
type Event interface {
	isEvent()
}

// StateChanged fires on every state machine transition (§4.5).
type StateChanged struct {
	From, To State
}

func (StateChanged) isEvent() {}

// LoggedIn fires once the server's PasswordResponse is accepted.
type LoggedIn struct {
	Response message.PasswordResponse
}

func (LoggedIn) isEvent() {}

// LoginFailed fires when the server rejects the login attempt.
type LoginFailed struct {
	Response message.PasswordResponse
}

func (LoginFailed) isEvent() {}

// ArenaSettingsReceived fires when a new settings record arrives.
type ArenaSettingsReceived struct {
	Settings *message.ArenaSettings
}

func (ArenaSettingsReceived) isEvent() {}

// MapReady fires once the arena's map has been resolved, either from the
// disk cache or a freshly inflated download.
type MapReady struct {
	Map *mapcache.Map
}

func (MapReady) isEvent() {}

// PlayerEntered fires for each newly seen player. If a stale entry occupied
// the same id, PlayerLeft fires first per the §4.8 id-collision rule.
type PlayerEntered struct {
	Player *message.Player
}

func (PlayerEntered) isEvent() {}

// PlayerLeft fires when a player's slot is vacated, explicitly or via
// eviction.
type PlayerLeft struct {
	Player *message.Player
}

func (PlayerLeft) isEvent() {}

// PlayerMoved fires on an accepted position update (timestamp strictly
// newer than the stored one, §4.8).
type PlayerMoved struct {
	Player *message.Player
}

func (PlayerMoved) isEvent() {}

// ChatReceived fires for every inbound chat message.
type ChatReceived struct {
	Kind   message.ChatKind
	Sound  uint8
	Target message.PlayerID
	Text   string
}

func (ChatReceived) isEvent() {}

// SecurityChallenge fires when the server asks for a synchronization
// response; the embedder need not act, the Session answers it directly, but
// the event lets callers observe challenge timing.
type SecurityChallenge struct {
	Challenge message.SynchronizationRequest
	ServerNow clock.ServerTick
}

func (SecurityChallenge) isEvent() {}

// Disconnected fires once when the connection is torn down, successfully or
// otherwise.
type Disconnected struct {
	Err error
}

func (Disconnected) isEvent() {}
