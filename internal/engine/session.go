package engine

import (
	"errors"
	"fmt"

	"github.com/subspace-go/client/internal/checksum"
	"github.com/subspace-go/client/internal/clock"
	"github.com/subspace-go/client/internal/log"
	"github.com/subspace-go/client/internal/mapcache"
	"github.com/subspace-go/client/internal/message"
)

// Credentials is everything needed to authenticate once the handshake
// completes (§4.1, §C).
type Credentials struct {
	Name         string
	Password     string
	MachineID    uint32
	Timezone     uint16
	PermissionID uint32
	Registration message.RegistrationForm
}

// Session drives the state machine of §4.5 on top of a Connection,
// maintaining the player table, arena settings cache, and map cache, and
// translating wire traffic into the typed events of events.go. It is the
// engine's public surface; embedders own game-simulation concerns entirely
// outside of it (§1 Non-goals).
type Session struct {
	conn  *Connection
	maps  *mapcache.Store
	infl  mapcache.Decompressor
	creds Credentials

	players       *message.Manager
	settings      *message.ArenaSettings
	currentMap    *mapcache.Map
	mapZone       string
	selfID        message.PlayerID
	checksumKey   uint32
	events        []Event

	pendingMapFilename string
	pendingMapChecksum uint32
}

// NewSession wires a Connection to a map store and decompressor. infl may
// be nil; callers that never expect a CompressedMap payload can omit it.
func NewSession(conn *Connection, maps *mapcache.Store, infl mapcache.Decompressor) *Session {
	return &Session{
		conn:    conn,
		maps:    maps,
		infl:    infl,
		players: message.NewManager(),
		selfID:  message.InvalidPlayerID,
	}
}

func (s *Session) emit(e Event) { s.events = append(s.events, e) }

func (s *Session) transition(to State) {
	from := s.conn.state
	if from == to {
		return
	}
	s.conn.state = to
	s.emit(StateChanged{From: from, To: to})
}

// Login begins the post-handshake flow: it remembers the credentials to use
// once EncryptionResponse arrives, and sends the arena join immediately
// after login succeeds.
func (s *Session) Login(creds Credentials) {
	s.creds = creds
}

// Events drains and returns every event produced since the last call.
func (s *Session) Events() []Event {
	out := s.events
	s.events = nil
	return out
}

// Pump performs one non-blocking poll-dispatch-retransmit cycle. Callers
// loop this at their own cadence (the teacher's main loop pattern, §A).
func (s *Session) Pump(now clock.LocalTick) error {
	isFatal := func(err error) bool {
		return errors.Is(err, ErrCipherInit) || errors.Is(err, ErrLoginRejected)
	}
	before := s.conn.State()
	payload, ok, err := s.conn.PollOnce()
	if err != nil {
		s.emit(Disconnected{Err: err})
		return err
	}
	if before != StateDisconnected && s.conn.State() == StateDisconnected {
		s.emit(StateChanged{From: before, To: StateDisconnected}) // server Disconnect
		s.emit(Disconnected{})
	}
	if ok {
		if err := s.handlePayload(payload); err != nil {
			if isFatal(err) {
				return err
			}
			log.Debugf("session: dropping malformed payload: %v", err)
		}
	}
	for _, p := range s.conn.DrainProcessQueue() {
		if err := s.handlePayload(p); err != nil {
			if isFatal(err) {
				return err
			}
			log.Debugf("session: dropping malformed reassembled payload: %v", err)
		}
	}
	if err := s.conn.RetransmitTick(now); err != nil {
		s.emit(Disconnected{Err: err})
		return err
	}
	if err := s.conn.MaybeSendPositionKeepalive(); err != nil {
		return err
	}
	return nil
}

func (s *Session) handlePayload(data []byte) error {
	if message.IsCorePacket(data) {
		return s.handleCore(data)
	}
	return s.handleGame(data)
}

func (s *Session) handleCore(data []byte) error {
	subtype, err := message.CoreSubtype(data)
	if err != nil {
		return err
	}
	if subtype != message.CoreEncryptionResponse {
		return nil // every other core subtype is absorbed by Connection already
	}
	serverKey, err := message.ParseEncryptionResponse(data[2:])
	if err != nil {
		return err
	}
	from := s.conn.State()
	if err := s.conn.CompleteHandshake(serverKey); err != nil {
		s.emit(Disconnected{Err: err})
		return err
	}
	// CompleteHandshake has already moved the connection to Authentication.
	if from != StateAuthentication {
		s.emit(StateChanged{From: from, To: StateAuthentication})
	}
	frame, err := message.BuildLogin(message.LoginRequest{
		Name:         s.creds.Name,
		Password:     s.creds.Password,
		MachineID:    s.creds.MachineID,
		Timezone:     s.creds.Timezone,
		Version:      uint16(message.VersionContinuum),
		PermissionID: s.creds.PermissionID,
	})
	if err != nil {
		return err
	}
	if err := s.conn.sendRaw(frame); err != nil {
		return err
	}
	// The reference client fires its one RTT probe right after the login
	// request, with hardcoded packet counts rather than tracked totals
	// (original_source/client.rs: SyncRequestMessage::new(2, 2)).
	return s.conn.SendSync(2, 2)
}

func (s *Session) handleGame(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	kind := data[0]
	body := data[1:]

	switch kind {
	case message.S2CPasswordResponse:
		return s.handleLoginResult(body)
	case message.S2CPlayerId:
		id, err := message.ParsePlayerID(body)
		if err != nil {
			return err
		}
		s.selfID = id
		return nil
	case message.S2CPlayerEntering:
		return s.handlePlayerEntering(body)
	case message.S2CPlayerLeaving:
		id, err := message.ParsePlayerLeaving(body)
		if err != nil {
			return err
		}
		if p := s.players.Remove(id); p != nil {
			s.emit(PlayerLeft{Player: p})
		}
		return nil
	case message.S2CLargePosition:
		lp, err := message.ParseLargePosition(body)
		if err != nil {
			return err
		}
		s.applyLargePosition(lp)
		return nil
	case message.S2CSmallPosition:
		sp, err := message.ParseSmallPosition(body)
		if err != nil {
			return err
		}
		s.applySmallPosition(sp)
		return nil
	case message.S2CSendChat:
		k, sound, target, text, err := message.ParseChat(body)
		if err != nil {
			return err
		}
		s.emit(ChatReceived{Kind: k, Sound: sound, Target: target, Text: text})
		return nil
	case message.S2CArenaSettings:
		as, err := message.ParseArenaSettings(body)
		if err != nil {
			return err
		}
		s.settings = as
		s.emit(ArenaSettingsReceived{Settings: as})
		return nil
	case message.S2CMapInformation:
		return s.handleMapInformation(body)
	case message.S2CCompressedMap:
		return s.handleCompressedMap(body)
	case message.S2CArenaDirectory:
		_, err := message.ParseArenaDirectory(body)
		return err
	case message.S2CSynchronizationReq:
		return s.handleSynchronizationRequest(body)
	default:
		log.Debugf("session: unhandled game message kind %#x", kind)
		return nil
	}
}

func (s *Session) handleLoginResult(body []byte) error {
	resp, err := message.ParsePasswordResponse(body)
	if err != nil {
		return err
	}
	// Registering -> Authentication on the next PasswordResponse (§4.5),
	// before that response is itself evaluated below.
	if s.conn.State() == StateRegistering {
		s.transition(StateAuthentication)
	}
	switch resp.Response {
	case message.LoginOk:
		s.emit(LoggedIn{Response: resp})
		s.transition(StateArenaLogin)
		frame, err := message.BuildArenaJoin(message.ShipSpectator, 1024, 768, message.ArenaRequest{Kind: message.ArenaAnyPublic})
		if err != nil {
			return err
		}
		return s.conn.sendRaw(frame)
	case message.LoginUnregistered:
		s.emit(LoggedIn{Response: resp})
		if !resp.RegistrationRequest {
			return nil
		}
		s.transition(StateRegistering)
		frame, err := message.BuildRegistrationForm(s.creds.Registration)
		if err != nil {
			return err
		}
		return s.conn.sendRaw(frame)
	default:
		s.emit(LoginFailed{Response: resp})
		return fmt.Errorf("%w: %s", ErrLoginRejected, resp.Response)
	}
}

func (s *Session) handlePlayerEntering(body []byte) error {
	records, err := message.ParsePlayerEntering(body)
	if err != nil {
		return err
	}
	for _, r := range records {
		p := &message.Player{
			ID: r.ID, Name: r.Name, Squad: r.Squad, Ship: r.Ship,
			Frequency: r.Frequency, AttachParent: r.AttachParent, FlagCount: r.Flags,
		}
		if old := s.players.Add(p); old != nil {
			s.emit(PlayerLeft{Player: old}) // id-collision eviction, §4.8
		}
		s.emit(PlayerEntered{Player: p})
	}
	return nil
}

func (s *Session) applyLargePosition(lp message.LargePosition) {
	p, ok := s.players.Get(lp.PlayerID)
	if !ok {
		return
	}
	if !lp.Timestamp.After(p.LastPositionTime) {
		return // stale update, §4.8
	}
	p.Position = message.Position{X: int32(lp.X), Y: int32(lp.Y)}
	p.Direction = lp.Direction
	p.Status = lp.Togglables
	p.Bounty = lp.Bounty
	p.LastPositionTime = lp.Timestamp
	if lp.HasS2CLag {
		p.Ping = lp.S2CLag
	}
	s.emit(PlayerMoved{Player: p})
}

func (s *Session) applySmallPosition(sp message.SmallPosition) {
	p, ok := s.players.Get(sp.PlayerID)
	if !ok {
		return
	}
	if !sp.Timestamp.After(p.LastPositionTime) {
		return
	}
	p.Position = message.Position{X: int32(sp.X), Y: int32(sp.Y)}
	p.Direction = sp.Direction
	p.Status = sp.Togglables
	p.LastPositionTime = sp.Timestamp
	s.emit(PlayerMoved{Player: p})
}

func (s *Session) handleMapInformation(body []byte) error {
	mi, err := message.ParseMapInformation(body)
	if err != nil {
		return err
	}
	if s.maps != nil {
		if cached, err := s.maps.Load(s.mapZone, mi.Filename); err == nil {
			m, err := mapcache.New(mi.Filename, mi.Checksum, cached)
			if err != nil {
				return err
			}
			s.currentMap = m
			s.transition(StatePlaying)
			s.emit(MapReady{Map: m})
			return nil
		}
	}
	s.pendingMapFilename = mi.Filename
	s.pendingMapChecksum = mi.Checksum
	frame, err := message.BuildMapRequest()
	if err != nil {
		return err
	}
	s.transition(StateMapDownload)
	return s.conn.sendRaw(frame)
}

func (s *Session) handleCompressedMap(body []byte) error {
	if s.infl == nil {
		return fmt.Errorf("%w: no decompressor configured", ErrMapInflateFailed)
	}
	raw, err := s.infl.Decompress(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMapInflateFailed, err)
	}
	filename := s.pendingMapFilename
	if filename == "" {
		filename = "arena.lvl"
	}
	m, err := mapcache.New(filename, s.pendingMapChecksum, raw)
	if err != nil {
		return err
	}
	s.currentMap = m
	if s.maps != nil {
		if err := s.maps.Save(s.mapZone, filename, raw); err != nil {
			log.Debugf("session: caching map failed: %v", err)
		}
	}
	s.transition(StatePlaying)
	s.emit(MapReady{Map: m})
	return nil
}

func (s *Session) handleSynchronizationRequest(body []byte) error {
	req, err := message.ParseSynchronizationRequest(body)
	if err != nil {
		return err
	}
	s.checksumKey = req.ChecksumKey
	s.emit(SecurityChallenge{Challenge: req, ServerNow: s.conn.ServerNow()})

	settingsChecksum := uint32(0)
	if s.settings != nil {
		settingsChecksum = checksum.Settings(req.ChecksumKey, s.settings.Raw[:])
	}
	frame, err := message.BuildSecurity(message.SecurityReport{
		SettingsChecksum: settingsChecksum,
		ExeChecksum:      checksum.Executable(req.ChecksumKey),
	})
	if err != nil {
		return err
	}
	return s.conn.sendRaw(frame)
}

// Self returns the locally-assigned player id, or InvalidPlayerID before the
// server has announced one.
func (s *Session) Self() message.PlayerID { return s.selfID }

// Players exposes the live player table for read access.
func (s *Session) Players() *message.Manager { return s.players }

// ArenaSettings returns the most recently received settings, or nil.
func (s *Session) ArenaSettings() *message.ArenaSettings { return s.settings }

// CurrentMap returns the active arena's map, or nil before one is loaded.
func (s *Session) CurrentMap() *mapcache.Map { return s.currentMap }

// SendPosition lets the embedder report movement; the caller owns physics
// entirely (§1 Non-goals), this only frames and transmits the update.
func (s *Session) SendPosition(u message.PositionUpdate) error {
	frame, err := message.BuildPosition(u)
	if err != nil {
		return err
	}
	s.conn.NoteAppPositionSent()
	return s.conn.sendRaw(frame)
}

// SendChat transmits a chat message on behalf of the embedder.
func (s *Session) SendChat(kind message.ChatKind, sound uint8, target message.PlayerID, text string) error {
	frame, err := message.BuildSendChat(kind, sound, target, text)
	if err != nil {
		return err
	}
	return s.conn.sendRaw(frame)
}

// Disconnect sends the orderly-shutdown packet and closes the socket.
func (s *Session) Disconnect() error {
	frame, err := message.BuildDisconnect()
	if err == nil {
		_ = s.conn.sendRaw(frame)
	}
	s.transition(StateDisconnected)
	s.emit(Disconnected{})
	return s.conn.Close()
}
