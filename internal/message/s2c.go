package message

import (
	"fmt"

	"github.com/subspace-go/client/internal/clock"
	"github.com/subspace-go/client/internal/codec"
)

// Server-to-client game message type bytes.
const (
	S2CPlayerId           = 0x01
	S2CPlayerEntering     = 0x03
	S2CPlayerLeaving      = 0x04
	S2CLargePosition      = 0x05
	S2CSendChat           = 0x07
	S2CPlayerDeath        = 0x08
	S2CPasswordResponse   = 0x0A
	S2CArenaSettings      = 0x0F
	S2CFrequencyChange    = 0x1D
	S2CShipChange         = 0x23
	S2CSmallPosition      = 0x28
	S2CMapInformation     = 0x29
	S2CCompressedMap      = 0x2A
	S2CArenaDirectory     = 0x2F
	S2CSynchronizationReq = 0x34
)

// LoginResponse is the 19-variant enumeration mapped from PasswordResponse's
// response byte (supplemented in full from original_source/s2c.rs).
type LoginResponse int

const (
	LoginOk LoginResponse = iota
	LoginUnregistered
	LoginBadPassword
	LoginArenaFull
	LoginLockedOut
	LoginPermissionOnly
	LoginSpectateOnly
	LoginHighPoints
	LoginConnectionSlow
	LoginServerFull
	LoginInvalidName
	LoginOffensiveName
	LoginNoBiller
	LoginServerBusy
	LoginUsageLow
	LoginRestricted
	LoginDemo
	LoginTooManyDemo
	LoginDemoDisabled
)

func (r LoginResponse) String() string {
	names := [...]string{
		"Ok", "Unregistered", "BadPassword", "ArenaFull", "LockedOut",
		"PermissionOnly", "SpectateOnly", "HighPoints", "ConnectionSlow",
		"ServerFull", "InvalidName", "OffensiveName", "NoBiller", "ServerBusy",
		"UsageLow", "Restricted", "Demo", "TooManyDemo", "DemoDisabled",
	}
	if int(r) < len(names) {
		return names[r]
	}
	return "Unknown"
}

func loginResponseFromByte(b byte) LoginResponse {
	switch b {
	case 0x00:
		return LoginOk
	case 0x01:
		return LoginUnregistered
	case 0x02:
		return LoginBadPassword
	case 0x03:
		return LoginArenaFull
	case 0x04:
		return LoginLockedOut
	case 0x05:
		return LoginPermissionOnly
	case 0x06:
		return LoginSpectateOnly
	case 0x07:
		return LoginHighPoints
	case 0x08:
		return LoginConnectionSlow
	case 0x09:
		return LoginPermissionOnly // duplicate mapping per reference
	case 0x0A:
		return LoginServerFull
	case 0x0B:
		return LoginInvalidName
	case 0x0C:
		return LoginOffensiveName
	case 0x0D:
		return LoginNoBiller
	case 0x0E:
		return LoginServerBusy
	case 0x0F:
		return LoginUsageLow
	case 0x10:
		return LoginRestricted
	case 0x11:
		return LoginDemo
	case 0x12:
		return LoginTooManyDemo
	case 0x13:
		return LoginDemoDisabled
	default:
		return LoginRestricted // includes 0xFF
	}
}

type PasswordResponse struct {
	Response             LoginResponse
	ServerVersion         uint32
	RegistrationRequest   bool
	NewsChecksum          uint32
}

// ParsePasswordResponse decodes the 28-byte login-result message (0x0A).
func ParsePasswordResponse(body []byte) (PasswordResponse, error) {
	if len(body) < 27 {
		return PasswordResponse{}, &codec.ErrTooShort{Kind: "PasswordResponse", Need: 27, Have: len(body)}
	}
	responseByte := body[0]
	r := codec.NewReader(body[1:5])
	serverVersion, err := r.ReadU32()
	if err != nil {
		return PasswordResponse{}, err
	}
	regReq := body[18] != 0
	newsChecksum := codec.NewReader(body[23:27])
	news, err := newsChecksum.ReadU32()
	if err != nil {
		return PasswordResponse{}, err
	}
	return PasswordResponse{
		Response:            loginResponseFromByte(responseByte),
		ServerVersion:        serverVersion,
		RegistrationRequest:  regReq,
		NewsChecksum:         news,
	}, nil
}

// ParsePlayerID decodes the 0x01 PlayerId assignment message.
func ParsePlayerID(body []byte) (PlayerID, error) {
	r := codec.NewReader(body)
	v, err := r.ReadU16()
	return PlayerID(v), err
}

// PlayerEnteringRecord is one 64-byte record within a PlayerEntering batch.
type PlayerEnteringRecord struct {
	Ship         Ship
	Name         string
	Squad        string
	KillPoints   uint32
	FlagPoints   uint32
	ID           PlayerID
	Frequency    uint16
	Kills        uint16
	Deaths       uint16
	AttachParent PlayerID
	Flags        uint16
	HasKoth      bool
}

// ParsePlayerEntering decodes one or more concatenated 64-byte records.
func ParsePlayerEntering(body []byte) ([]PlayerEnteringRecord, error) {
	const recordSize = 64
	if len(body)%recordSize != 0 {
		return nil, fmt.Errorf("message: PlayerEntering body not a multiple of %d bytes (got %d)", recordSize, len(body))
	}
	var out []PlayerEnteringRecord
	for off := 0; off < len(body); off += recordSize {
		r := codec.NewReader(body[off : off+recordSize])
		ship, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadFixedStr(20)
		if err != nil {
			return nil, err
		}
		squad, err := r.ReadFixedStr(20)
		if err != nil {
			return nil, err
		}
		killPoints, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		flagPoints, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		id, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		freq, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		kills, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		deaths, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		attach, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		koth, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		out = append(out, PlayerEnteringRecord{
			Ship:         Ship(ship),
			Name:         name,
			Squad:        squad,
			KillPoints:   killPoints,
			FlagPoints:   flagPoints,
			ID:           PlayerID(id),
			Frequency:    freq,
			Kills:        kills,
			Deaths:       deaths,
			AttachParent: PlayerID(attach),
			Flags:        flags,
			HasKoth:      koth != 0,
		})
	}
	return out, nil
}

// ParsePlayerLeaving decodes the 0x04 player-left notice.
func ParsePlayerLeaving(body []byte) (PlayerID, error) {
	r := codec.NewReader(body)
	v, err := r.ReadU16()
	return PlayerID(v), err
}

// LargePosition is the fixed 21-byte core plus optional extra fields (§4.6).
type LargePosition struct {
	Direction  uint8
	Timestamp  clock.ServerTick
	XVel       int16
	Y          uint16
	Checksum   uint8
	Togglables uint8
	X          uint16
	YVel       int16
	PlayerID   PlayerID
	Bounty     uint16

	HasEnergy bool
	Energy    uint16
	HasS2CLag bool
	S2CLag    uint16
	HasTimer  bool
	Timer     uint16
	HasItems  bool
	Items     codec.ItemSet
}

// ParseLargePosition decodes the 0x05 message, including whichever optional
// trailing fields are present, per their fixed offsets.
func ParseLargePosition(body []byte) (LargePosition, error) {
	if len(body) < 21 {
		return LargePosition{}, &codec.ErrTooShort{Kind: "LargePosition", Need: 21, Have: len(body)}
	}
	r := codec.NewReader(body[:21])
	dir, _ := r.ReadU8()
	ts, _ := r.ReadU32()
	xVel, _ := r.ReadI16()
	y, _ := r.ReadU16()
	chk, _ := r.ReadU8()
	tog, _ := r.ReadU8()
	x, _ := r.ReadU16()
	yVel, _ := r.ReadI16()
	pid, _ := r.ReadU16()
	bounty, _ := r.ReadU16()

	lp := LargePosition{
		Direction: dir, Timestamp: clock.NewServerTick(ts), XVel: xVel, Y: y,
		Checksum: chk, Togglables: tog, X: x, YVel: yVel,
		PlayerID: PlayerID(pid), Bounty: bounty,
	}
	if len(body) >= 23 {
		lp.HasEnergy = true
		lp.Energy = codec.NewReader(body[21:23]).MustU16()
	}
	if len(body) >= 25 {
		lp.HasS2CLag = true
		lp.S2CLag = codec.NewReader(body[23:25]).MustU16()
	}
	if len(body) >= 27 {
		lp.HasTimer = true
		lp.Timer = codec.NewReader(body[25:27]).MustU16()
	}
	if len(body) >= 31 {
		lp.HasItems = true
		lp.Items = codec.NewItemSet(codec.NewReader(body[27:31]).MustU32())
	}
	return lp, nil
}

// SmallPosition is the compact 16-byte variant (0x28) with the same
// optional trailing fields starting at offset 16.
type SmallPosition struct {
	Direction  uint8
	Timestamp  clock.ServerTick
	X          uint16
	YVel       int16
	PlayerID   PlayerID
	Togglables uint8
	Y          uint16

	HasEnergy bool
	Energy    uint16
	HasS2CLag bool
	S2CLag    uint16
	HasTimer  bool
	Timer     uint16
	HasItems  bool
	Items     codec.ItemSet
}

func ParseSmallPosition(body []byte) (SmallPosition, error) {
	if len(body) < 16 {
		return SmallPosition{}, &codec.ErrTooShort{Kind: "SmallPosition", Need: 16, Have: len(body)}
	}
	r := codec.NewReader(body[:16])
	dir, _ := r.ReadU8()
	ts, _ := r.ReadU32()
	x, _ := r.ReadU16()
	yVel, _ := r.ReadI16()
	pid, _ := r.ReadU16()
	tog, _ := r.ReadU8()
	y, _ := r.ReadU16()

	sp := SmallPosition{
		Direction: dir, Timestamp: clock.NewServerTick(ts), X: x, YVel: yVel,
		PlayerID: PlayerID(pid), Togglables: tog, Y: y,
	}
	if len(body) >= 18 {
		sp.HasEnergy = true
		sp.Energy = codec.NewReader(body[16:18]).MustU16()
	}
	if len(body) >= 20 {
		sp.HasS2CLag = true
		sp.S2CLag = codec.NewReader(body[18:20]).MustU16()
	}
	if len(body) >= 22 {
		sp.HasTimer = true
		sp.Timer = codec.NewReader(body[20:22]).MustU16()
	}
	if len(body) >= 26 {
		sp.HasItems = true
		sp.Items = codec.NewItemSet(codec.NewReader(body[22:26]).MustU32())
	}
	return sp, nil
}

func ParseChat(body []byte) (kind ChatKind, sound uint8, target PlayerID, text string, err error) {
	r := codec.NewReader(body)
	k, err := r.ReadU8()
	if err != nil {
		return
	}
	s, err := r.ReadU8()
	if err != nil {
		return
	}
	t, err := r.ReadU16()
	if err != nil {
		return
	}
	txt, err := r.ReadStr()
	if err != nil {
		return
	}
	return ChatKind(k), s, PlayerID(t), txt, nil
}

// MapInformation names the arena's map and its checksum for the cache
// lookup of §6.
type MapInformation struct {
	Filename string
	Checksum uint32
	HasSize  bool
	FileSize uint32
}

func ParseMapInformation(body []byte) (MapInformation, error) {
	if len(body) < 20 {
		return MapInformation{}, &codec.ErrTooShort{Kind: "MapInformation", Need: 20, Have: len(body)}
	}
	r := codec.NewReader(body)
	name, err := r.ReadFixedStr(16)
	if err != nil {
		return MapInformation{}, err
	}
	sum, err := r.ReadU32()
	if err != nil {
		return MapInformation{}, err
	}
	mi := MapInformation{Filename: name, Checksum: sum}
	if r.Remaining() >= 4 {
		size, err := r.ReadU32()
		if err != nil {
			return MapInformation{}, err
		}
		mi.HasSize = true
		mi.FileSize = size
	}
	return mi, nil
}

// ArenaDirectoryEntry is one named arena with its population (negative in
// the wire form signals "this is your current arena").
type ArenaDirectoryEntry struct {
	Name       string
	Population int
	IsCurrent  bool
}

func ParseArenaDirectory(body []byte) ([]ArenaDirectoryEntry, error) {
	var out []ArenaDirectoryEntry
	r := codec.NewReader(body)
	for r.Remaining() > 0 {
		name, err := r.ReadStr()
		if err != nil {
			return nil, err
		}
		count, err := r.ReadI16()
		if err != nil {
			return nil, err
		}
		out = append(out, ArenaDirectoryEntry{
			Name:       name,
			Population: abs16(count),
			IsCurrent:  count < 0,
		})
	}
	return out, nil
}

func abs16(v int16) int {
	if v < 0 {
		return int(-v)
	}
	return int(v)
}

// SynchronizationRequest is the security challenge (§4.5).
type SynchronizationRequest struct {
	PrizeSeed    uint32
	DoorSeed     uint32
	Timestamp    clock.ServerTick
	ChecksumKey  uint32
}

func ParseSynchronizationRequest(body []byte) (SynchronizationRequest, error) {
	if len(body) < 16 {
		return SynchronizationRequest{}, &codec.ErrTooShort{Kind: "SynchronizationRequest", Need: 16, Have: len(body)}
	}
	r := codec.NewReader(body)
	prize, _ := r.ReadU32()
	door, _ := r.ReadU32()
	ts, _ := r.ReadU32()
	key, _ := r.ReadU32()
	return SynchronizationRequest{
		PrizeSeed: prize, DoorSeed: door,
		Timestamp: clock.NewServerTick(ts), ChecksumKey: key,
	}, nil
}
