package message

import (
	"github.com/subspace-go/client/internal/checksum"
	"github.com/subspace-go/client/internal/clock"
	"github.com/subspace-go/client/internal/codec"
)

// Client-to-server game message type bytes (first byte of the payload,
// after the core/game family dispatch of §6).
const (
	C2SArenaJoin             = 0x01
	C2SLeaveArena            = 0x02
	C2SPosition              = 0x03
	C2SDeath                 = 0x05
	C2SSendChat              = 0x06
	C2STakePrize             = 0x07
	C2SSpectate              = 0x08
	C2SLogin                 = 0x09
	C2SSubspaceExeRequest    = 0x0B
	C2SMapRequest            = 0x0C
	C2SNewsRequest           = 0x0D
	C2SSendVoice             = 0x0E
	C2SFrequencyChange       = 0x0F
	C2SAttachRequest         = 0x10
	C2SFlagRequest           = 0x13
	C2SDetachAllRequest      = 0x14
	C2SDropFlags             = 0x15
	C2SSendFile              = 0x16
	C2SRegistrationForm      = 0x17
	C2SRequestShip           = 0x18
	C2SSetBanner             = 0x19
	C2SSecurity              = 0x1A
	C2SSecurityViolation     = 0x1B
	C2SDropBrick             = 0x1C
	C2SChangeArenaSettings   = 0x1D
	C2SKothEnd               = 0x1E
	C2SPowerballFire         = 0x1F
	C2SPowerballRequest      = 0x20
	C2SPowerballScore        = 0x21
	C2SSecurityViolationExt  = 0x22
)

// ArenaRequestKind selects how ArenaJoin names its target arena.
type ArenaRequestKind int

const (
	ArenaAnyPublic ArenaRequestKind = iota
	ArenaSpecificPublic
	ArenaByName
)

type ArenaRequest struct {
	Kind   ArenaRequestKind
	Number uint16
	Name   string
}

// BuildArenaJoin serializes the arena-join request (0x01).
func BuildArenaJoin(ship Ship, resX, resY uint16, req ArenaRequest) ([]byte, error) {
	arenaNumber := uint16(0xFFFF)
	arenaName := make([]byte, 16)
	switch req.Kind {
	case ArenaSpecificPublic:
		arenaNumber = req.Number
	case ArenaByName:
		arenaNumber = 0xFFFD
		copy(arenaName, req.Name)
	}

	p := codec.Empty()
	writes := []error{
		p.WriteU8(C2SArenaJoin),
		p.WriteU8(ship.NetworkValue()),
		p.WriteU16(0x01), // audio
		p.WriteU16(resX),
		p.WriteU16(resY),
		p.WriteU16(arenaNumber),
		p.WriteBytes(arenaName),
	}
	for _, err := range writes {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

func BuildLeaveArena() ([]byte, error) {
	return []byte{C2SLeaveArena}, nil
}

// PositionUpdate carries the fields the client reports every tick.
type PositionUpdate struct {
	Direction  uint8
	Timestamp  clock.ServerTick
	X, Y       uint16
	XVel, YVel int16
	Togglables uint8
	Bounty     uint16
	Energy     uint16
	Weapon     codec.WeaponData
}

// BuildPosition serializes the outbound position message (0x03), leaving
// the checksum byte at offset 10 zeroed until the weapon checksum (§4.7) is
// computed over the full frame and patched in afterward.
func BuildPosition(u PositionUpdate) ([]byte, error) {
	p := codec.Empty()
	writes := []error{
		p.WriteU8(C2SPosition),
		p.WriteU8(u.Direction),
		p.WriteU32(u.Timestamp.Value()),
		p.WriteI16(u.XVel),
		p.WriteU16(u.Y),
		p.WriteU8(0x00), // checksum placeholder
		p.WriteU8(u.Togglables),
		p.WriteU16(u.X),
		p.WriteI16(u.YVel),
		p.WriteU16(u.Bounty),
		p.WriteU16(u.Energy),
		p.WriteU16(u.Weapon.Value()),
	}
	for _, err := range writes {
		if err != nil {
			return nil, err
		}
	}
	out := p.Data()
	out[10] = checksum.Weapon(out)
	return out, nil
}

func BuildDeath(killer PlayerID, bounty uint16) ([]byte, error) {
	p := codec.Empty()
	for _, err := range []error{
		p.WriteU8(C2SDeath),
		p.WriteU16(uint16(killer)),
		p.WriteU16(bounty),
	} {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

// ChatKind mirrors the server-defined chat categories (§4.6).
type ChatKind uint8

const (
	ChatArena ChatKind = iota
	ChatPublicMacro
	ChatPublic
	ChatTeam
	ChatFrequency
	ChatPrivate
	ChatWarning
	ChatRemotePrivate
	ChatError
	ChatChannel
)

func BuildSendChat(kind ChatKind, sound uint8, target PlayerID, text string) ([]byte, error) {
	p := codec.Empty()
	writes := []error{
		p.WriteU8(C2SSendChat),
		p.WriteU8(uint8(kind)),
		p.WriteU8(sound),
		p.WriteU16(uint16(target)),
		p.WriteStr(text),
	}
	for _, err := range writes {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

func BuildTakePrize(ts clock.ServerTick, x, y uint16, prize int16) ([]byte, error) {
	p := codec.Empty()
	for _, err := range []error{
		p.WriteU8(C2STakePrize),
		p.WriteU32(ts.Value()),
		p.WriteU16(x),
		p.WriteU16(y),
		p.WriteI16(prize),
	} {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

func BuildSpectate(target PlayerID) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(C2SSpectate); err != nil {
		return nil, err
	}
	if err := p.WriteU16(uint16(target)); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

// ClientFeatures are the Continuum-era capability bits advertised at login.
const (
	FeatureWatchDamage    uint16 = 1 << 0
	FeatureBatchPositions uint16 = 1 << 1
	FeatureWarpTo         uint16 = 1 << 2
	FeatureLvz            uint16 = 1 << 3
	FeatureRedirect       uint16 = 1 << 4
	FeatureSelectBox      uint16 = 1 << 5
)

// LoginRequest is the material needed to build the login packet (0x09).
type LoginRequest struct {
	NewUser      bool
	Name         string
	Password     string
	MachineID    uint32
	Timezone     uint16
	Version      uint16
	PermissionID uint32
}

// BuildLogin serializes the VIE-compatible login packet.
func BuildLogin(req LoginRequest) ([]byte, error) {
	p := codec.Empty()
	newUser := uint8(0)
	if req.NewUser {
		newUser = 1
	}
	features := FeatureBatchPositions | FeatureWarpTo | FeatureLvz
	writes := []error{
		p.WriteU8(C2SLogin),
		p.WriteU8(newUser),
		p.WriteFixedStr(req.Name, 32),
		p.WriteFixedStr(req.Password, 32),
		p.WriteU32(req.MachineID),
		p.WriteU8(0x04), // connect type
		p.WriteU16(req.Timezone),
		p.WriteU16(0x00),
		p.WriteU16(req.Version),
		p.WriteU16(444),
		p.WriteU16(features),
		p.WriteU32(555),
		p.WriteU32(req.PermissionID),
		p.WriteU32(0),
		p.WriteU32(0),
		p.WriteU32(0),
	}
	for _, err := range writes {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

func BuildSubspaceExeRequest() ([]byte, error) { return []byte{C2SSubspaceExeRequest}, nil }
func BuildMapRequest() ([]byte, error)         { return []byte{C2SMapRequest}, nil }
func BuildNewsRequest() ([]byte, error)        { return []byte{C2SNewsRequest}, nil }

func BuildFrequencyChange(freq uint16) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(C2SFrequencyChange); err != nil {
		return nil, err
	}
	if err := p.WriteU16(freq); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

func BuildAttachRequest(target PlayerID) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(C2SAttachRequest); err != nil {
		return nil, err
	}
	if err := p.WriteU16(uint16(target)); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

func BuildFlagRequest(flagID uint16) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(C2SFlagRequest); err != nil {
		return nil, err
	}
	if err := p.WriteU16(flagID); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

func BuildDetachAllRequest() ([]byte, error) { return []byte{C2SDetachAllRequest}, nil }
func BuildDropFlags() ([]byte, error)        { return []byte{C2SDropFlags}, nil }

// RegistrationSex is the sex field of the registration form.
type RegistrationSex uint8

const (
	RegistrationMale   RegistrationSex = 'M'
	RegistrationFemale RegistrationSex = 'F'
)

// RegistrationForm is the fixed-width form the VIE client sends once on
// first registration (supplemented from original_source, §C of SPEC_FULL).
type RegistrationForm struct {
	RealName             string
	Email                string
	City                 string
	State                string
	Sex                  RegistrationSex
	Age                  uint8
	ConnectingFromHome   bool
	ConnectingFromWork   bool
	ConnectingFromSchool bool
}

func BuildRegistrationForm(f RegistrationForm) ([]byte, error) {
	p := codec.Empty()
	boolByte := func(b bool) uint8 {
		if b {
			return 1
		}
		return 0
	}
	writes := []error{
		p.WriteU8(C2SRegistrationForm),
		p.WriteFixedStr(f.RealName, 32),
		p.WriteFixedStr(f.Email, 64),
		p.WriteFixedStr(f.City, 32),
		p.WriteFixedStr(f.State, 24),
		p.WriteU8(uint8(f.Sex)),
		p.WriteU8(boolByte(f.ConnectingFromHome)),
		p.WriteU8(boolByte(f.ConnectingFromWork)),
		p.WriteU8(boolByte(f.ConnectingFromSchool)),
		p.WriteU32(0),
		p.WriteU32(0),
	}
	for _, err := range writes {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

func BuildRequestShip(ship Ship) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(C2SRequestShip); err != nil {
		return nil, err
	}
	if err := p.WriteU8(ship.NetworkValue()); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

func BuildSetBanner(data [96]byte) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(C2SSetBanner); err != nil {
		return nil, err
	}
	if err := p.WriteBytes(data[:]); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

// SecurityReport is the full client integrity response to a
// SynchronizationRequest challenge (§4.5, §4.7).
type SecurityReport struct {
	WeaponCount      uint32
	SettingsChecksum uint32
	ExeChecksum      uint32
	LevelChecksum    uint32
	S2CSlowTotal     uint32
	S2CFastTotal     uint32
	S2CSlowCurrent   uint16
	S2CFastCurrent   uint16
	S2CReliableOut   uint16
	Ping             uint16
	PingAverage      uint16
	PingLow          uint16
	PingHigh         uint16
	SlowFrame        bool
}

func BuildSecurity(r SecurityReport) ([]byte, error) {
	p := codec.Empty()
	slow := uint8(0)
	if r.SlowFrame {
		slow = 1
	}
	writes := []error{
		p.WriteU8(C2SSecurity),
		p.WriteU32(r.WeaponCount),
		p.WriteU32(r.SettingsChecksum),
		p.WriteU32(r.ExeChecksum),
		p.WriteU32(r.LevelChecksum),
		p.WriteU32(r.S2CSlowTotal),
		p.WriteU32(r.S2CFastTotal),
		p.WriteU16(r.S2CSlowCurrent),
		p.WriteU16(r.S2CFastCurrent),
		p.WriteU16(r.S2CReliableOut),
		p.WriteU16(r.Ping),
		p.WriteU16(r.PingAverage),
		p.WriteU16(r.PingLow),
		p.WriteU16(r.PingHigh),
		p.WriteU8(slow),
	}
	for _, err := range writes {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

// SecurityViolation enumerates the client-integrity complaint codes the
// client may self-report (supplemented from original_source).
type SecurityViolation uint8

const (
	ViolationOk SecurityViolation = iota
	ViolationSlowFramerate
	ViolationCurrentEnergyOverflow
	ViolationTopEnergyOverflow
	ViolationUnprizedMaxEnergy
	ViolationTopRechargeOverflow
	ViolationUnprizedMaxRecharge
	ViolationBurstOveruse
	ViolationRepelOveruse
	ViolationDecoyOveruse
	ViolationThorOveruse
	ViolationBrickOveruse
	ViolationUnprizedStealth
	ViolationUnprizedCloak
	ViolationUnprizedXRadar
	ViolationUnprizedAntiwarp
	ViolationUnprizedProximity
	ViolationUnprizedBouncingBullets
	ViolationUnprizedMaxGuns
	ViolationUnprizedMaxBombs
	ViolationSuperShieldOveruse
	ViolationSavedShipItems
	ViolationSavedShipWeapons
	ViolationLoginChecksum
	ViolationUnknown
	ViolationSavedShipChecksum
	ViolationSoftice
	ViolationDataChecksum
	ViolationParameterMismatch
	ViolationUnknownIntegrity
	ViolationHighLatency SecurityViolation = 0x3C
)

func BuildSecurityViolation(v SecurityViolation) ([]byte, error) {
	return []byte{C2SSecurityViolation, uint8(v)}, nil
}

func BuildDropBrick(x, y uint16) ([]byte, error) {
	p := codec.Empty()
	for _, err := range []error{
		p.WriteU8(C2SDropBrick),
		p.WriteU16(x),
		p.WriteU16(y),
	} {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

// BuildChangeArenaSettings serializes a set of "Category:Key"=value change
// requests. Preserved as an ordered slice rather than a map so wire output
// is deterministic.
func BuildChangeArenaSettings(changes [][2]string) ([]byte, error) {
	out := []byte{C2SChangeArenaSettings}
	for _, kv := range changes {
		out = append(out, []byte(kv[0])...)
		out = append(out, ':')
		out = append(out, []byte(kv[1])...)
		out = append(out, 0)
	}
	out = append(out, 0)
	return out, nil
}

func BuildKothEnd() ([]byte, error) { return []byte{C2SKothEnd}, nil }

func BuildPowerballFire(ballID uint8, x, y uint16, xVel, yVel int16, player PlayerID, ts clock.ServerTick) ([]byte, error) {
	p := codec.Empty()
	writes := []error{
		p.WriteU8(C2SPowerballFire),
		p.WriteU8(ballID),
		p.WriteU16(x),
		p.WriteU16(y),
		p.WriteI16(xVel),
		p.WriteI16(yVel),
		p.WriteU16(uint16(player)),
		p.WriteU32(ts.Value()),
	}
	for _, err := range writes {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

func BuildPowerballRequest(ballID uint8, ts clock.ServerTick) ([]byte, error) {
	return buildBallTick(C2SPowerballRequest, ballID, ts)
}

func BuildPowerballScore(ballID uint8, ts clock.ServerTick) ([]byte, error) {
	return buildBallTick(C2SPowerballScore, ballID, ts)
}

func buildBallTick(kind uint8, ballID uint8, ts clock.ServerTick) ([]byte, error) {
	p := codec.Empty()
	for _, err := range []error{
		p.WriteU8(kind),
		p.WriteU8(ballID),
		p.WriteU32(ts.Value()),
	} {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}
