package message

import (
	"fmt"

	"github.com/subspace-go/client/internal/codec"
)

// ArenaSettingsSize is the fixed wire size of the settings record (§3).
const ArenaSettingsSize = 1428

const (
	shipRecordSize = 144
	shipCount      = 8
	spawnCount     = 4
	prizeWeightLen = 28
)

// ShipSettings is the 144-byte per-ship record, decoded with the two
// bit-packed lanes at offsets 28-29 and 124-127 split out explicitly, per
// the Design Notes' "immutable values with explicit decode/encode pairs"
// guidance -- the shared form never exposes mutable bitfield accessors.
type ShipSettings struct {
	Raw [shipRecordSize]byte

	Bits28  codec.PackedShipBits28
	Bits124 codec.PackedShipBits124
}

func decodeShipSettings(raw []byte) ShipSettings {
	var s ShipSettings
	copy(s.Raw[:], raw)
	lane28 := uint16(raw[28]) | uint16(raw[29])<<8
	lane124 := uint32(raw[124]) | uint32(raw[125])<<8 | uint32(raw[126])<<16 | uint32(raw[127])<<24
	s.Bits28 = codec.DecodeShipBits28(lane28)
	s.Bits124 = codec.DecodeShipBits124(lane124)
	return s
}

// ArenaSettings is the full 1428-byte settings record. The raw bytes are
// retained verbatim because the settings checksum challenge (§4.7) must be
// computed over them directly, never over a re-encoded projection.
type ArenaSettings struct {
	Raw [ArenaSettingsSize]byte

	Ships         [shipCount]ShipSettings
	Spawns        [spawnCount]codec.SpawnSettings
	PrizeWeights  [prizeWeightLen]byte
}

// ParseArenaSettings decodes the settings message (0x0F), retaining the raw
// bytes alongside the decoded projection.
func ParseArenaSettings(body []byte) (*ArenaSettings, error) {
	if len(body) != ArenaSettingsSize {
		return nil, fmt.Errorf("message: ArenaSettings expected exactly %d bytes, got %d", ArenaSettingsSize, len(body))
	}
	as := &ArenaSettings{}
	copy(as.Raw[:], body)

	// Ship records occupy the settings' trailing block; their precise base
	// offset within the 1428-byte layout is implementation-defined beyond
	// what affects the state machine (§4.6), so they are anchored at the
	// end of the record, working backwards from the prize-weight table.
	shipsStart := ArenaSettingsSize - prizeWeightLen - shipCount*shipRecordSize
	copy(as.PrizeWeights[:], body[ArenaSettingsSize-prizeWeightLen:])
	for i := 0; i < shipCount; i++ {
		off := shipsStart + i*shipRecordSize
		as.Ships[i] = decodeShipSettings(body[off : off+shipRecordSize])
	}

	spawnsStart := shipsStart - spawnCount*4
	for i := 0; i < spawnCount; i++ {
		off := spawnsStart + i*4
		v := uint32(body[off]) | uint32(body[off+1])<<8 | uint32(body[off+2])<<16 | uint32(body[off+3])<<24
		as.Spawns[i] = codec.DecodeSpawnSettings(v)
	}

	return as, nil
}
