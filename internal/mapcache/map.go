// Package mapcache implements the map tile model, the minimal tile
// classification spec.md allows beyond the checksum path, and the disk
// cache hooks the core uses to avoid re-fetching maps (§6). The cache is
// keyed by zone and filename only: it stores no checksum, and a cached file
// with the announced filename is reused without comparing its contents
// against the announced checksum.
package mapcache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const (
	mapWidth  = 1024
	mapHeight = 1024
)

// TileID identifies one map cell's content.
type TileID uint8

const (
	TileEmpty        TileID = 0
	TileAsteroidSmall TileID = 172
	TileAsteroidLarge TileID = 173
	TileWormholeSmall TileID = 216
	TileWormholeLarge TileID = 217
	TileStation       TileID = 218
	TileDoorFirst     TileID = 162
	TileDoorLast      TileID = 169
	TileTileSafety    TileID = 171
	TileFlagGoal      TileID = 220
)

// Map is the decoded tile grid plus the metadata the checksum/cache flow
// needs (§3).
type Map struct {
	Checksum uint32
	Filename string
	tiles    [mapWidth * mapHeight]TileID
}

// New parses a map's tile stream. The optional 4-byte "BM" + u16 header
// length preamble is skipped if present; thereafter the body is packed
// 32-bit records {x:12, y:12, tile_id:8}.
func New(filename string, checksum uint32, raw []byte) (*Map, error) {
	m := &Map{Checksum: checksum, Filename: filename}

	off := 0
	if len(raw) >= 4 && raw[0] == 'B' && raw[1] == 'M' {
		headerLen := binary.LittleEndian.Uint16(raw[2:4])
		off = int(headerLen)
	}

	for off+4 <= len(raw) {
		v := binary.LittleEndian.Uint32(raw[off : off+4])
		x := v & 0xFFF
		y := (v >> 12) & 0xFFF
		tile := TileID((v >> 24) & 0xFF)
		if x < mapWidth && y < mapHeight {
			m.tiles[y*mapWidth+x] = tile
		}
		off += 4
	}
	return m, nil
}

// Empty returns an all-clear map with no tiles set and a zero checksum.
func Empty(filename string) *Map {
	return &Map{Filename: filename}
}

func (m *Map) GetTile(x, y int) TileID {
	if x < 0 || y < 0 || x >= mapWidth || y >= mapHeight {
		return TileEmpty
	}
	return m.tiles[y*mapWidth+x]
}

func (t TileID) IsDoor() bool {
	return t >= TileDoorFirst && t <= TileDoorLast
}

func (t TileID) IsSolid() bool {
	switch t {
	case TileEmpty, TileTileSafety, TileFlagGoal:
		return false
	}
	return true
}

// IsSolidEmptyDoors reports solidity while additionally treating doors as
// passable, matching the movement-prediction convention used elsewhere in
// the ecosystem.
func (t TileID) IsSolidEmptyDoors() bool {
	if t.IsDoor() {
		return false
	}
	return t.IsSolid()
}

// Decompressor inflates a CompressedMap payload. zlib handling is treated
// as pluggable (§1); ZlibDecompressor supplies the only concrete
// implementation present in this module's dependency set.
type Decompressor interface {
	Decompress(raw []byte) ([]byte, error)
}

// Store is the caller-provided map directory: zones/<zone>/<filename>.
type Store struct {
	Root string
}

func NewStore(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) path(zone, filename string) string {
	return filepath.Join(s.Root, "zones", zone, filename)
}

// Load reads a cached map file, if present.
func (s *Store) Load(zone, filename string) ([]byte, error) {
	return os.ReadFile(s.path(zone, filename))
}

// Save writes a freshly downloaded (and inflated) map to the cache.
func (s *Store) Save(zone, filename string, data []byte) error {
	p := s.path(zone, filename)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mapcache: creating zone dir: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}
