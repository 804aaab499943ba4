package mapcache

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func packTile(x, y uint32, tile TileID) []byte {
	v := (x & 0xFFF) | ((y & 0xFFF) << 12) | (uint32(tile) << 24)
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func TestParseTileStreamNoHeader(t *testing.T) {
	var raw []byte
	raw = append(raw, packTile(5, 10, TileStation)...)
	raw = append(raw, packTile(0, 0, TileAsteroidSmall)...)

	m, err := New("test.lvl", 0x1234, raw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.GetTile(5, 10) != TileStation {
		t.Fatalf("GetTile(5,10) = %v", m.GetTile(5, 10))
	}
	if m.GetTile(0, 0) != TileAsteroidSmall {
		t.Fatalf("GetTile(0,0) = %v", m.GetTile(0, 0))
	}
	if m.GetTile(1, 1) != TileEmpty {
		t.Fatalf("expected untouched tile to be empty")
	}
}

func TestParseTileStreamWithBMHeader(t *testing.T) {
	header := []byte{'B', 'M', 6, 0} // header length 6: 4 preamble bytes + 2 padding
	header = append(header, 0, 0)    // 2 bytes of padding to reach declared length
	body := packTile(3, 3, TileWormholeSmall)
	raw := append(header, body...)

	m, err := New("test.lvl", 0, raw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.GetTile(3, 3) != TileWormholeSmall {
		t.Fatalf("GetTile(3,3) = %v", m.GetTile(3, 3))
	}
}

func TestTileClassification(t *testing.T) {
	if !TileID(165).IsDoor() {
		t.Fatalf("expected tile 165 to be a door")
	}
	if TileEmpty.IsSolid() {
		t.Fatalf("empty tile should not be solid")
	}
	if !TileStation.IsSolid() {
		t.Fatalf("station tile should be solid")
	}
	if TileID(165).IsSolidEmptyDoors() {
		t.Fatalf("doors should read as passable under IsSolidEmptyDoors")
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	data := []byte{1, 2, 3, 4}
	if err := s.Save("zone1", "map.lvl", data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("zone1", "map.lvl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %v want %v", got, data)
	}
	if _, err := os.Stat(filepath.Join(dir, "zones", "zone1", "map.lvl")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
}

func TestZlibDecompressorRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte("hello map data")); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	w.Close()

	d := ZlibDecompressor{}
	out, err := d.Decompress(buf.Bytes())
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(out) != "hello map data" {
		t.Fatalf("got %q", out)
	}
}
