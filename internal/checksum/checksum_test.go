package checksum

import "testing"

func TestWeaponDeterministic(t *testing.T) {
	frame := []byte{0x03, 0x00, 1, 2, 3, 4, 5, 6, 7, 8, 0x00, 9, 10}
	a := Weapon(frame)
	b := Weapon(frame)
	if a != b {
		t.Fatalf("Weapon not deterministic: %x vs %x", a, b)
	}
}

func TestSettingsChangesWithKeyAndBytes(t *testing.T) {
	raw := make([]byte, 1428)
	for i := range raw {
		raw[i] = byte(i)
	}
	a := Settings(0x1234, raw)
	b := Settings(0x1235, raw)
	if a == b {
		t.Fatalf("Settings checksum did not vary with checksumKey")
	}
	raw2 := append([]byte(nil), raw...)
	raw2[0] ^= 0xFF
	c := Settings(0x1234, raw2)
	if a == c {
		t.Fatalf("Settings checksum did not vary with raw bytes")
	}
}

func TestMapChecksumVariesWithKey(t *testing.T) {
	tiles := []byte{1, 2, 3, 4, 5}
	a := Map(tiles, 1)
	b := Map(tiles, 2)
	if a == b {
		t.Fatalf("Map checksum did not vary with checksumKey")
	}
}
