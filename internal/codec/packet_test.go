package codec

import "testing"

func TestWriteReadScalarsRoundTrip(t *testing.T) {
	p := Empty()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	must(p.WriteU8(0xAB))
	must(p.WriteI8(-5))
	must(p.WriteU16(0xBEEF))
	must(p.WriteI16(-100))
	must(p.WriteU32(0xDEADBEEF))
	must(p.WriteI32(-1))
	must(p.WriteStr("hi"))
	must(p.WriteFixedStr("abc", 8))
	must(p.WriteBytes([]byte{1, 2, 3}))

	r := NewReader(p.Data())
	if v, err := r.ReadU8(); err != nil || v != 0xAB {
		t.Fatalf("ReadU8 = %v, %v", v, err)
	}
	if v, err := r.ReadI8(); err != nil || v != -5 {
		t.Fatalf("ReadI8 = %v, %v", v, err)
	}
	if v, err := r.ReadU16(); err != nil || v != 0xBEEF {
		t.Fatalf("ReadU16 = %v, %v", v, err)
	}
	if v, err := r.ReadI16(); err != nil || v != -100 {
		t.Fatalf("ReadI16 = %v, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %v, %v", v, err)
	}
	if v, err := r.ReadI32(); err != nil || v != -1 {
		t.Fatalf("ReadI32 = %v, %v", v, err)
	}
	if s, err := r.ReadStr(); err != nil || s != "hi" {
		t.Fatalf("ReadStr = %q, %v", s, err)
	}
	if s, err := r.ReadFixedStr(8); err != nil || s != "abc" {
		t.Fatalf("ReadFixedStr = %q, %v", s, err)
	}
	if b, err := r.ReadBytes(3); err != nil || b[0] != 1 || b[1] != 2 || b[2] != 3 {
		t.Fatalf("ReadBytes = %v, %v", b, err)
	}
}

func TestWriteBeyondMaxSizeFails(t *testing.T) {
	p := Empty()
	big := make([]byte, MaxPacketSize)
	if err := p.WriteBytes(big); err != nil {
		t.Fatalf("exactly MaxPacketSize should fit: %v", err)
	}
	if err := p.WriteU8(1); err == nil {
		t.Fatalf("expected ErrPacketFull writing past MaxPacketSize")
	}
}

func TestReadPastEndReturnsTooShort(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.ReadU32(); err == nil {
		t.Fatalf("expected too-short error")
	}
}

func TestFixedStrTruncatesOverflow(t *testing.T) {
	p := Empty()
	if err := p.WriteFixedStr("this is way too long", 4); err != nil {
		t.Fatalf("WriteFixedStr: %v", err)
	}
	r := NewReader(p.Data())
	s, err := r.ReadFixedStr(4)
	if err != nil {
		t.Fatalf("ReadFixedStr: %v", err)
	}
	if s != "this" {
		t.Fatalf("got %q, want truncated to 4 bytes", s)
	}
}

func TestShipBits28RoundTrip(t *testing.T) {
	for _, v := range []uint16{0, 0xFFFF, 0x1234, 0x8001} {
		got := DecodeShipBits28(v).Encode()
		if got != v {
			t.Fatalf("ShipBits28 round trip: in=%#x out=%#x", v, got)
		}
	}
}

func TestShipBits124RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 0xFFFFFFFF, 0x12345678, 0xABCD1234} {
		got := DecodeShipBits124(v).Encode()
		if got != v {
			t.Fatalf("ShipBits124 round trip: in=%#x out=%#x", v, got)
		}
	}
}

func TestSpawnSettingsRoundTrip(t *testing.T) {
	// only the low 29 bits are meaningful per the layout; mask before compare
	const mask = 0x1FFFFFFF
	for _, v := range []uint32{0, mask, 0x1234567 & mask} {
		got := DecodeSpawnSettings(v).Encode()
		if got != v&mask {
			t.Fatalf("SpawnSettings round trip: in=%#x out=%#x", v, got)
		}
	}
}

func TestWeaponDataFields(t *testing.T) {
	w := NewWeaponData(0)
	w = NewWeaponData(uint16(WeaponBomb) | (1 << 5) | (1 << 7) | (2 << 8) | (5 << 10) | (1 << 15))
	if w.Kind() != WeaponBomb {
		t.Fatalf("Kind = %v, want Bomb", w.Kind())
	}
	if w.Level() != 1 {
		t.Fatalf("Level = %v", w.Level())
	}
	if !w.ShrapnelBouncing() {
		t.Fatalf("expected ShrapnelBouncing")
	}
	if w.ShrapnelLevel() != 2 {
		t.Fatalf("ShrapnelLevel = %v", w.ShrapnelLevel())
	}
	if w.ShrapnelCount() != 5 {
		t.Fatalf("ShrapnelCount = %v", w.ShrapnelCount())
	}
	if !w.Alternate() {
		t.Fatalf("expected Alternate")
	}
}

func TestItemSetFields(t *testing.T) {
	i := NewItemSet(1 | (1 << 1) | (3 << 2))
	if !i.ShieldActive() || !i.SuperActive() {
		t.Fatalf("expected both flags set")
	}
	if i.Bursts() != 3 {
		t.Fatalf("Bursts = %v", i.Bursts())
	}
}
