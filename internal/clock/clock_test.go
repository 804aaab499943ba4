package clock

import "testing"

func TestDiffOrdering(t *testing.T) {
	cases := []struct{ a, b uint32 }{
		{10, 20},
		{20, 10},
		{0x7FFFFFFF, 0},
		{0, 0x7FFFFFFF},
		{5, 5},
	}
	for _, c := range cases {
		d := Diff(c.a, c.b)
		want := c.a < c.b
		if c.a == c.b {
			want = false
		}
		got := d < 0
		// only check the invariant for differences within the documented window
		if (int64(c.a)-int64(c.b) < (1<<30) && int64(c.a)-int64(c.b) > -(1<<30)) && got != want {
			t.Fatalf("Diff(%d,%d)=%d, a<b=%v, got<0=%v", c.a, c.b, d, want, got)
		}
	}
}

func TestLocalTickBefore(t *testing.T) {
	a := NewLocalTick(100)
	b := NewLocalTick(200)
	if !a.Before(b) {
		t.Fatalf("expected %v before %v", a, b)
	}
	if b.Before(a) {
		t.Fatalf("did not expect %v before %v", b, a)
	}
}

func TestFromMiniRoundTrip(t *testing.T) {
	now := NewServerTick(123456789)
	got := FromMini(now, uint16(now.Value()))
	if got.Value() != now.Value() {
		t.Fatalf("FromMini round trip: got %d want %d", got.Value(), now.Value())
	}
}

func TestFromBatchedRoundTrip(t *testing.T) {
	now := NewServerTick(987654)
	got := FromBatched(now, uint16(now.Value())&0x3FF)
	if got.Value() != now.Value() {
		t.Fatalf("FromBatched round trip: got %d want %d", got.Value(), now.Value())
	}
}

func TestOffsetUpdate(t *testing.T) {
	var off Offset
	reqLocal := NewLocalTick(10000)
	nowLocal := NewLocalTick(10020)
	serverLocal := NewServerTick(50000)
	off.Update(reqLocal, nowLocal, serverLocal)
	// rtt=20, offset = (20*3/5) + 50000 - 10020 = 12 + 39980 = 39992
	if off.Value() != 39992 {
		t.Fatalf("offset = %d, want 39992", off.Value())
	}
}
