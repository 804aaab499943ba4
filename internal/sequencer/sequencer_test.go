package sequencer

import (
	"testing"

	"github.com/subspace-go/client/internal/clock"
)

func TestReliableInOrderDelivery(t *testing.T) {
	s := New()
	if _, err := s.HandleReliableData(1, []byte{0xAA}); err != nil {
		t.Fatalf("HandleReliableData(1): %v", err)
	}
	if _, err := s.HandleReliableData(0, []byte{0xBB}); err != nil {
		t.Fatalf("HandleReliableData(0): %v", err)
	}
	first, ok := s.PopProcessQueue()
	if !ok || first[0] != 0xBB {
		t.Fatalf("expected id 0 payload first, got %v ok=%v", first, ok)
	}
	second, ok := s.PopProcessQueue()
	if !ok || second[0] != 0xAA {
		t.Fatalf("expected id 1 payload second, got %v ok=%v", second, ok)
	}
	if _, ok := s.PopProcessQueue(); ok {
		t.Fatalf("expected no more entries")
	}
}

func TestDuplicateReliableAckedNotRedelivered(t *testing.T) {
	s := New()
	s.HandleReliableData(5, []byte{1})
	s.HandleReliableData(5, []byte{1})
	s.nextProcessID = 5
	_, ok := s.PopProcessQueue()
	if !ok {
		t.Fatalf("expected delivery of id 5")
	}
	if _, ok := s.PopProcessQueue(); ok {
		t.Fatalf("duplicate should not be redelivered")
	}
}

func TestClusterUnpack(t *testing.T) {
	s := New()
	body := []byte{0x01, 0xAA, 0x02, 0xBB, 0xCC}
	if err := s.HandleCluster(body); err != nil {
		t.Fatalf("HandleCluster: %v", err)
	}
	first, ok := s.PopProcessQueue()
	if !ok || len(first) != 1 || first[0] != 0xAA {
		t.Fatalf("first subpacket = %v", first)
	}
	second, ok := s.PopProcessQueue()
	if !ok || len(second) != 2 || second[0] != 0xBB || second[1] != 0xCC {
		t.Fatalf("second subpacket = %v", second)
	}
}

func TestSmallChunkReassembly(t *testing.T) {
	s := New()
	s.HandleSmallChunkBody([]byte{0x01, 0x02, 0x03})
	s.HandleSmallChunkTail([]byte{0x04, 0x05})
	got, ok := s.PopProcessQueue()
	if !ok {
		t.Fatalf("expected reassembled chunk")
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestHugeChunkReleasesExactlyOnceAtTotalSize(t *testing.T) {
	s := New()
	s.HandleHugeChunk(5, []byte{1, 2, 3})
	if _, ok := s.PopProcessQueue(); ok {
		t.Fatalf("should not release before total size reached")
	}
	s.HandleHugeChunk(5, []byte{4, 5})
	got, ok := s.PopProcessQueue()
	if !ok || len(got) != 5 {
		t.Fatalf("expected 5-byte release, got %v ok=%v", got, ok)
	}
	if _, ok := s.PopProcessQueue(); ok {
		t.Fatalf("should only release once")
	}
}

func TestHugeChunkCancelClearsBuffer(t *testing.T) {
	s := New()
	s.HandleHugeChunk(100, []byte{1, 2, 3})
	ack, err := s.HandleHugeChunkCancel()
	if err != nil {
		t.Fatalf("HandleHugeChunkCancel: %v", err)
	}
	if len(ack) == 0 {
		t.Fatalf("expected non-empty ack")
	}
	if _, _, active := s.HugeChunkProgress(); active {
		t.Fatalf("expected transfer cleared")
	}
}

func TestRetransmitNoSoonerThan300TicksAndRemovedOnAck(t *testing.T) {
	s := New()
	framed, err := s.SendReliable([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("SendReliable: %v", err)
	}
	_ = framed
	now := clock.Now()
	if got := s.Tick(now); got != nil {
		t.Fatalf("expected no retransmit immediately after send")
	}
	late := now.Add(300)
	got := s.Tick(late)
	if len(got) != 1 {
		t.Fatalf("expected one retransmit at 300 ticks, got %d", len(got))
	}
	s.HandleAck(0)
	if s.PendingReliableCount() != 0 {
		t.Fatalf("expected parked message removed after ack")
	}
}

func TestOversizeReliableSplitsIntoBodyAndTail(t *testing.T) {
	s := New()
	payload := make([]byte, 521)
	for i := range payload {
		payload[i] = byte(i)
	}
	framed, err := s.SendReliableOversize(payload)
	if err != nil {
		t.Fatalf("SendReliableOversize: %v", err)
	}
	if len(framed) < 2 {
		t.Fatalf("expected at least 2 subpackets, got %d", len(framed))
	}
	for _, f := range framed {
		if len(f) > 520 {
			t.Fatalf("subpacket exceeds max packet size: %d", len(f))
		}
	}
}
