// Package sequencer implements the reliability, chunking, and clustering
// layer: in-order reliable delivery with ack-driven retransmit, cluster
// unpacking, and the two chunked-reassembly schemes (§4.4).
package sequencer

import (
	"github.com/subspace-go/client/internal/clock"
	"github.com/subspace-go/client/internal/codec"
	"github.com/subspace-go/client/internal/message"
)

// resendDelay is the retransmit timeout, in local ticks (3s at 100Hz).
const resendDelay = 300

// reliableMessage is a parked unacked outbound message (§3).
type reliableMessage struct {
	id        uint32
	payload   []byte // the framed reliable packet, ready to resend verbatim
	timestamp clock.LocalTick
}

// receivedReliable is an out-of-order-tolerant inbound reliable arrival.
type receivedReliable struct {
	id      uint32
	payload []byte
}

// Sequencer owns one connection's reliability and reassembly state. It is
// not safe for concurrent use; the engine's single-threaded event loop is
// its only caller (§5).
type Sequencer struct {
	nextReliableGenID uint32
	reliableSent      []reliableMessage

	reliableQueue []receivedReliable
	nextProcessID uint32

	processQueue [][]byte

	chunkData      []byte
	hugeInProgress bool
	hugeTotalSize  uint32
}

func New() *Sequencer {
	return &Sequencer{}
}

// --- Sender side ---

// SendReliable frames payload with the next reliable id, parks a copy for
// retransmit tracking, and returns the wire-ready packet for the caller to
// transmit immediately.
func (s *Sequencer) SendReliable(payload []byte) ([]byte, error) {
	id := s.nextReliableGenID
	s.nextReliableGenID++
	framed, err := message.BuildReliableData(id, payload)
	if err != nil {
		return nil, err
	}
	s.reliableSent = append(s.reliableSent, reliableMessage{
		id:        id,
		payload:   framed,
		timestamp: clock.Now(),
	})
	return framed, nil
}

// SendReliableOversize splits an application payload too large for one
// reliable frame into small-chunk body/tail subpackets, each sent reliably
// in order (§4.4). Returns the framed packets in send order.
func (s *Sequencer) SendReliableOversize(payload []byte) ([][]byte, error) {
	const reliableHeaderSize = 6
	maxBody := codec.MaxPacketSize - reliableHeaderSize - 2 // chunk envelope adds 2 bytes (0x00, subtype)

	var out [][]byte
	for off := 0; off < len(payload); off += maxBody {
		end := off + maxBody
		last := end >= len(payload)
		if last {
			end = len(payload)
		}
		var chunk []byte
		var err error
		if last {
			chunk, err = message.BuildSmallChunkTail(payload[off:end])
		} else {
			chunk, err = message.BuildSmallChunkBody(payload[off:end])
		}
		if err != nil {
			return nil, err
		}
		framed, err := s.SendReliable(chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, framed)
	}
	return out, nil
}

// Tick drains the retransmit schedule: if any parked message has gone
// stale (timestamp <= now - resendDelay), the single oldest such message
// is refreshed and returned for retransmission.
func (s *Sequencer) Tick(now clock.LocalTick) [][]byte {
	var oldestIdx = -1
	for i, m := range s.reliableSent {
		if now.Diff(m.timestamp) < resendDelay {
			continue
		}
		if oldestIdx == -1 || m.timestamp.Before(s.reliableSent[oldestIdx].timestamp) {
			oldestIdx = i
		}
	}
	if oldestIdx == -1 {
		return nil
	}
	s.reliableSent[oldestIdx].timestamp = now
	return [][]byte{s.reliableSent[oldestIdx].payload}
}

// HandleAck removes a parked message by id (unordered swap-remove).
func (s *Sequencer) HandleAck(id uint32) {
	for i, m := range s.reliableSent {
		if m.id != id {
			continue
		}
		last := len(s.reliableSent) - 1
		s.reliableSent[i] = s.reliableSent[last]
		s.reliableSent = s.reliableSent[:last]
		return
	}
}

// PendingReliableCount reports how many unacked messages are parked, for
// metrics.
func (s *Sequencer) PendingReliableCount() int { return len(s.reliableSent) }

// --- Receiver side ---

// HandleReliableData records an inbound reliable arrival (duplicates are
// accepted and re-acked but not re-queued) and returns the ack frame that
// must be sent immediately and unconditionally.
func (s *Sequencer) HandleReliableData(id uint32, payload []byte) ([]byte, error) {
	dup := false
	for _, r := range s.reliableQueue {
		if r.id == id {
			dup = true
			break
		}
	}
	if int32(id-s.nextProcessID) < 0 {
		dup = true // already delivered and removed from reliableQueue
	}
	if !dup {
		cp := append([]byte(nil), payload...)
		s.reliableQueue = append(s.reliableQueue, receivedReliable{id: id, payload: cp})
	}
	return message.BuildReliableAck(id)
}

// PopProcessQueue implements the §4.4 priority rule: cluster/chunk output
// is strictly older than reliable output. It returns the next
// application-visible payload, if any is ready.
func (s *Sequencer) PopProcessQueue() ([]byte, bool) {
	if len(s.processQueue) > 0 {
		next := s.processQueue[0]
		s.processQueue = s.processQueue[1:]
		return next, true
	}
	for i, r := range s.reliableQueue {
		if r.id != s.nextProcessID {
			continue
		}
		s.nextProcessID++
		last := len(s.reliableQueue) - 1
		s.reliableQueue[i] = s.reliableQueue[last]
		s.reliableQueue = s.reliableQueue[:last]
		return r.payload, true
	}
	return nil, false
}

// HandleCluster splits a cluster body into its length-prefixed subpackets
// and appends each, in order, to the process queue.
func (s *Sequencer) HandleCluster(body []byte) error {
	r := codec.NewReader(body)
	for r.Remaining() > 0 {
		n, err := r.ReadU8()
		if err != nil {
			return err
		}
		sp, err := r.ReadBytes(int(n))
		if err != nil {
			return err
		}
		s.processQueue = append(s.processQueue, append([]byte(nil), sp...))
	}
	return nil
}

// HandleSmallChunkBody appends to the in-progress chunk buffer.
func (s *Sequencer) HandleSmallChunkBody(payload []byte) {
	s.chunkData = append(s.chunkData, payload...)
}

// HandleSmallChunkTail appends the final fragment and moves the completed
// buffer to the process queue.
func (s *Sequencer) HandleSmallChunkTail(payload []byte) {
	s.chunkData = append(s.chunkData, payload...)
	s.processQueue = append(s.processQueue, s.chunkData)
	s.chunkData = nil
}

// HandleHugeChunk accumulates a huge-chunk fragment; once the cumulative
// size first reaches totalSize, the buffer is released to the process
// queue exactly once.
func (s *Sequencer) HandleHugeChunk(totalSize uint32, fragment []byte) {
	s.hugeInProgress = true
	s.hugeTotalSize = totalSize
	s.chunkData = append(s.chunkData, fragment...)
	if uint32(len(s.chunkData)) >= s.hugeTotalSize {
		s.processQueue = append(s.processQueue, s.chunkData)
		s.chunkData = nil
		s.hugeInProgress = false
	}
}

// HandleHugeChunkCancel clears the in-progress huge transfer and returns
// the cancel-ack frame to send.
func (s *Sequencer) HandleHugeChunkCancel() ([]byte, error) {
	s.chunkData = nil
	s.hugeInProgress = false
	return message.BuildHugeChunkCancelAck()
}

// HugeChunkProgress reports (received, total) for an in-progress transfer.
func (s *Sequencer) HugeChunkProgress() (received, total uint32, active bool) {
	return uint32(len(s.chunkData)), s.hugeTotalSize, s.hugeInProgress
}
