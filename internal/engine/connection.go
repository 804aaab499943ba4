// Package engine implements the Connection (UDP I/O, cipher+sequencer
// glue, sync) and Session (state machine, event dispatch, player/map
// stores) components (§4.5, §4.8).
package engine

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/xid"

	"github.com/subspace-go/client/internal/cipher"
	"github.com/subspace-go/client/internal/clock"
	"github.com/subspace-go/client/internal/codec"
	"github.com/subspace-go/client/internal/log"
	"github.com/subspace-go/client/internal/message"
	"github.com/subspace-go/client/internal/metrics"
	"github.com/subspace-go/client/internal/sequencer"
)

// Connection owns the socket, cipher, and sequencer for one session. It is
// not shared across goroutines; an embedder wanting parallel connections
// runs one engine per connection (§5).
type Connection struct {
	id         xid.ID
	remoteAddr *net.UDPAddr
	sock       *net.UDPConn
	cipher     *cipher.Cipher
	seq        *sequencer.Sequencer

	state  State
	offset clock.Offset

	lastPositionSent clock.LocalTick
	lastSyncSent     clock.LocalTick
}

// Dial binds an ephemeral local UDP port and targets remoteAddr.
func Dial(remoteAddr string) (*Connection, error) {
	addr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("engine: resolving remote address: %w", err)
	}
	sock, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, fmt.Errorf("engine: binding ephemeral port: %w", err)
	}
	c := &Connection{
		id:         xid.New(),
		remoteAddr: addr,
		sock:       sock,
		cipher:     cipher.New(),
		seq:        sequencer.New(),
		state:      StateEncryptionHandshake,
	}
	c.lastPositionSent = clock.Now()
	c.lastSyncSent = clock.Now()
	log.WithField("conn", c.id.String()).Infof("dialing %s", remoteAddr)
	return c, nil
}

func (c *Connection) State() State { return c.state }

// ID returns the connection-instance correlation id. The Connection attaches
// it to its own log entries (dial and unknown-subtype drops) so an embedder
// running one engine per connection (§5) can tell those apart; Session log
// entries do not carry it.
func (c *Connection) ID() xid.ID { return c.id }

// ClientKey returns the key generated for this connection's handshake.
func (c *Connection) ClientKey() uint32 { return c.cipher.ClientKey() }

func (c *Connection) Close() error {
	c.state = StateDisconnected
	return c.sock.Close()
}

// BeginHandshake sends the EncryptionRequest that opens the connection.
func (c *Connection) BeginHandshake() error {
	frame, err := message.BuildEncryptionRequest(c.cipher.ClientKey(), message.VersionContinuum)
	if err != nil {
		return err
	}
	return c.sendRaw(frame)
}

// sendRaw encrypts a copy of frame in place and writes it to the socket.
func (c *Connection) sendRaw(frame []byte) error {
	buf := append([]byte(nil), frame...)
	c.cipher.Encrypt(buf)
	if _, err := c.sock.WriteToUDP(buf, c.remoteAddr); err != nil {
		return fmt.Errorf("engine: socket write: %w", err)
	}
	metrics.PacketsSent.Inc()
	metrics.BytesEncrypted.Add(float64(len(buf)))
	return nil
}

// SendApplication transmits an application payload, silently upgrading to
// reliable + chunked delivery if it exceeds MaxPacketSize (§4.5).
func (c *Connection) SendApplication(payload []byte) error {
	if len(payload) <= codec.MaxPacketSize {
		return c.sendRaw(payload)
	}
	frames, err := c.seq.SendReliableOversize(payload)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := c.sendRaw(f); err != nil {
			return err
		}
	}
	metrics.ReliableQueueDepth.Set(float64(c.seq.PendingReliableCount()))
	return nil
}

// SendReliable frames and sends payload over the reliable channel directly.
func (c *Connection) SendReliable(payload []byte) error {
	framed, err := c.seq.SendReliable(payload)
	if err != nil {
		return err
	}
	metrics.ReliableQueueDepth.Set(float64(c.seq.PendingReliableCount()))
	return c.sendRaw(framed)
}

// recvTimeout is how long a single non-blocking poll waits; zero would
// busy-loop the OS call, so a minimal deadline is used instead.
const recvTimeout = time.Millisecond

// receiveOne performs one non-blocking receive-and-decrypt. A timeout is
// reported as "no packet" (ok=false, err=nil), matching WouldBlock (§4.5).
func (c *Connection) receiveOne() (data []byte, ok bool, err error) {
	buf := make([]byte, codec.MaxPacketSize)
	if err := c.sock.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
		return nil, false, fmt.Errorf("engine: set read deadline: %w", err)
	}
	n, _, err := c.sock.ReadFromUDP(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("engine: socket read: %w", err)
	}
	metrics.PacketsReceived.Inc()
	pkt := buf[:n]
	c.cipher.Decrypt(pkt)
	return pkt, true, nil
}

// PollOnce drains one received packet (if any), absorbing sequencer-managed
// core envelopes internally and returning application-level payloads (both
// game packets and non-envelope core packets like EncryptionResponse) to
// the caller for Session-level dispatch.
func (c *Connection) PollOnce() (payload []byte, ok bool, err error) {
	data, received, err := c.receiveOne()
	if err != nil {
		return nil, false, err
	}
	if !received {
		return nil, false, nil
	}
	return c.dispatch(data)
}

func (c *Connection) dispatch(data []byte) ([]byte, bool, error) {
	if !message.IsCorePacket(data) {
		return data, true, nil
	}
	subtype, err := message.CoreSubtype(data)
	if err != nil {
		return nil, false, nil // malformed core packet: drop, non-fatal
	}
	body := data[2:]

	switch subtype {
	case message.CoreEncryptionResponse:
		return data, true, nil // surfaced so Session can finish the handshake
	case message.CoreReliableData:
		id, payload, err := message.ParseReliableData(body)
		if err != nil {
			return nil, false, nil
		}
		ack, err := c.seq.HandleReliableData(id, payload)
		if err != nil {
			return nil, false, err
		}
		if err := c.sendRaw(ack); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	case message.CoreReliableAck:
		id, err := message.ParseReliableAck(body)
		if err != nil {
			return nil, false, nil
		}
		c.seq.HandleAck(id)
		metrics.ReliableQueueDepth.Set(float64(c.seq.PendingReliableCount()))
		return nil, false, nil
	case message.CoreSyncResponse:
		reqLocal, srvLocal, err := message.ParseSyncResponse(body)
		if err != nil {
			return nil, false, nil
		}
		c.offset.Update(reqLocal, clock.Now(), srvLocal)
		return nil, false, nil
	case message.CoreDisconnect:
		c.state = StateDisconnected
		return nil, false, nil
	case message.CoreSmallChunkBody:
		c.seq.HandleSmallChunkBody(body)
		return nil, false, nil
	case message.CoreSmallChunkTail:
		c.seq.HandleSmallChunkTail(body)
		return nil, false, nil
	case message.CoreHugeChunk:
		if len(body) < 4 {
			return nil, false, nil
		}
		total := codec.NewReader(body[:4]).MustU32()
		c.seq.HandleHugeChunk(total, body[4:])
		return nil, false, nil
	case message.CoreHugeChunkCancel:
		ack, err := c.seq.HandleHugeChunkCancel()
		if err != nil {
			return nil, false, err
		}
		return nil, false, c.sendRaw(ack)
	case message.CoreHugeChunkCancelAck:
		return nil, false, nil
	case message.CoreCluster:
		if err := c.seq.HandleCluster(body); err != nil {
			return nil, false, nil
		}
		return nil, false, nil
	default:
		log.WithField("conn", c.id.String()).Debugf("dropping unknown core subtype %#x", subtype)
		return nil, false, nil
	}
}

// DrainProcessQueue pops every ready reassembled/ordered payload.
func (c *Connection) DrainProcessQueue() [][]byte {
	var out [][]byte
	for {
		p, ok := c.seq.PopProcessQueue()
		if !ok {
			break
		}
		out = append(out, p)
	}
	return out
}

// RetransmitTick drains the sequencer's retransmit schedule and sends
// whatever is due.
func (c *Connection) RetransmitTick(now clock.LocalTick) error {
	for _, frame := range c.seq.Tick(now) {
		if err := c.sendRaw(frame); err != nil {
			return err
		}
		metrics.Retransmits.Inc()
	}
	return nil
}

// CompleteHandshake validates the server's key and finalizes the cipher,
// transitioning to Authentication. A failure here is fatal (§4.1, §7).
func (c *Connection) CompleteHandshake(serverKey uint32) error {
	if err := c.cipher.Initialize(serverKey); err != nil {
		return fmt.Errorf("%w: %v", ErrCipherInit, err)
	}
	c.state = StateAuthentication
	return nil
}

// SendSync emits the periodic RTT probe (§4.5).
func (c *Connection) SendSync(packetsSent, packetsRecv uint32) error {
	frame, err := message.BuildSyncRequest(clock.Now(), packetsSent, packetsRecv)
	if err != nil {
		return err
	}
	c.lastSyncSent = clock.Now()
	return c.sendRaw(frame)
}

// ServerNow projects the current local tick into the server's clock domain.
func (c *Connection) ServerNow() clock.ServerTick {
	return c.offset.FromLocal(clock.Now())
}

// MaybeSendPositionKeepalive sends a zeroed Position message if none has
// been sent within 300 local ticks while Playing (§4.5).
func (c *Connection) MaybeSendPositionKeepalive() error {
	if c.state != StatePlaying {
		return nil
	}
	now := clock.Now()
	if now.Diff(c.lastPositionSent) < 300 {
		return nil
	}
	frame, err := message.BuildPosition(message.PositionUpdate{
		Timestamp: c.ServerNow(),
	})
	if err != nil {
		return err
	}
	c.lastPositionSent = now
	return c.sendRaw(frame)
}

// NoteAppPositionSent lets the caller reset the keepalive timer whenever it
// sends a real (non-keepalive) position update.
func (c *Connection) NoteAppPositionSent() {
	c.lastPositionSent = clock.Now()
}
