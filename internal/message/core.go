// Package message implements the typed codec for every core (transport
// control) and game message kind the engine sends or receives (§4.6).
// Builder functions follow the teacher's rpc.go pattern: one function per
// message kind, consuming explicit fields and returning a wire-ready packet.
package message

import (
	"fmt"

	"github.com/subspace-go/client/internal/clock"
	"github.com/subspace-go/client/internal/codec"
)

// Core family subtype bytes, always preceded by the 0x00 family marker (§6).
const (
	CoreEncryptionRequest  = 0x01
	CoreEncryptionResponse = 0x02
	CoreReliableData       = 0x03
	CoreReliableAck        = 0x04
	CoreSyncRequest        = 0x05
	CoreSyncResponse       = 0x06
	CoreDisconnect         = 0x07
	CoreSmallChunkBody     = 0x08
	CoreSmallChunkTail     = 0x09
	CoreHugeChunk          = 0x0A
	CoreHugeChunkCancel    = 0x0B
	CoreHugeChunkCancelAck = 0x0C
	CoreCluster            = 0x0E
)

// EncryptionClientVersion identifies which client dialect we announce.
type EncryptionClientVersion uint16

const (
	VersionSubspace         EncryptionClientVersion = 0x01
	VersionContinuumClassic EncryptionClientVersion = 0x10
	VersionContinuum        EncryptionClientVersion = 0x11
)

// BuildEncryptionRequest serializes the handshake's opening message.
func BuildEncryptionRequest(key uint32, version EncryptionClientVersion) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(0x00); err != nil {
		return nil, err
	}
	if err := p.WriteU8(CoreEncryptionRequest); err != nil {
		return nil, err
	}
	if err := p.WriteU32(key); err != nil {
		return nil, err
	}
	if err := p.WriteU16(uint16(version)); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

// ParseEncryptionResponse reads the server's reply key.
func ParseEncryptionResponse(body []byte) (uint32, error) {
	r := codec.NewReader(body)
	return r.ReadU32()
}

// BuildReliableData wraps an application payload in the reliable envelope.
func BuildReliableData(id uint32, payload []byte) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(0x00); err != nil {
		return nil, err
	}
	if err := p.WriteU8(CoreReliableData); err != nil {
		return nil, err
	}
	if err := p.WriteU32(id); err != nil {
		return nil, err
	}
	if err := p.WriteBytes(payload); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

// ParseReliableData reads the reliable id and the enclosed payload.
func ParseReliableData(body []byte) (id uint32, payload []byte, err error) {
	r := codec.NewReader(body)
	id, err = r.ReadU32()
	if err != nil {
		return 0, nil, err
	}
	payload, err = r.ReadBytes(r.Remaining())
	return id, payload, err
}

// BuildReliableAck serializes the unconditional per-arrival ack.
func BuildReliableAck(id uint32) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(0x00); err != nil {
		return nil, err
	}
	if err := p.WriteU8(CoreReliableAck); err != nil {
		return nil, err
	}
	if err := p.WriteU32(id); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

func ParseReliableAck(body []byte) (uint32, error) {
	r := codec.NewReader(body)
	return r.ReadU32()
}

// BuildSyncRequest serializes the periodic RTT probe.
func BuildSyncRequest(local clock.LocalTick, packetsSent, packetsRecv uint32) ([]byte, error) {
	p := codec.Empty()
	for _, err := range []error{
		p.WriteU8(0x00),
		p.WriteU8(CoreSyncRequest),
		p.WriteU32(local.Value()),
		p.WriteU32(packetsSent),
		p.WriteU32(packetsRecv),
	} {
		if err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

// ParseSyncResponse reads the echoed request timestamp and the server's
// current tick, used to update the clock offset (§4.2).
func ParseSyncResponse(body []byte) (requestLocal clock.LocalTick, serverLocal clock.ServerTick, err error) {
	r := codec.NewReader(body)
	reqV, err := r.ReadU32()
	if err != nil {
		return clock.LocalTick{}, clock.ServerTick{}, err
	}
	srvV, err := r.ReadU32()
	if err != nil {
		return clock.LocalTick{}, clock.ServerTick{}, err
	}
	return clock.NewLocalTick(reqV), clock.NewServerTick(srvV), nil
}

// BuildDisconnect serializes the orderly-shutdown envelope.
func BuildDisconnect() ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(0x00); err != nil {
		return nil, err
	}
	return append(p.Data(), CoreDisconnect), nil
}

func buildChunkEnvelope(subtype uint8, payload []byte) ([]byte, error) {
	p := codec.Empty()
	if err := p.WriteU8(0x00); err != nil {
		return nil, err
	}
	if err := p.WriteU8(subtype); err != nil {
		return nil, err
	}
	if err := p.WriteBytes(payload); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

func BuildSmallChunkBody(payload []byte) ([]byte, error) {
	return buildChunkEnvelope(CoreSmallChunkBody, payload)
}

func BuildSmallChunkTail(payload []byte) ([]byte, error) {
	return buildChunkEnvelope(CoreSmallChunkTail, payload)
}

// BuildHugeChunk serializes one fragment of a huge-chunk transfer.
func BuildHugeChunk(totalSize uint32, fragment []byte) ([]byte, error) {
	p := codec.Empty()
	for _, err := range []error{
		p.WriteU8(0x00),
		p.WriteU8(CoreHugeChunk),
		p.WriteU32(totalSize),
	} {
		if err != nil {
			return nil, err
		}
	}
	if err := p.WriteBytes(fragment); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

func BuildHugeChunkCancel() ([]byte, error) {
	return []byte{0x00, CoreHugeChunkCancel}, nil
}

func BuildHugeChunkCancelAck() ([]byte, error) {
	return []byte{0x00, CoreHugeChunkCancelAck}, nil
}

// BuildCluster concatenates length-prefixed subpackets into one cluster body.
func BuildCluster(subpackets [][]byte) ([]byte, error) {
	p := codec.Empty()
	for _, err := range []error{p.WriteU8(0x00), p.WriteU8(CoreCluster)} {
		if err != nil {
			return nil, err
		}
	}
	for _, sp := range subpackets {
		if len(sp) > 255 {
			return nil, fmt.Errorf("message: cluster subpacket too large (%d bytes)", len(sp))
		}
		if err := p.WriteU8(uint8(len(sp))); err != nil {
			return nil, err
		}
		if err := p.WriteBytes(sp); err != nil {
			return nil, err
		}
	}
	return p.Data(), nil
}

// IsCorePacket reports whether data is a core (transport) packet rather than
// a game packet, per the leading byte convention of §6.
func IsCorePacket(data []byte) bool {
	return len(data) > 0 && data[0] == 0x00
}

// CoreSubtype returns the second byte of a core packet.
func CoreSubtype(data []byte) (uint8, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("message: core packet too short for subtype")
	}
	return data[1], nil
}
