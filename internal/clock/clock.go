// Package clock implements the 31-bit wrap-safe tick arithmetic shared by
// the local process clock and the server's clock domain, plus the mini/
// batched tick reconstruction used by position messages.
package clock

import "time"

// tickMask keeps every tick value within the 31-bit range the wire format
// and wrap-safe diff math assume.
const tickMask = 0x7FFFFFFF

// Diff computes the signed wrap-safe distance from b to a, valid for
// |diff| < 2^30. This is the building block for every tick comparison.
func Diff(a, b uint32) int32 {
	return int32(a<<1-b<<1) >> 1
}

// LocalTick is the process's own 100Hz tick counter, masked to 31 bits.
type LocalTick struct {
	value uint32
}

// NewLocalTick wraps a raw value into the 31-bit domain.
func NewLocalTick(v uint32) LocalTick {
	return LocalTick{value: v & tickMask}
}

// Now derives the current local tick from the wall clock, 10ms per unit.
func Now() LocalTick {
	ms := time.Now().UnixMilli()
	return NewLocalTick(uint32(ms/10) & tickMask)
}

func (t LocalTick) Value() uint32 { return t.value }

// Add returns t+delta, wrapping in 32 bits before re-masking to 31.
func (t LocalTick) Add(delta int32) LocalTick {
	return NewLocalTick(uint32(int32(t.value) + delta))
}

// Sub returns t-delta.
func (t LocalTick) Sub(delta int32) LocalTick {
	return t.Add(-delta)
}

// Diff returns Diff(t, other).
func (t LocalTick) Diff(other LocalTick) int32 {
	return Diff(t.value, other.value)
}

// Before reports whether t occurred strictly before other, wrap-safe.
func (t LocalTick) Before(other LocalTick) bool {
	return t.Diff(other) < 0
}

// After reports whether t occurred strictly after other, wrap-safe.
func (t LocalTick) After(other LocalTick) bool {
	return t.Diff(other) > 0
}

// ServerTick is the local clock parameterized by a signed offset negotiated
// via the sync exchange (§4.2/§4.5).
type ServerTick struct {
	value uint32
}

func NewServerTick(v uint32) ServerTick {
	return ServerTick{value: v & tickMask}
}

func (t ServerTick) Value() uint32 { return t.value }

func (t ServerTick) Add(delta int32) ServerTick {
	return NewServerTick(uint32(int32(t.value) + delta))
}

func (t ServerTick) Sub(delta int32) ServerTick {
	return t.Add(-delta)
}

func (t ServerTick) Diff(other ServerTick) int32 {
	return Diff(t.value, other.value)
}

func (t ServerTick) Before(other ServerTick) bool {
	return t.Diff(other) < 0
}

func (t ServerTick) After(other ServerTick) bool {
	return t.Diff(other) > 0
}

// Offset tracks the estimated difference between server time and local time,
// updated by the sync exchange's RTT-weighted rule.
type Offset struct {
	value int32
}

// FromLocal projects a LocalTick into the server domain using the offset.
func (o Offset) FromLocal(local LocalTick) ServerTick {
	return NewServerTick(uint32(int32(local.value) + o.value))
}

// Update implements the §4.2 sync rule: rtt = now_local - request_local;
// offset = (rtt*3/5) + server_local - now_local.
func (o *Offset) Update(requestLocal, nowLocal LocalTick, serverLocal ServerTick) {
	rtt := nowLocal.Diff(requestLocal)
	o.value = (rtt*3)/5 + int32(serverLocal.value) - int32(nowLocal.value)
}

func (o Offset) Value() int32 { return o.value }

// FromMini reconstructs a full ServerTick from a 16-bit truncated field,
// using now's low 16 bits to compute a signed delta against the received
// value. Works without requiring the truncated field to be monotonic.
func FromMini(now ServerTick, v16 uint16) ServerTick {
	nowLow := uint16(now.value)
	low := int16(nowLow - v16)
	return now.Sub(int32(low))
}

// FromBatched is identical to FromMini but over a 10-bit truncation.
func FromBatched(now ServerTick, v10 uint16) ServerTick {
	const mask10 = 0x3FF
	nowLow := uint16(now.value) & mask10
	v10 &= mask10
	delta := int32(nowLow) - int32(v10)
	// sign-extend a 10-bit delta
	if delta > 0x1FF {
		delta -= 0x400
	} else if delta < -0x200 {
		delta += 0x400
	}
	return now.Sub(delta)
}
