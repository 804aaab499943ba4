// Package cipher implements the VIE stream cipher: session-key negotiation,
// keystream generation, and the chained XOR transform applied to every
// packet body. The cipher is a legacy spoofing deterrent, not a
// confidentiality mechanism (spec Non-goals).
package cipher

import (
	"encoding/binary"
	"fmt"

	"github.com/subspace-go/client/internal/clock"
)

const keystreamSize = 520

// Cipher holds the negotiated session key and derived keystream for one
// connection. The zero value is usable and represents an un-negotiated
// (disabled) cipher.
type Cipher struct {
	sessionKey uint32
	clientKey  uint32
	keystream  [keystreamSize]byte
}

// New creates a cipher with a freshly generated client key, ready to be
// sent in an EncryptionRequest.
func New() *Cipher {
	return &Cipher{clientKey: GenerateKey()}
}

// ClientKey returns the key generated for the handshake request.
func (c *Cipher) ClientKey() uint32 { return c.clientKey }

// Disabled reports whether the cipher is a no-op (session_key == 0).
func (c *Cipher) Disabled() bool { return c.sessionKey == 0 }

// GenerateKey produces the 32-bit client key per §4.1: t = LocalTick *
// 0xCCCCCCCD (wrapping), two 16-bit uniforms, k = (r1<<16) + (t>>3) + r2,
// negated if it is not already in the high half.
func GenerateKey() uint32 {
	t := uint32(clock.Now().Value()) * 0xCCCCCCCD
	r1 := uint32(randUint16())
	r2 := uint32(randUint16())
	k := (r1 << 16) + (t >> 3) + r2
	if k <= 0x7FFFFFFF {
		k = ^k + 1
	}
	return k
}

// Initialize validates the server's reply and, if accepted, derives the
// session key and keystream. Returns an error (and leaves the cipher
// unmodified) if the server key is invalid, per §4.1's fatal failure mode.
func (c *Cipher) Initialize(serverKey uint32) error {
	if !c.isValidKey(serverKey) {
		return fmt.Errorf("cipher: invalid server key %#x for client key %#x", serverKey, c.clientKey)
	}
	if serverKey == c.clientKey {
		c.sessionKey = 0
		c.keystream = [keystreamSize]byte{}
		return nil
	}
	c.sessionKey = serverKey
	r := newRNG(int32(serverKey))
	for i := 0; i < keystreamSize; i += 2 {
		word := uint16(r.next())
		binary.LittleEndian.PutUint16(c.keystream[i:], word)
	}
	return nil
}

func (c *Cipher) isValidKey(serverKey uint32) bool {
	if serverKey == c.clientKey {
		return true
	}
	if serverKey == ^c.clientKey+1 {
		return true
	}
	if c.sessionKey != 0 && serverKey == c.sessionKey {
		return true
	}
	return false
}

// Encrypt transforms pkt in place. Byte 0 (and byte 1, if byte 0 is 0x00,
// the core-packet marker) are always passed through untransformed.
func (c *Cipher) Encrypt(pkt []byte) {
	c.transform(pkt, true)
}

// Decrypt transforms pkt in place, reversing Encrypt.
func (c *Cipher) Decrypt(pkt []byte) {
	c.transform(pkt, false)
}

func (c *Cipher) transform(pkt []byte, encrypt bool) {
	if c.Disabled() || len(pkt) < 1 {
		return
	}
	start := 1
	if pkt[0] == 0x00 {
		if len(pkt) < 2 {
			return
		}
		start = 2
	}
	if start >= len(pkt) {
		return
	}

	iv := c.sessionKey
	body := pkt[start:]
	ks := c.keystream[:]
	i := 0
	for ; i+4 <= len(body); i += 4 {
		ksOff := i % keystreamSize
		w := binary.LittleEndian.Uint32(body[i : i+4])
		k := binary.LittleEndian.Uint32(ks[ksOff : ksOff+4])
		if encrypt {
			out := w ^ k ^ iv
			binary.LittleEndian.PutUint32(body[i:i+4], out)
			iv = out
		} else {
			out := k ^ iv ^ w
			binary.LittleEndian.PutUint32(body[i:i+4], out)
			iv = w
		}
	}
	if rem := len(body) - i; rem > 0 {
		var buf [4]byte
		copy(buf[:], body[i:])
		ksOff := i % keystreamSize
		k := binary.LittleEndian.Uint32(ks[ksOff : ksOff+4])
		w := binary.LittleEndian.Uint32(buf[:])
		var out uint32
		if encrypt {
			out = w ^ k ^ iv
		} else {
			out = k ^ iv ^ w
		}
		var outBuf [4]byte
		binary.LittleEndian.PutUint32(outBuf[:], out)
		copy(body[i:], outBuf[:rem])
	}
}
