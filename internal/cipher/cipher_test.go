package cipher

import "testing"

func newPair(t *testing.T, serverKey, clientKey uint32) (*Cipher, *Cipher) {
	t.Helper()
	enc := &Cipher{clientKey: clientKey}
	dec := &Cipher{clientKey: clientKey}
	if err := enc.Initialize(serverKey); err != nil {
		t.Fatalf("enc.Initialize: %v", err)
	}
	if err := dec.Initialize(serverKey); err != nil {
		t.Fatalf("dec.Initialize: %v", err)
	}
	return enc, dec
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, dec := newPair(t, 0xDEADBEEF, 0x21524111) // client key is the negation of the server key
	for size := 1; size <= 520; size++ {
		buf := make([]byte, size)
		for i := range buf {
			buf[i] = byte(i*7 + 3)
		}
		buf[0] = 0x05 // non-zero first byte: normal game packet
		orig := append([]byte(nil), buf...)

		enc.Encrypt(buf)
		dec.Decrypt(buf)
		for i := range buf {
			if buf[i] != orig[i] {
				t.Fatalf("size=%d: round trip mismatch at %d: got %x want %x", size, i, buf[i], orig[i])
			}
		}
	}
}

func TestDisabledCipherLeavesBufferUntouched(t *testing.T) {
	c := &Cipher{clientKey: 0xAAAA}
	if err := c.Initialize(0xAAAA); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !c.Disabled() {
		t.Fatalf("expected cipher disabled when server_key == client_key")
	}
	buf := []byte{1, 2, 3, 4, 5}
	orig := append([]byte(nil), buf...)
	c.Encrypt(buf)
	for i := range buf {
		if buf[i] != orig[i] {
			t.Fatalf("disabled cipher modified buffer at %d", i)
		}
	}
}

func TestFirstByteNeverTransformed(t *testing.T) {
	enc, _ := newPair(t, 0xCAFEBABE, 0x35014542) // client key is the negation of the server key
	buf := []byte{0x00, 0x00, 1, 2, 3, 4, 5, 6}
	orig := append([]byte(nil), buf...)
	enc.Encrypt(buf)
	if buf[0] != orig[0] || buf[1] != orig[1] {
		t.Fatalf("core-packet marker bytes were transformed: got %x", buf[:2])
	}
}

func TestInvalidServerKeyIsFatal(t *testing.T) {
	c := &Cipher{clientKey: 0x1000}
	if err := c.Initialize(0x2000); err == nil {
		t.Fatalf("expected error for unrelated server key")
	}
}

func TestNegatedClientKeyAccepted(t *testing.T) {
	client := uint32(0x11111111)
	server := ^client + 1
	c := &Cipher{clientKey: client}
	if err := c.Initialize(server); err != nil {
		t.Fatalf("Initialize with negated key: %v", err)
	}
	if c.Disabled() {
		t.Fatalf("negated key should still enable the cipher")
	}
}
