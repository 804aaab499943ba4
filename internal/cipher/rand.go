package cipher

import (
	"math/rand"
	"sync"
	"time"
)

var (
	keyRandMu sync.Mutex
	keyRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// randUint16 draws one of the two 16-bit uniforms used by GenerateKey. This
// is ordinary math/rand, not the VIE keystream PRNG: the client key only
// needs to look arbitrary to the server, not to reproduce a keystream.
func randUint16() uint16 {
	keyRandMu.Lock()
	defer keyRandMu.Unlock()
	return uint16(keyRand.Intn(1 << 16))
}
