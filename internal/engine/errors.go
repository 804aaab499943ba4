package engine

import "errors"

// Sentinel errors for the propagation policy of §7: decode errors are
// contained to the offending packet. ErrCipherInit and ErrLoginRejected are
// returned from Session.Pump to the event loop, which shuts down;
// ErrMapInflateFailed is logged and only the offending CompressedMap is
// dropped, leaving the session in MapDownload.
var (
	ErrCipherInit     = errors.New("engine: cipher initialization failed")
	ErrLoginRejected  = errors.New("engine: login rejected by server")
	ErrMapInflateFailed = errors.New("engine: map inflate failed")
)
