package lnwallet

import "github.com/btcsuite/btclog"

// log is the package-level logger used throughout lnwallet. It is set to
// the disabled backend by default so packages importing lnwallet as a
// library do not emit output unless the caller wires up a real backend
// with UseLogger, mirroring the convention used throughout the rest of
// this repository's subsystems.
var log = btclog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}
