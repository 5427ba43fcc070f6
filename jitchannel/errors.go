package jitchannel

import "github.com/go-errors/errors"

var (
	// ErrMalformedMessage mirrors wire.ErrMalformedMessage for callers
	// that only import jitchannel.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrHandshakeFailed covers an unexpected message type, a malformed
	// pubkey, or a peer disconnect mid-handshake. The JIT is rolled back
	// to NONE and its slot released.
	ErrHandshakeFailed = errors.New("jit handshake failed")

	// ErrFundingBroadcastFailed is returned when the chain backend
	// refuses the funding transaction. No JIT record is created.
	ErrFundingBroadcastFailed = errors.New("funding broadcast failed")

	// ErrConfirmationTimeout names a FUNDING channel that exceeded its
	// maximum wait without confirming. No function in this package
	// returns it: CheckFunding applies no wait limit, and Abort is not
	// called on a timer.
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrPersistenceError wraps a fatal persistence failure. Per spec,
	// this is not recoverable locally: the control loop should abort
	// rather than risk the in-memory and on-disk state diverging.
	ErrPersistenceError = errors.New("jit persistence error")

	// ErrWatchtowerBindError is non-fatal: Create and Migrate log it and
	// carry on, leaving the JIT's state unchanged. No unwatched flag is
	// recorded on the JIT.
	ErrWatchtowerBindError = errors.New("watchtower bind error")

	// ErrMigrationRefused names a counterparty rejecting a migration.
	// Controller.Migrate reads no reply from the client and never returns
	// it.
	ErrMigrationRefused = errors.New("migration refused")

	// ErrJITAlreadyActive is returned by Store.Allocate when a non-CLOSED
	// JIT already exists for the client.
	ErrJITAlreadyActive = errors.New("jit channel already active for client")

	// ErrNoSuchClient is returned when a client_idx falls outside the
	// store's configured capacity, and by Dispatcher.Resolve when no
	// channel with the given id belongs to the client.
	ErrNoSuchClient = errors.New("client index out of range")

	// ErrOutOfMemory mirrors the source's allocation-failure error for
	// NewStore; Go's slice allocation cannot itself fail short of a
	// panic, so this is returned only when capacity is invalid.
	ErrOutOfMemory = errors.New("could not allocate jit store")

	// ErrInvalidStateTransition is returned when a state-machine method
	// is called against a JIT channel not in the required precondition
	// state.
	ErrInvalidStateTransition = errors.New("invalid jit state transition")
)
