package channeldb

import "github.com/go-errors/errors"

var (
	// ErrJITChannelNotFound is returned when an operation references a
	// jit_channel_id with no matching row.
	ErrJITChannelNotFound = errors.New("jit channel not found")

	// ErrBasepointsNotFound is returned when basepoints are requested for
	// a jit_channel_id that has none saved.
	ErrBasepointsNotFound = errors.New("basepoints not found")
)
