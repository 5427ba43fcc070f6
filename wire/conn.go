package wire

import (
	"encoding/json"
	"io"
)

// Conn frames JIT messages over a raw byte stream using back-to-back JSON
// values, the self-describing envelope transport spec.md §4.A assumes
// without dictating a concrete framing. It performs no length-prefixing:
// json.Decoder consumes exactly one JSON value per ReadMessage call, which
// is sufficient framing for a stream of Envelope objects.
type Conn struct {
	rw  io.ReadWriter
	dec *json.Decoder
}

// NewConn wraps rw (typically a net.Conn, or net.Pipe for tests) as a JIT
// message stream.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		rw:  rw,
		dec: json.NewDecoder(rw),
	}
}

// WriteMessage writes a message previously produced by one of the
// Build* functions in this package.
func (c *Conn) WriteMessage(raw []byte) error {
	_, err := c.rw.Write(raw)
	return err
}

// ReadMessage reads the next envelope off the stream, returning its type
// name and the full envelope bytes, suitable to pass directly to the
// matching Parse* function.
func (c *Conn) ReadMessage() (string, []byte, error) {
	var env Envelope
	if err := c.dec.Decode(&env); err != nil {
		return "", nil, err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", nil, err
	}
	return env.Type, raw, nil
}
