package domain

import "errors"

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is a live client attachment owned by the transport layer.
// Send must not block: a full queue returns ErrSendBufferFull and a closed
// connection returns ErrConnClosed.
type Conn interface {
	Id() string
	Send(Event) error
	Close() error
}
