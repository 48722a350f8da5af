package session

import "errors"

var (
	ErrEmptyBlob      = errors.New("session: empty handshake blob")
	ErrAlreadyStarted = errors.New("session: handshake already started")
	ErrNotStarted     = errors.New("session: no offer has been created")
	ErrWrongRole      = errors.New("session: operation not valid for this role")
	ErrClosed         = errors.New("session: closed")
	ErrConnectTimeout = errors.New("session: not connected before watchdog deadline")
)
