package session

import "errors"

var (
	// ErrDesync reports a reply whose command index does not match the
	// exchange awaiting it. The session cannot be trusted afterwards.
	ErrDesync = errors.New("session: command index desync")

	// ErrIndexExhausted reports that the session has used every command
	// index. Open a new session to continue.
	ErrIndexExhausted = errors.New("session: command index space exhausted")

	// ErrBroken reports an operation on a session already marked dead by
	// an earlier desync or transport failure.
	ErrBroken = errors.New("session: broken")

	// ErrExchangeDone reports a read past the terminal frame of an
	// exchange.
	ErrExchangeDone = errors.New("session: exchange already complete")
)
