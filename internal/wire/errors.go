package wire

import "errors"

var (
	// ErrTimeout means the expected bytes did not arrive within the
	// configured window. The current operation is lost; whether the session
	// survives is the caller's call.
	ErrTimeout = errors.New("wire: timeout")

	// ErrMalformedVarint means a length prefix failed to terminate within
	// ten bytes. The stream position is unrecoverable after this.
	ErrMalformedVarint = errors.New("wire: malformed varint length prefix")

	// ErrFrameTooLarge guards against a corrupt length prefix committing us
	// to reading gigabytes off a 115200-baud link.
	ErrFrameTooLarge = errors.New("wire: frame exceeds size limit")
)
