package storage

import "errors"

var (
	// ErrVerification reports that the device's hash of a written file
	// does not match the local hash. The write cannot be trusted.
	ErrVerification = errors.New("storage: md5 verification mismatch")

	// ErrInvalidUTF8 reports a text read of a file that is not valid
	// UTF-8.
	ErrInvalidUTF8 = errors.New("storage: file is not valid utf-8")
)
