// Package protocol defines the envelope exchanged with the device and the
// catalog of command payloads it can carry. The wire format is protobuf;
// the envelope fields and content tags match the device firmware.
package protocol

import "fmt"

// Status is the device-reported result of a command. Zero is success;
// everything else maps to an error via Status.Err.
type Status int32

const (
	StatusOK Status = 0

	// Generic command failures.
	StatusError               Status = 1
	StatusErrorDecode         Status = 2
	StatusErrorNotImplemented Status = 3
	StatusErrorBusy           Status = 4
	StatusErrorChainInterrupt Status = 5
	StatusErrorInvalidParams  Status = 6

	// Storage failures.
	StatusErrorStorageNotReady         Status = 7
	StatusErrorStorageExist            Status = 8
	StatusErrorStorageNotExist         Status = 9
	StatusErrorStorageInvalidParameter Status = 10
	StatusErrorStorageDenied           Status = 11
	StatusErrorStorageInvalidName      Status = 12
	StatusErrorStorageInternal         Status = 13
	StatusErrorStorageNotImplemented   Status = 14
	StatusErrorStorageAlreadyOpen      Status = 15
	StatusErrorStorageDirNotEmpty      Status = 16
)

var statusText = map[Status]string{
	StatusOK:                           "ok",
	StatusError:                        "unknown error",
	StatusErrorDecode:                  "command could not be decoded",
	StatusErrorNotImplemented:          "command not implemented",
	StatusErrorBusy:                    "device busy",
	StatusErrorChainInterrupt:          "continuous command interrupted",
	StatusErrorInvalidParams:           "invalid command parameters",
	StatusErrorStorageNotReady:         "storage: filesystem not ready",
	StatusErrorStorageExist:            "storage: file or dir already exists",
	StatusErrorStorageNotExist:         "storage: file or dir not found",
	StatusErrorStorageInvalidParameter: "storage: invalid parameter",
	StatusErrorStorageDenied:           "storage: permission denied",
	StatusErrorStorageInvalidName:      "storage: invalid name or path",
	StatusErrorStorageInternal:         "storage: internal error",
	StatusErrorStorageNotImplemented:   "storage: not implemented",
	StatusErrorStorageAlreadyOpen:      "storage: already open",
	StatusErrorStorageDirNotEmpty:      "storage: directory not empty",
}

func (s Status) String() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return fmt.Sprintf("status %d", int32(s))
}

// Err maps a status to its error value, or nil for StatusOK.
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	return &DeviceError{Status: s}
}

// DeviceError is a failure reported by the device itself, as opposed to a
// transport-level failure. The session stays usable after one.
type DeviceError struct {
	Status Status
}

func (e *DeviceError) Error() string {
	return "device: " + e.Status.String()
}

// StatusOf extracts the device status carried by err. Returns StatusOK when
// err is nil or not device-reported.
func StatusOf(err error) Status {
	for err != nil {
		if de, ok := err.(*DeviceError); ok {
			return de.Status
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return StatusOK
		}
		err = u.Unwrap()
	}
	return StatusOK
}
