package wire

import "errors"

// ErrFrameTooShort is returned when a datagram is shorter than its header
// or declared payload requires.
var ErrFrameTooShort = errors.New("wire: frame too short")

// ErrBadIntensityLength is returned when a spoke's packed intensity payload
// is not exactly 512 bytes (1024 4-bit samples).
var ErrBadIntensityLength = errors.New("wire: intensity payload must be 512 bytes")

// ErrUnknownReport is returned for a report id not in the closed table of
// §4.1. Callers log and skip; it is never fatal.
var ErrUnknownReport = errors.New("wire: unknown report id")

// ErrUnknownControl is returned by EncodeCommand for a control name outside
// the schema in §6. Surfaced to the caller, per §7.
var ErrUnknownControl = errors.New("wire: unknown control name")

// ErrRangeError is returned by EncodeCommand when value is outside the
// control's documented range. No frame is sent.
var ErrRangeError = errors.New("wire: value outside control range")
