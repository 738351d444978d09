package wipe

import (
	"errors"
	"fmt"
)

// BlockDevice is the capability surface the executor needs from an open
// storage handle. BlockSize is the device's minimum I/O granularity;
// BlockCount the number of such units. Offsets are absolute byte
// positions and must be granularity-aligned. Implementations live in
// internal/storage and in test doubles; the engine never inspects
// device identity.
type BlockDevice interface {
	BlockSize() uint32
	BlockCount() uint64
	ReadAt(buf []byte, offset uint64) error
	WriteAt(data []byte, offset uint64) error
	Flush() error
	Close() error
}

// ConfigError reports an invalid scheme/block-size/device combination.
// It is detected before any I/O and is never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid wipe configuration: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// DeviceError wraps a failed device operation. Fatal marks errors that
// indicate the device itself is gone or unresponsive; those abort the
// whole job instead of being retried per block.
type DeviceError struct {
	Op     string
	Offset uint64
	Fatal  bool
	Err    error
}

func (e *DeviceError) Error() string {
	kind := "i/o error"
	if e.Fatal {
		kind = "device unavailable"
	}
	return fmt.Sprintf("%s during %s at offset %d: %v", kind, e.Op, e.Offset, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// VerificationError reports a read-back that differs from the expected
// fill content. Retryable within the per-block budget.
type VerificationError struct {
	Block  uint64
	Offset uint64
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for block %d at offset %d", e.Block, e.Offset)
}

// IsFatal reports whether err should abort the job immediately rather
// than be retried or downgraded to a bad block.
func IsFatal(err error) bool {
	var de *DeviceError
	return errors.As(err, &de) && de.Fatal
}
