package wipe

import (
	"bytes"
	"fmt"

	"github.com/Kostassoid/lethe/internal/sanitization"
)

// ShouldVerify implements the verify policy table: None never verifies,
// All verifies every stage, Last only the final one.
func ShouldVerify(v sanitization.Verify, stageIndex, totalStages int) bool {
	switch v {
	case sanitization.VerifyAll:
		return true
	case sanitization.VerifyLast:
		return stageIndex == totalStages-1
	default:
		return false
	}
}

// Verifier reads written blocks back and compares them to the expected
// fill content. Expected bytes are always recomputed from the stage
// definition, never taken from the write path, so the check stays
// independent of write-side state.
type Verifier struct {
	device   BlockDevice
	readBuf  []byte
	expected []byte
}

func NewVerifier(device BlockDevice, blockSize uint32) *Verifier {
	return &Verifier{
		device:   device,
		readBuf:  make([]byte, blockSize),
		expected: make([]byte, blockSize),
	}
}

// VerifyBlock reads length bytes at offset and compares them to the
// stage's fill content for the given block index. A content difference
// is a VerificationError; read failures come back as DeviceError.
func (v *Verifier) VerifyBlock(stage sanitization.Stage, index, offset uint64, length int) error {
	expected := v.expected[:length]
	if err := stage.Fill(expected, index); err != nil {
		return fmt.Errorf("computing expected content for block %d: %w", index, err)
	}

	got := v.readBuf[:length]
	if err := v.device.ReadAt(got, offset); err != nil {
		return err
	}

	if !bytes.Equal(got, expected) {
		return &VerificationError{Block: index, Offset: offset}
	}
	return nil
}
