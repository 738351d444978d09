package sanitization

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Fill writes the deterministic fill content of block index into buf.
// Calling it twice with the same stage, index and buffer length yields
// identical bytes, regardless of call order. A shorter buffer receives
// a prefix of the full block content, so the final short block of a
// device verifies against the same keystream as a full-size one.
func (s Stage) Fill(buf []byte, index uint64) error {
	switch s.Kind {
	case FillZero:
		fillByte(buf, 0x00)
	case FillOne:
		fillByte(buf, 0xff)
	case FillPattern:
		if len(s.Pattern) == 0 {
			return fmt.Errorf("stage has an empty fill pattern")
		}
		// The pattern restarts at every block boundary.
		for i := range buf {
			buf[i] = s.Pattern[i%len(s.Pattern)]
		}
	case FillRandom:
		return randomFill(s.Seed, index, buf)
	default:
		return fmt.Errorf("unknown fill kind %d", s.Kind)
	}
	return nil
}

// randomFill produces the block's slice of a ChaCha20 keystream keyed by
// the stage seed. The block index is folded into the nonce, which makes
// every block an independent O(1)-seekable position in the stream: a
// verify pass or a retry regenerates the exact bytes without replaying
// anything before them.
func randomFill(seed [SeedSize]byte, index uint64, buf []byte) error {
	var nonce [chacha20.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[:8], index)

	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return fmt.Errorf("keystream init for block %d: %w", index, err)
	}

	fillByte(buf, 0x00)
	c.XORKeyStream(buf, buf)
	return nil
}

func fillByte(buf []byte, value byte) {
	for i := range buf {
		buf[i] = value
	}
}
