package wipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kostassoid/lethe/internal/sanitization"
)

func TestShouldVerify(t *testing.T) {
	cases := []struct {
		name        string
		mode        sanitization.Verify
		stage       int
		totalStages int
		want        bool
	}{
		{"NoneFirstStage", sanitization.VerifyNone, 0, 3, false},
		{"NoneLastStage", sanitization.VerifyNone, 2, 3, false},
		{"AllFirstStage", sanitization.VerifyAll, 0, 3, true},
		{"AllLastStage", sanitization.VerifyAll, 2, 3, true},
		{"LastOnEarlyStage", sanitization.VerifyLast, 0, 3, false},
		{"LastOnMiddleStage", sanitization.VerifyLast, 1, 3, false},
		{"LastOnFinalStage", sanitization.VerifyLast, 2, 3, true},
		{"LastWithSingleStage", sanitization.VerifyLast, 0, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldVerify(tc.mode, tc.stage, tc.totalStages))
		})
	}
}

func TestVerifyBlock(t *testing.T) {
	const blockSize = 512
	stage := sanitization.RandomWithSeed([sanitization.SeedSize]byte{0x42})

	t.Run("MatchingContentPasses", func(t *testing.T) {
		dev := newMemDevice(4*blockSize, blockSize)
		buf := make([]byte, blockSize)
		require.NoError(t, stage.Fill(buf, 2))
		require.NoError(t, dev.WriteAt(buf, 2*blockSize))

		v := NewVerifier(dev, blockSize)
		assert.NoError(t, v.VerifyBlock(stage, 2, 2*blockSize, blockSize))
	})

	t.Run("ContentMismatchDetected", func(t *testing.T) {
		dev := newMemDevice(4*blockSize, blockSize)

		v := NewVerifier(dev, blockSize)
		err := v.VerifyBlock(stage, 1, blockSize, blockSize)

		var ve *VerificationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, uint64(1), ve.Block)
	})

	t.Run("ShortBlockComparesPrefix", func(t *testing.T) {
		dev := newMemDevice(4*blockSize, blockSize)
		short := 100
		buf := make([]byte, short)
		require.NoError(t, stage.Fill(buf, 3))
		require.NoError(t, dev.WriteAt(buf, 3*blockSize))

		v := NewVerifier(dev, blockSize)
		assert.NoError(t, v.VerifyBlock(stage, 3, 3*blockSize, short))
	})

	t.Run("ExpectedBytesAreRecomputed", func(t *testing.T) {
		// Two verifiers must agree without sharing any write-path state.
		dev := newMemDevice(2*blockSize, blockSize)
		buf := make([]byte, blockSize)
		require.NoError(t, stage.Fill(buf, 0))
		require.NoError(t, dev.WriteAt(buf, 0))

		assert.NoError(t, NewVerifier(dev, blockSize).VerifyBlock(stage, 0, 0, blockSize))
		assert.NoError(t, NewVerifier(dev, blockSize).VerifyBlock(stage, 0, 0, blockSize))
	})
}
