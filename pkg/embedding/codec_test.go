package embedding

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"

	"doc-intelligence-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for n := 0; n < 20; n++ {
		vec := make([]float32, DefaultDimension)
		for i := range vec {
			vec[i] = float32(rng.NormFloat64())
		}

		buf := SerializeEmbedding(vec)
		require.Len(t, buf, 4*DefaultDimension)

		got, err := DeserializeEmbedding(buf)
		require.NoError(t, err)
		assert.Equal(t, vec, got)
	}
}

func TestSerializeIsLittleEndianFloat32(t *testing.T) {
	buf := SerializeEmbedding([]float32{1.5, -2})

	assert.Equal(t, math.Float32bits(1.5), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, math.Float32bits(-2), binary.LittleEndian.Uint32(buf[4:8]))
}

func TestDeserializeRejectsTruncatedBuffer(t *testing.T) {
	_, err := DeserializeEmbedding([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestDeserializeEmpty(t *testing.T) {
	got, err := DeserializeEmbedding(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
