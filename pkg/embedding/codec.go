package embedding

import (
	"encoding/binary"
	"math"

	"doc-intelligence-be/pkg/apperror"
)

// SerializeEmbedding packs the vector as consecutive little-endian float32
// values, 4 bytes per component.
func SerializeEmbedding(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func DeserializeEmbedding(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, apperror.Validation("embedding buffer length %d is not a multiple of 4", len(buf))
	}
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector, nil
}
