package refstore

import (
	"encoding/binary"
	"fmt"
	"math"
)

// arrayMagic prefixes every encoded float array.
var arrayMagic = [4]byte{'R', 'M', 'N', '1'}

const arrayHeaderLen = 8

// EncodeFloats serializes values as magic, little-endian uint32 count, then
// little-endian IEEE-754 float64s. Non-finite values are rejected.
func EncodeFloats(values []float64) ([]byte, error) {
	if uint64(len(values)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d values exceed encoding limit", ErrInvalidReference, len(values))
	}
	buf := make([]byte, arrayHeaderLen+8*len(values))
	copy(buf, arrayMagic[:])
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(values)))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is %v", ErrInvalidReference, i, v)
		}
		binary.LittleEndian.PutUint64(buf[arrayHeaderLen+8*i:], math.Float64bits(v))
	}
	return buf, nil
}

// DecodeFloats reverses EncodeFloats, failing with ErrCorruptEncoding on a
// bad magic, a length that disagrees with the count, or non-finite values.
func DecodeFloats(data []byte) ([]float64, error) {
	if len(data) < arrayHeaderLen {
		return nil, fmt.Errorf("%w: %d byte header", ErrCorruptEncoding, len(data))
	}
	if [4]byte(data[:4]) != arrayMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptEncoding, data[:4])
	}
	count := binary.LittleEndian.Uint32(data[4:])
	if uint64(len(data)-arrayHeaderLen) != 8*uint64(count) {
		return nil, fmt.Errorf("%w: count %d does not match %d payload bytes", ErrCorruptEncoding, count, len(data)-arrayHeaderLen)
	}
	out := make([]float64, count)
	for i := range out {
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[arrayHeaderLen+8*i:]))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is %v", ErrCorruptEncoding, i, v)
		}
		out[i] = v
	}
	return out, nil
}

func encodeOptional(values []float64) (any, error) {
	if values == nil {
		return nil, nil
	}
	return EncodeFloats(values)
}

func decodeOptional(data []byte) ([]float64, error) {
	if data == nil {
		return nil, nil
	}
	return DecodeFloats(data)
}
