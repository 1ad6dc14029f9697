package ingest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Galactic SPC "new format" (LSB) layout constants.
const (
	spcHeaderSize    = 512
	spcSubheaderSize = 32
	spcVersionNew    = 0x4B

	spcFlagShortY = 0x01
	spcFlagMulti  = 0x04
	spcFlagXYXYS  = 0x40
	spcFlagXVals  = 0x80

	spcFloatExponent = -128
)

type spcHeader struct {
	Flags    uint8
	Version  uint8
	ExpType  uint8
	Exponent int8
	Points   int32
	First    float64
	Last     float64
	Subfiles int32
}

type spcSubheader struct {
	Flags    uint8
	Exponent int8
	Index    int16
	Time     float32
	Next     float32
	Noise    float32
	Points   int32
	Scan     int32
	WLevel   float32
	Reserved [4]byte
}

// parseSPC decodes the first subfile of a single-X SPC file.
func parseSPC(data []byte) ([]float64, []float64, error) {
	if len(data) < spcHeaderSize {
		return nil, nil, fmt.Errorf("%w: spc file shorter than %d-byte header", ErrFormat, spcHeaderSize)
	}
	var hdr spcHeader
	if err := binary.Read(bytes.NewReader(data[:32]), binary.LittleEndian, &hdr); err != nil {
		return nil, nil, fmt.Errorf("%w: spc header: %v", ErrFormat, err)
	}
	if hdr.Version != spcVersionNew {
		return nil, nil, fmt.Errorf("%w: unsupported spc version 0x%02X", ErrFormat, hdr.Version)
	}
	if hdr.Flags&spcFlagXYXYS != 0 {
		return nil, nil, fmt.Errorf("%w: spc files with per-subfile x arrays are not supported", ErrFormat)
	}
	if hdr.Points <= 0 {
		return nil, nil, fmt.Errorf("%w: spc declares %d points", ErrFormat, hdr.Points)
	}
	n := int(hdr.Points)
	offset := spcHeaderSize

	x := make([]float64, n)
	if hdr.Flags&spcFlagXVals != 0 {
		raw, err := readFloat32s(data, offset, n)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: spc x values: %v", ErrFormat, err)
		}
		copy(x, raw)
		offset += 4 * n
	} else {
		step := 0.0
		if n > 1 {
			step = (hdr.Last - hdr.First) / float64(n-1)
		}
		for i := range x {
			x[i] = hdr.First + float64(i)*step
		}
	}

	if len(data) < offset+spcSubheaderSize {
		return nil, nil, fmt.Errorf("%w: spc subfile header truncated", ErrFormat)
	}
	var sub spcSubheader
	if err := binary.Read(bytes.NewReader(data[offset:offset+spcSubheaderSize]), binary.LittleEndian, &sub); err != nil {
		return nil, nil, fmt.Errorf("%w: spc subfile header: %v", ErrFormat, err)
	}
	offset += spcSubheaderSize

	exponent := hdr.Exponent
	if hdr.Flags&spcFlagMulti != 0 {
		exponent = sub.Exponent
	}

	y, err := readSPCY(data, offset, n, exponent, hdr.Flags&spcFlagShortY != 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: spc y values: %v", ErrFormat, err)
	}

	if n > 1 && x[0] > x[n-1] {
		reverse(x)
		reverse(y)
	}
	return x, y, nil
}

func readSPCY(data []byte, offset, n int, exponent int8, short bool) ([]float64, error) {
	if exponent == spcFloatExponent {
		return readFloat32s(data, offset, n)
	}
	y := make([]float64, n)
	if short {
		if len(data) < offset+2*n {
			return nil, fmt.Errorf("need %d bytes, have %d", 2*n, len(data)-offset)
		}
		scale := math.Pow(2, float64(exponent)-16)
		for i := range y {
			v := int16(binary.LittleEndian.Uint16(data[offset+2*i:]))
			y[i] = float64(v) * scale
		}
		return y, nil
	}
	if len(data) < offset+4*n {
		return nil, fmt.Errorf("need %d bytes, have %d", 4*n, len(data)-offset)
	}
	scale := math.Pow(2, float64(exponent)-32)
	for i := range y {
		v := int32(binary.LittleEndian.Uint32(data[offset+4*i:]))
		y[i] = float64(v) * scale
	}
	return y, nil
}

func readFloat32s(data []byte, offset, n int) ([]float64, error) {
	if len(data) < offset+4*n {
		return nil, fmt.Errorf("need %d bytes, have %d", 4*n, len(data)-offset)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset+4*i:])))
	}
	return out, nil
}
