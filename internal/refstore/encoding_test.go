package refstore_test

import (
	"errors"
	"math"
	"testing"

	"ramanid/internal/refstore"
)

func TestEncodeFloatsLayout(t *testing.T) {
	data, err := refstore.EncodeFloats([]float64{1.5})
	if err != nil {
		t.Fatalf("EncodeFloats failed: %v", err)
	}
	if string(data[:4]) != "RMN1" || len(data) != 16 || data[4] != 1 {
		t.Fatalf("unexpected layout % x", data)
	}
	values, err := refstore.DecodeFloats(data)
	if err != nil || len(values) != 1 || values[0] != 1.5 {
		t.Fatalf("DecodeFloats = %v, %v", values, err)
	}
}

func TestDecodeFloatsRejectsCorruption(t *testing.T) {
	good, _ := refstore.EncodeFloats([]float64{1, 2})

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'
	truncated := good[:len(good)-1]
	nan, _ := refstore.EncodeFloats([]float64{1})
	bits := math.Float64bits(math.NaN())
	for i := 0; i < 8; i++ {
		nan[8+i] = byte(bits >> (8 * i))
	}

	for name, data := range map[string][]byte{
		"short":     {1, 2},
		"magic":     badMagic,
		"truncated": truncated,
		"nan":       nan,
	} {
		if _, err := refstore.DecodeFloats(data); !errors.Is(err, refstore.ErrCorruptEncoding) {
			t.Fatalf("%s: expected ErrCorruptEncoding, got %v", name, err)
		}
	}
}

func TestEncodeFloatsRejectsNonFinite(t *testing.T) {
	if _, err := refstore.EncodeFloats([]float64{math.Inf(1)}); err == nil {
		t.Fatal("expected error for infinite value")
	}
}

func TestParseLegacyArray(t *testing.T) {
	cases := []struct {
		in   string
		want []float64
		ok   bool
	}{
		{"[1.0, 2.5, -3e2]", []float64{1, 2.5, -300}, true},
		{"(4,)", []float64{4}, true},
		{"[]", []float64{}, true},
		{" 7 , 8 ", []float64{7, 8}, true},
		{"[1, inf]", nil, false},
		{"[0x10]", nil, false},
		{"[1, , 2]", nil, false},
		{"open('x')", nil, false},
	}
	for _, tc := range cases {
		got, err := refstore.ParseLegacyArray(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("%q: err=%v, want ok=%v", tc.in, err, tc.ok)
		}
		if !tc.ok {
			continue
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%q: got %v want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%q: got %v want %v", tc.in, got, tc.want)
			}
		}
	}
}
