package ingest_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"ramanid/internal/ingest"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func requireFloats(t *testing.T, label string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d want %d (%v)", label, len(got), len(want), got)
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("%s[%d]: got %v want %v", label, i, got[i], want[i])
		}
	}
}

func TestReadRRUFFText(t *testing.T) {
	content := "##NAMES=Quartz\n##RRUFFID=R040031\n100.0, 2.0\n200.0, 4.0\n\n800, -1\n300.0, 1.0\n##END=\n"
	s, err := ingest.ReadFile(writeFile(t, "quartz.txt", []byte(content)))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	requireFloats(t, "x", s.X, []float64{100, 200, 300})
	requireFloats(t, "y", s.Y, []float64{0.5, 1, 0.25})
}

func TestReadWhitespaceTextReversesDescendingAxis(t *testing.T) {
	content := "300 1\n200 4\n100 2\n"
	s, err := ingest.ReadFile(writeFile(t, "plain.txt", []byte(content)))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	requireFloats(t, "x", s.X, []float64{100, 200, 300})
	requireFloats(t, "y", s.Y, []float64{0.5, 1, 0.25})
}

func TestReadTextRejectsGarbage(t *testing.T) {
	_, err := ingest.ReadFile(writeFile(t, "bad.txt", []byte("100 abc\n")))
	if !errors.Is(err, ingest.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	content := "label,y,x\na,2,100\nb,8,200\n"
	s, err := ingest.ReadFile(writeFile(t, "spectrum.csv", []byte(content)))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	requireFloats(t, "x", s.X, []float64{100, 200})
	requireFloats(t, "y", s.Y, []float64{0.25, 1})
}

func TestReadCSVRequiresColumns(t *testing.T) {
	_, err := ingest.ReadFile(writeFile(t, "spectrum.csv", []byte("shift,intensity\n1,2\n")))
	if !errors.Is(err, ingest.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestReadFileRejectsZeroMaximum(t *testing.T) {
	_, err := ingest.ReadFile(writeFile(t, "flat.txt", []byte("1 0\n2 0\n")))
	if !errors.Is(err, ingest.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestDetectFormatUnsupported(t *testing.T) {
	if _, err := ingest.DetectFormat("spectrum.jdx"); !errors.Is(err, ingest.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func buildSPC(t *testing.T, flags uint8, exponent int8, first, last float64, xs []float32, ys []float32) []byte {
	t.Helper()
	n := len(ys)
	header := make([]byte, 512)
	header[0] = flags
	header[1] = 0x4B
	header[3] = byte(exponent)
	binary.LittleEndian.PutUint32(header[4:], uint32(n))
	binary.LittleEndian.PutUint64(header[8:], math.Float64bits(first))
	binary.LittleEndian.PutUint64(header[16:], math.Float64bits(last))
	binary.LittleEndian.PutUint32(header[24:], 1)

	var buf bytes.Buffer
	buf.Write(header)
	for _, v := range xs {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(make([]byte, 32))
	for _, v := range ys {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func TestReadSPCEvenlySpacedFloatY(t *testing.T) {
	data := buildSPC(t, 0, -128, 100, 300, nil, []float32{1, 4, 2})
	s, err := ingest.ReadFile(writeFile(t, "sample.spc", data))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	requireFloats(t, "x", s.X, []float64{100, 200, 300})
	requireFloats(t, "y", s.Y, []float64{0.25, 1, 0.5})
}

func TestReadSPCExplicitDescendingX(t *testing.T) {
	data := buildSPC(t, 0x80, -128, 0, 0, []float32{300, 200, 100}, []float32{2, 4, 1})
	s, err := ingest.ReadFile(writeFile(t, "sample.spc", data))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	requireFloats(t, "x", s.X, []float64{100, 200, 300})
	requireFloats(t, "y", s.Y, []float64{0.25, 1, 0.5})
}

func TestReadSPCTruncated(t *testing.T) {
	data := buildSPC(t, 0, -128, 100, 300, nil, []float32{1, 4, 2})
	_, err := ingest.ReadFile(writeFile(t, "short.spc", data[:len(data)-4]))
	if !errors.Is(err, ingest.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
