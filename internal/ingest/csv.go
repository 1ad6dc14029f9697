package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseCSV reads a headered CSV and extracts the "x" and "y" columns.
func parseCSV(data []byte) ([]float64, []float64, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %v", ErrFormat, err)
	}
	xCol, yCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "x":
			xCol = i
		case "y":
			yCol = i
		}
	}
	if xCol < 0 || yCol < 0 {
		return nil, nil, fmt.Errorf("%w: cannot find columns x,y in header %v", ErrFormat, header)
	}

	var x, y []float64
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %v", ErrFormat, row, err)
		}
		if len(record) <= xCol || len(record) <= yCol {
			return nil, nil, fmt.Errorf("%w: row %d: expected at least %d columns", ErrFormat, row, max(xCol, yCol)+1)
		}
		xv, err := strconv.ParseFloat(strings.TrimSpace(record[xCol]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: parse x: %v", ErrFormat, row, err)
		}
		yv, err := strconv.ParseFloat(strings.TrimSpace(record[yCol]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: parse y: %v", ErrFormat, row, err)
		}
		x = append(x, xv)
		y = append(y, yv)
	}
	if len(x) == 0 {
		return nil, nil, fmt.Errorf("%w: no data rows", ErrFormat)
	}
	return x, y, nil
}
