package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// parseText handles both RRUFF exports (first line starts with '#') and plain
// whitespace-separated columns.
func parseText(data []byte) ([]float64, []float64, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		x, y     []float64
		headered bool
		lineNo   int
	)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			headered = strings.HasPrefix(line, "#")
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		var fields []string
		if headered {
			if strings.HasPrefix(line, "##") || strings.HasPrefix(line, "800, -") {
				continue
			}
			fields = strings.Split(trimmed, ", ")
		} else {
			fields = strings.Fields(trimmed)
		}
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("%w: line %d: expected two columns, got %q", ErrFormat, lineNo, trimmed)
		}
		xv, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: parse x: %v", ErrFormat, lineNo, err)
		}
		yv, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: parse y: %v", ErrFormat, lineNo, err)
		}
		x = append(x, xv)
		y = append(y, yv)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(x) == 0 {
		return nil, nil, fmt.Errorf("%w: no data rows (ensure the file matches the RRUFF .txt layout)", ErrFormat)
	}
	if !headered && len(x) > 1 && x[0] > x[len(x)-1] {
		reverse(x)
		reverse(y)
	}
	return x, y, nil
}
