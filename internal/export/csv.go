package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RenderCSV serializes sheet rows to CSV bytes.
func RenderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
