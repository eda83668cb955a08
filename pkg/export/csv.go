package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVRenderer writes a header line followed by one line per row.
type CSVRenderer struct{}

func (CSVRenderer) ContentType() string { return "text/csv" }

func (CSVRenderer) Extension() string { return "csv" }

// Render encodes the dataset as RFC 4180 CSV.
func (CSVRenderer) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, ErrNoColumns
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(data.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range data.Rows {
		if err := w.Write(data.Record(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
