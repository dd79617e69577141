package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"

	"tokodash/backend/internal/domain"
)

// CSVRenderer writes the document as UTF-8 CSV: header row, data rows, then
// a blank line and the summary as key,value pairs.
type CSVRenderer struct{}

func (CSVRenderer) Extension() string { return "csv" }

func (CSVRenderer) Render(doc domain.ReportDocument) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(doc.Headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, row := range doc.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	if len(doc.Summary) > 0 {
		_ = w.Write([]string{})
		keys := make([]string, 0, len(doc.Summary))
		for k := range doc.Summary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := w.Write([]string{k, doc.Summary[k]}); err != nil {
				return nil, fmt.Errorf("write summary: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
