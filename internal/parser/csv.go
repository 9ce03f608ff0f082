package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser handles CSV files. Rows are rendered as "header: value" lines
// in batches, each under a "Rows a-b:" heading.
type CSVParser struct{}

const csvBatchSize = 20

func (p *CSVParser) Parse(_ context.Context, r io.Reader, _ string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]
	dataRows := records[1:]

	var batches []string
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		var text strings.Builder
		// 1-indexed, header is row 1.
		fmt.Fprintf(&text, "Rows %d-%d:\n", i+2, end+1)
		for _, row := range dataRows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}
		batches = append(batches, strings.TrimRight(text.String(), "\n"))
	}
	if len(batches) == 0 {
		return "Headers: " + strings.Join(headers, ", "), nil
	}
	return "Headers: " + strings.Join(headers, ", ") + "\n\n" + strings.Join(batches, "\n\n"), nil
}
