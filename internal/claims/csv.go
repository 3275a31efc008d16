package claims

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedCSV is returned when the input cannot be read as a CSV table.
var ErrMalformedCSV = errors.New("malformed CSV")

// ReadTable reads a comma separated table with a header row. A leading
// UTF-8 BOM is skipped and short rows are padded to the header width.
func ReadTable(r io.Reader) (*RawTable, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &RawTable{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if isBlank(record) {
			continue
		}
		if len(record) < len(header) {
			padded := make([]string, len(header))
			copy(padded, record)
			record = padded
		}
		table.Rows = append(table.Rows, record[:len(header)])
	}
	return table, nil
}

// isBlank reports whether a record is a single empty field, which is how
// the csv reader surfaces whitespace-only lines.
func isBlank(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}
