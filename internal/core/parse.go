package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ParseRows splits decoded text into header-keyed rows.
//
// The first record is the header; its cells are trimmed but keep their case.
// Rows whose cells are all blank are dropped. Each row carries the physical
// line it starts on, so numbering stays right across blank lines and quoted
// cells spanning several lines.
func ParseRows(data []byte, delimiter rune) ([]RawRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: ErrNoDataRows}
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}
		if isEmptyRow(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, RawRow{
			Line:    line,
			Headers: header,
			Values:  record,
		})
	}

	if len(rows) == 0 {
		return nil, &ParseError{Err: ErrNoDataRows}
	}
	return rows, nil
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.StartLine, Err: pe.Err}
	}
	return &ParseError{Err: err}
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
