// Package samplecsv reads the head of a downloaded sample for display.
package samplecsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Preview is the header and first rows of a CSV sample.
type Preview struct {
	Header []string
	Rows   [][]string
	// Total counts every data row in the sample, not only the previewed ones.
	Total int
}

// Parse reads data and keeps at most limit rows. A negative limit keeps every row.
func Parse(data []byte, limit int) (Preview, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Preview{}, errors.New("samplecsv: sample is empty")
	}
	if err != nil {
		return Preview{}, fmt.Errorf("samplecsv: read header: %w", err)
	}

	preview := Preview{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Preview{}, fmt.Errorf("samplecsv: read row %d: %w", preview.Total+1, err)
		}
		preview.Total++
		if limit < 0 || len(preview.Rows) < limit {
			preview.Rows = append(preview.Rows, record)
		}
	}
	return preview, nil
}
