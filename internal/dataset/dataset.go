// Package dataset holds the static quote dataset.
//
// The CSV is compiled into the binary with go:embed, so the server has no
// runtime file dependency. The storage layer reloads the quotes table from
// this data on every boot; the table is read-only afterwards.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sakif/quotes-api/internal/model"
)

//go:embed quotes.csv
var quotesCSV []byte

// Load parses the embedded CSV into quote records.
//
// The first row is the header (quote,author,context,source); IDs are assigned
// by the database on insert, not here. A malformed dataset is a build
// problem, so any parse error fails loudly.
func Load() ([]model.Quote, error) {
	r := csv.NewReader(bytes.NewReader(quotesCSV))
	r.FieldsPerRecord = 4

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: reading header: %w", err)
	}
	if header[0] != "quote" || header[1] != "author" || header[2] != "context" || header[3] != "source" {
		return nil, fmt.Errorf("dataset: unexpected header %v", header)
	}

	var quotes []model.Quote
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: reading row %d: %w", len(quotes)+2, err)
		}
		quotes = append(quotes, model.Quote{
			Quote:   record[0],
			Author:  record[1],
			Context: record[2],
			Source:  record[3],
		})
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("dataset: no quotes in embedded CSV")
	}
	return quotes, nil
}
