package normalize

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record is one raw scraper record keyed by the scraper's own field names.
type Record map[string]any

// ParseJSON decodes scraper JSON output. It accepts a top-level array of
// objects or an object wrapping them under "jobs"; anything else, null
// included, is an error. Numbers are kept as json.Number so epoch timestamps
// survive without float rounding.
func ParseJSON(raw []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty JSON document")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON document")
	}

	switch v := doc.(type) {
	case []any:
		return toRecords(v)
	case map[string]any:
		jobs, ok := v["jobs"]
		if !ok {
			return nil, errors.New("JSON object has no \"jobs\" array")
		}
		list, ok := jobs.([]any)
		if !ok {
			return nil, fmt.Errorf("\"jobs\" is %T, want array", jobs)
		}
		return toRecords(list)
	case nil:
		return nil, errors.New("JSON document is null, want array of objects")
	default:
		return nil, fmt.Errorf("JSON document is %T, want array of objects", doc)
	}
}

func toRecords(items []any) ([]Record, error) {
	records := make([]Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d is %T, want object", i, item)
		}
		records = append(records, Record(obj))
	}
	return records, nil
}

// ParseCSV decodes scraper CSV output. The first row is the header; empty
// cells become nil.
func ParseCSV(raw []byte) ([]Record, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row %d: %w", line, err)
		}
		if len(row) > len(header) {
			return nil, fmt.Errorf("CSV row %d has %d fields, header has %d", line, len(row), len(header))
		}

		rec := make(Record, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i >= len(row) || row[i] == "" {
				rec[name] = nil
				continue
			}
			rec[name] = row[i]
		}
		records = append(records, rec)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
