// Package normalize turns raw scraper output into canonical job records.
package normalize

import (
	"fmt"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/sirupsen/logrus"
)

// Normalizer converts scraper stdout into NormalizedJob values.
type Normalizer struct {
	logger logrus.FieldLogger
}

// New creates a Normalizer. A nil logger falls back to the standard logger.
func New(logger logrus.FieldLogger) *Normalizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Normalizer{logger: logger}
}

// Normalize parses raw in the given format and returns one job per record in
// input order. Unparseable output is MALFORMED_OUTPUT; a bad value inside a
// single record is logged and kept as-is.
func (n *Normalizer) Normalize(raw []byte, format domain.OutputFormat) ([]*domain.NormalizedJob, error) {
	var (
		records []Record
		err     error
	)
	switch format {
	case domain.FormatCSV:
		records, err = ParseCSV(raw)
	default:
		records, err = ParseJSON(raw)
	}
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeMalformedOutput,
			fmt.Sprintf("could not parse scraper %s output", formatName(format)), err)
	}

	jobs := make([]*domain.NormalizedJob, 0, len(records))
	for i, rec := range records {
		jobs = append(jobs, n.normalizeRecord(i, rec))
	}
	return jobs, nil
}

func (n *Normalizer) normalizeRecord(index int, rec Record) *domain.NormalizedJob {
	renamed := RenameKeys(rec)
	for k, v := range renamed {
		if !IsDateKey(k) || isNull(v) {
			continue
		}
		if ts, ok := CanonicalizeDate(v); ok {
			renamed[k] = ts
			continue
		}
		n.logger.WithFields(logrus.Fields{
			"record": index,
			"field":  k,
			"value":  displayValue(v),
		}).Warn("could not parse date, keeping original value")
	}
	return shape(renamed)
}

func formatName(format domain.OutputFormat) string {
	if format == "" {
		return string(domain.FormatJSON)
	}
	return string(format)
}
