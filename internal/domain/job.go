package domain

import "encoding/json"

// JobLocation is the decomposed posting location
type JobLocation struct {
	Display    string `json:"display,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Compensation is the advertised pay range
type Compensation struct {
	MinAmount *float64 `json:"minAmount"`
	MaxAmount *float64 `json:"maxAmount"`
	Currency  string   `json:"currency,omitempty"`
	Interval  string   `json:"interval,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// CompanyInfo holds employer metadata reported by some sites
type CompanyInfo struct {
	Industry     string   `json:"industry,omitempty"`
	URL          string   `json:"url,omitempty"`
	URLDirect    string   `json:"urlDirect,omitempty"`
	Logo         string   `json:"logo,omitempty"`
	Addresses    string   `json:"addresses,omitempty"`
	NumEmployees string   `json:"numEmployees,omitempty"`
	Revenue      string   `json:"revenue,omitempty"`
	Description  string   `json:"description,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewsCount *float64 `json:"reviewsCount,omitempty"`
}

// NormalizedJob is one canonical job record. It is built once per raw record
// and not modified afterwards.
type NormalizedJob struct {
	ID           string        `json:"id,omitempty"`
	Site         string        `json:"site,omitempty"`
	JobURL       string        `json:"jobUrl,omitempty"`
	JobURLDirect string        `json:"jobUrlDirect,omitempty"`
	Title        string        `json:"title"`
	Company      string        `json:"company,omitempty"`
	Location     JobLocation   `json:"location"`
	Compensation *Compensation `json:"compensation,omitempty"`
	IsRemote     *bool         `json:"isRemote"`
	// DatePosted is ISO-8601, null, or the original value when it could not be parsed.
	DatePosted   *string      `json:"datePosted"`
	Description  string       `json:"description,omitempty"`
	JobType      string       `json:"jobType,omitempty"`
	JobLevel     string       `json:"jobLevel,omitempty"`
	JobFunction  string       `json:"jobFunction,omitempty"`
	ListingType  string       `json:"listingType,omitempty"`
	Emails       []string     `json:"emails,omitempty"`
	CompanyInfo  *CompanyInfo `json:"companyInfo,omitempty"`

	// Extra carries fields without a dedicated slot, keyed by canonical name.
	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens Extra next to the known fields. Known fields win on
// key collisions.
func (j *NormalizedJob) MarshalJSON() ([]byte, error) {
	type plain NormalizedJob
	known, err := json.Marshal((*plain)(j))
	if err != nil {
		return nil, err
	}
	if len(j.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(j.Extra)+16)
	for k, v := range j.Extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// SearchResponse is the public result of a search
type SearchResponse struct {
	Count   int              `json:"count"`
	Message string           `json:"message"`
	Jobs    []*NormalizedJob `json:"jobs"`
}

// NewSearchResponse builds a response whose count always matches its jobs.
func NewSearchResponse(jobs []*NormalizedJob, message string) *SearchResponse {
	if jobs == nil {
		jobs = []*NormalizedJob{}
	}
	return &SearchResponse{
		Count:   len(jobs),
		Message: message,
		Jobs:    jobs,
	}
}
