package domain

import (
	"strings"
	"time"
)

// Site represents a job board the scraper can query
type Site string

const (
	SiteIndeed       Site = "indeed"
	SiteLinkedIn     Site = "linkedin"
	SiteZipRecruiter Site = "zip_recruiter"
	SiteGlassdoor    Site = "glassdoor"
	SiteGoogle       Site = "google"
	SiteBayt         Site = "bayt"
	SiteNaukri       Site = "naukri"
)

// AllSites lists every supported site in canonical order.
var AllSites = []Site{
	SiteIndeed,
	SiteLinkedIn,
	SiteZipRecruiter,
	SiteGlassdoor,
	SiteGoogle,
	SiteBayt,
	SiteNaukri,
}

// IsValid checks if the site is supported
func (s Site) IsValid() bool {
	for _, known := range AllSites {
		if s == known {
			return true
		}
	}
	return false
}

// JobType represents the employment type filter
type JobType string

const (
	JobTypeFullTime   JobType = "fulltime"
	JobTypePartTime   JobType = "parttime"
	JobTypeInternship JobType = "internship"
	JobTypeContract   JobType = "contract"
)

// IsValid checks if the job type is supported
func (j JobType) IsValid() bool {
	switch j {
	case JobTypeFullTime, JobTypePartTime, JobTypeInternship, JobTypeContract:
		return true
	}
	return false
}

// OutputFormat is the format the scraper writes to stdout
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	return f == FormatJSON || f == FormatCSV
}

// Request defaults. Zero and empty values in a raw request resolve to these.
const (
	DefaultSearchTerm    = "software engineer"
	DefaultLocation      = "San Francisco, CA"
	DefaultDistance      = 50
	DefaultResultsWanted = 20
	DefaultHoursOld      = 72
	DefaultCountryIndeed = "USA"
	DefaultTimeoutMS     = 120000
	MaxVerbose           = 2
)

// SearchRequest is the canonical, fully resolved search request
type SearchRequest struct {
	Sites                    []Site
	SearchTerm               string
	GoogleSearchTerm         *string
	Location                 string
	Distance                 int
	JobType                  JobType
	ResultsWanted            int
	HoursOld                 int
	Offset                   int
	CountryIndeed            string
	IsRemote                 bool
	EasyApply                bool
	LinkedinFetchDescription bool
	EnforceAnnualSalary      bool
	Proxies                  []string
	CACert                   string
	Format                   OutputFormat
	Verbose                  int
	TimeoutMS                int
}

// SiteSelector returns the canonical comma-joined site list.
func (r *SearchRequest) SiteSelector() string {
	names := make([]string, len(r.Sites))
	for i, s := range r.Sites {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}

// Timeout returns the request timeout as a duration
func (r *SearchRequest) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// LogFields returns a flat view of the request for structured logs.
func (r *SearchRequest) LogFields() map[string]any {
	fields := map[string]any{
		"sites":          r.SiteSelector(),
		"search_term":    r.SearchTerm,
		"location":       r.Location,
		"results_wanted": r.ResultsWanted,
		"hours_old":      r.HoursOld,
		"format":         string(r.Format),
		"timeout_ms":     r.TimeoutMS,
	}
	if r.JobType != "" {
		fields["job_type"] = string(r.JobType)
	}
	if len(r.Proxies) > 0 {
		fields["proxy_count"] = len(r.Proxies)
	}
	return fields
}
