// Package validation turns loosely-typed search arguments into a canonical
// domain.SearchRequest.
//
// Every recognised option, its accepted spellings and its coercion rule live
// in the fields table below. Keys are matched case-insensitively with
// underscores ignored, so "siteNames", "site_names" and "SITE_NAMES" are the
// same option.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

type setter func(v any, req *domain.SearchRequest) *domain.FieldError

type field struct {
	name    string
	aliases []string
	set     setter
}

// Validator validates raw tool arguments.
type Validator struct {
	defaultTimeoutMS int
	logger           logrus.FieldLogger
	fields           []field
	index            map[string]int
}

// Option configures a Validator.
type Option func(*Validator)

// WithDefaultTimeout overrides the timeout used when a request does not set one.
func WithDefaultTimeout(ms int) Option {
	return func(v *Validator) {
		if ms > 0 {
			v.defaultTimeoutMS = ms
		}
	}
}

// WithLogger sets the logger used to report ignored options.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// NewValidator creates a Validator with the built-in field table.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		defaultTimeoutMS: domain.DefaultTimeoutMS,
		logger:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.fields = []field{
		{name: "siteNames", aliases: []string{"site_name", "sites"}, set: setSites},
		{name: "searchTerm", set: stringField(func(r *domain.SearchRequest, s string) { r.SearchTerm = s })},
		{name: "googleSearchTerm", set: stringField(func(r *domain.SearchRequest, s string) { r.GoogleSearchTerm = &s })},
		{name: "location", set: stringField(func(r *domain.SearchRequest, s string) { r.Location = s })},
		{name: "distance", set: intField(0, func(r *domain.SearchRequest, n int) { r.Distance = n })},
		{name: "jobType", set: setJobType},
		{name: "resultsWanted", aliases: []string{"results"}, set: intField(1, func(r *domain.SearchRequest, n int) { r.ResultsWanted = n })},
		{name: "hoursOld", set: intField(0, func(r *domain.SearchRequest, n int) { r.HoursOld = n })},
		{name: "offset", set: intField(0, func(r *domain.SearchRequest, n int) { r.Offset = n })},
		{name: "countryIndeed", set: stringField(func(r *domain.SearchRequest, s string) { r.CountryIndeed = s })},
		{name: "isRemote", aliases: []string{"remote", "remote_only"}, set: boolField(func(r *domain.SearchRequest, b bool) { r.IsRemote = b })},
		{name: "easyApply", set: boolField(func(r *domain.SearchRequest, b bool) { r.EasyApply = b })},
		{name: "linkedinFetchDescription", aliases: []string{"fetch_description"}, set: boolField(func(r *domain.SearchRequest, b bool) { r.LinkedinFetchDescription = b })},
		{name: "enforceAnnualSalary", set: boolField(func(r *domain.SearchRequest, b bool) { r.EnforceAnnualSalary = b })},
		{name: "proxies", aliases: []string{"proxy"}, set: setProxies},
		{name: "caCert", set: stringField(func(r *domain.SearchRequest, s string) { r.CACert = s })},
		{name: "format", set: setFormat},
		{name: "verbose", set: setVerbose},
		{name: "timeout", aliases: []string{"timeout_ms"}, set: intField(1, func(r *domain.SearchRequest, n int) { r.TimeoutMS = n })},
	}

	v.index = make(map[string]int)
	for i, f := range v.fields {
		v.index[foldKey(f.name)] = i
		for _, a := range f.aliases {
			v.index[foldKey(a)] = i
		}
	}

	return v
}

// Defaults returns a request with every field at its documented default.
func (v *Validator) Defaults() *domain.SearchRequest {
	return &domain.SearchRequest{
		Sites:         []domain.Site{domain.SiteIndeed},
		SearchTerm:    domain.DefaultSearchTerm,
		Location:      domain.DefaultLocation,
		Distance:      domain.DefaultDistance,
		ResultsWanted: domain.DefaultResultsWanted,
		HoursOld:      domain.DefaultHoursOld,
		CountryIndeed: domain.DefaultCountryIndeed,
		Format:        domain.FormatJSON,
		TimeoutMS:     v.defaultTimeoutMS,
	}
}

// Validate resolves raw into a SearchRequest. On failure it returns a
// VALIDATION_ERROR listing every offending field.
func (v *Validator) Validate(raw map[string]any) (*domain.SearchRequest, error) {
	req := v.Defaults()

	values := make(map[int]any, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		idx, ok := v.index[foldKey(k)]
		if !ok {
			v.logger.WithField("option", k).Debug("ignoring unknown search option")
			continue
		}
		val := raw[k]
		if isUnset(val) {
			continue
		}
		if _, seen := values[idx]; !seen {
			values[idx] = val
		}
	}

	var result *multierror.Error
	for i, f := range v.fields {
		val, ok := values[i]
		if !ok {
			continue
		}
		if ferr := f.set(val, req); ferr != nil {
			ferr.Field = f.name
			result = multierror.Append(result, ferr)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		fields := make([]*domain.FieldError, 0, len(result.Errors))
		for _, e := range result.Errors {
			fields = append(fields, e.(*domain.FieldError))
		}
		return nil, domain.NewValidationError(fields)
	}

	return req, nil
}

func foldKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(k), "_", ""))
}

func invalid(format string, args ...any) *domain.FieldError {
	return &domain.FieldError{Message: fmt.Sprintf(format, args...)}
}

func stringField(assign func(*domain.SearchRequest, string)) setter {
	return func(v any, req *domain.SearchRequest) *domain.FieldError {
		s, ok := asString(v)
		if !ok {
			return invalid("must be a string")
		}
		assign(req, s)
		return nil
	}
}

func intField(min int, assign func(*domain.SearchRequest, int)) setter {
	return func(v any, req *domain.SearchRequest) *domain.FieldError {
		n, numeric, ferr := asInt(v)
		if ferr != nil {
			return ferr
		}
		if !numeric {
			// Non-numeric input keeps the default.
			return nil
		}
		if n == 0 {
			return nil
		}
		if n < min {
			return invalid("must be at least %d, got %d", min, n)
		}
		assign(req, n)
		return nil
	}
}

func boolField(assign func(*domain.SearchRequest, bool)) setter {
	return func(v any, req *domain.SearchRequest) *domain.FieldError {
		assign(req, asBool(v))
		return nil
	}
}

func setSites(v any, req *domain.SearchRequest) *domain.FieldError {
	names, ok := asStringList(v)
	if !ok {
		return invalid("must be a comma-separated string or a list of strings")
	}

	requested := make(map[domain.Site]bool, len(names))
	var unknown []string
	for _, n := range names {
		site := domain.Site(strings.ToLower(n))
		if !site.IsValid() {
			unknown = append(unknown, n)
			continue
		}
		requested[site] = true
	}
	if len(unknown) > 0 {
		return invalid("unsupported site(s): %s (allowed: %s)", strings.Join(unknown, ", "), allowedSites())
	}
	if len(requested) == 0 {
		return nil
	}

	sites := make([]domain.Site, 0, len(requested))
	for _, s := range domain.AllSites {
		if requested[s] {
			sites = append(sites, s)
		}
	}
	req.Sites = sites
	return nil
}

func allowedSites() string {
	names := make([]string, len(domain.AllSites))
	for i, s := range domain.AllSites {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func setJobType(v any, req *domain.SearchRequest) *domain.FieldError {
	s, ok := asString(v)
	if !ok {
		return invalid("must be a string")
	}
	jt := domain.JobType(strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s)))
	if !jt.IsValid() {
		return invalid("unsupported job type %q (allowed: fulltime, parttime, internship, contract)", s)
	}
	req.JobType = jt
	return nil
}

func setProxies(v any, req *domain.SearchRequest) *domain.FieldError {
	proxies, ok := asStringList(v)
	if !ok {
		return invalid("must be a comma-separated string or a list of strings")
	}
	if len(proxies) > 0 {
		req.Proxies = proxies
	}
	return nil
}

func setFormat(v any, req *domain.SearchRequest) *domain.FieldError {
	s, ok := asString(v)
	if !ok {
		return invalid("must be a string")
	}
	f := domain.OutputFormat(strings.ToLower(s))
	if !f.IsValid() {
		return invalid("must be one of json, csv, got %q", s)
	}
	req.Format = f
	return nil
}

func setVerbose(v any, req *domain.SearchRequest) *domain.FieldError {
	n, numeric, ferr := asInt(v)
	if ferr != nil {
		return ferr
	}
	if !numeric {
		return nil
	}
	switch {
	case n < 0:
		n = 0
	case n > domain.MaxVerbose:
		n = domain.MaxVerbose
	}
	req.Verbose = n
	return nil
}
