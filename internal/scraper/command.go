// Package scraper builds and runs invocations of the external job scraper.
package scraper

import (
	"strconv"
	"strings"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
)

// Flag names understood by the scraper CLI. The stock jobspy image knows
// only BaseFlags; the others are emitted only when a request asks for
// something other than the scraper's default.
const (
	FlagSiteName                 = "--site_name"
	FlagSearchTerm               = "--search_term"
	FlagGoogleSearchTerm         = "--google_search_term"
	FlagLocation                 = "--location"
	FlagDistance                 = "--distance"
	FlagJobType                  = "--job_type"
	FlagResultsWanted            = "--results_wanted"
	FlagHoursOld                 = "--hours_old"
	FlagOffset                   = "--offset"
	FlagCountryIndeed            = "--country_indeed"
	FlagIsRemote                 = "--is_remote"
	FlagEasyApply                = "--easy_apply"
	FlagLinkedinFetchDescription = "--linkedin_fetch_description"
	FlagEnforceAnnualSalary      = "--enforce_annual_salary"
	FlagProxies                  = "--proxies"
	FlagCACert                   = "--ca_cert"
	FlagVerbose                  = "--verbose"
	FlagFormat                   = "--format"
)

// BaseFlags is the flag set of the stock jobspy entrypoint.
var BaseFlags = []string{
	FlagSiteName,
	FlagSearchTerm,
	FlagGoogleSearchTerm,
	FlagLocation,
	FlagResultsWanted,
	FlagHoursOld,
	FlagCountryIndeed,
	FlagLinkedinFetchDescription,
	FlagProxies,
	FlagFormat,
}

// BuildArgs maps a canonical request to the scraper's argument vector.
//
// Valued flags are emitted as one "--flag=value" element. The vector is
// handed to the process directly, never through a shell, so a value cannot
// add arguments or be read as another flag whatever characters it holds.
func BuildArgs(req *domain.SearchRequest) []string {
	args := make([]string, 0, 20)

	value := func(flag, v string) {
		if v != "" {
			args = append(args, flag+"="+v)
		}
	}
	number := func(flag string, n int) {
		args = append(args, flag+"="+strconv.Itoa(n))
	}
	toggle := func(flag string, on bool) {
		if on {
			args = append(args, flag)
		}
	}

	value(FlagSiteName, req.SiteSelector())
	value(FlagSearchTerm, req.SearchTerm)
	if req.GoogleSearchTerm != nil {
		value(FlagGoogleSearchTerm, *req.GoogleSearchTerm)
	}
	value(FlagLocation, req.Location)
	if req.Distance != domain.DefaultDistance {
		number(FlagDistance, req.Distance)
	}
	value(FlagJobType, string(req.JobType))
	number(FlagResultsWanted, req.ResultsWanted)
	number(FlagHoursOld, req.HoursOld)
	if req.Offset > 0 {
		number(FlagOffset, req.Offset)
	}
	value(FlagCountryIndeed, req.CountryIndeed)
	toggle(FlagIsRemote, req.IsRemote)
	toggle(FlagEasyApply, req.EasyApply)
	toggle(FlagLinkedinFetchDescription, req.LinkedinFetchDescription)
	toggle(FlagEnforceAnnualSalary, req.EnforceAnnualSalary)
	if len(req.Proxies) > 0 {
		value(FlagProxies, strings.Join(req.Proxies, ","))
	}
	value(FlagCACert, req.CACert)
	if req.Verbose > 0 {
		number(FlagVerbose, req.Verbose)
	}

	format := req.Format
	if format == "" {
		format = domain.FormatJSON
	}
	value(FlagFormat, string(format))

	return args
}
