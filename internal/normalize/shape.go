package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
)

// keys with a dedicated NormalizedJob slot; everything else lands in Extra.
var shapedKeys = map[string]struct{}{
	"id": {}, "site": {}, "jobUrl": {}, "jobUrlDirect": {}, "title": {}, "company": {},
	"location": {}, "city": {}, "state": {}, "country": {}, "postalCode": {}, "zipCode": {},
	"minAmount": {}, "maxAmount": {}, "currency": {}, "interval": {}, "salarySource": {},
	"isRemote": {}, "datePosted": {}, "description": {}, "jobType": {}, "jobLevel": {},
	"jobFunction": {}, "listingType": {}, "emails": {},
	"companyIndustry": {}, "companyUrl": {}, "companyUrlDirect": {}, "companyLogo": {},
	"companyAddresses": {}, "companyNumEmployees": {}, "companyRevenue": {},
	"companyDescription": {}, "companyRating": {}, "companyReviewsCount": {},
}

// shape builds a NormalizedJob from a record whose keys and dates are
// already canonical.
func shape(rec Record) *domain.NormalizedJob {
	job := &domain.NormalizedJob{
		ID:           str(rec["id"]),
		Site:         str(rec["site"]),
		JobURL:       str(rec["jobUrl"]),
		JobURLDirect: str(rec["jobUrlDirect"]),
		Title:        str(rec["title"]),
		Company:      str(rec["company"]),
		Location:     location(rec),
		Compensation: compensation(rec),
		IsRemote:     boolPtr(rec["isRemote"]),
		Description:  str(rec["description"]),
		JobType:      str(rec["jobType"]),
		JobLevel:     str(rec["jobLevel"]),
		JobFunction:  str(rec["jobFunction"]),
		ListingType:  str(rec["listingType"]),
		Emails:       strList(rec["emails"]),
		CompanyInfo:  companyInfo(rec),
	}
	if v := rec["datePosted"]; !isNull(v) {
		s := displayValue(v)
		job.DatePosted = &s
	}

	for k, v := range rec {
		if _, ok := shapedKeys[k]; ok {
			continue
		}
		if job.Extra == nil {
			job.Extra = make(map[string]any)
		}
		job.Extra[k] = plain(v)
	}
	return job
}

func location(rec Record) domain.JobLocation {
	var loc domain.JobLocation

	switch v := rec["location"].(type) {
	case map[string]any:
		nested := RenameKeys(v)
		loc.City = str(nested["city"])
		loc.State = str(nested["state"])
		loc.Country = str(nested["country"])
		loc.PostalCode = firstStr(nested["postalCode"], nested["zipCode"])
		loc.Display = joinNonEmpty(loc.City, loc.State, loc.Country)
	default:
		loc.Display = str(v)
	}

	city, state, country := str(rec["city"]), str(rec["state"]), str(rec["country"])
	if city != "" || state != "" || country != "" {
		loc.City, loc.State, loc.Country = city, state, country
	} else if loc.City == "" && loc.State == "" && loc.Country == "" {
		parts := splitLocation(loc.Display)
		switch {
		case len(parts) >= 3:
			loc.City = strings.Join(parts[:len(parts)-2], ", ")
			loc.State = parts[len(parts)-2]
			loc.Country = parts[len(parts)-1]
		case len(parts) == 2:
			loc.City, loc.State = parts[0], parts[1]
		}
	}
	if pc := firstStr(rec["postalCode"], rec["zipCode"]); pc != "" {
		loc.PostalCode = pc
	}
	if loc.Display == "" {
		loc.Display = joinNonEmpty(loc.City, loc.State, loc.Country)
	}
	return loc
}

func splitLocation(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func compensation(rec Record) *domain.Compensation {
	c := domain.Compensation{
		MinAmount: floatPtr(rec["minAmount"]),
		MaxAmount: floatPtr(rec["maxAmount"]),
		Currency:  str(rec["currency"]),
		Interval:  str(rec["interval"]),
		Source:    str(rec["salarySource"]),
	}
	if c.MinAmount == nil && c.MaxAmount == nil && c.Currency == "" && c.Interval == "" && c.Source == "" {
		return nil
	}
	return &c
}

func companyInfo(rec Record) *domain.CompanyInfo {
	info := domain.CompanyInfo{
		Industry:     str(rec["companyIndustry"]),
		URL:          str(rec["companyUrl"]),
		URLDirect:    str(rec["companyUrlDirect"]),
		Logo:         str(rec["companyLogo"]),
		Addresses:    str(rec["companyAddresses"]),
		NumEmployees: str(rec["companyNumEmployees"]),
		Revenue:      str(rec["companyRevenue"]),
		Description:  str(rec["companyDescription"]),
		Rating:       floatPtr(rec["companyRating"]),
		ReviewsCount: floatPtr(rec["companyReviewsCount"]),
	}
	if info == (domain.CompanyInfo{}) {
		return nil
	}
	return &info
}

// isNull treats the placeholders dataframe exports use for missing cells as null.
func isNull(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		switch strings.TrimSpace(val) {
		case "", "nan", "NaN", "None", "null", "NULL":
			return true
		}
	}
	return false
}

func str(v any) string {
	if isNull(v) {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any, []any:
		return ""
	default:
		return displayValue(val)
	}
}

func firstStr(vals ...any) string {
	for _, v := range vals {
		if s := str(v); s != "" {
			return s
		}
	}
	return ""
}

func floatPtr(v any) *float64 {
	if isNull(v) {
		return nil
	}
	var (
		f   float64
		err error
	)
	switch val := v.(type) {
	case json.Number:
		f, err = val.Float64()
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &f
}

func boolPtr(v any) *bool {
	if isNull(v) {
		return nil
	}
	var b bool
	switch val := v.(type) {
	case bool:
		b = val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1", "y":
			b = true
		case "false", "no", "0", "n":
			b = false
		default:
			return nil
		}
	case json.Number:
		b = val.String() != "0"
	default:
		return nil
	}
	return &b
}

func strList(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		return splitLocation(val)
	default:
		return nil
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// plain converts decoder numbers back to native JSON values for Extra.
func plain(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	default:
		return val
	}
}
