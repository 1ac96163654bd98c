package normalize

import (
	"encoding/json"
	"testing"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"job_title", "jobTitle"},
		{"job_url_direct", "jobUrlDirect"},
		{"company_num_employees", "companyNumEmployees"},
		{"JOB_URL", "jobUrl"},
		{"_id", "id"},
		{"is-remote", "isRemote"},
		{"jobUrl", "jobUrl"},
		{"title", "title"},
		{"date posted", "datePosted"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalKey(tt.in))
		})
	}
}

func TestRenameKeys_CanonicalKeyWinsCollision(t *testing.T) {
	out := RenameKeys(Record{"job_url": "snake", "jobUrl": "camel", "site": "indeed"})

	assert.Equal(t, Record{"jobUrl": "camel", "site": "indeed"}, out)
}

func TestCanonicalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"epoch seconds", json.Number("1700000000"), "2023-11-14T22:13:20.000Z", true},
		{"epoch millis", json.Number("1700000000123"), "2023-11-14T22:13:20.123Z", true},
		{"epoch seconds string", "1700000000", "2023-11-14T22:13:20.000Z", true},
		{"epoch float64", float64(1700000000000), "2023-11-14T22:13:20.000Z", true},
		{"iso date", "2024-03-01", "2024-03-01T00:00:00.000Z", true},
		{"rfc3339 with offset", "2024-03-01T10:00:00+02:00", "2024-03-01T08:00:00.000Z", true},
		{"garbage", "not-a-date", "", false},
		{"empty", "  ", "", false},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalizeDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDateKey(t *testing.T) {
	assert.True(t, IsDateKey("datePosted"))
	assert.True(t, IsDateKey("closingDate"))
	assert.True(t, IsDateKey("createdAt"))
	assert.False(t, IsDateKey("title"))
	assert.False(t, IsDateKey("format"))
	assert.True(t, IsDateKey("date"))
	assert.True(t, IsDateKey("postedDate"))
	assert.True(t, IsDateKey("date_posted"))
	assert.True(t, IsDateKey("updatedAt"))
	assert.False(t, IsDateKey("candidateCount"))
	assert.False(t, IsDateKey("isUpdated"))
	assert.False(t, IsDateKey("validated"))
	assert.False(t, IsDateKey("mandate"))
	assert.False(t, IsDateKey("At"))
}

func TestNormalize_LeavesNonDateKeysAlone(t *testing.T) {
	raw := []byte(`[{"title": "x", "candidate_count": 1700000000, "is_updated": "1700000000", "closing_date": 1700000000}]`)

	jobs, err := New(nil).Normalize(raw, domain.FormatJSON)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	out, err := json.Marshal(jobs[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"candidateCount":1700000000`)
	assert.Contains(t, string(out), `"isUpdated":"1700000000"`)
	assert.Contains(t, string(out), `"closingDate":"2023-11-14T22:13:20.000Z"`)
}

func TestNormalize_JSON(t *testing.T) {
	raw := []byte(`[
		{
			"id": "in-1",
			"site": "indeed",
			"job_url": "https://www.indeed.com/viewjob?jk=1",
			"job_title": "Senior Nurse",
			"title": "Nurse",
			"company": "Acme Health",
			"location": "Austin, TX, US",
			"date_posted": 1700000000,
			"min_amount": 80000,
			"max_amount": 95000.5,
			"currency": "USD",
			"interval": "yearly",
			"is_remote": true,
			"emails": ["jobs@acme.test"],
			"company_rating": 4.2,
			"skills": ["triage", "ICU"],
			"vacancy_count": 3
		}
	]`)

	jobs, err := New(nil).Normalize(raw, domain.FormatJSON)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, "in-1", job.ID)
	assert.Equal(t, "indeed", job.Site)
	assert.Equal(t, "https://www.indeed.com/viewjob?jk=1", job.JobURL)
	assert.Equal(t, "Nurse", job.Title)
	assert.Equal(t, "Acme Health", job.Company)
	assert.Equal(t, domain.JobLocation{Display: "Austin, TX, US", City: "Austin", State: "TX", Country: "US"}, job.Location)
	require.NotNil(t, job.DatePosted)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", *job.DatePosted)
	require.NotNil(t, job.IsRemote)
	assert.True(t, *job.IsRemote)
	require.NotNil(t, job.Compensation)
	assert.Equal(t, 80000.0, *job.Compensation.MinAmount)
	assert.Equal(t, 95000.5, *job.Compensation.MaxAmount)
	assert.Equal(t, "USD", job.Compensation.Currency)
	assert.Equal(t, []string{"jobs@acme.test"}, job.Emails)
	require.NotNil(t, job.CompanyInfo)
	assert.Equal(t, 4.2, *job.CompanyInfo.Rating)

	assert.Equal(t, "Senior Nurse", job.Extra["jobTitle"])
	assert.Equal(t, []any{"triage", "ICU"}, job.Extra["skills"])
	assert.Equal(t, int64(3), job.Extra["vacancyCount"])

	out, err := json.Marshal(job)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"jobTitle":"Senior Nurse"`)
	assert.Contains(t, string(out), `"vacancyCount":3`)
	assert.NotContains(t, string(out), "job_title")
}

func TestNormalize_UnparseableDateIsKeptAndLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	raw := []byte(`[{"title": "a", "date_posted": "not-a-date"}, {"title": "b", "date_posted": 1700000000}]`)

	jobs, err := New(logger).Normalize(raw, domain.FormatJSON)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	require.NotNil(t, jobs[0].DatePosted)
	assert.Equal(t, "not-a-date", *jobs[0].DatePosted)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", *jobs[1].DatePosted)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "datePosted", entry.Data["field"])
	assert.Equal(t, "not-a-date", entry.Data["value"])
}

func TestNormalize_NullFields(t *testing.T) {
	jobs, err := New(nil).Normalize([]byte(`[{"title": "x", "date_posted": null, "is_remote": null}]`), domain.FormatJSON)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	assert.Nil(t, jobs[0].DatePosted)
	assert.Nil(t, jobs[0].IsRemote)
	assert.Nil(t, jobs[0].Compensation)
	assert.Nil(t, jobs[0].CompanyInfo)

	out, err := json.Marshal(jobs[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"datePosted":null`)
	assert.Contains(t, string(out), `"isRemote":null`)
}

func TestNormalize_WrappedAndEmptyDocuments(t *testing.T) {
	n := New(nil)

	jobs, err := n.Normalize([]byte(`{"jobs": [{"title": "a"}, {"title": "b"}]}`), domain.FormatJSON)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = n.Normalize([]byte(`[]`), domain.FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NotNil(t, jobs)
}

func TestNormalize_MalformedJSON(t *testing.T) {
	for _, raw := range []string{`not json`, `[1, 2]`, `"text"`, `{"jobs": 3}`, `[{}] trailing`, `{"error":"x"}`, `null`} {
		t.Run(raw, func(t *testing.T) {
			_, err := New(nil).Normalize([]byte(raw), domain.FormatJSON)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedOutput)
		})
	}
}

func TestNormalize_CSV(t *testing.T) {
	raw := []byte("id,site,title,company,location,date_posted,is_remote,min_amount,zip_code\n" +
		"li-1,linkedin,Nurse,\"Acme, Inc.\",\"Portland, OR\",2024-03-01,True,61000,97201\n" +
		"li-2,linkedin,Medic,Acme,,,False,,\n")

	jobs, err := New(nil).Normalize(raw, domain.FormatCSV)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	first := jobs[0]
	assert.Equal(t, "Acme, Inc.", first.Company)
	assert.Equal(t, domain.JobLocation{Display: "Portland, OR", City: "Portland", State: "OR", PostalCode: "97201"}, first.Location)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", *first.DatePosted)
	assert.True(t, *first.IsRemote)
	assert.Equal(t, 61000.0, *first.Compensation.MinAmount)

	second := jobs[1]
	assert.Nil(t, second.DatePosted)
	assert.False(t, *second.IsRemote)
	assert.Nil(t, second.Compensation)
	assert.Empty(t, second.Location.Display)
}

func TestNormalize_CSVHeaderOnly(t *testing.T) {
	jobs, err := New(nil).Normalize([]byte("id,title\n"), domain.FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestNormalize_ExplicitLocationFields(t *testing.T) {
	raw := []byte(`[{"title": "a", "location": "Somewhere", "city": "Berlin", "country": "DE"},
		{"title": "b", "location": {"city": "Lyon", "country": "France", "postal_code": "69001"}}]`)

	jobs, err := New(nil).Normalize(raw, domain.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, domain.JobLocation{Display: "Somewhere", City: "Berlin", Country: "DE"}, jobs[0].Location)
	assert.Equal(t, domain.JobLocation{Display: "Lyon, France", City: "Lyon", Country: "France", PostalCode: "69001"}, jobs[1].Location)
}

func TestNormalize_RenamesKeysAndConvertsStringEpoch(t *testing.T) {
	jobs, err := New(nil).Normalize([]byte(`[{"job_title":"Engineer","date_posted":"1700000000"}]`), domain.FormatJSON)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	assert.Equal(t, "Engineer", jobs[0].Extra["jobTitle"])
	require.NotNil(t, jobs[0].DatePosted)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", *jobs[0].DatePosted)
}
