package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/cloo-solutions/jobspy-mcp/internal/mcp/protocol"
	"github.com/cloo-solutions/jobspy-mcp/internal/service"
)

// Searcher runs job searches. *service.SearchService satisfies it.
type Searcher interface {
	Search(ctx context.Context, raw map[string]any, call service.CallInfo) (*domain.SearchResponse, error)
}

const searchJobsDescription = "Search for jobs across various job listing websites " +
	"(Indeed, LinkedIn, ZipRecruiter, Glassdoor, Google, Bayt, Naukri)."

var searchJobsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "siteNames": {
      "type": "string",
      "description": "Comma-separated list of job sites to search. Options: indeed,linkedin,zip_recruiter,glassdoor,google,bayt,naukri",
      "default": "indeed"
    },
    "searchTerm": {"type": "string", "description": "Search term for jobs", "default": "software engineer"},
    "googleSearchTerm": {"type": "string", "description": "Google specific search term"},
    "location": {"type": "string", "description": "Location for job search", "default": "San Francisco, CA"},
    "distance": {"type": "integer", "minimum": 0, "description": "Search radius in miles", "default": 50},
    "jobType": {"type": "string", "enum": ["fulltime", "parttime", "internship", "contract"], "description": "Type of employment"},
    "resultsWanted": {"type": "integer", "minimum": 1, "description": "Number of results wanted", "default": 20},
    "hoursOld": {"type": "integer", "minimum": 0, "description": "How many hours old the jobs can be", "default": 72},
    "offset": {"type": "integer", "minimum": 0, "description": "Number of results to skip", "default": 0},
    "countryIndeed": {"type": "string", "description": "Country for Indeed search", "default": "USA"},
    "isRemote": {"type": "boolean", "description": "Only return remote jobs", "default": false},
    "easyApply": {"type": "boolean", "description": "Only return jobs with on-site apply", "default": false},
    "linkedinFetchDescription": {"type": "boolean", "description": "Whether to fetch LinkedIn job descriptions (slower)", "default": false},
    "enforceAnnualSalary": {"type": "boolean", "description": "Convert wages to annual salary", "default": false},
    "proxies": {"type": "string", "description": "Comma-separated list of proxies"},
    "caCert": {"type": "string", "description": "Path to a CA certificate for proxies"},
    "format": {"type": "string", "enum": ["json", "csv"], "description": "Output format", "default": "json"},
    "verbose": {"type": "integer", "minimum": 0, "maximum": 2, "description": "Scraper log verbosity", "default": 0},
    "timeout": {"type": "integer", "minimum": 1, "description": "Timeout in milliseconds", "default": 120000}
  }
}`)

func searchJobsTool() protocol.Tool {
	return protocol.Tool{
		Name:        service.ToolName,
		Description: searchJobsDescription,
		InputSchema: searchJobsSchema,
	}
}

// ToolResult converts a search outcome into a tools/call result.
func ToolResult(resp *domain.SearchResponse, err error) *protocol.CallToolResult {
	if err != nil {
		return ToolErrorResult(err)
	}
	body, mErr := json.Marshal(resp)
	if mErr != nil {
		return ToolErrorResult(mErr)
	}
	return &protocol.CallToolResult{
		IsError: false,
		Content: []protocol.Content{protocol.TextContent(string(body))},
	}
}

// ToolErrorResult describes err with its stable code.
func ToolErrorResult(err error) *protocol.CallToolResult {
	toolErr := &protocol.ToolError{
		Message: err.Error(),
		Code:    domain.ErrorCode(err),
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		toolErr.Message = de.Message
		if len(de.Fields) > 0 {
			toolErr.Fields = de.Fields
		}
	}
	return &protocol.CallToolResult{IsError: true, Error: toolErr}
}
