package mcp

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/jobspy-mcp/internal/mcp/protocol"
)

const (
	PromptSearchJobs     = "search_jobs"
	PromptResumeFeedback = "resume_feedback"
)

var prompts = []protocol.Prompt{
	{
		Name:        PromptSearchJobs,
		Description: "Extract job search parameters from a natural language query",
		Arguments: []protocol.PromptArgument{
			{Name: "query", Description: "Job search query", Required: true},
		},
	},
	{
		Name:        PromptResumeFeedback,
		Description: "Review a resume for a target role and industry",
		Arguments: []protocol.PromptArgument{
			{Name: "resumeText", Description: "The full text of the resume to analyze", Required: true},
			{Name: "targetRole", Description: "The specific job role the resume is targeting", Required: true},
			{Name: "targetIndustry", Description: "The industry the job seeker is targeting", Required: true},
			{Name: "experienceLevel", Description: "The experience level of the job seeker (e.g., entry-level, mid-level, senior)", Required: true},
		},
	},
}

// renderPrompt fills a prompt template. Missing required arguments are an error.
func renderPrompt(name string, args map[string]string) (*protocol.GetPromptResult, error) {
	var def *protocol.Prompt
	for i := range prompts {
		if prompts[i].Name == name {
			def = &prompts[i]
			break
		}
	}
	if def == nil {
		return nil, fmt.Errorf("unknown prompt %q", name)
	}

	var missing []string
	for _, a := range def.Arguments {
		if a.Required && strings.TrimSpace(args[a.Name]) == "" {
			missing = append(missing, a.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt %q: missing required argument(s): %s", name, strings.Join(missing, ", "))
	}

	var text string
	switch name {
	case PromptSearchJobs:
		text = fmt.Sprintf(`You are a helpful assistant who helps users search for jobs by understanding their job search requirements.
Based on the user query, extract the search parameters needed to find relevant jobs.

Extract search parameters from the following job search query: %q

Provide the following information:
1. Job title or keywords
2. Location (if specified, otherwise assume "Remote")
3. Any specific companies mentioned
4. Job type preferences (full-time, part-time, contract, etc.)
5. Experience level requirements (entry, mid, senior)`, args["query"])
	case PromptResumeFeedback:
		text = fmt.Sprintf(`You are a professional resume reviewer with expertise in helping job seekers improve their resumes for specific roles and industries.
Provide comprehensive and constructive feedback on the resume text provided.

Please review the following resume for a %s professional targeting a %s position in the %s industry.
Provide specific, actionable feedback in these categories:
1. Overall impression and effectiveness
2. Content and relevance to target role
3. Format and structure
4. Keywords and ATS optimization
5. Strengths and areas for improvement
6. Suggested edits or additions

Resume:
%s`, args["experienceLevel"], args["targetRole"], args["targetIndustry"], args["resumeText"])
	}

	return &protocol.GetPromptResult{
		Description: def.Description,
		Messages: []protocol.PromptMessage{
			{Role: "user", Content: protocol.TextContent(text)},
		},
	}, nil
}
