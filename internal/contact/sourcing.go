package contact

import (
	"fmt"
	"net/url"
	"strings"

	_ "embed"

	"github.com/spigell/ta-nexus/internal/ai"
)

const (
	googleSearchURL   = "https://www.google.com/search?q="
	linkedInSearchURL = "https://www.linkedin.com/search/results/people/"

	maxQuerySkills    = 5
	maxLinkedInSkills = 3

	defaultRecruiter = "Talent Acquisition"
)

// Clauses appended to every X-Ray query to drop job seekers and students.
const passiveFilter = `-"looking for opportunities" -"open to work" -"student"`

var titleVariants = map[string][]string{
	"HR Manager":        {"HR Manager", "Human Resources Manager", "مدير موارد بشرية"},
	"Software Engineer": {"Software Engineer", "Backend Developer", "Full Stack Developer"},
	"Data Analyst":      {"Data Analyst", "Business Analyst", "Data Scientist"},
	"Project Manager":   {"Project Manager", "Program Manager", "مدير مشروع"},
	"Financial Analyst": {"Financial Analyst", "Finance Manager", "محلل مالي"},
}

//go:embed templates/email.md
var emailTemplate string

//go:embed templates/linkedin.md
var linkedInTemplate string

type SearchParams struct {
	JobTitle        string
	Skills          []string
	Location        string
	YearsExperience string
	Exclude         []string
}

// BooleanQuery builds a Google X-Ray query over public LinkedIn profiles.
func BooleanQuery(p SearchParams) string {
	parts := []string{"site:linkedin.com/in"}

	variants, ok := titleVariants[p.JobTitle]
	if !ok {
		variants = []string{p.JobTitle}
	}
	parts = append(parts, "("+orQuoted(variants)+")")

	if skills := head(p.Skills, maxQuerySkills); len(skills) > 0 {
		parts = append(parts, "("+orQuoted(skills)+")")
	}
	if p.Location != "" {
		parts = append(parts, quote(p.Location))
	}
	if p.YearsExperience != "" {
		parts = append(parts, quote(p.YearsExperience))
	}
	for _, term := range p.Exclude {
		parts = append(parts, "-"+quote(term))
	}
	parts = append(parts, passiveFilter)

	return strings.Join(parts, " AND ")
}

// BooleanURL wraps BooleanQuery into a Google search link.
func BooleanURL(p SearchParams) string {
	return googleSearchURL + url.QueryEscape(BooleanQuery(p))
}

// LinkedInURL is a plain LinkedIn people search for the title and top skills.
func LinkedInURL(jobTitle string, skills []string) string {
	keywords := strings.Join(append([]string{jobTitle}, head(skills, maxLinkedInSkills)...), " ")

	q := url.Values{}
	q.Set("keywords", keywords)
	q.Set("origin", "GLOBAL_SEARCH_HEADER")
	return linkedInSearchURL + "?" + q.Encode()
}

type Outreach struct {
	EmailSubject    string `json:"email_subject" yaml:"email_subject"`
	EmailBody       string `json:"email_body" yaml:"email_body"`
	LinkedInMessage string `json:"linkedin_message" yaml:"linkedin_message"`
}

// OutreachTemplate personalizes the first contact messages.
func OutreachTemplate(candidateName, jobTitle, company, recruiter string) Outreach {
	if recruiter == "" {
		recruiter = defaultRecruiter
	}
	values := map[string]string{
		"CANDIDATE": candidateName,
		"JOB_TITLE": jobTitle,
		"COMPANY":   company,
		"RECRUITER": recruiter,
	}

	return Outreach{
		EmailSubject:    fmt.Sprintf("Exciting Opportunity — %s at %s", jobTitle, company),
		EmailBody:       strings.TrimSpace(ai.RenderPrompt(emailTemplate, values)),
		LinkedInMessage: strings.TrimSpace(ai.RenderPrompt(linkedInTemplate, values)),
	}
}

func orQuoted(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, quote(v))
	}
	return strings.Join(quoted, " OR ")
}

func quote(s string) string {
	return `"` + s + `"`
}

func head(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
