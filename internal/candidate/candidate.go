// Package candidate holds the candidate and role value types shared by the
// scoring components.
package candidate

import (
	"strings"

	"github.com/spigell/ta-nexus/internal/risk"
)

type Profile struct {
	ID             string     `json:"id" yaml:"id" mapstructure:"id"`
	Name           string     `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Email          string     `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email" validate:"omitempty,email"`
	CurrentTitle   string     `json:"current_title,omitempty" yaml:"current_title,omitempty" mapstructure:"current_title"`
	CurrentCompany string     `json:"current_company,omitempty" yaml:"current_company,omitempty" mapstructure:"current_company"`
	CompanySymbol  string     `json:"company_symbol,omitempty" yaml:"company_symbol,omitempty" mapstructure:"company_symbol"`
	Skills         []string   `json:"skills" yaml:"skills" mapstructure:"skills"`
	JobHistory     []risk.Job `json:"job_history" yaml:"job_history" mapstructure:"job_history"`
	SalaryAsk      float64    `json:"salary_ask,omitempty" yaml:"salary_ask,omitempty" mapstructure:"salary_ask" validate:"gte=0"`
	Location       string     `json:"location,omitempty" yaml:"location,omitempty" mapstructure:"location"`
}

type JobRequirement struct {
	ID             string   `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Title          string   `json:"title" yaml:"title" mapstructure:"title" validate:"required"`
	Description    string   `json:"description" yaml:"description" mapstructure:"description"`
	RequiredSkills []string `json:"required_skills" yaml:"required_skills" mapstructure:"required_skills"`
	Location       string   `json:"location,omitempty" yaml:"location,omitempty" mapstructure:"location"`
}

// Clone returns a deep copy so concurrent readers never share slices.
func (p Profile) Clone() Profile {
	p.Skills = append([]string(nil), p.Skills...)
	p.JobHistory = append([]risk.Job(nil), p.JobHistory...)
	return p
}

func (j JobRequirement) Clone() JobRequirement {
	j.RequiredSkills = append([]string(nil), j.RequiredSkills...)
	return j
}

// FirstLastName splits Name into first and remaining parts.
func (p Profile) FirstLastName() (string, string) {
	parts := strings.Fields(p.Name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
