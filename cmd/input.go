package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/evaluation"
	"github.com/spigell/ta-nexus/internal/store"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var validate = validator.New()

// analysisInput is the file accepted by analyze and session create.
type analysisInput struct {
	Candidate candidate.Profile         `yaml:"candidate"`
	Job       *candidate.JobRequirement `yaml:"job" validate:"omitempty"`

	// SalaryAsk overrides candidate.salary_ask when set.
	SalaryAsk float64 `yaml:"salary_ask" validate:"gte=0"`
}

func (in analysisInput) job() candidate.JobRequirement {
	if in.Job == nil {
		return candidate.JobRequirement{}
	}
	return *in.Job
}

func (in analysisInput) ask() float64 {
	if in.SalaryAsk > 0 {
		return in.SalaryAsk
	}
	return in.Candidate.SalaryAsk
}

// sessionInput may carry prepared questions. Without them they are
// generated for the candidate.
type sessionInput struct {
	analysisInput `yaml:",inline"`

	Questions []store.Question `yaml:"questions"`
}

type evaluationInput struct {
	SessionID      string              `yaml:"session_id"`
	JobDescription string              `yaml:"job_description"`
	Pairs          []evaluation.QAPair `yaml:"pairs" validate:"required,min=1,dive"`
}

type answersInput struct {
	Answers []store.Answer `yaml:"answers" validate:"required,min=1"`
}

// readInput decodes a yaml or json file into dst and validates it. A path
// of "-" reads stdin.
func readInput(path string, dst any) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}

	return nil
}

func readFile(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("input file is required")
	}

	if path == "-" {
		return io.ReadAll(os.Stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func marshal(format string, v any) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case FormatYAML:
		var b strings.Builder
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeOutput(w io.Writer, format string, v any) error {
	out, err := marshal(format, v)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// dumpToTmpFile writes v into a new temporary file and returns its name.
func dumpToTmpFile(format string, v any) (string, error) {
	out, err := marshal(format, v)
	if err != nil {
		return "", err
	}

	ext := FormatJSON
	if strings.EqualFold(format, FormatYAML) {
		ext = FormatYAML
	}

	f, err := os.CreateTemp("", app+"-report-*."+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(out); err != nil {
		return "", err
	}
	return f.Name(), nil
}
