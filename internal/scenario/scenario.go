// Package scenario replays YAML scripts of tracker operations against a fresh
// in-memory engine.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultStart is the clock origin used when a scenario does not set one.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultStep is how far the clock moves after each step.
const DefaultStep = time.Minute

// Scenario is a named, ordered list of operations.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Start is the RFC3339 time of the first step.
	Start string `yaml:"start,omitempty"`

	// Step is a Go duration the clock advances after every step.
	Step string `yaml:"step,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step holds exactly one operation. At optionally pins the clock before the
// operation runs.
type Step struct {
	At string `yaml:"at,omitempty"`

	AddUser     *AddUser  `yaml:"add_user,omitempty"`
	AddIssue    *AddIssue `yaml:"add_issue,omitempty"`
	RemoveIssue *IssueRef `yaml:"remove_issue,omitempty"`
	ClearIssues bool      `yaml:"clear_issues,omitempty"`
	Assign      *Assign   `yaml:"assign,omitempty"`
	SetState    *SetState `yaml:"set_state,omitempty"`
	Comment     *Comment  `yaml:"comment,omitempty"`
	Query       *Query    `yaml:"query,omitempty"`
}

type AddUser struct {
	Name string `yaml:"name"`
	As   string `yaml:"as,omitempty"`
}

type AddIssue struct {
	Title string `yaml:"title"`
	As    string `yaml:"as,omitempty"`
}

type IssueRef struct {
	Issue string `yaml:"issue"`
}

// Assign sets the assignee of Issue. An empty User unassigns it.
type Assign struct {
	Issue string `yaml:"issue"`
	User  string `yaml:"user,omitempty"`
}

type SetState struct {
	Issue   string  `yaml:"issue"`
	State   string  `yaml:"state"`
	Comment *string `yaml:"comment,omitempty"`
}

type Comment struct {
	Issue string  `yaml:"issue"`
	User  string  `yaml:"user"`
	Text  *string `yaml:"text,omitempty"`
}

// Query runs a filtered issue query. Since and Until take an RFC3339 time or
// an issue reference, meaning that issue's creation time. When Expect is set
// the result must be exactly those issues, in order.
type Query struct {
	Name   string   `yaml:"name"`
	State  string   `yaml:"state,omitempty"`
	User   string   `yaml:"user,omitempty"`
	Since  string   `yaml:"since,omitempty"`
	Until  string   `yaml:"until,omitempty"`
	Expect []string `yaml:"expect,omitempty"`
}

// Op returns the name of the step's operation, or an error when the step
// sets none or more than one.
func (s Step) Op() (string, error) {
	var ops []string
	if s.AddUser != nil {
		ops = append(ops, "add_user")
	}
	if s.AddIssue != nil {
		ops = append(ops, "add_issue")
	}
	if s.RemoveIssue != nil {
		ops = append(ops, "remove_issue")
	}
	if s.ClearIssues {
		ops = append(ops, "clear_issues")
	}
	if s.Assign != nil {
		ops = append(ops, "assign")
	}
	if s.SetState != nil {
		ops = append(ops, "set_state")
	}
	if s.Comment != nil {
		ops = append(ops, "comment")
	}
	if s.Query != nil {
		ops = append(ops, "query")
	}
	switch len(ops) {
	case 0:
		return "", fmt.Errorf("step has no operation")
	case 1:
		return ops[0], nil
	default:
		return "", fmt.Errorf("step has %d operations %v, want exactly one", len(ops), ops)
	}
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario document. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario name is required")
	}
	for i, step := range s.Steps {
		if _, err := step.Op(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	if _, err := s.start(); err != nil {
		return nil, err
	}
	if _, err := s.step(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) start() (time.Time, error) {
	if s.Start == "" {
		return DefaultStart, nil
	}
	t, err := time.Parse(time.RFC3339, s.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start %q: %w", s.Start, err)
	}
	return t, nil
}

func (s *Scenario) step() (time.Duration, error) {
	if s.Step == "" {
		return DefaultStep, nil
	}
	d, err := time.ParseDuration(s.Step)
	if err != nil {
		return 0, fmt.Errorf("invalid step %q: %w", s.Step, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid step %q: must not be negative", s.Step)
	}
	return d, nil
}
