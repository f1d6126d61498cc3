// Package validate checks a memo Document against AR 25-50 correspondence
// rules. It never mutates the Document.
package validate

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity of an Issue. Only ERROR blocks markup generation.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Issue is one validation finding.
type Issue struct {
	Severity  Severity `json:"severity"`
	Location  string   `json:"location"`
	Message   string   `json:"message"`
	Rule      string   `json:"rule"`
	Reference string   `json:"reference,omitempty"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s [%s]: %s", i.Severity, i.Location, i.Rule, i.Message)
}

// Report is the ordered result of a validation run.
type Report struct {
	Issues []Issue `json:"issues"`
}

// HasBlockingErrors reports whether any issue is an ERROR.
func (r Report) HasBlockingErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the ERROR issues in order.
func (r Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the WARNING issues in order.
func (r Report) Warnings() []Issue { return r.filter(SeverityWarning) }

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// ValidationError wraps every blocking issue of a report.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.Location + ": " + is.Message
	}
	return fmt.Sprintf("validation failed with %d error(s): %s", len(e.Issues), strings.Join(parts, "; "))
}

// Err returns a *ValidationError when the report has blocking errors, else nil.
func (r Report) Err() error {
	if !r.HasBlockingErrors() {
		return nil
	}
	return &ValidationError{Issues: r.Errors()}
}

// Rule describes one catalog entry.
type Rule struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Severity    Severity `yaml:"severity" json:"severity"`
	Reference   string   `yaml:"reference" json:"reference,omitempty"`
	Description string   `yaml:"description" json:"description"`
}

//go:embed rules.yaml
var rulesYAML []byte

var (
	catalog []Rule
	byID    map[string]Rule
)

func init() {
	if err := yaml.Unmarshal(rulesYAML, &catalog); err != nil {
		panic(fmt.Sprintf("validate: parse rules.yaml: %v", err))
	}
	byID = make(map[string]Rule, len(catalog))
	for _, r := range catalog {
		byID[r.ID] = r
	}
}

// Rules returns a copy of the rule catalog in declaration order.
func Rules() []Rule {
	out := make([]Rule, len(catalog))
	copy(out, catalog)
	return out
}

// RuleByID looks up a catalog entry.
func RuleByID(id string) (Rule, bool) {
	r, ok := byID[id]
	return r, ok
}

// NewIssue builds an issue whose severity and reference come from the catalog.
func NewIssue(ruleID, location, format string, args ...any) Issue {
	r, ok := byID[ruleID]
	if !ok {
		panic("validate: unknown rule " + ruleID)
	}
	return Issue{
		Severity:  r.Severity,
		Location:  location,
		Message:   fmt.Sprintf(format, args...),
		Rule:      r.ID,
		Reference: r.Reference,
	}
}
