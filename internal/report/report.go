// Package report assembles and renders the outcome of a compliance audit.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"guardian/internal/audit"
)

// Report is the final artifact of a compliance check: the brief extracted
// from the regulation and the violations found against it.
type Report struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Regulation  string            `json:"regulation"`
	Repository  string            `json:"repository"`
	Brief       string            `json:"brief"`
	Violations  []audit.Violation `json:"violations"`
}

func New(regulation, repository, brief string, violations []audit.Violation) Report {
	return Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Regulation:  regulation,
		Repository:  repository,
		Brief:       brief,
		Violations:  violations,
	}
}

// JSON renders the report as indented JSON.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteJSON writes the JSON rendering to path.
func (r Report) WriteJSON(path string) error {
	data, err := r.JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fileStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render formats the report for a terminal.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Compliance Audit Report") + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("id %s, generated %s", r.ID, r.GeneratedAt.Format(time.RFC3339))) + "\n\n")
	b.WriteString(fmt.Sprintf("Regulation: %s\n", r.Regulation))
	b.WriteString(fmt.Sprintf("Repository: %s\n\n", r.Repository))

	b.WriteString(sectionStyle.Render("Technical Brief") + "\n")
	b.WriteString(strings.TrimSpace(r.Brief) + "\n\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Violations (%d)", len(r.Violations))) + "\n")
	if len(r.Violations) == 0 {
		b.WriteString("No violations found.\n")
		return b.String()
	}
	for i, v := range r.Violations {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, fileStyle.Render(fmt.Sprintf("%s:%d", v.File, v.Line))))
		b.WriteString("   " + v.Snippet + "\n")
		b.WriteString("   " + v.Explanation + "\n")
		b.WriteString("   " + dimStyle.Render("Rule: "+v.RuleViolated) + "\n")
	}
	return b.String()
}
