// Package audit checks a code repository against the requirements in a
// compliance brief.
package audit

import "context"

// BriefQuestion is the question put to the analyst to turn a regulatory
// document into a brief an auditor can act on.
const BriefQuestion = "Create a concise, bullet-pointed technical brief for a developer. This brief should list the key compliance requirements from this document that can be checked in a codebase."

// Violation pinpoints one place where the repository breaks a requirement.
type Violation struct {
	File         string `json:"file"`
	Line         int    `json:"line"`
	Snippet      string `json:"violating_code"`
	Explanation  string `json:"explanation"`
	RuleViolated string `json:"rule_violated"`
}

// Auditor inspects the repository at repoPath against the brief.
type Auditor interface {
	Audit(ctx context.Context, repoPath, brief string) ([]Violation, error)
}
