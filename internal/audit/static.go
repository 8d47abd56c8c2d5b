package audit

import "context"

// StaticAuditor reports a fixed set of findings. It stands in for a real
// scanner so the rest of the pipeline can run end to end.
type StaticAuditor struct{}

func NewStaticAuditor() StaticAuditor { return StaticAuditor{} }

func (StaticAuditor) Audit(ctx context.Context, repoPath, brief string) ([]Violation, error) {
	return []Violation{
		{
			File:         "frontend/components/ImageGallery.js",
			Line:         15,
			Snippet:      "<img src='/logo.png' />",
			Explanation:  "Image element missing alt attribute for accessibility",
			RuleViolated: "All image elements must have valid alt attributes",
		},
		{
			File:         "backend/auth.py",
			Line:         45,
			Snippet:      "password = request.form['password']",
			Explanation:  "No password strength validation implemented",
			RuleViolated: "Password fields must implement minimum strength requirements",
		},
	}, nil
}
