package security

import "github.com/forest6511/guardctl/pkg/store"

// Report represents the overall security assessment of a vault.
type Report struct {
	// Overall is the total score (0-100).
	Overall int `json:"overall"`
	// Components breaks down the score into categories.
	Components Components `json:"components"`
	// Issues contains the detected problems.
	Issues []Issue `json:"issues"`
	// Suggestions provides actionable recommendations.
	Suggestions []string `json:"suggestions"`
}

// Components breaks down the score. Each component contributes up to
// 50 points.
type Components struct {
	// StrengthScore is based on average credential strength (0-50).
	StrengthScore int `json:"strength"`
	// UniquenessScore is based on the share of unique credentials (0-50).
	UniquenessScore int `json:"uniqueness"`
}

// IssueType identifies the category of a security issue.
type IssueType string

const (
	// IssueWeakValue indicates a credential with insufficient strength.
	IssueWeakValue IssueType = "weak"
	// IssueDuplicateValue indicates a credential reused across records.
	IssueDuplicateValue IssueType = "duplicate"
)

// Severity indicates the urgency of an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Issue represents a detected security problem.
type Issue struct {
	Type     IssueType `json:"type"`
	Severity Severity  `json:"severity"`
	// Name is the affected record.
	Name string `json:"name,omitempty"`
	// Names is used for duplicate issues spanning several records.
	Names []string `json:"names,omitempty"`
	// Attr is the specific field with the issue.
	Attr        string `json:"attr,omitempty"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// Analyzer computes security reports over a set of records. The HMAC
// key used for duplicate detection is generated lazily and lives only
// for the analyzer's lifetime.
type Analyzer struct {
	hmacKey []byte
}

// NewAnalyzer returns a fresh analyzer with its own session key.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes the full security report for the given records.
func (a *Analyzer) Analyze(records []store.Record) (*Report, error) {
	// Empty vault: nothing to criticize.
	if len(records) == 0 {
		return &Report{
			Overall:     100,
			Components:  Components{StrengthScore: 50, UniquenessScore: 50},
			Issues:      []Issue{},
			Suggestions: []string{},
		}, nil
	}

	strengthScore, weakIssues := a.strengthScore(records)
	uniquenessScore, dupIssues, err := a.uniquenessScore(records)
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(weakIssues)+len(dupIssues))
	issues = append(issues, weakIssues...)
	issues = append(issues, dupIssues...)

	return &Report{
		Overall:     strengthScore + uniquenessScore,
		Components:  Components{StrengthScore: strengthScore, UniquenessScore: uniquenessScore},
		Issues:      issues,
		Suggestions: suggestions(issues),
	}, nil
}

// strengthScore averages credential strength across all records and
// scales it to 0-50.
func (a *Analyzer) strengthScore(records []store.Record) (int, []Issue) {
	issues := a.FindWeak(records, 0)

	totalPoints, count := 0, 0
	for _, r := range records {
		for _, f := range r.Fields {
			if !IsCredentialAttr(f.Attr, f.Sensitive) || f.Value == "" {
				continue
			}
			count++
			totalPoints += CalculateStrength(f.Value).Points()
		}
	}

	// No credential fields: full score.
	if count == 0 {
		return 50, issues
	}

	score := totalPoints / count
	if score > 50 {
		score = 50
	}
	return score, issues
}

// uniquenessScore measures the share of distinct credential values and
// scales it to 0-50.
func (a *Analyzer) uniquenessScore(records []store.Record) (int, []Issue, error) {
	groups, err := a.FindDuplicates(records, 0)
	if err != nil {
		return 0, nil, err
	}

	total, duplicated := 0, 0
	for _, r := range records {
		for _, f := range r.Fields {
			if IsCredentialAttr(f.Attr, f.Sensitive) && f.Value != "" {
				total++
			}
		}
	}
	for _, g := range groups {
		duplicated += g.Count - 1
	}

	if total == 0 {
		return 50, nil, nil
	}

	var issues []Issue
	for _, g := range groups {
		issues = append(issues, Issue{
			Type:        IssueDuplicateValue,
			Severity:    SeverityWarning,
			Names:       g.Names,
			Description: "multiple records share the same value",
			Suggestion:  "use a unique value for each record",
		})
	}

	unique := total - duplicated
	return unique * 50 / total, issues, nil
}

func suggestions(issues []Issue) []string {
	hasWeak, hasDup := false, false
	for _, issue := range issues {
		switch issue.Type {
		case IssueWeakValue:
			hasWeak = true
		case IssueDuplicateValue:
			hasDup = true
		}
	}

	var out []string
	if hasWeak {
		out = append(out, "update weak values with stronger alternatives (14+ characters)")
	}
	if hasDup {
		out = append(out, "replace duplicate values with unique ones")
	}
	return out
}
