// Package compliance scores a resume against the date-format policy. It is
// deterministic and makes no external calls.
package compliance

import (
	"fmt"
	"regexp"
)

const (
	baseline = 100
	penalty  = 20

	// Description labels the compliance layer in the scorecard.
	Description = "Syntax Firewall Check (Strict MM/dd/yyyy)"
	// FlagMissingStandardDate is raised when no MM/DD/YYYY date is present.
	FlagMissingStandardDate = "CRITICAL: No standard date format found (MM/dd/yyyy)."
)

var standardDate = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)

// AntiPattern is a class of non-compliant date notation.
type AntiPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// AntiPatterns are checked in order; each matching class costs the same penalty.
var AntiPatterns = []AntiPattern{
	{
		Name:    "month-name dates",
		Pattern: regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{2,4}\b`),
	},
	{
		Name:    "dash-delimited dates",
		Pattern: regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{2,4}\b`),
	},
}

// Report is the outcome of the compliance check.
type Report struct {
	Score int
	Flags []string
}

// Check scans text for the standard date format and the anti-pattern classes.
// A missing standard date forces the score to zero; every matched anti-pattern
// class subtracts a fixed penalty, floored at zero.
func Check(text string) Report {
	score := baseline
	flags := make([]string, 0, len(AntiPatterns)+1)

	if !standardDate.MatchString(text) {
		score = 0
		flags = append(flags, FlagMissingStandardDate)
	}

	for _, ap := range AntiPatterns {
		matches := len(ap.Pattern.FindAllStringIndex(text, -1))
		if matches == 0 {
			continue
		}
		score -= penalty
		flags = append(flags, fmt.Sprintf("Non-compliant date format: %s (%d found).", ap.Name, matches))
	}

	if score < 0 {
		score = 0
	}

	return Report{Score: score, Flags: flags}
}
