package rules

import (
	"regexp"
	"strings"
)

var outlineSuppressed = regexp.MustCompile(`(?i)outline\s*:\s*(none|0(px|em|rem)?)\s*(!\s*important)?\s*(;|\}|$)`)

var focusAlternatives = []string{"border", "box-shadow", "background"}

// CheckFocusVisible scans literal style text for an outline reset with no
// alternative indicator in the same fragment. Only the first offending
// fragment is reported.
func CheckFocusVisible(styleRules []string) (Issue, bool) {
	for _, frag := range styleRules {
		if !outlineSuppressed.MatchString(frag) {
			continue
		}
		lower := strings.ToLower(frag)
		alt := false
		for _, kw := range focusAlternatives {
			if strings.Contains(lower, kw) {
				alt = true
				break
			}
		}
		if !alt {
			is := newIssue(FocusNotVisible, nil, "", "")
			is.Snapshot = strings.TrimSpace(frag)
			return is, true
		}
	}
	return Issue{}, false
}

// ContrastReminder is the advisory asking callers to measure contrast with
// the contrast package.
func ContrastReminder() Issue {
	return newIssue(ColorContrastCheck, nil, "", "")
}
