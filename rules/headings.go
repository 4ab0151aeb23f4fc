package rules

import (
	"fmt"

	"github.com/hazyhaar/a11y/markup"
)

// headingLevel returns N for a tag of the form "h<digit>", N in 1..9.
func headingLevel(tag string) (int, bool) {
	if len(tag) != 2 || tag[0] != 'h' || tag[1] < '1' || tag[1] > '9' {
		return 0, false
	}
	return int(tag[1] - '0'), true
}

// CheckHeadings validates heading order in a single left-to-right pass.
// headings must be in document order. A first heading other than h1 yields
// one warning; every jump of more than one level down yields an error.
// Malformed tags are skipped without resetting the tracked level.
func CheckHeadings(headings []markup.Element) []Issue {
	if len(headings) == 0 {
		return nil
	}
	var out []Issue
	if headings[0].Tag != "h1" {
		out = append(out, newIssue(HeadingNoH1, nil, "", ""))
	}

	prev := 0
	for i := range headings {
		lvl, ok := headingLevel(headings[i].Tag)
		if !ok {
			continue
		}
		if prev > 0 && lvl > prev+1 {
			out = append(out, newIssue(HeadingSkippedLevel, &headings[i],
				fmt.Sprintf("Heading level skipped from h%d to h%d", prev, lvl),
				fmt.Sprintf("Use h%d instead of h%d", prev+1, lvl)))
		}
		prev = lvl
	}
	return out
}
