package wcag

import (
	"fmt"
	"strings"
)

var levelBlurb = map[Level]string{
	LevelA:   "Minimum",
	LevelAA:  "Standard",
	LevelAAA: "Enhanced",
}

// truncate shortens s to n runes, appending "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// QuickReference renders a markdown summary of every criterion grouped by
// level.
func QuickReference(c *Catalog) string {
	m := c.Metadata()
	var b strings.Builder
	b.WriteString("# WCAG Quick Reference\n\n")
	if m.Source != "" {
		fmt.Fprintf(&b, "*Source: %s*\n", m.Source)
	}
	fmt.Fprintf(&b, "*Total criteria: %d*\n", m.TotalCriteria)
	if len(m.Versions) > 0 {
		fmt.Fprintf(&b, "*Versions covered: %s*\n", strings.Join(m.Versions, ", "))
	}
	for _, l := range Levels() {
		fmt.Fprintf(&b, "\n## Level %s (%s)\n\n", l, levelBlurb[l])
		for _, cr := range c.ByLevel(l) {
			fmt.Fprintf(&b, "- **%s %s**: %s\n", cr.Number, cr.Title, truncate(cr.Description, 100))
		}
	}
	return b.String()
}

// ByPrincipleReference renders a markdown document of every criterion
// grouped by principle, then guideline.
func ByPrincipleReference(c *Catalog) string {
	var b strings.Builder
	b.WriteString("# WCAG Success Criteria by Principle\n\n")
	for _, p := range Principles() {
		crs := c.ByPrinciple(p)
		if len(crs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", p)

		var order []string
		groups := map[string][]Criterion{}
		for _, cr := range crs {
			if _, ok := groups[cr.Guideline]; !ok {
				order = append(order, cr.Guideline)
			}
			groups[cr.Guideline] = append(groups[cr.Guideline], cr)
		}
		for _, g := range order {
			fmt.Fprintf(&b, "### %s\n\n", g)
			for _, cr := range groups[g] {
				fmt.Fprintf(&b, "- **%s %s** (Level %s)\n", cr.Number, cr.Title, cr.Level)
				fmt.Fprintf(&b, "  - %s\n\n", truncate(cr.Description, 150))
			}
		}
	}
	return b.String()
}
