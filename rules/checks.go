package rules

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/a11y/markup"
)

// Checker inspects one element. It never fails: missing attributes mean
// the rule does not fire.
type Checker func(el markup.Element) (Issue, bool)

// elementCheckers run on every element, in this order.
var elementCheckers = []Checker{
	CheckImageAlt,
	CheckFormLabel,
	CheckLinkText,
	CheckLanguage,
	CheckARIARole,
	CheckKeyboard,
	CheckTouchTarget,
}

// CheckElement runs every per-element checker on el.
func CheckElement(el markup.Element) []Issue {
	var out []Issue
	for _, c := range elementCheckers {
		if is, ok := c(el); ok {
			out = append(out, is)
		}
	}
	return out
}

// CheckImageAlt flags images without alt, or with blank alt that are not
// marked presentational.
func CheckImageAlt(el markup.Element) (Issue, bool) {
	if el.Tag != "img" {
		return Issue{}, false
	}
	alt, ok := el.Attrs.Get("alt")
	if !ok {
		return newIssue(ImgAltMissing, &el, "", ""), true
	}
	if strings.TrimSpace(alt) == "" && firstRole(el) != "presentation" {
		return newIssue(ImgAltEmpty, &el, "", ""), true
	}
	return Issue{}, false
}

var unlabelledInputTypes = map[string]bool{
	"submit": true, "button": true, "reset": true, "hidden": true,
}

// CheckFormLabel flags form controls with no id, aria-label,
// aria-labelledby or title. Blank values count as absent. A type of
// submit, button, reset or hidden exempts any of the three control tags.
func CheckFormLabel(el markup.Element) (Issue, bool) {
	switch el.Tag {
	case "input", "select", "textarea":
	default:
		return Issue{}, false
	}
	if unlabelledInputTypes[strings.ToLower(strings.TrimSpace(el.Attrs.Value("type")))] {
		return Issue{}, false
	}
	for _, a := range []string{"id", "aria-label", "aria-labelledby", "title"} {
		if el.Attrs.NonBlank(a) {
			return Issue{}, false
		}
	}
	return newIssue(FormNoLabel, &el, el.Tag+" element missing label", ""), true
}

var genericLinkText = map[string]bool{
	"click here": true, "read more": true, "learn more": true,
	"here": true, "link": true, "more": true,
}

// CheckLinkText flags anchors with no text or generic text, unless an
// aria-label names them.
func CheckLinkText(el markup.Element) (Issue, bool) {
	if el.Tag != "a" || el.Attrs.NonBlank("aria-label") {
		return Issue{}, false
	}
	text := strings.Join(strings.Fields(el.Text), " ")
	if text == "" {
		return newIssue(LinkNoText, &el, "", ""), true
	}
	if genericLinkText[strings.ToLower(text)] {
		return newIssue(LinkGenericText, &el, fmt.Sprintf("Link text '%s' is not descriptive", text), ""), true
	}
	return Issue{}, false
}

// CheckLanguage flags an html element without a non-blank lang.
func CheckLanguage(el markup.Element) (Issue, bool) {
	if el.Tag != "html" || el.Attrs.NonBlank("lang") {
		return Issue{}, false
	}
	return newIssue(HTMLNoLang, nil, "", ""), true
}

// CheckARIARole flags a role attribute containing a token outside the
// WAI-ARIA 1.2 role set.
func CheckARIARole(el markup.Element) (Issue, bool) {
	for _, r := range roles(el) {
		if !validRoles[r] {
			return newIssue(ARIAInvalidRole, &el, fmt.Sprintf("Invalid ARIA role '%s'", r), ""), true
		}
	}
	return Issue{}, false
}

var (
	mouseHandlers   = []string{"onclick", "ondblclick", "onmousedown", "onmouseup"}
	interactiveTags = map[string]bool{
		"a": true, "button": true, "input": true, "select": true, "textarea": true,
	}
)

// CheckKeyboard flags mouse-only handlers on elements that cannot take
// keyboard focus.
func CheckKeyboard(el markup.Element) (Issue, bool) {
	if interactiveTags[el.Tag] || el.Attrs.Has("tabindex") {
		return Issue{}, false
	}
	if r := firstRole(el); r == "button" || r == "link" {
		return Issue{}, false
	}
	for _, h := range mouseHandlers {
		if el.Attrs.NonBlank(h) {
			return newIssue(KeyboardNoAccess, &el, "", ""), true
		}
	}
	return Issue{}, false
}

// CheckTouchTarget always flags buttons and links: geometry is not
// available, so this is a reminder.
func CheckTouchTarget(el markup.Element) (Issue, bool) {
	r := firstRole(el)
	if el.Tag == "button" || el.Tag == "a" || r == "button" || r == "link" {
		return newIssue(TouchTargetSize, &el, "", ""), true
	}
	return Issue{}, false
}

// roles splits the role attribute into lower-cased tokens.
func roles(el markup.Element) []string {
	return strings.Fields(strings.ToLower(el.Attrs.Value("role")))
}

func firstRole(el markup.Element) string {
	if rs := roles(el); len(rs) > 0 {
		return rs[0]
	}
	return ""
}

// validRoles is the WAI-ARIA 1.2 concrete role set.
var validRoles = map[string]bool{}

func init() {
	for _, r := range strings.Fields(`
		alert alertdialog application article banner blockquote button caption
		cell checkbox code columnheader combobox complementary contentinfo
		definition deletion dialog directory document emphasis feed figure form
		generic grid gridcell group heading img insertion link list listbox
		listitem log main marquee math menu menubar menuitem menuitemcheckbox
		menuitemradio meter navigation none note option paragraph presentation
		progressbar radio radiogroup region row rowgroup rowheader scrollbar
		search searchbox separator slider spinbutton status strong subscript
		superscript switch tab table tablist tabpanel term textbox time timer
		toolbar tooltip tree treegrid treeitem`) {
		validRoles[r] = true
	}
}
