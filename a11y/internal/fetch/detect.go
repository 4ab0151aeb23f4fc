package fetch

import (
	"bytes"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var shellMarkers = [][]byte{
	[]byte(`<div id="root"></div>`),
	[]byte(`<div id="app"></div>`),
	[]byte(`<div id="__next"></div>`),
	[]byte(`<noscript>you need to enable javascript`),
	[]byte(`<noscript>enable javascript`),
}

// IsSufficient reports whether body carries enough visible text to be
// audited as served. Short bodies, text under 10% of the bytes, fewer than
// 200 visible characters or a known app-shell marker all mean no.
func IsSufficient(body []byte) bool {
	if len(body) < 256 {
		return false
	}
	text, markup := textMarkup(body)
	total := text + markup
	if total == 0 || float64(text)/float64(total) < 0.10 || text < 200 {
		return false
	}
	lower := bytes.ToLower(body)
	for _, m := range shellMarkers {
		if bytes.Contains(lower, m) {
			return false
		}
	}
	return true
}

// textMarkup counts non-space text bytes against everything else. Script
// and style bodies count as markup.
func textMarkup(body []byte) (text, markup int) {
	z := html.NewTokenizer(bytes.NewReader(body))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return text, markup
		case html.TextToken:
			raw := z.Raw()
			if skip > 0 {
				markup += len(raw)
				continue
			}
			for _, r := range string(raw) {
				if !unicode.IsSpace(r) {
					text++
				}
			}
		case html.StartTagToken:
			markup += len(z.Raw())
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				skip++
			}
		case html.EndTagToken:
			markup += len(z.Raw())
			name, _ := z.TagName()
			if a := atom.Lookup(name); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		default:
			markup += len(z.Raw())
		}
	}
}
