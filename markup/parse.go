package markup

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxText bounds the text gathered for a single element.
const maxText = 1024

// Document is the parse result: elements in document order plus the raw
// style text found in <style> blocks and style attributes.
type Document struct {
	Elements   []Element
	StyleRules []string
	Title      string
}

// Headings returns the h1..h6 elements in document order.
func (d *Document) Headings() []Element {
	var out []Element
	for _, e := range d.Elements {
		if IsHeadingTag(e.Tag) {
			out = append(out, e)
		}
	}
	return out
}

// IsHeadingTag reports whether tag is h1..h6.
func IsHeadingTag(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

// isDocument reports whether the first markup token of src is a doctype
// or an <html> start tag. Comments and text before it are skipped.
func isDocument(src string) bool {
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.DoctypeToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			return string(name) == "html"
		}
	}
}

// ParseString parses src. Input that opens with a doctype or an <html> tag
// is parsed as a full document; anything else is parsed as a body
// fragment, so snippets do not acquire an implicit <html> element.
func ParseString(src string) (*Document, error) {
	if isDocument(src) {
		root, err := html.Parse(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("markup: parse document: %w", err)
		}
		return build([]*html.Node{root}), nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, fmt.Errorf("markup: parse fragment: %w", err)
	}
	return build(nodes), nil
}

// Parse reads all of r and parses it with ParseString.
func Parse(r io.Reader) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("markup: read: %w", err)
	}
	return ParseString(string(b))
}

func build(roots []*html.Node) *Document {
	d := &Document{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			d.Elements = append(d.Elements, Element{
				Tag:   strings.ToLower(n.Data),
				Attrs: attrsOf(n),
				Text:  textOf(n),
			})
			switch n.DataAtom {
			case atom.Style:
				d.StyleRules = append(d.StyleRules, splitRules(rawText(n))...)
			case atom.Title:
				if d.Title == "" {
					d.Title = textOf(n)
				}
			}
			for _, a := range n.Attr {
				if a.Key == "style" && strings.TrimSpace(a.Val) != "" {
					d.StyleRules = append(d.StyleRules, strings.TrimSpace(a.Val))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return d
}

func attrsOf(n *html.Node) Attributes {
	if len(n.Attr) == 0 {
		return Attributes{}
	}
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		k := strings.ToLower(a.Key)
		if a.Namespace != "" {
			k = a.Namespace + ":" + k
		}
		if _, dup := m[k]; !dup {
			m[k] = a.Val
		}
	}
	return Attributes{m: m}
}

// textOf collects the whitespace-normalised text below n, skipping script
// and style content.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if sb.Len() >= maxText {
			return
		}
		switch n.Type {
		case html.TextNode:
			for _, f := range strings.Fields(n.Data) {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(f)
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// rawText concatenates the direct text children of n.
func rawText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// splitRules cuts a stylesheet into one fragment per rule block.
func splitRules(css string) []string {
	var out []string
	for _, part := range strings.Split(css, "}") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p+" }")
		}
	}
	return out
}
