package a11y

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/a11y/compliance"
)

const reportCSS = `body{font-family:system-ui,sans-serif;max-width:60rem;margin:2rem auto;color:#1a1a1a}
table{border-collapse:collapse;width:100%}th,td{border:1px solid #767676;padding:.4rem;text-align:left}
.pass{color:#0a6b2b}.fail{color:#a4000f}code{background:#f3f3f3}`

var reportBody = template.Must(template.New("report").Parse(`<article>
<h1>WCAG {{.TargetLevel}} compliance report</h1>
<p class="{{if .Passed}}pass{{else}}fail{{end}}"><strong>{{.Status}}</strong>: {{.Summary}}</p>
<ul>
<li>Report: <code>{{.ID}}</code></li>
{{if .Source}}<li>Source: {{.Source}}</li>
{{end}}<li>Compliance: {{printf "%.1f" .CompliancePercentage}}%</li>
<li>Required criteria: {{.RequiredCriteria}}</li>
<li>Violated criteria: {{len .ViolatedCriteria}}</li>
<li>Generated: {{.CreatedAt.Format "2006-01-02 15:04 MST"}}</li>
</ul>
{{if .Violations}}<h2>Violations</h2>
<table>
<thead><tr><th>Criterion</th><th>Level</th><th>Rule</th><th>Issue</th><th>Element</th><th>Suggestion</th></tr></thead>
<tbody>
{{range .Violations}}<tr><td>{{.Criterion}} {{.Title}}</td><td>{{.Level}}</td><td>{{.RuleID}}</td><td>{{.Message}}</td><td>{{if .Element}}<code>{{.Element}}</code>{{end}}</td><td>{{.Suggestion}}</td></tr>
{{end}}</tbody>
</table>
{{else}}<p>No violations found.</p>
{{end}}</article>`))

var reportPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>WCAG {{.Level}} report {{.ID}}</title>
<style>{{.CSS}}</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

var reportPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("p")
	return p
}()

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// reportFragment renders the report article and passes it through the
// sanitizer, so only the markup the report itself uses reaches a browser.
func reportFragment(r *compliance.Report) (string, error) {
	var buf bytes.Buffer
	if err := reportBody.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("a11y: render report: %w", err)
	}
	return reportPolicy.Sanitize(buf.String()), nil
}

// RenderHTML renders r as a standalone HTML page.
func RenderHTML(r *compliance.Report) ([]byte, error) {
	body, err := reportFragment(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = reportPage.Execute(&buf, struct {
		ID    string
		Level string
		CSS   template.CSS
		Body  template.HTML
	}{r.ID, r.TargetLevel.String(), template.CSS(reportCSS), template.HTML(body)})
	if err != nil {
		return nil, fmt.Errorf("a11y: render page: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderMarkdown renders r as Markdown with a violations table.
func RenderMarkdown(r *compliance.Report) (string, error) {
	body, err := reportFragment(r)
	if err != nil {
		return "", err
	}
	md, err := mdConverter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("a11y: convert report: %w", err)
	}
	return md, nil
}
