// Command a11y audits HTML for WCAG conformance. It serves the audit API
// over HTTP and MCP, and exposes the same operations as one-shot commands.
//
//	a11y serve --config a11y.yaml
//	a11y mcp
//	a11y check page.html
//	a11y comply page.html --level AA --format md
//	a11y contrast '#767676' '#FFFFFF'
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
