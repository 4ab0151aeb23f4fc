// Package contrast implements the WCAG colour-contrast pipeline: hex
// parsing, channel linearisation, relative luminance, contrast ratio and
// AA/AAA grading. Every function is pure.
package contrast

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// ParseError is returned for a colour string that is not 6 hex digits with
// an optional leading '#'.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("contrast: invalid colour %q: %s", e.Input, e.Reason)
}

// RGB is an sRGB colour with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// Hex renders c as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (RGB, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(raw) != 6 {
		return RGB{}, &ParseError{Input: s, Reason: fmt.Sprintf("want 6 hex digits, got %d characters", len(raw))}
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return RGB{}, &ParseError{Input: s, Reason: "non-hex character"}
	}
	return RGB{R: b[0], G: b[1], B: b[2]}, nil
}

// Linearize converts one 8-bit sRGB channel to linear light.
func Linearize(v uint8) float64 {
	c := float64(v) / 255.0
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RelativeLuminance returns Y for c.
func RelativeLuminance(c RGB) float64 {
	return 0.2126*Linearize(c.R) + 0.7152*Linearize(c.G) + 0.0722*Linearize(c.B)
}

// Ratio returns the contrast ratio between a and b, in [1, 21]. The lighter
// luminance is always the numerator, so Ratio(a, b) == Ratio(b, a).
func Ratio(a, b RGB) float64 {
	la, lb := RelativeLuminance(a), RelativeLuminance(b)
	return (max(la, lb) + 0.05) / (min(la, lb) + 0.05)
}

// RatioHex parses both colours and returns their contrast ratio.
func RatioHex(a, b string) (float64, error) {
	ca, err := ParseHex(a)
	if err != nil {
		return 0, err
	}
	cb, err := ParseHex(b)
	if err != nil {
		return 0, err
	}
	return Ratio(ca, cb), nil
}

// IsLargeText reports whether text of the given pixel size and weight
// counts as large: at least 18px, or at least 14px and bold.
func IsLargeText(fontSize float64, bold bool) bool {
	return fontSize >= 18 || (fontSize >= 14 && bold)
}

// Thresholds returns the minimum AA and AAA ratios for the text size.
func Thresholds(large bool) (aa, aaa float64) {
	if large {
		return 3.0, 4.5
	}
	return 4.5, 7.0
}

// Grade is the best tier a colour pair meets.
type Grade uint8

const (
	GradeFail Grade = iota
	GradeAA
	GradeAAA
)

func (g Grade) String() string {
	switch g {
	case GradeAA:
		return "AA"
	case GradeAAA:
		return "AAA"
	}
	return "FAIL"
}

func (g Grade) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// GradeFor grades an unrounded ratio.
func GradeFor(ratio float64, large bool) Grade {
	aa, aaa := Thresholds(large)
	switch {
	case ratio >= aaa:
		return GradeAAA
	case ratio >= aa:
		return GradeAA
	}
	return GradeFail
}

// Tier is the outcome against one conformance tier.
type Tier struct {
	Required float64 `json:"required"`
	Passes   bool    `json:"passes"`
}

// Result is the full evaluation of a foreground/background pair.
type Result struct {
	Foreground      string   `json:"foreground"`
	Background      string   `json:"background"`
	Ratio           float64  `json:"contrast_ratio"`
	FontSize        float64  `json:"font_size"`
	Bold            bool     `json:"is_bold"`
	LargeText       bool     `json:"is_large_text"`
	AA              Tier     `json:"wcag_aa"`
	AAA             Tier     `json:"wcag_aaa"`
	Grade           Grade    `json:"overall_grade"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Evaluate runs the whole pipeline. Ratio is rounded to 2 decimals for
// display; tier checks use the exact value.
func Evaluate(fg, bg string, fontSize float64, bold bool) (*Result, error) {
	cf, err := ParseHex(fg)
	if err != nil {
		return nil, err
	}
	cb, err := ParseHex(bg)
	if err != nil {
		return nil, err
	}

	ratio := Ratio(cf, cb)
	large := IsLargeText(fontSize, bold)
	aa, aaa := Thresholds(large)

	r := &Result{
		Foreground: cf.Hex(),
		Background: cb.Hex(),
		Ratio:      math.Round(ratio*100) / 100,
		FontSize:   fontSize,
		Bold:       bold,
		LargeText:  large,
		AA:         Tier{Required: aa, Passes: ratio >= aa},
		AAA:        Tier{Required: aaa, Passes: ratio >= aaa},
		Grade:      GradeFor(ratio, large),
	}
	if r.Grade == GradeFail {
		r.Recommendations = recommendations(large, bold)
	}
	return r, nil
}

func recommendations(large, bold bool) []string {
	out := []string{"Use darker foreground or lighter background colors"}
	if !large {
		out = append(out, "Consider increasing font size to 18px+ for better readability")
		if !bold {
			out = append(out, "Use bold font weight if possible")
		}
	}
	return out
}
