package wcag

import (
	"fmt"
	"strings"
)

// Level is a WCAG conformance level.
type Level uint8

const (
	LevelA Level = iota + 1
	LevelAA
	LevelAAA
)

// Levels returns every level in ascending strictness.
func Levels() []Level {
	return []Level{LevelA, LevelAA, LevelAAA}
}

// ParseLevel parses "A", "AA" or "AAA" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return LevelA, nil
	case "AA":
		return LevelAA, nil
	case "AAA":
		return LevelAAA, nil
	}
	return 0, &ValidationError{Field: "level", Value: s, Allowed: []string{"A", "AA", "AAA"}}
}

func (l Level) String() string {
	switch l {
	case LevelA:
		return "A"
	case LevelAA:
		return "AA"
	case LevelAAA:
		return "AAA"
	}
	return fmt.Sprintf("Level(%d)", uint8(l))
}

// Valid reports whether l is one of the three defined levels.
func (l Level) Valid() bool {
	return l >= LevelA && l <= LevelAAA
}

// Includes reports whether a target of l requires criteria at level other.
// Levels are cumulative: AA includes A, AAA includes AA and A.
func (l Level) Includes(other Level) bool {
	return other.Valid() && other <= l
}

// Priority is the implementation priority label shown in guidance output.
func (l Level) Priority() string {
	switch l {
	case LevelA:
		return "Required - Must implement for basic accessibility"
	case LevelAA:
		return "Recommended - Standard accessibility level"
	case LevelAAA:
		return "Enhanced - Additional accessibility improvement"
	}
	return "Unknown"
}

// Conformance describes what meeting criteria at l means.
func (l Level) Conformance() string {
	switch l {
	case LevelA:
		return "Must comply for basic accessibility"
	case LevelAA:
		return "Should comply for standard accessibility (recommended minimum)"
	case LevelAAA:
		return "May comply for enhanced accessibility (not required for general compliance)"
	}
	return "Unknown level"
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("wcag: cannot marshal invalid level %d", uint8(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Principle is one of the four top-level WCAG principles.
type Principle uint8

const (
	Perceivable Principle = iota + 1
	Operable
	Understandable
	Robust
)

// Principles returns the four principles in WCAG order.
func Principles() []Principle {
	return []Principle{Perceivable, Operable, Understandable, Robust}
}

// ParsePrinciple parses a principle name (case-insensitive).
func ParsePrinciple(s string) (Principle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perceivable":
		return Perceivable, nil
	case "operable":
		return Operable, nil
	case "understandable":
		return Understandable, nil
	case "robust":
		return Robust, nil
	}
	return 0, &ValidationError{
		Field:   "principle",
		Value:   s,
		Allowed: []string{"Perceivable", "Operable", "Understandable", "Robust"},
	}
}

func (p Principle) String() string {
	switch p {
	case Perceivable:
		return "Perceivable"
	case Operable:
		return "Operable"
	case Understandable:
		return "Understandable"
	case Robust:
		return "Robust"
	}
	return fmt.Sprintf("Principle(%d)", uint8(p))
}

// Valid reports whether p is one of the four principles.
func (p Principle) Valid() bool {
	return p >= Perceivable && p <= Robust
}

func (p Principle) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("wcag: cannot marshal invalid principle %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Principle) UnmarshalText(b []byte) error {
	v, err := ParsePrinciple(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
