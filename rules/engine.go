package rules

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/a11y/markup"
)

// Check runs the per-element checkers over elements in order, then the
// heading pass. It is the sequential reference for Engine.Run.
func Check(elements []markup.Element) []Issue {
	var out []Issue
	for _, el := range elements {
		out = append(out, CheckElement(el)...)
	}
	return append(out, CheckHeadings(headings(elements))...)
}

func headings(elements []markup.Element) []markup.Element {
	var hs []markup.Element
	for _, el := range elements {
		if markup.IsHeadingTag(el.Tag) {
			hs = append(hs, el)
		}
	}
	return hs
}

// Input is one engine run.
type Input struct {
	Elements []markup.Element
	// StyleRules are literal CSS fragments for the focus check. Empty
	// skips the check.
	StyleRules []string
	// ContrastReminder appends the color-contrast-check advisory.
	ContrastReminder bool
}

// Config configures the Engine.
type Config struct {
	// Workers bounds the per-element fan-out (default: GOMAXPROCS).
	Workers int `json:"workers" yaml:"workers"`

	// ChunkSize is the number of elements per task (default: 64).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 64
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine runs the checkers with a bounded worker pool. It holds no mutable
// state and may be shared.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

func NewEngine(cfg Config) *Engine {
	cfg.defaults()
	return &Engine{cfg: cfg, logger: cfg.Logger}
}

// Run produces the same issues, in the same order, as Check followed by
// the optional focus check and contrast reminder. Per-element results
// land in per-element slots so fan-in order does not depend on scheduling.
func (e *Engine) Run(ctx context.Context, in Input) ([]Issue, error) {
	slots := make([][]Issue, len(in.Elements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for start := 0; start < len(in.Elements); start += e.cfg.ChunkSize {
		end := min(start+e.cfg.ChunkSize, len(in.Elements))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i] = CheckElement(in.Elements[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Issue
	for _, s := range slots {
		out = append(out, s...)
	}
	out = append(out, CheckHeadings(headings(in.Elements))...)
	if len(in.StyleRules) > 0 {
		if is, ok := CheckFocusVisible(in.StyleRules); ok {
			out = append(out, is)
		}
	}
	if in.ContrastReminder {
		out = append(out, ContrastReminder())
	}

	e.logger.Debug("rules: run complete",
		"elements", len(in.Elements),
		"issues", len(out),
	)
	return out, nil
}
