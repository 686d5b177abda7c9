// Package diag implements the compiler's diagnostic model: a map from
// source ranges to the messages raised against them, following the
// teacher's panic-mode parser (file:line-tagged errors) but replacing
// the ad hoc []string error list with a typed, leveled bag so later
// passes (semantic analysis, codegen) can keep reporting after the
// first failure instead of aborting.
package diag

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Pos is a single point in a source file.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Range is a half-open source range used to tag every AST node and
// every diagnostic raised against it.
type Range struct {
	Start Pos
	End   Pos
}

func (r Range) String() string {
	return r.Start.String()
}

// RangeAt builds a zero-width range at a single position, the common
// case for lexer/parser errors.
func RangeAt(file string, line, col int) Range {
	p := Pos{File: file, Line: line, Col: col}
	return Range{Start: p, End: p}
}

// Level is the severity of a diagnostic. Only Error suppresses the
// final image (spec.md §7); Debug and Warning are informational.
type Level int

const (
	Debug Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Kind classifies *why* a diagnostic was raised, mirroring spec.md §7's
// error taxonomy. It has no effect on severity; it's carried so callers
// (tests, CLI exit codes) can distinguish categories without parsing
// messages.
type Kind int

const (
	KindParse Kind = iota
	KindResolve
	KindType
	KindLayout
	KindCodegenInvariant
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindResolve:
		return "resolve"
	case KindType:
		return "type"
	case KindLayout:
		return "layout"
	case KindCodegenInvariant:
		return "codegen-invariant"
	default:
		return "unknown"
	}
}

// Diagnostic is one message attached to a Range.
type Diagnostic struct {
	Range   Range
	Level   Level
	Kind    Kind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Range, d.Level, d.Message)
}

// Bag accumulates diagnostics keyed by source range, in emission order,
// matching spec.md §4.6's "errors map from SourceRange to a list of
// {level, message}".
type Bag struct {
	byRange map[Range][]Diagnostic
	order   []Range
}

// NewBag returns an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{byRange: make(map[Range][]Diagnostic)}
}

func (b *Bag) add(d Diagnostic) {
	if _, ok := b.byRange[d.Range]; !ok {
		b.order = append(b.order, d.Range)
	}
	b.byRange[d.Range] = append(b.byRange[d.Range], d)
}

// Add appends a diagnostic at r with the given level, kind and
// formatted message.
func (b *Bag) Add(r Range, level Level, kind Kind, format string, args ...interface{}) {
	b.add(Diagnostic{Range: r, Level: level, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Errorf is shorthand for Add(r, Error, kind, ...).
func (b *Bag) Errorf(r Range, kind Kind, format string, args ...interface{}) {
	b.Add(r, Error, kind, format, args...)
}

// Warnf is shorthand for Add(r, Warning, kind, ...).
func (b *Bag) Warnf(r Range, kind Kind, format string, args ...interface{}) {
	b.Add(r, Warning, kind, format, args...)
}

// Debugf is shorthand for Add(r, Debug, kind, ...).
func (b *Bag) Debugf(r Range, kind Kind, format string, args ...interface{}) {
	b.Add(r, Debug, kind, format, args...)
}

// HasErrors reports whether any Error-level diagnostic was recorded.
// Per spec.md §7, this suppresses the final image.
func (b *Bag) HasErrors() bool {
	for _, ds := range b.byRange {
		for _, d := range ds {
			if d.Level == Error {
				return true
			}
		}
	}
	return false
}

// All returns every diagnostic in a stable order: by first-touched
// range, then emission order within that range.
func (b *Bag) All() []Diagnostic {
	ranges := make([]Range, len(b.order))
	copy(ranges, b.order)
	sort.SliceStable(ranges, func(i, j int) bool {
		ri, rj := ranges[i].Start, ranges[j].Start
		if ri.File != rj.File {
			return ri.File < rj.File
		}
		if ri.Line != rj.Line {
			return ri.Line < rj.Line
		}
		return ri.Col < rj.Col
	})
	var out []Diagnostic
	for _, r := range ranges {
		out = append(out, b.byRange[r]...)
	}
	return out
}

// Err returns a combined error (via github.com/pkg/errors, so the
// chain keeps a stack trace to the first caller that asked for it)
// summarizing every Error-level diagnostic, or nil if there are none.
func (b *Bag) Err() error {
	if !b.HasErrors() {
		return nil
	}
	var first string
	count := 0
	for _, d := range b.All() {
		if d.Level != Error {
			continue
		}
		count++
		if first == "" {
			first = d.String()
		}
	}
	if count == 1 {
		return errors.New(first)
	}
	return errors.Errorf("%d errors, first: %s", count, first)
}
