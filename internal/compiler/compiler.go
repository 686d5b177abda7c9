// Package compiler orchestrates the pipeline spec.md §4/§5 describes:
// lex, parse, declare, initialize, await binary-file loads, optimize,
// build, link. Grounded on the teacher's lang/ya driver, which chains
// the same lex->parse->sem->gen->yld stages for a single source file.
package compiler

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/astro8/yabal/internal/builder"
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/lexer"
	"github.com/astro8/yabal/internal/linker"
	"github.com/astro8/yabal/internal/parser"
)

// Result is one compilation's outcome. Image is nil whenever Diags
// recorded an Error-level diagnostic (spec.md §7: "the final image is
// suppressed if any Error was recorded").
type Result struct {
	Image *linker.Image
	Diags *diag.Bag
}

// Compile runs the full pipeline over src and returns the outcome. log
// receives the builder's Debug-level diagnostics (e.g. "unused
// function"); the linker writes nothing to it. Pass
// logrus.NewEntry(logrus.New()) for a default sink.
func Compile(ctx context.Context, file string, src []byte, log *logrus.Entry) (*Result, error) {
	diags := diag.NewBag()

	toks := lexer.Tokenize(file, src, diags)
	prog := parser.Parse(file, toks, diags)

	root := builder.New(diags, log)
	root.DeclareStructs(prog)
	root.DeclareFunctions(prog)
	root.InitializeProgram(prog)

	// spec.md §5: every binary-file load started during initialize
	// must complete before build begins.
	if err := root.BinFiles().Load(ctx); err != nil {
		return nil, errors.Wrap(err, "loading embedded binary files")
	}

	root.OptimizeProgram(prog)
	built := root.BuildProgram(prog)

	if diags.HasErrors() {
		return &Result{Diags: diags}, nil
	}

	img, err := linker.Link(built)
	if err != nil {
		return nil, errors.Wrap(err, "linking program image")
	}
	return &Result{Image: img, Diags: diags}, nil
}
