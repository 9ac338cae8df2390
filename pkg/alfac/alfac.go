// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package alfac is the embeddable entry point into the ALFA→XACML 3.0
// pipeline, for callers that want the compiler as an importable type
// rather than only a CLI verb — grounded in how the teacher repo exposes
// policy.Compiler rather than only a `holomush` CLI verb.
package alfac

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfatranslator/alfac/internal/builtins"
	"github.com/alfatranslator/alfac/internal/checker"
	"github.com/alfatranslator/alfac/internal/diagnostics"
	"github.com/alfatranslator/alfac/internal/driver"
	"github.com/alfatranslator/alfac/internal/lexer"
	"github.com/alfatranslator/alfac/internal/metrics"
	"github.com/alfatranslator/alfac/internal/normalizer"
	"github.com/alfatranslator/alfac/internal/parser"
	"github.com/alfatranslator/alfac/internal/symbols"
	"github.com/alfatranslator/alfac/internal/token"
)

// Config configures a file/directory compile run; it is exactly the
// driver's own configuration, re-exported so embedders never import
// internal/driver directly.
type Config = driver.Config

// Compiler runs the full discovery → parse → resolve → normalize → emit
// pipeline described in spec §4.8, writing XACML documents to disk.
type Compiler struct {
	drv *driver.Driver
}

// New creates a Compiler. m may be nil.
func New(cfg Config, m *metrics.Metrics) *Compiler {
	return &Compiler{drv: driver.New(cfg, m)}
}

// Compile runs the pipeline over cfg.Inputs, writing documents under
// cfg.OutputDir. It returns every diagnostic collected across all input
// files; err is driver.ErrCompileFailed when any diagnostic was produced,
// distinguishing that from a harder failure (bad --input path, I/O error).
func (c *Compiler) Compile(ctx context.Context) ([]*diagnostics.Diagnostic, error) {
	err := c.drv.Run(ctx)
	return c.drv.Sink().Diagnostics(), err
}

// SourceOptions configures CompileSource.
type SourceOptions struct {
	Namespace       string
	DisableBuiltins bool
}

// CompileSource compiles a single in-memory ALFA source string to its
// normalized documents, without touching the filesystem — the embedding
// path for callers that already have source text in hand (editors,
// language servers, test harnesses) rather than a directory of .alfa
// files.
func CompileSource(name, src string, opts SourceOptions) ([]normalizer.Document, []*diagnostics.Diagnostic, error) {
	file, err := parser.ParseFile(name, src)
	if err != nil {
		return nil, []*diagnostics.Diagnostic{sourceParseDiagnostic(name, err)}, nil
	}

	sink := &diagnostics.Sink{}
	builder := symbols.NewBuilder(sink)
	if !opts.DisableBuiltins {
		if err := builtins.Load(builder); err != nil {
			return nil, nil, fmt.Errorf("alfac: loading builtins: %w", err)
		}
	}
	builder.AddFile(file)
	table := builder.Table()

	c := checker.New(table, sink)
	c.CheckFile(file)
	if sink.HasErrors() {
		return nil, sink.Diagnostics(), nil
	}

	n := normalizer.New(table, c.Types(), opts.Namespace)
	return n.NormalizeFile(file), sink.Diagnostics(), nil
}

func sourceParseDiagnostic(name string, err error) *diagnostics.Diagnostic {
	switch e := err.(type) {
	case *lexer.Error:
		return diagnostics.New(e.Pos, diagnostics.KindLexError, "%s", e.Message)
	case *parser.Error:
		msg := e.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected %s, expected %s", e.Found, strings.Join(e.Expected, " or "))
		}
		return diagnostics.New(e.Pos, diagnostics.KindParseError, "%s", msg)
	default:
		return diagnostics.New(token.Position{File: name}, diagnostics.KindParseError, "%s", err.Error())
	}
}

// BuiltinsListing returns the bundled catalog's declared names, one per
// entry, for hosts implementing their own `--show-builtins`-style surface.
func BuiltinsListing() ([]string, error) { return builtins.Listing() }
