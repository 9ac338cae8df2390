// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package driver orchestrates one compiler invocation (spec §4.8): input
// discovery, a single builtins+user symbol table build, and a bounded
// concurrent parse/resolve/normalize/emit pass per file, writing XACML
// documents atomically and collecting diagnostics into one sink ordered
// by (file path, source position) (spec §5/§7).
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/builtins"
	"github.com/alfatranslator/alfac/internal/checker"
	"github.com/alfatranslator/alfac/internal/diagnostics"
	"github.com/alfatranslator/alfac/internal/emitter"
	"github.com/alfatranslator/alfac/internal/lexer"
	"github.com/alfatranslator/alfac/internal/metrics"
	"github.com/alfatranslator/alfac/internal/normalizer"
	"github.com/alfatranslator/alfac/internal/parser"
	"github.com/alfatranslator/alfac/internal/symbols"
	"github.com/alfatranslator/alfac/internal/token"
)

// Config holds one driver invocation's settings (spec §6's CLI surface).
type Config struct {
	Inputs          []string // files or directories; directories walked recursively for .alfa files
	OutputDir       string
	Namespace       string // prepended to every emitted PolicySetId/PolicyId/RuleId
	DisableBuiltins bool
}

// ErrCompileFailed is returned by Run when at least one input file
// produced a diagnostic (spec §6 exit code 1).
var ErrCompileFailed = fmt.Errorf("compilation produced one or more diagnostics")

// Driver runs one compile-all-inputs pass.
type Driver struct {
	cfg     Config
	sink    *diagnostics.Sink
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// New creates a Driver. m may be nil, in which case metrics are discarded.
func New(cfg Config, m *metrics.Metrics) *Driver {
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Driver{cfg: cfg, sink: &diagnostics.Sink{}, metrics: m, tracer: otel.Tracer("github.com/alfatranslator/alfac/internal/driver")}
}

// Sink returns the diagnostics accumulated by the most recent Run.
func (d *Driver) Sink() *diagnostics.Sink { return d.sink }

// Run discovers inputs, builds the symbol table, and compiles every
// discovered file. It returns ErrCompileFailed (not a process-fatal error)
// when diagnostics were produced; callers report diagnostics via Sink and
// chose the process exit code from spec §6 themselves.
func (d *Driver) Run(ctx context.Context) error {
	paths, err := discoverInputs(d.cfg.Inputs)
	if err != nil {
		return oops.With("inputs", d.cfg.Inputs).Errorf("driver: discovering inputs: %w", err)
	}

	builder := symbols.NewBuilder(d.sink)
	if !d.cfg.DisableBuiltins {
		if err := builtins.Load(builder); err != nil {
			return oops.Errorf("driver: loading builtins: %w", err)
		}
	}

	files := make([]*ast.File, 0, len(paths))
	for _, path := range paths {
		f, ok := d.parseFile(path)
		if !ok {
			continue
		}
		builder.AddFile(f)
		files = append(files, f)
	}
	table := builder.Table()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrencyLimit())
	for _, f := range files {
		f := f
		g.Go(func() error {
			d.compileFile(gctx, table, f)
			return nil
		})
	}
	_ = g.Wait() // compileFile reports failures as diagnostics, never as a Go error

	if d.sink.HasErrors() {
		return ErrCompileFailed
	}
	return nil
}

func concurrencyLimit() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

func (d *Driver) parseFile(path string) (*ast.File, bool) {
	src, err := os.ReadFile(path)
	if err != nil {
		d.sink.Add(diagnostics.New(token.Position{File: path}, diagnostics.KindIOError, "%s", err.Error()))
		return nil, false
	}
	f, err := parser.ParseFile(path, string(src))
	if err != nil {
		d.sink.Add(toDiagnostic(path, err))
		return nil, false
	}
	return f, true
}

// toDiagnostic unwraps the lexer/parser's own position-carrying error
// types rather than re-deriving a position, since file.Path alone would
// lose the line/column the lexer or parser already pinpointed.
func toDiagnostic(path string, err error) *diagnostics.Diagnostic {
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
		return diagnostics.New(token.Position{File: path}, diagnostics.KindIOError, "%s", err.Error())
	}
}

func (d *Driver) compileFile(ctx context.Context, table *symbols.Table, file *ast.File) {
	start := time.Now()
	_, span := d.tracer.Start(ctx, "compile_file", trace.WithAttributes(attribute.String("alfac.file", file.Path)))
	defer span.End()

	fileSink := &diagnostics.Sink{}
	c := checker.New(table, fileSink)
	c.CheckFile(file)

	if !fileSink.HasErrors() {
		n := normalizer.New(table, c.Types(), d.cfg.Namespace)
		for _, doc := range n.NormalizeFile(file) {
			if err := d.emitDocument(doc); err != nil {
				fileSink.Add(diagnostics.New(token.Position{File: file.Path}, diagnostics.KindIOError, "%s", err.Error()))
			}
		}
	}

	diags := fileSink.Diagnostics()
	d.sink.AddAll(diags)
	for _, diag := range diags {
		d.metrics.RecordDiagnostic(string(diag.Kind))
	}
	outcome := "ok"
	if len(diags) > 0 {
		outcome = "error"
	}
	d.metrics.RecordFile(outcome, time.Since(start))
}

func (d *Driver) emitDocument(doc normalizer.Document) error {
	data, err := emitter.Emit(doc)
	if err != nil {
		return fmt.Errorf("emitting %s: %w", documentID(doc), err)
	}
	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %q: %w", d.cfg.OutputDir, err)
	}
	if err := writeAtomic(d.cfg.OutputDir, sanitizeFilename(documentID(doc))+".xml", data); err != nil {
		return err
	}
	d.metrics.RecordDocument()
	return nil
}

func documentID(doc normalizer.Document) string {
	if doc.Policy != nil {
		return doc.Policy.ID
	}
	return doc.PolicySet.ID
}

var filenameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

func sanitizeFilename(id string) string { return filenameReplacer.Replace(id) }

// writeAtomic writes data to <dir>/<name> via a temp file plus rename, so
// a reader never observes a partially written document (spec §5).
func writeAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".alfac-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// discoverInputs expands inputs (spec §6): each path is a file or
// directory, directories walked recursively, files selected by .alfa
// extension. Returns a sorted, deduplicated list so Run's output is
// deterministic across platforms whose directory iteration order differs.
func discoverInputs(inputs []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", in, err)
		}
		if !info.IsDir() {
			if filepath.Ext(in) == ".alfa" {
				add(in)
			}
			continue
		}
		err = filepath.WalkDir(in, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || filepath.Ext(path) != ".alfa" {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", in, err)
		}
	}
	sort.Strings(out)
	return out, nil
}
