// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package diagnostics defines the compiler's unified error-kind taxonomy
// (spec §7) and a concurrency-safe sink that collects and deterministically
// orders diagnostics across files compiled in parallel (spec §5).
package diagnostics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alfatranslator/alfac/internal/token"
)

// Kind is one of the error kinds spec §7 enumerates.
type Kind string

const (
	KindLexError                     Kind = "LexError"
	KindParseError                   Kind = "ParseError"
	KindUnresolvedReference          Kind = "UnresolvedReference"
	KindAmbiguousReference           Kind = "AmbiguousReference"
	KindDuplicateDeclaration         Kind = "DuplicateDeclaration"
	KindCyclicVariable               Kind = "CyclicVariable"
	KindArityMismatch                Kind = "ArityMismatch"
	KindTypeMismatch                 Kind = "TypeMismatch"
	KindTargetNotExpressible         Kind = "TargetNotExpressible"
	KindUnknownCombiningAlgorithm    Kind = "UnknownCombiningAlgorithm"
	KindObligationAssignmentMismatch Kind = "ObligationAssignmentMismatch"
	KindIOError                      Kind = "IOError"
)

// Diagnostic is one user-visible compiler message (spec §7):
// "<file>:<line>:<col>: <kind>: <message>" with an optional second line
// citing the referenced declaration or candidate set.
type Diagnostic struct {
	Pos     token.Position
	Kind    Kind
	Message string
	Detail  string
}

func (d *Diagnostic) Error() string {
	s := fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message)
	if d.Detail != "" {
		s += "\n" + d.Detail
	}
	return s
}

// New builds a Diagnostic for kind at pos.
func New(pos token.Position, kind Kind, format string, args ...any) *Diagnostic {
	return &Diagnostic{Pos: pos, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of d carrying the given detail line.
func (d *Diagnostic) WithDetail(format string, args ...any) *Diagnostic {
	cp := *d
	cp.Detail = fmt.Sprintf(format, args...)
	return &cp
}

// Sink accumulates diagnostics from one or more files compiled concurrently
// and reports them back in deterministic order (spec §5): sorted by input
// file path, then source position.
type Sink struct {
	mu    sync.Mutex
	diags []*Diagnostic
}

// Add records d. Safe for concurrent use across files.
func (s *Sink) Add(d *Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = append(s.diags, d)
}

// AddAll records every diagnostic in ds.
func (s *Sink) AddAll(ds []*Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = append(s.diags, ds...)
}

// HasErrors reports whether any diagnostic has been recorded.
func (s *Sink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.diags) > 0
}

// Diagnostics returns every recorded diagnostic sorted by file path, then
// line, then column.
func (s *Sink) Diagnostics() []*Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}
