// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alfatranslator/alfac/internal/token"
)

func pos(file string, line, col int) token.Position {
	return token.Position{File: file, Line: line, Column: col}
}

func TestDiagnosticErrorFormat(t *testing.T) {
	d := New(pos("a.alfa", 3, 7), KindTypeMismatch, "expected %s, got %s", "string", "integer")
	require.Equal(t, "a.alfa:3:7: TypeMismatch: expected string, got integer", d.Error())
}

func TestDiagnosticWithDetailAppendsSecondLine(t *testing.T) {
	d := New(pos("a.alfa", 1, 1), KindAmbiguousReference, "ambiguous reference %q", "Foo")
	d = d.WithDetail("candidates: ns1.Foo, ns2.Foo")
	require.Equal(t, "a.alfa:1:1: AmbiguousReference: ambiguous reference \"Foo\"\ncandidates: ns1.Foo, ns2.Foo", d.Error())
}

func TestWithDetailDoesNotMutateOriginal(t *testing.T) {
	d := New(pos("a.alfa", 1, 1), KindUnresolvedReference, "unresolved")
	d.WithDetail("should not appear on d")
	require.Empty(t, d.Detail)
}

func TestSinkHasErrorsAndAddAll(t *testing.T) {
	s := &Sink{}
	require.False(t, s.HasErrors())

	s.Add(New(pos("b.alfa", 1, 1), KindLexError, "bad token"))
	s.AddAll([]*Diagnostic{
		New(pos("a.alfa", 5, 1), KindParseError, "p1"),
		New(pos("a.alfa", 2, 1), KindParseError, "p2"),
	})
	require.True(t, s.HasErrors())
	require.Len(t, s.Diagnostics(), 3)
}

func TestSinkDiagnosticsSortedByFileThenLineThenColumn(t *testing.T) {
	s := &Sink{}
	s.Add(New(pos("b.alfa", 1, 1), KindIOError, "b1"))
	s.Add(New(pos("a.alfa", 5, 2), KindParseError, "a-later"))
	s.Add(New(pos("a.alfa", 5, 1), KindParseError, "a-earlier-col"))
	s.Add(New(pos("a.alfa", 1, 1), KindParseError, "a-earlier-line"))

	got := s.Diagnostics()
	require.Len(t, got, 4)
	require.Equal(t, "a-earlier-line", got[0].Message)
	require.Equal(t, "a-earlier-col", got[1].Message)
	require.Equal(t, "a-later", got[2].Message)
	require.Equal(t, "b1", got[3].Message)
}

func TestSinkDiagnosticsReturnsCopyNotSharedSlice(t *testing.T) {
	s := &Sink{}
	s.Add(New(pos("a.alfa", 1, 1), KindIOError, "one"))

	got := s.Diagnostics()
	got[0] = New(pos("a.alfa", 9, 9), KindIOError, "mutated")

	again := s.Diagnostics()
	require.Equal(t, "one", again[0].Message)
}
