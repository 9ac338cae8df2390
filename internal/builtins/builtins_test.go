// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/diagnostics"
	"github.com/alfatranslator/alfac/internal/symbols"
)

func qn(segs ...string) ast.QName { return ast.QName{Segments: segs} }

func TestParseSucceedsAndIsCached(t *testing.T) {
	f1, err := Parse()
	require.NoError(t, err)
	f2, err := Parse()
	require.NoError(t, err)
	require.Same(t, f1, f2)
}

func TestLoadRegistersCatalogUnderNamespaceWithWildcardImport(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := symbols.NewBuilder(sink)
	require.NoError(t, Load(b))
	require.False(t, sink.HasErrors())

	sym, err := b.Table().Resolve("", qn("integerEqual"))
	require.NoError(t, err)
	require.Equal(t, symbols.KindFunction, sym.Kind)
	require.Equal(t, "urn:oasis:names:tc:xacml:1.0:function:integer-equal", sym.Function.ID)
}

func TestListingIncludesKnownCategoriesTypesAndFunctions(t *testing.T) {
	lines, err := Listing()
	require.NoError(t, err)
	require.Contains(t, lines, "category xacml30.subjectCategory = urn:oasis:names:tc:xacml:1.0:subject-category:access-subject")
	require.Contains(t, lines, "type xacml30.integer = http://www.w3.org/2001/XMLSchema#integer")
	require.Contains(t, lines, "obligation xacml30.logAccess = urn:xacml30:obligation:log-access")
}
