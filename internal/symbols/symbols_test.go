// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/diagnostics"
	"github.com/alfatranslator/alfac/internal/token"
)

func qn(segs ...string) ast.QName { return ast.QName{Segments: segs} }

func TestBuilderDirectDeclarationResolves(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.CategoryDecl{Name: "subjectCat", URI: "urn:cat:subject"},
		&ast.TypeDecl{Name: "myString", URI: "http://www.w3.org/2001/XMLSchema#string"},
		&ast.AttributeDecl{Name: "UserId", ID: "urn:attr:user-id", Type: qn("myString"), Category: qn("subjectCat")},
	}})
	require.False(t, sink.HasErrors())

	sym, err := b.Table().Resolve("", qn("UserId"))
	require.NoError(t, err)
	require.Equal(t, KindAttribute, sym.Kind)
	require.Equal(t, "urn:attr:user-id", sym.Attribute.ID)
	require.Equal(t, "http://www.w3.org/2001/XMLSchema#string", sym.Attribute.Datatype)
	require.Equal(t, "urn:cat:subject", sym.Attribute.Category)
}

func TestResolveTypeURIFallsBackToLiteralNameWhenUndeclared(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.AttributeDecl{Name: "Raw", ID: "urn:attr:raw", Type: qn("undeclaredType"), Category: qn("undeclaredCat")},
	}})
	sym, err := b.Table().Resolve("", qn("Raw"))
	require.NoError(t, err)
	require.Equal(t, "undeclaredType", sym.Attribute.Datatype)
	require.Equal(t, "undeclaredCat", sym.Attribute.Category)
}

func TestDuplicateDeclarationIsReportedAndFirstWins(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.AttributeDecl{Name: "Dup", ID: "urn:attr:first", Pos: token.Position{Line: 1}},
		&ast.AttributeDecl{Name: "Dup", ID: "urn:attr:second", Pos: token.Position{Line: 2}},
	}})
	require.True(t, sink.HasErrors())
	diags := sink.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostics.KindDuplicateDeclaration, diags[0].Kind)

	sym, err := b.Table().Resolve("", qn("Dup"))
	require.NoError(t, err)
	require.Equal(t, "urn:attr:first", sym.Attribute.ID)
}

func TestNestedNamespaceDeclarationShadowsWildcardImport(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.Namespace{Name: qn("lib"), Decls: []ast.Decl{
			&ast.AttributeDecl{Name: "Foo", ID: "urn:attr:lib-foo"},
		}},
		&ast.Namespace{Name: qn("app"), Decls: []ast.Decl{
			&ast.Import{Name: qn("lib"), Wildcard: true},
			&ast.AttributeDecl{Name: "Foo", ID: "urn:attr:app-foo"},
		}},
	}})
	require.False(t, sink.HasErrors())

	sym, err := b.Table().Resolve("app", qn("Foo"))
	require.NoError(t, err)
	require.Equal(t, "urn:attr:app-foo", sym.Attribute.ID)
}

func TestWildcardImportResolvesWhenNoDirectDeclaration(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.Namespace{Name: qn("lib"), Decls: []ast.Decl{
			&ast.AttributeDecl{Name: "Foo", ID: "urn:attr:lib-foo"},
		}},
	}})
	b.AddWildcardImport("lib")

	sym, err := b.Table().Resolve("", qn("Foo"))
	require.NoError(t, err)
	require.Equal(t, "urn:attr:lib-foo", sym.Attribute.ID)
}

func TestAmbiguousWildcardImportsReportCandidates(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.Namespace{Name: qn("lib1"), Decls: []ast.Decl{
			&ast.AttributeDecl{Name: "Foo", ID: "urn:attr:lib1-foo"},
		}},
		&ast.Namespace{Name: qn("lib2"), Decls: []ast.Decl{
			&ast.AttributeDecl{Name: "Foo", ID: "urn:attr:lib2-foo"},
		}},
	}})
	b.AddWildcardImport("lib1")
	b.AddWildcardImport("lib2")

	_, err := b.Table().Resolve("", qn("Foo"))
	require.Error(t, err)
	var ambErr *AmbiguousError
	require.ErrorAs(t, err, &ambErr)
	require.ElementsMatch(t, []string{"lib1.Foo", "lib2.Foo"}, ambErr.Candidates)
}

func TestSingleNameImportResolves(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.Namespace{Name: qn("lib"), Decls: []ast.Decl{
			&ast.AttributeDecl{Name: "Foo", ID: "urn:attr:lib-foo"},
		}},
		&ast.Import{Name: qn("lib", "Foo"), Wildcard: false},
	}})

	sym, err := b.Table().Resolve("", qn("Foo"))
	require.NoError(t, err)
	require.Equal(t, "urn:attr:lib-foo", sym.Attribute.ID)
}

func TestUnresolvedReferenceReturnsError(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	_, err := b.Table().Resolve("", qn("Nope"))
	require.Error(t, err)
	var unErr *UnresolvedError
	require.ErrorAs(t, err, &unErr)
	require.Equal(t, "Nope", unErr.Name)
}

func TestQualifiedNameResolvesAbsolutely(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.Namespace{Name: qn("lib"), Decls: []ast.Decl{
			&ast.AttributeDecl{Name: "Foo", ID: "urn:attr:lib-foo"},
		}},
	}})

	sym, err := b.Table().Resolve("anywhere", qn("lib", "Foo"))
	require.NoError(t, err)
	require.Equal(t, "urn:attr:lib-foo", sym.Attribute.ID)
}

func TestFunctionSignatureResolvedAgainstDeclaringNamespace(t *testing.T) {
	sink := &diagnostics.Sink{}
	b := NewBuilder(sink)
	b.AddFile(&ast.File{Decls: []ast.Decl{
		&ast.Namespace{Name: qn("lib"), Decls: []ast.Decl{
			&ast.TypeDecl{Name: "myBool", URI: "http://www.w3.org/2001/XMLSchema#boolean"},
			&ast.FunctionDecl{
				Name: "myNot", ID: "urn:function:my-not",
				Params: []ast.ParamType{{Type: qn("myBool")}},
				Return: qn("myBool"),
			},
		}},
	}})

	sym, err := b.Table().Resolve("", qn("lib", "myNot"))
	require.NoError(t, err)
	require.Equal(t, KindFunction, sym.Kind)
	require.Equal(t, "http://www.w3.org/2001/XMLSchema#boolean", sym.Signature.Return)
	require.Len(t, sym.Signature.Params, 1)
	require.Equal(t, "http://www.w3.org/2001/XMLSchema#boolean", sym.Signature.Params[0].Datatype)
}
