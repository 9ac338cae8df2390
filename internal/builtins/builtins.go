// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package builtins embeds and loads the bundled XACML 3.0 catalog (spec
// §4.4): categories, datatypes, and a representative slice of the standard
// function catalog, parsed with the same lexer/parser pipeline user
// sources go through and registered once per process (spec §9: "the
// builtins library is assembled once per process and then read-only").
package builtins

import (
	_ "embed"
	"sync"

	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/parser"
	"github.com/alfatranslator/alfac/internal/symbols"
)

//go:embed data/builtins.alfa
var source string

// Namespace is the well-known namespace the catalog is declared under and
// implicitly wildcard-imported from, unless disabled.
const Namespace = "xacml30"

// SourcePath is the virtual file path attributed to the embedded source in
// diagnostics and source positions.
const SourcePath = "<builtins>"

var (
	once     sync.Once
	file     *ast.File
	loadErr  error
)

// Parse parses the embedded builtins source exactly once per process and
// returns the cached result on every subsequent call (spec §9, §5).
func Parse() (*ast.File, error) {
	once.Do(func() {
		file, loadErr = parser.ParseFile(SourcePath, source)
	})
	return file, loadErr
}

// MustParse parses the embedded catalog, panicking on failure. The bundled
// source is a build-time constant: a parse failure here is a programming
// error in this package, not a user-facing one.
func MustParse() *ast.File {
	f, err := Parse()
	if err != nil {
		panic("builtins: embedded catalog failed to parse: " + err.Error())
	}
	return f
}

// Load parses the embedded catalog and registers it into b under
// Namespace, then adds a root-level wildcard import of Namespace so every
// user namespace sees it unqualified (spec §4.4). Callers implementing
// `--disable-builtins` simply skip calling Load.
func Load(b *symbols.Builder) error {
	f, err := Parse()
	if err != nil {
		return err
	}
	b.AddFile(f)
	b.AddWildcardImport(Namespace)
	return nil
}

// Listing renders the catalog's declared names for `--show-builtins`
// (spec §6), one per line in the catalog's source order, each prefixed
// with its declaration kind.
func Listing() ([]string, error) {
	f, err := Parse()
	if err != nil {
		return nil, err
	}
	var lines []string
	var walk func(prefix string, decls []ast.Decl)
	walk = func(prefix string, decls []ast.Decl) {
		for _, d := range decls {
			switch decl := d.(type) {
			case *ast.Namespace:
				walk(prefix+decl.Name.String()+".", decl.Decls)
			case *ast.CategoryDecl:
				lines = append(lines, "category "+prefix+decl.Name+" = "+decl.URI)
			case *ast.TypeDecl:
				lines = append(lines, "type "+prefix+decl.Name+" = "+decl.URI)
			case *ast.FunctionDecl:
				lines = append(lines, "function "+prefix+decl.Name+" = "+decl.ID)
			case *ast.ObligationDecl:
				lines = append(lines, "obligation "+prefix+decl.Name+" = "+decl.URI)
			case *ast.AdviceDecl:
				lines = append(lines, "advice "+prefix+decl.Name+" = "+decl.URI)
			}
		}
	}
	walk("", f.Decls)
	return lines, nil
}
