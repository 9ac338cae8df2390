// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package symbols implements the namespaced symbol model (spec §3, §4.3):
// a forest of namespaces, each with its own declarations and imports, keyed
// by fully-qualified name, plus the five-step resolution order a simple
// name is looked up under.
package symbols

import (
	"strings"

	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/diagnostics"
	"github.com/alfatranslator/alfac/internal/token"
	"github.com/alfatranslator/alfac/internal/types"
)

// Kind distinguishes what a Symbol denotes.
type Kind int

const (
	KindAttribute Kind = iota
	KindCategory
	KindDatatype
	KindFunction
	KindObligation
	KindAdvice
	KindPolicy
	KindPolicySet
	KindRule
)

// AttributeInfo is the resolved shape of a declared attribute (spec §3).
type AttributeInfo struct {
	ID       string
	Datatype string // resolved datatype URI
	Category string // resolved category URI
	Bag      bool
}

// Symbol is one declared name, fully qualified, with kind-specific payload.
type Symbol struct {
	Kind      Kind
	FQN       string
	Attribute *AttributeInfo
	Category  string // resolved URI, for KindCategory
	Datatype  string // resolved URI, for KindDatatype
	Function  *ast.FunctionDecl
	Signature *types.Signature // resolved against Function's own declaring namespace
	Obligation string // URI, for KindObligation/KindAdvice
	Policy    *ast.PolicyDecl
	PolicySet *ast.PolicySetDecl
	Rule      *ast.RuleDecl
}

// importSpec is one namespace-scoped import.
type importSpec struct {
	target   string // fully qualified target: a namespace (wildcard) or a symbol
	wildcard bool
}

// Namespace is one named scope in the namespace forest (spec §3).
type Namespace struct {
	FQN      string
	Parent   *Namespace
	Children map[string]*Namespace
	Decls    map[string]*Symbol
	Imports  []importSpec
}

func newNamespace(fqn string, parent *Namespace) *Namespace {
	return &Namespace{FQN: fqn, Parent: parent, Children: map[string]*Namespace{}, Decls: map[string]*Symbol{}}
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// Table is the complete, built symbol model over one or more input files
// plus (optionally) the builtins library. Once Build returns it is
// read-only (spec §5).
type Table struct {
	Root       *Namespace
	namespaces map[string]*Namespace // FQN -> Namespace, includes Root at ""
	symbols    map[string]*Symbol    // FQN -> Symbol
}

// NewTable creates an empty table with just the root namespace.
func NewTable() *Table {
	root := newNamespace("", nil)
	return &Table{
		Root:       root,
		namespaces: map[string]*Namespace{"": root},
		symbols:    map[string]*Symbol{},
	}
}

// Builder accumulates declarations from one or more ast.File values into a
// Table, reporting DuplicateDeclaration via the given sink (spec §3: "
// Declarations are unique within their immediate namespace; collisions are
// errors.").
type Builder struct {
	table *Table
	sink  *diagnostics.Sink
}

// NewBuilder creates a Builder over an empty table.
func NewBuilder(sink *diagnostics.Sink) *Builder {
	return &Builder{table: NewTable(), sink: sink}
}

// Table returns the table built so far.
func (b *Builder) Table() *Table { return b.table }

// AddWildcardImport adds a root-level wildcard import of target, the same
// effect a user file gets from `import target.*;` at its own top level,
// except visible from every namespace in the table (spec §4.4: the
// builtins library is "implicitly wildcard-imported into every user
// namespace unless --disable-builtins is set").
func (b *Builder) AddWildcardImport(target string) {
	b.table.Root.Imports = append(b.table.Root.Imports, importSpec{target: target, wildcard: true})
}

// AddFile registers every declaration in file into the table, starting at
// the root namespace.
func (b *Builder) AddFile(file *ast.File) {
	b.addDecls(b.table.Root, file.Decls)
}

func (b *Builder) addDecls(ns *Namespace, decls []ast.Decl) {
	for _, d := range decls {
		switch decl := d.(type) {
		case *ast.Namespace:
			child := b.childNamespace(ns, decl.Name.String())
			b.addDecls(child, decl.Decls)
		case *ast.Import:
			ns.Imports = append(ns.Imports, importSpec{target: decl.Name.String(), wildcard: decl.Wildcard})
		case *ast.AttributeDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{
				Kind: KindAttribute,
				Attribute: &AttributeInfo{
					ID:       decl.ID,
					Datatype: b.resolveTypeURI(ns, decl.Type),
					Category: b.resolveCategoryURI(ns, decl.Category),
					Bag:      decl.Bag,
				},
			})
		case *ast.CategoryDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{Kind: KindCategory, Category: decl.URI})
		case *ast.TypeDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{Kind: KindDatatype, Datatype: decl.URI})
		case *ast.FunctionDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{Kind: KindFunction, Function: decl, Signature: b.resolveSignature(ns, decl)})
		case *ast.ObligationDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{Kind: KindObligation, Obligation: decl.URI})
		case *ast.AdviceDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{Kind: KindAdvice, Obligation: decl.URI})
		case *ast.PolicyDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{Kind: KindPolicy, Policy: decl})
		case *ast.PolicySetDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{Kind: KindPolicySet, PolicySet: decl})
		case *ast.RuleDecl:
			b.declare(ns, decl.Name, decl.Pos, &Symbol{Kind: KindRule, Rule: decl})
		}
	}
}

// resolveTypeURI looks up a type QName against declared type aliases,
// falling back to treating it as an already-absolute URI-bearing name for
// the handful of primitive names the builtins library itself declares.
func (b *Builder) resolveTypeURI(ns *Namespace, q ast.QName) string {
	if sym, err := b.table.Resolve(ns.FQN, q); err == nil && sym.Kind == KindDatatype {
		return sym.Datatype
	}
	return q.String()
}

// resolveSignature resolves a function's parameter and return type names
// against ns, its own declaring namespace — never the call site's, which
// may sit anywhere else in the namespace forest.
func (b *Builder) resolveSignature(ns *Namespace, decl *ast.FunctionDecl) *types.Signature {
	sig := &types.Signature{
		Variadic:    decl.Variadic,
		Return:      b.resolveTypeURI(ns, decl.Return),
		ReturnCard:  cardOf(decl.ReturnBag),
		HigherOrder: decl.HigherOrder,
	}
	for _, p := range decl.Params {
		sig.Params = append(sig.Params, types.ParamSig{
			Datatype:    b.resolveTypeURI(ns, p.Type),
			Cardinality: cardOf(p.Bag),
		})
	}
	return sig
}

func cardOf(bag bool) types.Cardinality {
	if bag {
		return types.Bag
	}
	return types.Single
}

func (b *Builder) resolveCategoryURI(ns *Namespace, q ast.QName) string {
	if sym, err := b.table.Resolve(ns.FQN, q); err == nil && sym.Kind == KindCategory {
		return sym.Category
	}
	return q.String()
}

func (b *Builder) childNamespace(parent *Namespace, name string) *Namespace {
	fqn := join(parent.FQN, name)
	if existing, ok := b.table.namespaces[fqn]; ok {
		return existing
	}
	ns := newNamespace(fqn, parent)
	b.table.namespaces[fqn] = ns
	// Register the new namespace in its parent's Children map under the
	// last segment of name. A dotted name (`namespace a.b.c { … }`) is
	// attached directly under parent, with no intermediate namespaces; it
	// is reachable by its full FQN via the flat namespaces map.
	leaf := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		leaf = name[i+1:]
	}
	parent.Children[leaf] = ns
	return ns
}

func (b *Builder) declare(ns *Namespace, name string, pos token.Position, sym *Symbol) {
	fqn := join(ns.FQN, name)
	if _, dup := ns.Decls[name]; dup {
		b.sink.Add(diagnostics.New(pos, diagnostics.KindDuplicateDeclaration,
			"%q is already declared in namespace %q", name, nsLabel(ns.FQN)))
		return
	}
	sym.FQN = fqn
	ns.Decls[name] = sym
	b.table.symbols[fqn] = sym
}

func nsLabel(fqn string) string {
	if fqn == "" {
		return "<root>"
	}
	return fqn
}
