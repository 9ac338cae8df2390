// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package ast defines the ALFA abstract syntax tree: the declaration tree
// produced by internal/parser, later annotated in place by internal/checker
// (symbol references) and rewritten by internal/normalizer (sugar lowering)
// before internal/emitter consumes it. Every node carries a source Position.
package ast

import "github.com/alfatranslator/alfac/internal/token"

// QName is a qualified name: an ordered sequence of identifier segments.
type QName struct {
	Segments []string
	Pos      token.Position
}

func (q QName) String() string {
	s := ""
	for i, seg := range q.Segments {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// Simple reports whether this is a single-segment (unqualified) name.
func (q QName) Simple() bool { return len(q.Segments) == 1 }

// File is the virtual top-level namespace parsed from one input file.
type File struct {
	Path string
	Decls []Decl
}

// Decl is any declaration accepted at namespace scope (spec §4.2).
type Decl interface{ declNode() }

// Namespace groups declarations under a name; namespaces nest by textual
// containment.
type Namespace struct {
	Pos   token.Position
	Name  QName
	Decls []Decl
}

// Import is either a single qualified-name import or a wildcard ("Q.*") one.
type Import struct {
	Pos      token.Position
	Name     QName
	Wildcard bool
}

// AttributeDecl declares a typed, categorized attribute symbol.
type AttributeDecl struct {
	Pos      token.Position
	Name     string
	ID       string // attribute id URI
	Type     QName  // datatype reference
	Category QName  // category reference
	Bag      bool   // cardinality: true => bag, false => single
}

// CategoryDecl declares a named XACML attribute category.
type CategoryDecl struct {
	Pos  token.Position
	Name string
	URI  string
}

// TypeDecl declares a named XACML datatype alias.
type TypeDecl struct {
	Pos  token.Position
	Name string
	URI  string
}

// FunctionDecl declares a named XACML function with its signature.
type FunctionDecl struct {
	Pos        token.Position
	Name       string
	ID         string // function id URI
	Params     []ParamType
	Variadic   bool // last parameter repeats 0+ times
	Return     QName
	ReturnBag  bool
	HigherOrder bool // takes a function reference as first argument
}

// ParamType is one formal parameter's datatype and cardinality.
type ParamType struct {
	Type QName
	Bag  bool
}

// ObligationDecl declares a named obligation id.
type ObligationDecl struct {
	Pos  token.Position
	Name string
	URI  string
}

// AdviceDecl declares a named advice id.
type AdviceDecl struct {
	Pos  token.Position
	Name string
	URI  string
}

// Effect is a rule/policy/policy-set outcome.
type Effect int

const (
	EffectPermit Effect = iota
	EffectDeny
)

func (e Effect) String() string {
	if e == EffectPermit {
		return "Permit"
	}
	return "Deny"
}

// RuleDecl is a single ALFA rule declaration.
type RuleDecl struct {
	Pos         token.Position
	Name        string
	Effect      Effect
	Description string
	Target      *Target
	Condition   Expr
	Obligations []ObligationAssign
	Advice      []ObligationAssign
}

// PolicyDecl is a single ALFA policy declaration: an ordered set of rules
// under one combining algorithm.
type PolicyDecl struct {
	Pos             token.Position
	Name            string
	CombiningAlgID  string
	Description     string
	Target          *Target
	Rules           []*RuleDecl
	Variables       []*VariableDecl
	Obligations     []ObligationAssign
	Advice          []ObligationAssign
}

// PolicySetChildKind distinguishes the three forms a policy set child may
// take.
type PolicySetChildKind int

const (
	ChildPolicy PolicySetChildKind = iota
	ChildPolicySet
	ChildReference
)

// PolicySetChild is one ordered child of a PolicySetDecl.
type PolicySetChild struct {
	Kind      PolicySetChildKind
	Policy    *PolicyDecl
	PolicySet *PolicySetDecl
	Ref       QName
}

// PolicySetDecl is a single ALFA policyset declaration.
type PolicySetDecl struct {
	Pos            token.Position
	Name           string
	CombiningAlgID string
	Description    string
	Target         *Target
	Children       []PolicySetChild
	Obligations    []ObligationAssign
	Advice         []ObligationAssign
}

// VariableDecl is a named, lazily-reusable expression local to a policy.
type VariableDecl struct {
	Pos  token.Position
	Name string
	Expr Expr
}

// ObligationAssign is a single obligation/advice assignment clause:
// `on deny obligation Name { attrId = expr, ... }`.
type ObligationAssign struct {
	Pos         token.Position
	FulfillOn   Effect
	Ref         QName // declared obligation/advice name
	Assignments []AttributeAssignment
}

// AttributeAssignment binds an attribute id/category/datatype to an
// expression inside an obligation or advice.
type AttributeAssignment struct {
	Pos        token.Position
	AttributeID string
	Category   QName
	Type       QName
	Expr       Expr
}

// Target is a disjunction of conjunctions of Match clauses (spec §3) prior
// to normalization into the canonical AnyOf/AllOf form — that canonical
// rewrite is what internal/normalizer produces from this surface tree.
type Target struct {
	Pos     token.Position
	Clauses []TargetClause // ALFA's flat "clause C1 and C2 or C3" list
}

// TargetClauseConnective says how a clause combines with the next one.
type TargetClauseConnective int

const (
	ConnectiveNone TargetClauseConnective = iota
	ConnectiveAnd
	ConnectiveOr
)

// TargetClause is one `Attr Op Value` or `Value Op Attr` match.
type TargetClause struct {
	Pos        token.Position
	Attr       *AttrRef
	Op         string // "==", "<", "<=", ">", ">="
	Literal    *Literal
	AttrOnLeft bool // true: "Attr Op Value"; false: "Value Op Attr"
	Next       TargetClauseConnective
}

func (Namespace) declNode()      {}
func (Import) declNode()         {}
func (AttributeDecl) declNode()  {}
func (CategoryDecl) declNode()   {}
func (TypeDecl) declNode()       {}
func (FunctionDecl) declNode()   {}
func (ObligationDecl) declNode() {}
func (AdviceDecl) declNode()     {}
func (RuleDecl) declNode()       {}
func (PolicyDecl) declNode()     {}
func (PolicySetDecl) declNode()  {}
