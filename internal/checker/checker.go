// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package checker implements the resolver/type-checker pass (spec §4.5):
// it walks a parsed file's declaration tree, resolving every attribute,
// function, obligation, advice, policy, and policy-set reference against a
// built internal/symbols.Table, computing and validating the
// (datatype, cardinality) of every expression, and rewriting ast.AttrRef
// nodes that turn out to name a policy-local variable into ast.VarRef
// (spec §4.5's resolver/normalizer split: the parser cannot tell these
// apart on its own, since both are bare identifiers).
//
// Diagnostics are reported into the shared sink; checking continues past
// an error wherever the surrounding tree can still be usefully walked, so
// a single invocation surfaces as many problems as possible rather than
// stopping at the first one.
package checker

import (
	"strings"

	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/diagnostics"
	"github.com/alfatranslator/alfac/internal/symbols"
	"github.com/alfatranslator/alfac/internal/token"
	"github.com/alfatranslator/alfac/internal/types"
)

// Checker resolves and type-checks declaration trees against a fixed,
// already-built symbol table.
type Checker struct {
	table *symbols.Table
	sink  *diagnostics.Sink
	types map[ast.Expr]types.Value
}

// New creates a Checker over table, reporting into sink.
func New(table *symbols.Table, sink *diagnostics.Sink) *Checker {
	return &Checker{table: table, sink: sink, types: map[ast.Expr]types.Value{}}
}

// Types returns the (datatype, cardinality) computed for every expression
// node that checked successfully, keyed by node identity. internal/normalizer
// uses this instead of re-inferring types while rewriting sugared operators
// to their resolved XACML function ids.
func (c *Checker) Types() map[ast.Expr]types.Value { return c.types }

// CheckFile type-checks every declaration in file, starting at the root
// namespace, mirroring the namespace nesting internal/symbols.Builder used
// to build the table in the first place.
func (c *Checker) CheckFile(file *ast.File) {
	c.checkDecls("", file.Decls)
}

func (c *Checker) checkDecls(nsFQN string, decls []ast.Decl) {
	for _, d := range decls {
		switch decl := d.(type) {
		case *ast.Namespace:
			c.checkDecls(joinNS(nsFQN, decl.Name.String()), decl.Decls)
		case *ast.RuleDecl:
			c.checkRule(nsFQN, decl, newVarScope(nil))
		case *ast.PolicyDecl:
			c.checkPolicy(nsFQN, decl)
		case *ast.PolicySetDecl:
			c.checkPolicySet(nsFQN, decl)
		}
	}
}

func (c *Checker) checkPolicy(nsFQN string, pol *ast.PolicyDecl) {
	vs := newVarScope(pol.Variables)
	if pol.Target != nil {
		c.checkTarget(nsFQN, pol.Target)
	}
	for _, v := range pol.Variables {
		c.resolveVar(nsFQN, vs, v.Name)
	}
	for _, r := range pol.Rules {
		c.checkRule(nsFQN, r, vs)
	}
	possible := possibleEffects(pol.Rules)
	c.checkObligationAssigns(nsFQN, vs, pol.Obligations, possible)
	c.checkObligationAssigns(nsFQN, vs, pol.Advice, possible)
}

func (c *Checker) checkPolicySet(nsFQN string, ps *ast.PolicySetDecl) {
	if ps.Target != nil {
		c.checkTarget(nsFQN, ps.Target)
	}
	for _, child := range ps.Children {
		switch child.Kind {
		case ast.ChildPolicy:
			c.checkPolicy(nsFQN, child.Policy)
		case ast.ChildPolicySet:
			c.checkPolicySet(nsFQN, child.PolicySet)
		case ast.ChildReference:
			sym, err := c.table.Resolve(nsFQN, child.Ref)
			if err != nil {
				c.reportResolveError(child.Ref.Pos, child.Ref.String(), err)
				continue
			}
			if sym.Kind != symbols.KindPolicy && sym.Kind != symbols.KindPolicySet {
				c.sink.Add(diagnostics.New(child.Ref.Pos, diagnostics.KindUnresolvedReference,
					"%q does not name a declared policy or policy set", child.Ref.String()))
			}
		}
	}
	// A policy set's possible effects depend on its children's rules, which
	// are not tracked transitively here; both effects are accepted rather
	// than flagging a false ObligationAssignmentMismatch.
	both := map[ast.Effect]bool{ast.EffectPermit: true, ast.EffectDeny: true}
	c.checkObligationAssigns(nsFQN, varScope{}, ps.Obligations, both)
	c.checkObligationAssigns(nsFQN, varScope{}, ps.Advice, both)
}

func (c *Checker) checkRule(nsFQN string, r *ast.RuleDecl, vs varScope) {
	if r.Target != nil {
		c.checkTarget(nsFQN, r.Target)
	}
	if r.Condition != nil {
		newExpr, val, ok := c.checkExpr(nsFQN, vs, r.Condition)
		if ok {
			r.Condition = newExpr
			if val.Datatype != types.XSDBoolean || val.Cardinality != types.Single {
				c.sink.Add(diagnostics.New(r.Condition.Position(), diagnostics.KindTypeMismatch,
					"condition must be boolean, got %s", val))
			}
		}
	}
	possible := map[ast.Effect]bool{r.Effect: true}
	c.checkObligationAssigns(nsFQN, vs, r.Obligations, possible)
	c.checkObligationAssigns(nsFQN, vs, r.Advice, possible)
}

func (c *Checker) checkTarget(nsFQN string, target *ast.Target) {
	for i := range target.Clauses {
		cl := &target.Clauses[i]
		sym, err := c.table.Resolve(nsFQN, cl.Attr.Name)
		if err != nil {
			c.reportResolveError(cl.Attr.Pos, cl.Attr.Name.String(), err)
			continue
		}
		if sym.Kind != symbols.KindAttribute {
			c.sink.Add(diagnostics.New(cl.Attr.Pos, diagnostics.KindUnresolvedReference,
				"%q does not name a declared attribute", cl.Attr.Name.String()))
			continue
		}
		newLit, litVal, ok := c.checkLiteral(cl.Literal)
		if !ok {
			continue
		}
		cl.Literal = newLit.(*ast.Literal)
		if litVal.Datatype != sym.Attribute.Datatype {
			c.sink.Add(diagnostics.New(cl.Pos, diagnostics.KindTypeMismatch,
				"target clause: attribute %q is %s, literal is %s",
				cl.Attr.Name.String(), sym.Attribute.Datatype, litVal.Datatype))
			continue
		}
		suffix, ok := types.ComparisonSuffix[cl.Op]
		if !ok {
			c.sink.Add(diagnostics.New(cl.Pos, diagnostics.KindTargetNotExpressible,
				"operator %q cannot appear in a target clause", cl.Op))
			continue
		}
		if _, ok := types.OperatorFunction(suffix, litVal.Datatype); !ok {
			c.sink.Add(diagnostics.New(cl.Pos, diagnostics.KindTargetNotExpressible,
				"no standard match function for %q over %s", cl.Op, litVal.Datatype))
		}
	}
}

func (c *Checker) checkObligationAssigns(nsFQN string, vs varScope, assigns []ast.ObligationAssign, possible map[ast.Effect]bool) {
	for i := range assigns {
		oa := &assigns[i]
		if !possible[oa.FulfillOn] {
			c.sink.Add(diagnostics.New(oa.Pos, diagnostics.KindObligationAssignmentMismatch,
				"fulfillOn %s can never occur here", oa.FulfillOn))
		}
		sym, err := c.table.Resolve(nsFQN, oa.Ref)
		if err != nil {
			c.reportResolveError(oa.Pos, oa.Ref.String(), err)
			continue
		}
		if sym.Kind != symbols.KindObligation && sym.Kind != symbols.KindAdvice {
			c.sink.Add(diagnostics.New(oa.Pos, diagnostics.KindUnresolvedReference,
				"%q does not name a declared obligation or advice", oa.Ref.String()))
			continue
		}
		for j := range oa.Assignments {
			asg := &oa.Assignments[j]
			newExpr, val, ok := c.checkExpr(nsFQN, vs, asg.Expr)
			if !ok {
				continue
			}
			asg.Expr = newExpr
			attrSym, err := c.table.Resolve(nsFQN, ast.QName{Segments: []string{asg.AttributeID}})
			if err != nil || attrSym.Kind != symbols.KindAttribute {
				c.sink.Add(diagnostics.New(asg.Pos, diagnostics.KindObligationAssignmentMismatch,
					"%q does not name a declared attribute", asg.AttributeID))
				continue
			}
			want := types.Value{Datatype: attrSym.Attribute.Datatype, Cardinality: types.Single}
			if attrSym.Attribute.Bag {
				want.Cardinality = types.Bag
			}
			if !types.Assignable(val, want) {
				c.sink.Add(diagnostics.New(asg.Pos, diagnostics.KindObligationAssignmentMismatch,
					"attribute %q: expected %s, got %s", asg.AttributeID, want, val))
			}
		}
	}
}

// possibleEffects is the set of effects a policy's rules may produce. An
// empty rule list (a valid, if degenerate, policy) yields both Permit and
// Deny, so no obligation or advice attached to such a policy is flagged.
func possibleEffects(rules []*ast.RuleDecl) map[ast.Effect]bool {
	m := map[ast.Effect]bool{}
	for _, r := range rules {
		m[r.Effect] = true
	}
	if len(m) == 0 {
		m[ast.EffectPermit] = true
		m[ast.EffectDeny] = true
	}
	return m
}

func (c *Checker) reportResolveError(pos token.Position, name string, err error) {
	switch e := err.(type) {
	case *symbols.AmbiguousError:
		d := diagnostics.New(pos, diagnostics.KindAmbiguousReference, "%q is ambiguous", name)
		c.sink.Add(d.WithDetail("candidates: %s", strings.Join(e.Candidates, ", ")))
	default:
		c.sink.Add(diagnostics.New(pos, diagnostics.KindUnresolvedReference, "%s", err.Error()))
	}
}

func joinNS(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
