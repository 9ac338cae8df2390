// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package checker

import (
	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/diagnostics"
	"github.com/alfatranslator/alfac/internal/symbols"
	"github.com/alfatranslator/alfac/internal/types"
)

// varScope tracks the policy-local variables visible while checking one
// policy's target, rules, and obligations, plus the memoized result and
// in-progress marker resolveVar needs to detect a reference cycle (spec
// §7's CyclicVariable).
type varScope struct {
	decls    map[string]*ast.VariableDecl
	resolved map[string]types.Value
	active   map[string]bool
}

func newVarScope(vars []*ast.VariableDecl) varScope {
	decls := make(map[string]*ast.VariableDecl, len(vars))
	for _, v := range vars {
		decls[v.Name] = v
	}
	return varScope{decls: decls, resolved: map[string]types.Value{}, active: map[string]bool{}}
}

// checkExpr type-checks e, returning the (possibly rewritten) expression in
// its place. ok is false once a diagnostic has already been reported
// somewhere in e's subtree; callers should not layer further diagnostics
// on top of a failed subexpression. Every node that checks successfully is
// recorded in c.types, keyed by the (possibly new) node identity.
func (c *Checker) checkExpr(nsFQN string, vs varScope, e ast.Expr) (ast.Expr, types.Value, bool) {
	newE, val, ok := c.checkExprKind(nsFQN, vs, e)
	if ok {
		c.types[newE] = val
	}
	return newE, val, ok
}

func (c *Checker) checkExprKind(nsFQN string, vs varScope, e ast.Expr) (ast.Expr, types.Value, bool) {
	switch expr := e.(type) {
	case *ast.Literal:
		return c.checkLiteral(expr)
	case *ast.AttrRef:
		return c.checkAttrOrVarRef(nsFQN, vs, expr)
	case *ast.VarRef:
		if !c.resolveVar(nsFQN, vs, expr.Name) {
			return expr, types.Value{}, false
		}
		return expr, vs.resolved[expr.Name], true
	case *ast.FuncApply:
		return c.checkFuncApply(nsFQN, vs, expr)
	case *ast.BagExpr:
		return c.checkBagExpr(nsFQN, vs, expr)
	case *ast.InExpr:
		return c.checkInExpr(nsFQN, vs, expr)
	case *ast.BinaryExpr:
		return c.checkBinaryExpr(nsFQN, vs, expr)
	case *ast.UnaryExpr:
		return c.checkUnaryExpr(nsFQN, vs, expr)
	default:
		return e, types.Value{}, false
	}
}

func (c *Checker) checkLiteral(lit *ast.Literal) (ast.Expr, types.Value, bool) {
	var uri string
	switch lit.Kind {
	case ast.LitString:
		uri = types.XSDString
	case ast.LitInteger:
		uri = types.XSDInteger
	case ast.LitDouble:
		uri = types.XSDDouble
	case ast.LitBoolean:
		uri = types.XSDBoolean
	case ast.LitTyped:
		var ok bool
		uri, ok = types.URIForTypedLiteralPrefix(lit.Type.String())
		if !ok {
			c.sink.Add(diagnostics.New(lit.Pos, diagnostics.KindTypeMismatch,
				"unknown typed literal prefix %q", lit.Type.String()))
			return lit, types.Value{}, false
		}
	default:
		c.sink.Add(diagnostics.New(lit.Pos, diagnostics.KindTypeMismatch, "unrecognized literal form"))
		return lit, types.Value{}, false
	}
	lit.Type = ast.QName{Segments: []string{uri}, Pos: lit.Pos}
	return lit, types.Value{Datatype: uri, Cardinality: types.Single}, true
}

// checkAttrOrVarRef resolves a bare-name reference the parser always
// produces as ast.AttrRef. A simple name that names a policy-local
// variable is rewritten to ast.VarRef here; everything else must resolve
// to a declared attribute.
func (c *Checker) checkAttrOrVarRef(nsFQN string, vs varScope, ref *ast.AttrRef) (ast.Expr, types.Value, bool) {
	if ref.Name.Simple() {
		name := ref.Name.Segments[0]
		if _, isVar := vs.decls[name]; isVar {
			if !c.resolveVar(nsFQN, vs, name) {
				return ref, types.Value{}, false
			}
			return &ast.VarRef{Pos: ref.Pos, Name: name}, vs.resolved[name], true
		}
	}
	sym, err := c.table.Resolve(nsFQN, ref.Name)
	if err != nil {
		c.reportResolveError(ref.Pos, ref.Name.String(), err)
		return ref, types.Value{}, false
	}
	if sym.Kind != symbols.KindAttribute {
		c.sink.Add(diagnostics.New(ref.Pos, diagnostics.KindUnresolvedReference,
			"%q does not name a declared attribute", ref.Name.String()))
		return ref, types.Value{}, false
	}
	card := types.Single
	if sym.Attribute.Bag {
		card = types.Bag
	}
	return ref, types.Value{Datatype: sym.Attribute.Datatype, Cardinality: card}, true
}

// resolveVar type-checks the expression defining name, memoizing the
// result so a variable referenced from several places is only checked
// once, and detecting reference cycles via the active set.
func (c *Checker) resolveVar(nsFQN string, vs varScope, name string) bool {
	if _, done := vs.resolved[name]; done {
		return true
	}
	decl, ok := vs.decls[name]
	if !ok {
		return false
	}
	if vs.active[name] {
		c.sink.Add(diagnostics.New(decl.Pos, diagnostics.KindCyclicVariable,
			"variable %q is defined in terms of itself", name))
		return false
	}
	vs.active[name] = true
	newExpr, val, ok := c.checkExpr(nsFQN, vs, decl.Expr)
	delete(vs.active, name)
	if !ok {
		return false
	}
	decl.Expr = newExpr
	vs.resolved[name] = val
	return true
}

func (c *Checker) checkFuncApply(nsFQN string, vs varScope, fa *ast.FuncApply) (ast.Expr, types.Value, bool) {
	sym, err := c.table.Resolve(nsFQN, fa.Func)
	if err != nil {
		c.reportResolveError(fa.Pos, fa.Func.String(), err)
		return fa, types.Value{}, false
	}
	if sym.Kind != symbols.KindFunction {
		c.sink.Add(diagnostics.New(fa.Pos, diagnostics.KindUnresolvedReference,
			"%q does not name a declared function", fa.Func.String()))
		return fa, types.Value{}, false
	}
	sig := *sym.Signature
	if !sig.CheckArity(len(fa.Args)) {
		c.sink.Add(diagnostics.New(fa.Pos, diagnostics.KindArityMismatch,
			"%q expects %d argument(s), got %d", fa.Func.String(), len(sig.Params), len(fa.Args)))
		return fa, types.Value{}, false
	}
	ok := true
	for i, arg := range fa.Args {
		newArg, val, aok := c.checkExpr(nsFQN, vs, arg)
		if !aok {
			ok = false
			continue
		}
		fa.Args[i] = newArg
		want := types.Value{Datatype: sig.ParamAt(i).Datatype, Cardinality: sig.ParamAt(i).Cardinality}
		if !types.Assignable(val, want) {
			c.sink.Add(diagnostics.New(arg.Position(), diagnostics.KindTypeMismatch,
				"argument %d of %q: expected %s, got %s", i+1, fa.Func.String(), want, val))
			ok = false
		}
	}
	if !ok {
		return fa, types.Value{}, false
	}
	return fa, types.Value{Datatype: sig.Return, Cardinality: sig.ReturnCard}, true
}

func (c *Checker) checkBagExpr(nsFQN string, vs varScope, b *ast.BagExpr) (ast.Expr, types.Value, bool) {
	if len(b.Elements) == 0 {
		c.sink.Add(diagnostics.New(b.Pos, diagnostics.KindTypeMismatch, "empty bag literal has no determinable datatype"))
		return b, types.Value{}, false
	}
	var dt string
	ok := true
	for i, el := range b.Elements {
		newEl, val, eok := c.checkExpr(nsFQN, vs, el)
		if !eok {
			ok = false
			continue
		}
		b.Elements[i] = newEl
		if i == 0 {
			dt = val.Datatype
		} else if val.Datatype != dt {
			c.sink.Add(diagnostics.New(el.Position(), diagnostics.KindTypeMismatch,
				"bag literal: mixed datatypes %s and %s", dt, val.Datatype))
			ok = false
		}
	}
	if !ok {
		return b, types.Value{}, false
	}
	return b, types.Value{Datatype: dt, Cardinality: types.Bag}, true
}

func (c *Checker) checkInExpr(nsFQN string, vs varScope, in *ast.InExpr) (ast.Expr, types.Value, bool) {
	newElem, elemVal, eok := c.checkExpr(nsFQN, vs, in.Elem)
	newBag, bagVal, bok := c.checkExpr(nsFQN, vs, in.Bag)
	if !eok || !bok {
		return in, types.Value{}, false
	}
	in.Elem, in.Bag = newElem, newBag
	if elemVal.Datatype != bagVal.Datatype {
		c.sink.Add(diagnostics.New(in.Pos, diagnostics.KindTypeMismatch,
			"`in`: element is %s, bag is %s", elemVal.Datatype, bagVal.Datatype))
		return in, types.Value{}, false
	}
	if _, ok := types.OperatorFunction("is-in", elemVal.Datatype); !ok {
		c.sink.Add(diagnostics.New(in.Pos, diagnostics.KindTypeMismatch,
			"no is-in function defined over %s", elemVal.Datatype))
		return in, types.Value{}, false
	}
	return in, types.Value{Datatype: types.XSDBoolean, Cardinality: types.Single}, true
}

func (c *Checker) checkBinaryExpr(nsFQN string, vs varScope, b *ast.BinaryExpr) (ast.Expr, types.Value, bool) {
	newL, lv, lok := c.checkExpr(nsFQN, vs, b.Left)
	newR, rv, rok := c.checkExpr(nsFQN, vs, b.Right)
	if !lok || !rok {
		return b, types.Value{}, false
	}
	b.Left, b.Right = newL, newR

	switch b.Op {
	case ast.OpAnd, ast.OpOr:
		ok := true
		if lv.Datatype != types.XSDBoolean || lv.Cardinality != types.Single {
			c.sink.Add(diagnostics.New(b.Left.Position(), diagnostics.KindTypeMismatch,
				"operand of %s must be boolean, got %s", b.Op, lv))
			ok = false
		}
		if rv.Datatype != types.XSDBoolean || rv.Cardinality != types.Single {
			c.sink.Add(diagnostics.New(b.Right.Position(), diagnostics.KindTypeMismatch,
				"operand of %s must be boolean, got %s", b.Op, rv))
			ok = false
		}
		if !ok {
			return b, types.Value{}, false
		}
		return b, types.Value{Datatype: types.XSDBoolean, Cardinality: types.Single}, true

	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		if lv.Datatype != rv.Datatype || lv.Cardinality != types.Single || rv.Cardinality != types.Single {
			c.sink.Add(diagnostics.New(b.Pos, diagnostics.KindTypeMismatch,
				"comparison %s: operands are %s and %s", b.Op, lv, rv))
			return b, types.Value{}, false
		}
		if _, ok := types.OperatorFunction(types.ComparisonSuffix[b.Op.String()], lv.Datatype); !ok {
			c.sink.Add(diagnostics.New(b.Pos, diagnostics.KindTypeMismatch,
				"no %s comparison defined over %s", b.Op, lv.Datatype))
			return b, types.Value{}, false
		}
		return b, types.Value{Datatype: types.XSDBoolean, Cardinality: types.Single}, true

	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		if lv.Datatype != rv.Datatype || lv.Cardinality != types.Single || rv.Cardinality != types.Single {
			c.sink.Add(diagnostics.New(b.Pos, diagnostics.KindTypeMismatch,
				"arithmetic %s: operands are %s and %s", b.Op, lv, rv))
			return b, types.Value{}, false
		}
		if _, ok := types.OperatorFunction(types.ArithmeticSuffix[b.Op.String()], lv.Datatype); !ok {
			c.sink.Add(diagnostics.New(b.Pos, diagnostics.KindTypeMismatch,
				"no arithmetic %s defined over %s", b.Op, lv.Datatype))
			return b, types.Value{}, false
		}
		return b, types.Value{Datatype: lv.Datatype, Cardinality: types.Single}, true
	}
	return b, types.Value{}, false
}

func (c *Checker) checkUnaryExpr(nsFQN string, vs varScope, u *ast.UnaryExpr) (ast.Expr, types.Value, bool) {
	newE, v, ok := c.checkExpr(nsFQN, vs, u.Expr)
	if !ok {
		return u, types.Value{}, false
	}
	u.Expr = newE
	if u.Bang {
		if v.Datatype != types.XSDBoolean || v.Cardinality != types.Single {
			c.sink.Add(diagnostics.New(u.Pos, diagnostics.KindTypeMismatch,
				"`!` operand must be boolean, got %s", v))
			return u, types.Value{}, false
		}
		return u, types.Value{Datatype: types.XSDBoolean, Cardinality: types.Single}, true
	}
	if (v.Datatype != types.XSDInteger && v.Datatype != types.XSDDouble) || v.Cardinality != types.Single {
		c.sink.Add(diagnostics.New(u.Pos, diagnostics.KindTypeMismatch,
			"unary `-` operand must be numeric, got %s", v))
		return u, types.Value{}, false
	}
	return u, v, true
}
