// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package normalizer

import (
	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/symbols"
	"github.com/alfatranslator/alfac/internal/types"
)

// flipOp reverses a comparison operator so an "Attr Op Value" target clause
// can still be expressed with the literal as the function's first
// argument: "Attr > Value" becomes "Value < Attr".
var flipOp = map[string]string{
	"==": "==", "<": ">", ">": "<", "<=": ">=", ">=": "<=",
}

// normalizeTarget lowers a surface Target into its canonical AnyOf/AllOf
// form. A nil t (no `target` clause in the source) still produces a
// non-nil, empty Target: spec §4.7 requires every Policy/PolicySet/Rule to
// emit a <Target> element, empty or not, since XACML 3.0's schema declares
// it a required child.
func (n *Normalizer) normalizeTarget(nsFQN string, t *ast.Target) *Target {
	if t == nil {
		return &Target{}
	}
	var groups [][]ast.TargetClause
	var current []ast.TargetClause
	for _, cl := range t.Clauses {
		current = append(current, cl)
		if cl.Next != ast.ConnectiveAnd {
			groups = append(groups, current)
			current = nil
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	var anyOf AnyOf
	for _, grp := range groups {
		var allOf AllOf
		for _, cl := range grp {
			if m, ok := n.normalizeTargetClause(nsFQN, cl); ok {
				allOf.Matches = append(allOf.Matches, m)
			}
		}
		anyOf.AllOfs = append(anyOf.AllOfs, allOf)
	}
	return &Target{AnyOfs: []AnyOf{anyOf}}
}

// normalizeTargetClause lowers one surface clause to a Match. ok is false
// only for a clause internal/checker already flagged as unresolvable or
// inexpressible; the normalizer does not re-report diagnostics.
func (n *Normalizer) normalizeTargetClause(nsFQN string, cl ast.TargetClause) (Match, bool) {
	sym, err := n.table.Resolve(nsFQN, cl.Attr.Name)
	if err != nil || sym.Kind != symbols.KindAttribute {
		return Match{}, false
	}
	op := cl.Op
	if cl.AttrOnLeft {
		op = flipOp[op]
	}
	fid, ok := types.OperatorFunction(types.ComparisonSuffix[op], cl.Literal.Type.String())
	if !ok {
		return Match{}, false
	}
	return Match{
		FunctionID: fid,
		Value:      AttributeValue{DataType: cl.Literal.Type.String(), Value: cl.Literal.Value},
		Designator: AttributeDesignator{Category: sym.Attribute.Category, AttributeID: sym.Attribute.ID, DataType: sym.Attribute.Datatype},
	}, true
}

func (n *Normalizer) datatypeOf(e ast.Expr) string {
	return n.types[e].Datatype
}

func (n *Normalizer) normalizeExpr(nsFQN string, e ast.Expr) Expr {
	switch expr := e.(type) {
	case *ast.Literal:
		return AttributeValue{DataType: expr.Type.String(), Value: expr.Value}

	case *ast.AttrRef:
		sym, err := n.table.Resolve(nsFQN, expr.Name)
		if err != nil || sym.Kind != symbols.KindAttribute {
			return AttributeValue{} // unreachable: checker already validated this reference
		}
		return AttributeDesignator{Category: sym.Attribute.Category, AttributeID: sym.Attribute.ID, DataType: sym.Attribute.Datatype}

	case *ast.VarRef:
		return VariableReference{VariableID: expr.Name}

	case *ast.FuncApply:
		args := make([]Expr, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = n.normalizeExpr(nsFQN, a)
		}
		fid := expr.Func.String()
		if sym, err := n.table.Resolve(nsFQN, expr.Func); err == nil && sym.Kind == symbols.KindFunction {
			fid = sym.Function.ID
		}
		return Apply{FunctionID: fid, Args: args}

	case *ast.BagExpr:
		args := make([]Expr, len(expr.Elements))
		for i, el := range expr.Elements {
			args[i] = n.normalizeExpr(nsFQN, el)
		}
		dt := ""
		if len(expr.Elements) > 0 {
			dt = n.datatypeOf(expr.Elements[0])
		}
		fid, _ := types.OperatorFunction("bag", dt)
		return Apply{FunctionID: fid, Args: args}

	case *ast.InExpr:
		elem := n.normalizeExpr(nsFQN, expr.Elem)
		bag := n.normalizeExpr(nsFQN, expr.Bag)
		fid, _ := types.OperatorFunction("is-in", n.datatypeOf(expr.Elem))
		return Apply{FunctionID: fid, Args: []Expr{elem, bag}}

	case *ast.BinaryExpr:
		return n.normalizeBinary(nsFQN, expr)

	case *ast.UnaryExpr:
		inner := n.normalizeExpr(nsFQN, expr.Expr)
		if expr.Bang {
			return Apply{FunctionID: types.LogicalFunction("not"), Args: []Expr{inner}}
		}
		dt := n.datatypeOf(expr.Expr)
		zero := "0"
		if dt == types.XSDDouble {
			zero = "0.0"
		}
		fid, _ := types.OperatorFunction("subtract", dt)
		return Apply{FunctionID: fid, Args: []Expr{AttributeValue{DataType: dt, Value: zero}, inner}}
	}
	return AttributeValue{}
}

func (n *Normalizer) normalizeBinary(nsFQN string, b *ast.BinaryExpr) Expr {
	left := n.normalizeExpr(nsFQN, b.Left)
	right := n.normalizeExpr(nsFQN, b.Right)
	dt := n.datatypeOf(b.Left)

	switch b.Op {
	case ast.OpAnd:
		return Apply{FunctionID: types.LogicalFunction("and"), Args: []Expr{left, right}}
	case ast.OpOr:
		return Apply{FunctionID: types.LogicalFunction("or"), Args: []Expr{left, right}}
	case ast.OpNeq:
		fid, _ := types.OperatorFunction("equal", dt)
		return Apply{FunctionID: types.LogicalFunction("not"), Args: []Expr{Apply{FunctionID: fid, Args: []Expr{left, right}}}}
	case ast.OpEq, ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		fid, _ := types.OperatorFunction(types.ComparisonSuffix[b.Op.String()], dt)
		return Apply{FunctionID: fid, Args: []Expr{left, right}}
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		fid, _ := types.OperatorFunction(types.ArithmeticSuffix[b.Op.String()], dt)
		return Apply{FunctionID: fid, Args: []Expr{left, right}}
	}
	return AttributeValue{}
}
