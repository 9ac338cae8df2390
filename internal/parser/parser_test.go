// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alfatranslator/alfac/internal/ast"
)

func TestParseFileNamespaceAndWildcardImport(t *testing.T) {
	f, err := ParseFile("t.alfa", `namespace example {
		import xacml30.*
	}`)
	require.NoError(t, err)
	require.Len(t, f.Decls, 1)
	ns, ok := f.Decls[0].(*ast.Namespace)
	require.True(t, ok)
	require.Equal(t, "example", ns.Name.String())
	require.Len(t, ns.Decls, 1)
	imp, ok := ns.Decls[0].(*ast.Import)
	require.True(t, ok)
	require.True(t, imp.Wildcard)
	require.Equal(t, "xacml30", imp.Name.String())
}

func TestParseAttributeDecl(t *testing.T) {
	f, err := ParseFile("t.alfa", `
		type myInt = "http://www.w3.org/2001/XMLSchema#integer"
		category subjectCat = "urn:oasis:names:tc:xacml:1.0:subject-category:access-subject"
		attribute Age {
			id = "urn:attr:age"
			type = myInt
			category = subjectCat
			bag
		}
	`)
	require.NoError(t, err)
	require.Len(t, f.Decls, 3)
	attr, ok := f.Decls[2].(*ast.AttributeDecl)
	require.True(t, ok)
	require.Equal(t, "Age", attr.Name)
	require.Equal(t, "urn:attr:age", attr.ID)
	require.Equal(t, "myInt", attr.Type.String())
	require.Equal(t, "subjectCat", attr.Category.String())
	require.True(t, attr.Bag)
}

func TestParsePolicyWithTargetAndRule(t *testing.T) {
	f, err := ParseFile("t.alfa", `
		policy P1 {
			apply firstApplicable
			target clause Age >= 18;
			rule R1 {
				permit
				condition Age >= 21;
			}
		}
	`)
	require.NoError(t, err)
	pol, ok := f.Decls[0].(*ast.PolicyDecl)
	require.True(t, ok)
	require.Equal(t, "P1", pol.Name)
	require.Equal(t, "urn:oasis:names:tc:xacml:1.0:rule-combining-algorithm:first-applicable", pol.CombiningAlgID)
	require.NotNil(t, pol.Target)
	require.Len(t, pol.Target.Clauses, 1)
	require.Equal(t, ">=", pol.Target.Clauses[0].Op)
	require.Len(t, pol.Rules, 1)
	require.Equal(t, ast.EffectPermit, pol.Rules[0].Effect)

	cond, ok := pol.Rules[0].Condition.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpGtEq, cond.Op)
}

func TestParseTargetClauseWithValueOnLeft(t *testing.T) {
	f, err := ParseFile("t.alfa", `
		policy P1 {
			apply firstApplicable
			target clause 18 <= Age;
		}
	`)
	require.NoError(t, err)
	pol := f.Decls[0].(*ast.PolicyDecl)
	require.False(t, pol.Target.Clauses[0].AttrOnLeft)
}

func TestParseVariableDecl(t *testing.T) {
	f, err := ParseFile("t.alfa", `
		policy P1 {
			apply denyOverrides
			variable IsAdult = Age >= 18;
		}
	`)
	require.NoError(t, err)
	pol := f.Decls[0].(*ast.PolicyDecl)
	require.Len(t, pol.Variables, 1)
	require.Equal(t, "IsAdult", pol.Variables[0].Name)
}

func TestParseObligationAssignOnRule(t *testing.T) {
	f, err := ParseFile("t.alfa", `
		policy P1 {
			apply denyOverrides
			rule R1 {
				permit
				on permit obligation Notify {
					Message = "hello"
				};
			}
		}
	`)
	require.NoError(t, err)
	pol := f.Decls[0].(*ast.PolicyDecl)
	require.Len(t, pol.Rules[0].Obligations, 1)
	oa := pol.Rules[0].Obligations[0]
	require.Equal(t, ast.EffectPermit, oa.FulfillOn)
	require.Equal(t, "Notify", oa.Ref.String())
	require.Len(t, oa.Assignments, 1)
	require.Equal(t, "Message", oa.Assignments[0].AttributeID)
}

func TestParsePolicySetWithInlineAndReferenceChildren(t *testing.T) {
	f, err := ParseFile("t.alfa", `
		policyset PS1 {
			apply denyOverrides
			policy Inline {
				apply firstApplicable
			}
			policy Referenced;
		}
	`)
	require.NoError(t, err)
	ps, ok := f.Decls[0].(*ast.PolicySetDecl)
	require.True(t, ok)
	require.Len(t, ps.Children, 2)
	require.Equal(t, ast.ChildPolicy, ps.Children[0].Kind)
	require.Equal(t, "Inline", ps.Children[0].Policy.Name)
	require.Equal(t, ast.ChildReference, ps.Children[1].Kind)
	require.Equal(t, "Referenced", ps.Children[1].Ref.String())
}

func TestParseFunctionDeclWithVariadicBagParam(t *testing.T) {
	f, err := ParseFile("t.alfa", `function myAdd = "urn:function:my-add" : (integer bag) -> integer`)
	require.NoError(t, err)
	fn, ok := f.Decls[0].(*ast.FunctionDecl)
	require.True(t, ok)
	require.Equal(t, "myAdd", fn.Name)
	require.Len(t, fn.Params, 1)
	require.True(t, fn.Params[0].Bag)
	require.Equal(t, "integer", fn.Return.String())
}

func TestParseErrorOnMissingBraceReportsPosition(t *testing.T) {
	_, err := ParseFile("t.alfa", `policy P1 {`)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
}

func TestParseInExprAndBagLiteral(t *testing.T) {
	f, err := ParseFile("t.alfa", `
		policy P1 {
			apply denyOverrides
			rule R1 {
				permit
				condition Age in {18, 19, 20};
			}
		}
	`)
	require.NoError(t, err)
	pol := f.Decls[0].(*ast.PolicyDecl)
	inExpr, ok := pol.Rules[0].Condition.(*ast.InExpr)
	require.True(t, ok)
	bag, ok := inExpr.Bag.(*ast.BagExpr)
	require.True(t, ok)
	require.Len(t, bag.Elements, 3)
}
