// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package emitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	norm "github.com/alfatranslator/alfac/internal/normalizer"
)

func TestEmitPolicyHasDeclarationAndNamespace(t *testing.T) {
	doc := norm.Document{Policy: &norm.Policy{
		ID:             "P1",
		CombiningAlgID: "urn:oasis:names:tc:xacml:3.0:policy-combining-algorithm:permit-overrides",
	}}

	out, err := Emit(doc)
	require.NoError(t, err)
	s := string(out)
	require.True(t, strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`))
	require.Contains(t, s, `xmlns="urn:oasis:names:tc:xacml:3.0:core:schema:wd-17"`)
	require.Contains(t, s, `PolicyId="P1"`)
	require.Contains(t, s, `RuleCombiningAlgId="urn:oasis:names:tc:xacml:3.0:policy-combining-algorithm:permit-overrides"`)
}

func TestEmitRuleWithConditionAndTarget(t *testing.T) {
	doc := norm.Document{Policy: &norm.Policy{
		ID:             "P1",
		CombiningAlgID: "deny-overrides",
		Target: &norm.Target{AnyOfs: []norm.AnyOf{{AllOfs: []norm.AllOf{{Matches: []norm.Match{
			{
				FunctionID: "urn:oasis:names:tc:xacml:1.0:function:integer-greater-than-or-equal",
				Value:      norm.AttributeValue{DataType: "http://www.w3.org/2001/XMLSchema#integer", Value: "0"},
				Designator: norm.AttributeDesignator{Category: "urn:cat:subject", AttributeID: "urn:attr:age", DataType: "http://www.w3.org/2001/XMLSchema#integer"},
			},
		}}}}}},
		Rules: []norm.Rule{
			{
				ID:     "R1",
				Effect: "Permit",
				Condition: norm.Apply{
					FunctionID: "urn:oasis:names:tc:xacml:1.0:function:integer-greater-than",
					Args: []norm.Expr{
						norm.AttributeDesignator{Category: "urn:cat:subject", AttributeID: "urn:attr:age", DataType: "http://www.w3.org/2001/XMLSchema#integer"},
						norm.AttributeValue{DataType: "http://www.w3.org/2001/XMLSchema#integer", Value: "18"},
					},
				},
			},
		},
	}}

	out, err := Emit(doc)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, `<Target>`)
	require.Contains(t, s, `<Match MatchId="urn:oasis:names:tc:xacml:1.0:function:integer-greater-than-or-equal">`)
	require.Contains(t, s, `RuleId="R1"`)
	require.Contains(t, s, `Effect="Permit"`)
	require.Contains(t, s, `<Apply FunctionId="urn:oasis:names:tc:xacml:1.0:function:integer-greater-than">`)
	require.Contains(t, s, `AttributeId="urn:attr:age"`)
	require.Contains(t, s, `>18</AttributeValue>`)
}

func TestEmitObligationExpression(t *testing.T) {
	doc := norm.Document{Policy: &norm.Policy{
		ID:             "P1",
		CombiningAlgID: "deny-overrides",
		Rules: []norm.Rule{
			{
				ID:     "R1",
				Effect: "Permit",
				Obligations: []norm.ObligationOrAdvice{
					{
						ID:        "urn:obligation:notify",
						FulfillOn: "Permit",
						Assignments: []norm.AttributeAssignment{
							{AttributeID: "urn:attr:message", Category: "urn:cat:subject", DataType: "http://www.w3.org/2001/XMLSchema#string",
								Expr: norm.AttributeValue{DataType: "http://www.w3.org/2001/XMLSchema#string", Value: "hello"}},
						},
					},
				},
			},
		},
	}}

	out, err := Emit(doc)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, `<ObligationExpressions>`)
	require.Contains(t, s, `ObligationId="urn:obligation:notify"`)
	require.Contains(t, s, `FulfillOn="Permit"`)
	require.Contains(t, s, `AttributeId="urn:attr:message"`)
	require.Contains(t, s, `>hello</AttributeValue>`)
}

func TestEmitPolicySetWithPolicyIdReference(t *testing.T) {
	doc := norm.Document{PolicySet: &norm.PolicySet{
		ID:             "PS1",
		CombiningAlgID: "deny-overrides",
		Children: []norm.PolicySetChild{
			{Kind: norm.ChildReference, RefID: "P1"},
		},
	}}

	out, err := Emit(doc)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, `<PolicySet`)
	require.Contains(t, s, `PolicySetId="PS1"`)
	require.Contains(t, s, `<PolicyIdReference>P1</PolicyIdReference>`)
}

func TestEmitReturnsErrorForEmptyDocument(t *testing.T) {
	_, err := Emit(norm.Document{})
	require.Error(t, err)
}

func TestEmitEmptyTargetRendersEmptyElement(t *testing.T) {
	doc := norm.Document{Policy: &norm.Policy{
		ID:             "P1",
		CombiningAlgID: "deny-overrides",
		Target:         &norm.Target{},
		Rules: []norm.Rule{
			{ID: "R1", Effect: "Permit", Target: &norm.Target{}},
		},
	}}

	out, err := Emit(doc)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "<Target>")
	require.Contains(t, s, "</Target>")
	require.NotContains(t, s, "<AnyOf>")
}

func TestEmitVariableDefinition(t *testing.T) {
	doc := norm.Document{Policy: &norm.Policy{
		ID:             "P1",
		CombiningAlgID: "deny-overrides",
		Variables: []norm.VariableDefinition{
			{VariableID: "IsAdult", Expr: norm.AttributeValue{DataType: "http://www.w3.org/2001/XMLSchema#boolean", Value: "true"}},
		},
	}}

	out, err := Emit(doc)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, `<VariableDefinition VariableId="IsAdult">`)
	require.Contains(t, s, `>true</AttributeValue>`)
}
