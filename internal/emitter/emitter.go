// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package emitter serializes a normalized internal/normalizer.Document to
// XACML 3.0 XML (spec §4.7): the element ordering, attribute names, and
// namespace exactly match the XACML 3.0 core schema
// (urn:oasis:names:tc:xacml:3.0:core:schema:wd-17). One document maps to
// exactly one <Policy> or <PolicySet> root element.
package emitter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	norm "github.com/alfatranslator/alfac/internal/normalizer"
)

const (
	xacmlNamespace = "urn:oasis:names:tc:xacml:3.0:core:schema:wd-17"
	policyVersion  = "1.0"
)

// Emit renders doc as a complete XACML 3.0 document, indented two spaces
// per level, preceded by an XML declaration.
func Emit(doc norm.Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	var root any
	switch {
	case doc.Policy != nil:
		root = policyFromIR(doc.Policy)
	case doc.PolicySet != nil:
		root = policySetFromIR(doc.PolicySet)
	default:
		return nil, fmt.Errorf("emitter: document has neither Policy nor PolicySet")
	}
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("emitter: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("emitter: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// marshalExpr writes e as whichever XACML expression element its concrete
// type corresponds to. Expr is a closed interface (spec §4.6's
// post-normalization invariant: only these four kinds survive), so this
// switch is exhaustive by construction rather than needing a default case
// that silently drops unknown expression kinds.
func marshalExpr(enc *xml.Encoder, e norm.Expr) error {
	switch v := e.(type) {
	case norm.AttributeValue:
		start := xml.StartElement{Name: xml.Name{Local: "AttributeValue"}, Attr: []xml.Attr{
			{Name: xml.Name{Local: "DataType"}, Value: v.DataType},
		}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(v.Value)); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())

	case norm.AttributeDesignator:
		start := xml.StartElement{Name: xml.Name{Local: "AttributeDesignator"}, Attr: []xml.Attr{
			{Name: xml.Name{Local: "Category"}, Value: v.Category},
			{Name: xml.Name{Local: "AttributeId"}, Value: v.AttributeID},
			{Name: xml.Name{Local: "DataType"}, Value: v.DataType},
			{Name: xml.Name{Local: "MustBePresent"}, Value: strconv.FormatBool(v.MustBePresent)},
		}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())

	case norm.VariableReference:
		start := xml.StartElement{Name: xml.Name{Local: "VariableReference"}, Attr: []xml.Attr{
			{Name: xml.Name{Local: "VariableId"}, Value: v.VariableID},
		}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())

	case norm.Apply:
		start := xml.StartElement{Name: xml.Name{Local: "Apply"}, Attr: []xml.Attr{
			{Name: xml.Name{Local: "FunctionId"}, Value: v.FunctionID},
		}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, arg := range v.Args {
			if err := marshalExpr(enc, arg); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	}
	return fmt.Errorf("emitter: unrecognized expression type %T", e)
}

// exprElement wraps one normalizer.Expr so it marshals under the wrapping
// element name its struct tag provides (e.g. "Condition"), delegating its
// inner content to marshalExpr.
type exprElement struct{ expr norm.Expr }

func (w exprElement) MarshalXML(enc *xml.Encoder, start xml.StartElement) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := marshalExpr(enc, w.expr); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

type variableDefXML struct {
	variableID string
	expr       norm.Expr
}

func (v variableDefXML) MarshalXML(enc *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "VariableId"}, Value: v.variableID})
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := marshalExpr(enc, v.expr); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

type attributeAssignmentXML struct {
	attributeID string
	category    string
	dataType    string
	expr        norm.Expr
}

func (a attributeAssignmentXML) MarshalXML(enc *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr,
		xml.Attr{Name: xml.Name{Local: "AttributeId"}, Value: a.attributeID},
		xml.Attr{Name: xml.Name{Local: "Category"}, Value: a.category},
		xml.Attr{Name: xml.Name{Local: "DataType"}, Value: a.dataType},
	)
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := marshalExpr(enc, a.expr); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

type matchXML struct {
	XMLName             xml.Name `xml:"Match"`
	MatchID             string   `xml:"MatchId,attr"`
	AttributeValue       attributeValueXML      `xml:"AttributeValue"`
	AttributeDesignator  attributeDesignatorXML `xml:"AttributeDesignator"`
}

type attributeValueXML struct {
	DataType string `xml:"DataType,attr"`
	Value    string `xml:",chardata"`
}

type attributeDesignatorXML struct {
	Category      string `xml:"Category,attr"`
	AttributeID   string `xml:"AttributeId,attr"`
	DataType      string `xml:"DataType,attr"`
	MustBePresent bool   `xml:"MustBePresent,attr"`
}

type allOfXML struct {
	XMLName xml.Name   `xml:"AllOf"`
	Match   []matchXML `xml:"Match"`
}

type anyOfXML struct {
	XMLName xml.Name   `xml:"AnyOf"`
	AllOf   []allOfXML `xml:"AllOf"`
}

type targetXML struct {
	XMLName xml.Name   `xml:"Target"`
	AnyOf   []anyOfXML `xml:"AnyOf"`
}

// targetFromIR renders t's AnyOf/AllOf/Match tree. internal/normalizer
// never hands this a nil Target — a source with no `target` clause still
// normalizes to an empty &Target{} — so the result always marshals an
// (possibly childless) <Target> element, per the XACML 3.0 schema
// requiring one on every Policy/PolicySet/Rule.
func targetFromIR(t *norm.Target) *targetXML {
	if t == nil {
		return nil
	}
	tx := &targetXML{}
	for _, a := range t.AnyOfs {
		ax := anyOfXML{}
		for _, al := range a.AllOfs {
			alx := allOfXML{}
			for _, m := range al.Matches {
				alx.Match = append(alx.Match, matchXML{
					MatchID:        m.FunctionID,
					AttributeValue: attributeValueXML{DataType: m.Value.DataType, Value: m.Value.Value},
					AttributeDesignator: attributeDesignatorXML{
						Category:    m.Designator.Category,
						AttributeID: m.Designator.AttributeID,
						DataType:    m.Designator.DataType,
					},
				})
			}
			ax.AllOf = append(ax.AllOf, alx)
		}
		tx.AnyOf = append(tx.AnyOf, ax)
	}
	return tx
}

func assignmentsFromIR(assigns []norm.AttributeAssignment) []attributeAssignmentXML {
	out := make([]attributeAssignmentXML, 0, len(assigns))
	for _, a := range assigns {
		out = append(out, attributeAssignmentXML{attributeID: a.AttributeID, category: a.Category, dataType: a.DataType, expr: a.Expr})
	}
	return out
}

type obligationExpressionXML struct {
	XMLName      xml.Name                 `xml:"ObligationExpression"`
	ObligationID string                   `xml:"ObligationId,attr"`
	FulfillOn    string                   `xml:"FulfillOn,attr"`
	Assignments  []attributeAssignmentXML `xml:"AttributeAssignmentExpression"`
}

type adviceExpressionXML struct {
	XMLName     xml.Name                 `xml:"AdviceExpression"`
	AdviceID    string                   `xml:"AdviceId,attr"`
	AppliesTo   string                   `xml:"AppliesTo,attr"`
	Assignments []attributeAssignmentXML `xml:"AttributeAssignmentExpression"`
}

type obligationExpressionsXML struct {
	XMLName xml.Name                   `xml:"ObligationExpressions"`
	Items   []obligationExpressionXML `xml:"ObligationExpression"`
}

type adviceExpressionsXML struct {
	XMLName xml.Name               `xml:"AdviceExpressions"`
	Items   []adviceExpressionXML `xml:"AdviceExpression"`
}

func obligationsFromIR(oas []norm.ObligationOrAdvice) *obligationExpressionsXML {
	if len(oas) == 0 {
		return nil
	}
	out := &obligationExpressionsXML{}
	for _, oa := range oas {
		out.Items = append(out.Items, obligationExpressionXML{
			ObligationID: oa.ID,
			FulfillOn:    oa.FulfillOn,
			Assignments:  assignmentsFromIR(oa.Assignments),
		})
	}
	return out
}

func adviceFromIR(oas []norm.ObligationOrAdvice) *adviceExpressionsXML {
	if len(oas) == 0 {
		return nil
	}
	out := &adviceExpressionsXML{}
	for _, oa := range oas {
		out.Items = append(out.Items, adviceExpressionXML{
			AdviceID:    oa.ID,
			AppliesTo:   oa.FulfillOn,
			Assignments: assignmentsFromIR(oa.Assignments),
		})
	}
	return out
}

type ruleXML struct {
	XMLName               xml.Name                  `xml:"Rule"`
	RuleID                string                    `xml:"RuleId,attr"`
	Effect                string                    `xml:"Effect,attr"`
	Description           string                    `xml:"Description,omitempty"`
	Target                *targetXML                `xml:"Target"`
	Condition             *exprElement              `xml:"Condition,omitempty"`
	ObligationExpressions *obligationExpressionsXML `xml:"ObligationExpressions,omitempty"`
	AdviceExpressions     *adviceExpressionsXML     `xml:"AdviceExpressions,omitempty"`
}

func ruleFromIR(r norm.Rule) ruleXML {
	out := ruleXML{
		RuleID:                r.ID,
		Effect:                r.Effect,
		Description:           r.Description,
		Target:                targetFromIR(r.Target),
		ObligationExpressions: obligationsFromIR(r.Obligations),
		AdviceExpressions:     adviceFromIR(r.Advice),
	}
	if r.Condition != nil {
		out.Condition = &exprElement{expr: r.Condition}
	}
	return out
}

type policyXML struct {
	XMLName               xml.Name                  `xml:"Policy"`
	Xmlns                 string                    `xml:"xmlns,attr"`
	PolicyID              string                    `xml:"PolicyId,attr"`
	Version               string                    `xml:"Version,attr"`
	RuleCombiningAlgID    string                    `xml:"RuleCombiningAlgId,attr"`
	Description           string                    `xml:"Description,omitempty"`
	Target                *targetXML                `xml:"Target"`
	VariableDefinitions   []variableDefXML          `xml:"VariableDefinition,omitempty"`
	Rules                 []ruleXML                 `xml:"Rule"`
	ObligationExpressions *obligationExpressionsXML `xml:"ObligationExpressions,omitempty"`
	AdviceExpressions     *adviceExpressionsXML     `xml:"AdviceExpressions,omitempty"`
}

func policyFromIR(p *norm.Policy) policyXML {
	out := policyXML{
		Xmlns:                 xacmlNamespace,
		PolicyID:              p.ID,
		Version:               policyVersion,
		RuleCombiningAlgID:    p.CombiningAlgID,
		Description:           p.Description,
		Target:                targetFromIR(p.Target),
		ObligationExpressions: obligationsFromIR(p.Obligations),
		AdviceExpressions:     adviceFromIR(p.Advice),
	}
	for _, v := range p.Variables {
		out.VariableDefinitions = append(out.VariableDefinitions, variableDefXML{variableID: v.VariableID, expr: v.Expr})
	}
	for _, r := range p.Rules {
		out.Rules = append(out.Rules, ruleFromIR(r))
	}
	return out
}

type policySetChild struct {
	child norm.PolicySetChild
}

func (c policySetChild) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	switch c.child.Kind {
	case norm.ChildPolicy:
		return enc.Encode(policyFromIR(c.child.Policy))
	case norm.ChildPolicySet:
		return enc.Encode(policySetFromIR(c.child.PolicySet))
	case norm.ChildReference:
		start := xml.StartElement{Name: xml.Name{Local: "PolicyIdReference"}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(c.child.RefID)); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())
	}
	return fmt.Errorf("emitter: unrecognized policy set child kind %d", c.child.Kind)
}

type policySetXML struct {
	XMLName               xml.Name                  `xml:"PolicySet"`
	Xmlns                 string                    `xml:"xmlns,attr"`
	PolicySetID           string                    `xml:"PolicySetId,attr"`
	Version               string                    `xml:"Version,attr"`
	PolicyCombiningAlgID  string                    `xml:"PolicyCombiningAlgId,attr"`
	Description           string                    `xml:"Description,omitempty"`
	Target                *targetXML                `xml:"Target"`
	Children              []policySetChild
	ObligationExpressions *obligationExpressionsXML `xml:"ObligationExpressions,omitempty"`
	AdviceExpressions     *adviceExpressionsXML     `xml:"AdviceExpressions,omitempty"`
}

func policySetFromIR(ps *norm.PolicySet) policySetXML {
	out := policySetXML{
		Xmlns:                 xacmlNamespace,
		PolicySetID:           ps.ID,
		Version:               policyVersion,
		PolicyCombiningAlgID:  ps.CombiningAlgID,
		Description:           ps.Description,
		Target:                targetFromIR(ps.Target),
		ObligationExpressions: obligationsFromIR(ps.Obligations),
		AdviceExpressions:     adviceFromIR(ps.Advice),
	}
	for _, child := range ps.Children {
		out.Children = append(out.Children, policySetChild{child: child})
	}
	return out
}
