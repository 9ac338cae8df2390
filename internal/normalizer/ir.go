// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package normalizer lowers a checked ast.File into the canonical,
// XACML-shaped intermediate form internal/emitter serializes (spec §4.6):
// sugared operators become function-apply trees over resolved XACML
// function ids, and a policy's flat `target clause ... and ... or ...`
// list becomes the AnyOf-of-AllOf-of-Match tree XACML's own Target
// element requires. One Policy or PolicySet IR value is produced per
// top-level `policy`/`policyset` declaration (spec §4.7: "one document
// per top-level policyset/policy").
package normalizer

// Expr is a fully-normalized expression: an AttributeValue, an
// AttributeDesignator, a VariableReference, or an Apply of resolved
// XACML function ids over further Exprs.
type Expr interface{ isExpr() }

// AttributeValue is a literal XACML value with its resolved datatype URI.
type AttributeValue struct {
	DataType string
	Value    string
}

// AttributeDesignator reads a single attribute out of the request context.
type AttributeDesignator struct {
	Category      string
	AttributeID   string
	DataType      string
	MustBePresent bool
}

// VariableReference refers to a sibling VariableDefinition by id.
type VariableReference struct {
	VariableID string
}

// Apply is a XACML <Apply>: a resolved FunctionId over normalized args.
type Apply struct {
	FunctionID string
	Args       []Expr
}

func (AttributeValue) isExpr()      {}
func (AttributeDesignator) isExpr() {}
func (VariableReference) isExpr()   {}
func (Apply) isExpr()               {}

// Match is one XACML <Match>: MatchId applied to a literal value and an
// attribute designator.
type Match struct {
	FunctionID string
	Value      AttributeValue
	Designator AttributeDesignator
}

// AllOf is a conjunction of Matches.
type AllOf struct {
	Matches []Match
}

// AnyOf is a disjunction of AllOfs — XACML's Target element is a
// disjunction of these.
type AnyOf struct {
	AllOfs []AllOf
}

// Target is the canonical form of a policy/rule/policy-set's applicability
// test: a disjunction of conjunctions of Matches.
type Target struct {
	AnyOfs []AnyOf
}

// VariableDefinition is one policy-local `variable` declaration, lowered
// to XACML's native VariableDefinition/VariableReference pair rather than
// inlined at every use site.
type VariableDefinition struct {
	VariableID string
	Expr       Expr
}

// ObligationOrAdvice is one normalized obligation or advice expression.
type ObligationOrAdvice struct {
	ID          string
	FulfillOn   string // "Permit" or "Deny"
	Assignments []AttributeAssignment
}

// AttributeAssignment binds an attribute id/category/datatype to a
// normalized expression inside an ObligationOrAdvice.
type AttributeAssignment struct {
	AttributeID string
	Category    string
	DataType    string
	Expr        Expr
}

// Rule is one normalized XACML <Rule>.
type Rule struct {
	ID          string
	Effect      string // "Permit" or "Deny"
	Description string
	Target      *Target
	Condition   Expr
	Obligations []ObligationOrAdvice
	Advice      []ObligationOrAdvice
}

// Policy is one normalized XACML <Policy>.
type Policy struct {
	ID              string
	CombiningAlgID  string
	Description     string
	Target          *Target
	Variables       []VariableDefinition
	Rules           []Rule
	Obligations     []ObligationOrAdvice
	Advice          []ObligationOrAdvice
}

// PolicySetChildKind distinguishes an inline policy, an inline policy set,
// or a reference to one declared elsewhere.
type PolicySetChildKind int

const (
	ChildPolicy PolicySetChildKind = iota
	ChildPolicySet
	ChildReference
)

// PolicySetChild is one ordered child of a PolicySet.
type PolicySetChild struct {
	Kind      PolicySetChildKind
	Policy    *Policy
	PolicySet *PolicySet
	RefID     string
}

// PolicySet is one normalized XACML <PolicySet>.
type PolicySet struct {
	ID             string
	CombiningAlgID string
	Description    string
	Target         *Target
	Children       []PolicySetChild
	Obligations    []ObligationOrAdvice
	Advice         []ObligationOrAdvice
}

// Document is one compiled unit: exactly one of Policy or PolicySet is
// set, mirroring XACML's root element being exactly one of <Policy> or
// <PolicySet> (spec §4.7).
type Document struct {
	Policy    *Policy
	PolicySet *PolicySet
}
