// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package normalizer

import (
	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/symbols"
	"github.com/alfatranslator/alfac/internal/types"
)

// Normalizer lowers checked ast trees to the IR in this package, against a
// fixed symbol table and the per-expression types internal/checker
// computed while checking the same tree.
type Normalizer struct {
	table  *symbols.Table
	types  map[ast.Expr]types.Value
	prefix string
}

// New creates a Normalizer. typed is the map internal/checker's
// (*Checker).Types returned after successfully checking the same file.
// prefix is the CLI's --namespace value (spec §6), prepended to every
// emitted PolicySetId/PolicyId/RuleId; pass "" when unset.
func New(table *symbols.Table, typed map[ast.Expr]types.Value, prefix string) *Normalizer {
	return &Normalizer{table: table, types: typed, prefix: prefix}
}

func (n *Normalizer) id(fqn string) string { return n.prefix + fqn }

// NormalizeFile walks file's top-level declaration tree (and any nested
// namespace blocks) and returns one IR value per top-level policy or
// policy set declaration (spec §4.7: "one document per top-level
// policyset/policy"). Standalone top-level rules, and declarations other
// than policy/policyset, produce no document of their own — they exist
// only to be referenced from within a policy.
func (n *Normalizer) NormalizeFile(file *ast.File) []Document {
	var docs []Document
	n.walkDecls("", file.Decls, &docs)
	return docs
}

func (n *Normalizer) walkDecls(nsFQN string, decls []ast.Decl, docs *[]Document) {
	for _, d := range decls {
		switch decl := d.(type) {
		case *ast.Namespace:
			n.walkDecls(joinNS(nsFQN, decl.Name.String()), decl.Decls, docs)
		case *ast.PolicyDecl:
			*docs = append(*docs, Document{Policy: n.NormalizePolicy(nsFQN, decl)})
		case *ast.PolicySetDecl:
			*docs = append(*docs, Document{PolicySet: n.NormalizePolicySet(nsFQN, decl)})
		}
	}
}

// NormalizePolicy lowers one ast.PolicyDecl, declared in namespace nsFQN,
// to its IR Policy.
func (n *Normalizer) NormalizePolicy(nsFQN string, pol *ast.PolicyDecl) *Policy {
	p := &Policy{
		ID:             n.id(joinNS(nsFQN, pol.Name)),
		CombiningAlgID: pol.CombiningAlgID,
		Description:    pol.Description,
		Target:         n.normalizeTarget(nsFQN, pol.Target),
	}
	for _, v := range pol.Variables {
		p.Variables = append(p.Variables, VariableDefinition{
			VariableID: v.Name,
			Expr:       n.normalizeExpr(nsFQN, v.Expr),
		})
	}
	for _, r := range pol.Rules {
		p.Rules = append(p.Rules, n.normalizeRule(nsFQN, r))
	}
	p.Obligations = n.normalizeAssigns(nsFQN, pol.Obligations)
	p.Advice = n.normalizeAssigns(nsFQN, pol.Advice)
	return p
}

// NormalizePolicySet lowers one ast.PolicySetDecl to its IR PolicySet.
func (n *Normalizer) NormalizePolicySet(nsFQN string, ps *ast.PolicySetDecl) *PolicySet {
	out := &PolicySet{
		ID:             n.id(joinNS(nsFQN, ps.Name)),
		CombiningAlgID: ps.CombiningAlgID,
		Description:    ps.Description,
		Target:         n.normalizeTarget(nsFQN, ps.Target),
	}
	for _, child := range ps.Children {
		switch child.Kind {
		case ast.ChildPolicy:
			out.Children = append(out.Children, PolicySetChild{Kind: ChildPolicy, Policy: n.NormalizePolicy(nsFQN, child.Policy)})
		case ast.ChildPolicySet:
			out.Children = append(out.Children, PolicySetChild{Kind: ChildPolicySet, PolicySet: n.NormalizePolicySet(nsFQN, child.PolicySet)})
		case ast.ChildReference:
			refID := child.Ref.String()
			if sym, err := n.table.Resolve(nsFQN, child.Ref); err == nil {
				refID = sym.FQN
			}
			out.Children = append(out.Children, PolicySetChild{Kind: ChildReference, RefID: n.id(refID)})
		}
	}
	out.Obligations = n.normalizeAssigns(nsFQN, ps.Obligations)
	out.Advice = n.normalizeAssigns(nsFQN, ps.Advice)
	return out
}

func (n *Normalizer) normalizeRule(nsFQN string, r *ast.RuleDecl) Rule {
	rule := Rule{
		ID:          n.id(joinNS(nsFQN, r.Name)),
		Effect:      r.Effect.String(),
		Description: r.Description,
		Target:      n.normalizeTarget(nsFQN, r.Target),
	}
	if r.Condition != nil {
		rule.Condition = n.normalizeExpr(nsFQN, r.Condition)
	}
	rule.Obligations = n.normalizeAssigns(nsFQN, r.Obligations)
	rule.Advice = n.normalizeAssigns(nsFQN, r.Advice)
	return rule
}

func (n *Normalizer) normalizeAssigns(nsFQN string, assigns []ast.ObligationAssign) []ObligationOrAdvice {
	out := make([]ObligationOrAdvice, 0, len(assigns))
	for _, oa := range assigns {
		id := oa.Ref.String()
		if sym, err := n.table.Resolve(nsFQN, oa.Ref); err == nil {
			id = sym.Obligation
		}
		norm := ObligationOrAdvice{ID: id, FulfillOn: oa.FulfillOn.String()}
		for _, asg := range oa.Assignments {
			a := AttributeAssignment{AttributeID: asg.AttributeID, Expr: n.normalizeExpr(nsFQN, asg.Expr)}
			if sym, err := n.table.Resolve(nsFQN, ast.QName{Segments: []string{asg.AttributeID}}); err == nil && sym.Kind == symbols.KindAttribute {
				a.AttributeID = sym.Attribute.ID
				a.Category = sym.Attribute.Category
				a.DataType = sym.Attribute.Datatype
			}
			norm.Assignments = append(norm.Assignments, a)
		}
		out = append(out, norm)
	}
	return out
}

func joinNS(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
