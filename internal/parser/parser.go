// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package parser implements a hand-written, recursive-descent, single-token
// lookahead parser for ALFA (spec §4.2), producing an internal/ast tree.
package parser

import (
	"fmt"
	"strings"

	"github.com/alfatranslator/alfac/internal/ast"
	"github.com/alfatranslator/alfac/internal/lexer"
	"github.com/alfatranslator/alfac/internal/token"
)

// combiningAlgorithmKeywords maps ALFA's "apply <algorithm>" keyword to the
// XACML 3.0 combining-algorithm URI.
var combiningAlgorithmKeywords = map[string]string{
	"permitOverrides":        "urn:oasis:names:tc:xacml:3.0:rule-combining-algorithm:permit-overrides",
	"denyOverrides":          "urn:oasis:names:tc:xacml:3.0:rule-combining-algorithm:deny-overrides",
	"firstApplicable":        "urn:oasis:names:tc:xacml:1.0:rule-combining-algorithm:first-applicable",
	"onlyOneApplicable":      "urn:oasis:names:tc:xacml:1.0:policy-combining-algorithm:only-one-applicable",
	"orderedPermitOverrides": "urn:oasis:names:tc:xacml:1.0:rule-combining-algorithm:ordered-permit-overrides",
	"orderedDenyOverrides":   "urn:oasis:names:tc:xacml:1.0:rule-combining-algorithm:ordered-deny-overrides",
	"deny-unless-permit":     "urn:oasis:names:tc:xacml:3.0:rule-combining-algorithm:deny-unless-permit",
	"permit-unless-deny":     "urn:oasis:names:tc:xacml:3.0:rule-combining-algorithm:permit-unless-deny",
}

// Parser holds the single-token lookahead state over a token stream.
type Parser struct {
	file string
	lx   *lexer.Lexer
	cur  token.Token
}

// ParseFile parses a complete ALFA source file into a declaration tree
// rooted at a virtual top-level namespace (spec §4.2).
func ParseFile(path, src string) (*ast.File, error) {
	p := &Parser{file: path, lx: lexer.New(path, src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	decls, err := p.parseDecls(false)
	if err != nil {
		return nil, err
	}
	return &ast.File{Path: path, Decls: decls}, nil
}

func (p *Parser) advance() error {
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) atKeyword(word string) bool {
	return p.cur.Kind == token.Keyword && p.cur.Text == word
}

func (p *Parser) errUnexpected(expected ...string) error {
	return &Error{Pos: p.cur.Pos, Found: p.cur, Expected: expected}
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if p.cur.Kind != kind {
		return token.Token{}, p.errUnexpected(kind.String())
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

func (p *Parser) expectKeyword(word string) (token.Token, error) {
	if !p.atKeyword(word) {
		return token.Token{}, p.errUnexpected(fmt.Sprintf("%q", word))
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

func (p *Parser) expectString() (string, token.Position, error) {
	tok, err := p.expect(token.String)
	if err != nil {
		return "", token.Position{}, err
	}
	return tok.Text, tok.Pos, nil
}

// lookaheadIsInline reports whether the keyword+name the parser is
// currently sitting on ("policy Name" / "policyset Name") is immediately
// followed by '{' (an inline definition) rather than ';' (a reference). It
// probes with a cloned lexer so the real parser state is never disturbed.
func (p *Parser) lookaheadIsInline() (bool, error) {
	lxCopy := *p.lx
	probe := &Parser{file: p.file, lx: &lxCopy, cur: p.cur}
	if err := probe.advance(); err != nil {
		return false, err
	}
	if _, _, err := probe.parseSimpleName(); err != nil {
		return false, err
	}
	return probe.cur.Kind == token.LBrace, nil
}

// parseQName consumes an identifier or qualified identifier token.
func (p *Parser) parseQName() (ast.QName, error) {
	if p.cur.Kind != token.Ident && p.cur.Kind != token.QualifiedIdent {
		return ast.QName{}, p.errUnexpected("identifier", "qualified identifier")
	}
	tok := p.cur
	segs := strings.Split(tok.Text, ".")
	if err := p.advance(); err != nil {
		return ast.QName{}, err
	}
	return ast.QName{Segments: segs, Pos: tok.Pos}, nil
}

func (p *Parser) parseSimpleName() (string, token.Position, error) {
	tok, err := p.expect(token.Ident)
	if err != nil {
		return "", token.Position{}, err
	}
	return tok.Text, tok.Pos, nil
}

// parseDecls consumes declarations until EOF, or until a closing '}' when
// untilRBrace is true (the caller consumes the '}' itself).
func (p *Parser) parseDecls(untilRBrace bool) ([]ast.Decl, error) {
	var decls []ast.Decl
	for {
		if p.cur.Kind == token.EOF {
			return decls, nil
		}
		if untilRBrace && p.cur.Kind == token.RBrace {
			return decls, nil
		}
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
}

func (p *Parser) parseDecl() (ast.Decl, error) {
	switch {
	case p.atKeyword("namespace"):
		return p.parseNamespace()
	case p.atKeyword("import"):
		return p.parseImport()
	case p.atKeyword("attribute"):
		return p.parseAttribute()
	case p.atKeyword("category"):
		return p.parseCategoryDecl()
	case p.atKeyword("type"):
		return p.parseTypeDecl()
	case p.atKeyword("function"):
		return p.parseFunctionDecl()
	case p.atKeyword("obligation"):
		return p.parseObligationDecl()
	case p.atKeyword("advice"):
		return p.parseAdviceDecl()
	case p.atKeyword("policyset"):
		ps, err := p.parsePolicySet()
		return ps, err
	case p.atKeyword("policy"):
		pol, err := p.parsePolicy()
		return pol, err
	case p.atKeyword("rule"):
		r, err := p.parseRule()
		return r, err
	default:
		return nil, p.errUnexpected("namespace", "import", "attribute", "category",
			"type", "function", "obligation", "advice", "policyset", "policy", "rule")
	}
}

func (p *Parser) parseNamespace() (*ast.Namespace, error) {
	kw, err := p.expectKeyword("namespace")
	if err != nil {
		return nil, err
	}
	name, err := p.parseQName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	decls, err := p.parseDecls(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return &ast.Namespace{Pos: kw.Pos, Name: name, Decls: decls}, nil
}

func (p *Parser) parseImport() (*ast.Import, error) {
	kw, err := p.expectKeyword("import")
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.Ident && p.cur.Kind != token.QualifiedIdent {
		return nil, p.errUnexpected("identifier", "qualified identifier")
	}
	tok := p.cur
	wildcard := false
	text := tok.Text
	if strings.HasSuffix(text, ".*") {
		wildcard = true
		text = strings.TrimSuffix(text, ".*")
	}
	name := ast.QName{Segments: strings.Split(text, "."), Pos: tok.Pos}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &ast.Import{Pos: kw.Pos, Name: name, Wildcard: wildcard}, nil
}

func (p *Parser) parseAttribute() (*ast.AttributeDecl, error) {
	kw, err := p.expectKeyword("attribute")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	decl := &ast.AttributeDecl{Pos: kw.Pos, Name: name}
	for p.cur.Kind != token.RBrace {
		switch {
		case p.atKeyword("id"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Equals); err != nil {
				return nil, err
			}
			s, _, err := p.expectString()
			if err != nil {
				return nil, err
			}
			decl.ID = s
		case p.atKeyword("type"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Equals); err != nil {
				return nil, err
			}
			qn, err := p.parseQName()
			if err != nil {
				return nil, err
			}
			decl.Type = qn
		case p.atKeyword("category"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Equals); err != nil {
				return nil, err
			}
			qn, err := p.parseQName()
			if err != nil {
				return nil, err
			}
			decl.Category = qn
		case p.atKeyword("bag"):
			decl.Bag = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		default:
			return nil, p.errUnexpected("id", "type", "category", "bag", "'}'")
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseCategoryDecl() (*ast.CategoryDecl, error) {
	kw, err := p.expectKeyword("category")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	uri, _, err := p.expectString()
	if err != nil {
		return nil, err
	}
	return &ast.CategoryDecl{Pos: kw.Pos, Name: name, URI: uri}, nil
}

func (p *Parser) parseTypeDecl() (*ast.TypeDecl, error) {
	kw, err := p.expectKeyword("type")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	uri, _, err := p.expectString()
	if err != nil {
		return nil, err
	}
	return &ast.TypeDecl{Pos: kw.Pos, Name: name, URI: uri}, nil
}

// parseFunctionDecl parses:
//
//	function Name = "URI" : (ArgType [bag], ...) -> RetType [bag]
func (p *Parser) parseFunctionDecl() (*ast.FunctionDecl, error) {
	kw, err := p.expectKeyword("function")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	uri, _, err := p.expectString()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	decl := &ast.FunctionDecl{Pos: kw.Pos, Name: name, ID: uri}
	for p.cur.Kind != token.RParen {
		pt, err := p.parseQName()
		if err != nil {
			return nil, err
		}
		paramBag := false
		if p.atKeyword("bag") {
			paramBag = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		decl.Params = append(decl.Params, ast.ParamType{Type: pt, Bag: paramBag})
		if p.cur.Kind == token.Comma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	// '->' is lexed as Minus followed by Gt.
	if _, err := p.expect(token.Minus); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Gt); err != nil {
		return nil, err
	}
	ret, err := p.parseQName()
	if err != nil {
		return nil, err
	}
	decl.Return = ret
	if p.atKeyword("bag") {
		decl.ReturnBag = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func (p *Parser) parseObligationDecl() (*ast.ObligationDecl, error) {
	kw, err := p.expectKeyword("obligation")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	uri, _, err := p.expectString()
	if err != nil {
		return nil, err
	}
	return &ast.ObligationDecl{Pos: kw.Pos, Name: name, URI: uri}, nil
}

func (p *Parser) parseAdviceDecl() (*ast.AdviceDecl, error) {
	kw, err := p.expectKeyword("advice")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	uri, _, err := p.expectString()
	if err != nil {
		return nil, err
	}
	return &ast.AdviceDecl{Pos: kw.Pos, Name: name, URI: uri}, nil
}

func (p *Parser) parseEffect() (ast.Effect, token.Position, error) {
	switch {
	case p.atKeyword("permit"):
		pos := p.cur.Pos
		return ast.EffectPermit, pos, p.advance()
	case p.atKeyword("deny"):
		pos := p.cur.Pos
		return ast.EffectDeny, pos, p.advance()
	default:
		return 0, token.Position{}, p.errUnexpected("permit", "deny")
	}
}

func (p *Parser) parseOptionalDescription() (string, error) {
	if p.cur.Kind == token.String {
		s := p.cur.Text
		return s, p.advance()
	}
	return "", nil
}

// parseRule parses `rule Name { ... }` bodies (spec §3, §8 S2).
func (p *Parser) parseRule() (*ast.RuleDecl, error) {
	kw, err := p.expectKeyword("rule")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	rule := &ast.RuleDecl{Pos: kw.Pos, Name: name}
	rule.Description, err = p.parseOptionalDescription()
	if err != nil {
		return nil, err
	}
	rule.Effect, _, err = p.parseEffect()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind != token.RBrace {
		switch {
		case p.atKeyword("target"):
			t, err := p.parseTarget()
			if err != nil {
				return nil, err
			}
			rule.Target = t
		case p.atKeyword("condition"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Semicolon); err != nil {
				return nil, err
			}
			rule.Condition = expr
		case p.atKeyword("on"):
			oa, err := p.parseObligationAssign()
			if err != nil {
				return nil, err
			}
			if oa.FulfillOn == ast.EffectPermit {
				rule.Obligations = append(rule.Obligations, *oa)
			} else {
				rule.Advice = append(rule.Advice, *oa)
			}
		default:
			return nil, p.errUnexpected("target", "condition", "on", "'}'")
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return rule, nil
}

// parseTarget parses `target clause C1 and C2 ... or C3 ...;`.
func (p *Parser) parseTarget() (*ast.Target, error) {
	kw, err := p.expectKeyword("target")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("clause"); err != nil {
		return nil, err
	}
	t := &ast.Target{Pos: kw.Pos}
	for {
		clause, err := p.parseTargetClause()
		if err != nil {
			return nil, err
		}
		switch {
		case p.cur.Kind == token.Ident && p.cur.Text == "and":
			clause.Next = ast.ConnectiveAnd
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.cur.Kind == token.Ident && p.cur.Text == "or":
			clause.Next = ast.ConnectiveOr
			if err := p.advance(); err != nil {
				return nil, err
			}
		default:
			clause.Next = ast.ConnectiveNone
			t.Clauses = append(t.Clauses, clause)
			if _, err := p.expect(token.Semicolon); err != nil {
				return nil, err
			}
			return t, nil
		}
		t.Clauses = append(t.Clauses, clause)
	}
}

// parseTargetClause parses one `Attr Op Value` or `Value Op Attr` match.
func (p *Parser) parseTargetClause() (ast.TargetClause, error) {
	pos := p.cur.Pos
	if p.cur.Kind == token.Ident || p.cur.Kind == token.QualifiedIdent {
		attr, err := p.parseAttrRef()
		if err != nil {
			return ast.TargetClause{}, err
		}
		op, err := p.parseTargetOp()
		if err != nil {
			return ast.TargetClause{}, err
		}
		lit, err := p.parseLiteral()
		if err != nil {
			return ast.TargetClause{}, err
		}
		return ast.TargetClause{Pos: pos, Attr: attr, Op: op, Literal: lit, AttrOnLeft: true}, nil
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return ast.TargetClause{}, err
	}
	op, err := p.parseTargetOp()
	if err != nil {
		return ast.TargetClause{}, err
	}
	attr, err := p.parseAttrRef()
	if err != nil {
		return ast.TargetClause{}, err
	}
	return ast.TargetClause{Pos: pos, Attr: attr, Op: op, Literal: lit, AttrOnLeft: false}, nil
}

func (p *Parser) parseTargetOp() (string, error) {
	switch p.cur.Kind {
	case token.EqEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		op := p.cur.Kind.String()
		// Kind.String() returns quoted punctuation text like "'=='"; unquote.
		op = strings.Trim(op, "'")
		return op, p.advance()
	default:
		return "", p.errUnexpected("'=='", "'<'", "'<='", "'>'", "'>='")
	}
}

func (p *Parser) parseAttrRef() (*ast.AttrRef, error) {
	pos := p.cur.Pos
	qn, err := p.parseQName()
	if err != nil {
		return nil, err
	}
	return &ast.AttrRef{Pos: pos, Name: qn}, nil
}

// parseLiteral parses a scalar or typed literal value.
func (p *Parser) parseLiteral() (*ast.Literal, error) {
	tok := p.cur
	switch tok.Kind {
	case token.String:
		return &ast.Literal{Pos: tok.Pos, Value: tok.Text, Kind: ast.LitString}, p.advance()
	case token.Integer:
		return &ast.Literal{Pos: tok.Pos, Value: tok.Text, Kind: ast.LitInteger}, p.advance()
	case token.Double:
		return &ast.Literal{Pos: tok.Pos, Value: tok.Text, Kind: ast.LitDouble}, p.advance()
	case token.Keyword:
		if tok.Text == "true" || tok.Text == "false" {
			return &ast.Literal{Pos: tok.Pos, Value: tok.Text, Kind: ast.LitBoolean}, p.advance()
		}
		return nil, p.errUnexpected("literal")
	case token.TypedLiteral:
		parts := strings.SplitN(tok.Text, "\x00", 2)
		if len(parts) != 2 {
			return nil, &Error{Pos: tok.Pos, Message: "malformed typed literal"}
		}
		typeName := ast.QName{Segments: []string{parts[0]}, Pos: tok.Pos}
		return &ast.Literal{Pos: tok.Pos, Value: parts[1], Kind: ast.LitTyped, Type: typeName}, p.advance()
	default:
		return nil, p.errUnexpected("literal")
	}
}

// parseObligationAssign parses `on (permit|deny) (obligation|advice) Q { a = expr, ... };`.
func (p *Parser) parseObligationAssign() (*ast.ObligationAssign, error) {
	kw, err := p.expectKeyword("on")
	if err != nil {
		return nil, err
	}
	effect, _, err := p.parseEffect()
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("obligation") && !p.atKeyword("advice") {
		return nil, p.errUnexpected("obligation", "advice")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	ref, err := p.parseQName()
	if err != nil {
		return nil, err
	}
	oa := &ast.ObligationAssign{Pos: kw.Pos, FulfillOn: effect, Ref: ref}
	if p.cur.Kind == token.LBrace {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.cur.Kind != token.RBrace {
			a, err := p.parseAttributeAssignment()
			if err != nil {
				return nil, err
			}
			oa.Assignments = append(oa.Assignments, a)
			if p.cur.Kind == token.Comma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		if _, err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
	}
	if p.cur.Kind == token.Semicolon {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return oa, nil
}

func (p *Parser) parseAttributeAssignment() (ast.AttributeAssignment, error) {
	name, pos, err := p.parseSimpleName()
	if err != nil {
		return ast.AttributeAssignment{}, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return ast.AttributeAssignment{}, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return ast.AttributeAssignment{}, err
	}
	return ast.AttributeAssignment{Pos: pos, AttributeID: name, Expr: expr}, nil
}

// parseVariableDecl parses `variable Name = expr;`.
func (p *Parser) parseVariableDecl() (*ast.VariableDecl, error) {
	kw, err := p.expectKeyword("variable")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.VariableDecl{Pos: kw.Pos, Name: name, Expr: expr}, nil
}

func (p *Parser) parseApply() (string, error) {
	if _, err := p.expectKeyword("apply"); err != nil {
		return "", err
	}
	if p.cur.Kind != token.Keyword {
		return "", p.errUnexpected("combining algorithm keyword")
	}
	algID, ok := combiningAlgorithmKeywords[p.cur.Text]
	if !ok {
		return "", p.errUnexpected("combining algorithm keyword")
	}
	return algID, p.advance()
}

// parsePolicy parses `policy Name { apply Alg ... }`.
func (p *Parser) parsePolicy() (*ast.PolicyDecl, error) {
	kw, err := p.expectKeyword("policy")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	pol := &ast.PolicyDecl{Pos: kw.Pos, Name: name}
	pol.Description, err = p.parseOptionalDescription()
	if err != nil {
		return nil, err
	}
	pol.CombiningAlgID, err = p.parseApply()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind != token.RBrace {
		switch {
		case p.atKeyword("target"):
			t, err := p.parseTarget()
			if err != nil {
				return nil, err
			}
			pol.Target = t
		case p.atKeyword("variable"):
			v, err := p.parseVariableDecl()
			if err != nil {
				return nil, err
			}
			pol.Variables = append(pol.Variables, v)
		case p.atKeyword("rule"):
			r, err := p.parseRule()
			if err != nil {
				return nil, err
			}
			pol.Rules = append(pol.Rules, r)
		case p.atKeyword("on"):
			oa, err := p.parseObligationAssign()
			if err != nil {
				return nil, err
			}
			if oa.FulfillOn == ast.EffectPermit {
				pol.Obligations = append(pol.Obligations, *oa)
			} else {
				pol.Advice = append(pol.Advice, *oa)
			}
		default:
			return nil, p.errUnexpected("target", "variable", "rule", "on", "'}'")
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return pol, nil
}

// parsePolicySet parses `policyset Name { apply Alg ... }`.
func (p *Parser) parsePolicySet() (*ast.PolicySetDecl, error) {
	kw, err := p.expectKeyword("policyset")
	if err != nil {
		return nil, err
	}
	name, _, err := p.parseSimpleName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	ps := &ast.PolicySetDecl{Pos: kw.Pos, Name: name}
	ps.Description, err = p.parseOptionalDescription()
	if err != nil {
		return nil, err
	}
	ps.CombiningAlgID, err = p.parseApply()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind != token.RBrace {
		switch {
		case p.atKeyword("target"):
			t, err := p.parseTarget()
			if err != nil {
				return nil, err
			}
			ps.Target = t
		case p.atKeyword("policy"):
			// Disambiguate an inline definition from a reference by peeking,
			// on a cloned lexer, whether a '{' follows the name.
			isInline, err := p.lookaheadIsInline()
			if err != nil {
				return nil, err
			}
			if isInline {
				child, err := p.parsePolicy()
				if err != nil {
					return nil, err
				}
				ps.Children = append(ps.Children, ast.PolicySetChild{Kind: ast.ChildPolicy, Policy: child})
			} else {
				if err := p.advance(); err != nil {
					return nil, err
				}
				ref, err := p.parseQName()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.Semicolon); err != nil {
					return nil, err
				}
				ps.Children = append(ps.Children, ast.PolicySetChild{Kind: ast.ChildReference, Ref: ref})
			}
		case p.atKeyword("policyset"):
			isInline, err := p.lookaheadIsInline()
			if err != nil {
				return nil, err
			}
			if isInline {
				child, err := p.parsePolicySet()
				if err != nil {
					return nil, err
				}
				ps.Children = append(ps.Children, ast.PolicySetChild{Kind: ast.ChildPolicySet, PolicySet: child})
			} else {
				if err := p.advance(); err != nil {
					return nil, err
				}
				ref, err := p.parseQName()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.Semicolon); err != nil {
					return nil, err
				}
				ps.Children = append(ps.Children, ast.PolicySetChild{Kind: ast.ChildReference, Ref: ref})
			}
		case p.atKeyword("on"):
			oa, err := p.parseObligationAssign()
			if err != nil {
				return nil, err
			}
			if oa.FulfillOn == ast.EffectPermit {
				ps.Obligations = append(ps.Obligations, *oa)
			} else {
				ps.Advice = append(ps.Advice, *oa)
			}
		default:
			return nil, p.errUnexpected("target", "policy", "policyset", "on", "'}'")
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return ps, nil
}

// --- Expressions ---
//
// Precedence, lowest to highest (spec §4.2):
//   || , && , ! , comparisons (non-assoc), in (non-assoc), additive,
//   multiplicative, unary minus, function application, primary.

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.OrOr {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: pos, Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.AndAnd {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: pos, Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.cur.Kind == token.Bang {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: pos, Bang: true, Expr: inner}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]ast.BinaryOp{
	token.EqEq: ast.OpEq, token.NotEq: ast.OpNeq,
	token.Lt: ast.OpLt, token.LtEq: ast.OpLtEq,
	token.Gt: ast.OpGt, token.GtEq: ast.OpGtEq,
}

// parseComparison is non-associative: at most one comparison operator.
func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseIn()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.cur.Kind]; ok {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseIn()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

// parseIn is non-associative: at most one `in`.
func (p *Parser) parseIn() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == token.In {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.InExpr{Pos: pos, Elem: left, Bag: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Plus || p.cur.Kind == token.Minus {
		op := ast.OpAdd
		if p.cur.Kind == token.Minus {
			op = ast.OpSub
		}
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnaryMinus()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Star || p.cur.Kind == token.Slash {
		op := ast.OpMul
		if p.cur.Kind == token.Slash {
			op = ast.OpDiv
		}
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnaryMinus()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnaryMinus() (ast.Expr, error) {
	if p.cur.Kind == token.Minus {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnaryMinus()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: pos, Bang: false, Expr: inner}, nil
	}
	return p.parseCall()
}

func (p *Parser) parseCall() (ast.Expr, error) {
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Kind {
	case token.LParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	case token.LBrace:
		return p.parseBagExpr()
	case token.String, token.Integer, token.Double, token.TypedLiteral:
		return p.parseLiteral()
	case token.Keyword:
		if p.cur.Text == "true" || p.cur.Text == "false" {
			return p.parseLiteral()
		}
		return nil, p.errUnexpected("expression")
	case token.Ident, token.QualifiedIdent:
		pos := p.cur.Pos
		qn, err := p.parseQName()
		if err != nil {
			return nil, err
		}
		if p.cur.Kind == token.LParen {
			if err := p.advance(); err != nil {
				return nil, err
			}
			var args []ast.Expr
			for p.cur.Kind != token.RParen {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.cur.Kind == token.Comma {
					if err := p.advance(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			return &ast.FuncApply{Pos: pos, Func: qn, Args: args}, nil
		}
		return &ast.AttrRef{Pos: pos, Name: qn}, nil
	default:
		return nil, p.errUnexpected("expression")
	}
}

func (p *Parser) parseBagExpr() (ast.Expr, error) {
	pos := p.cur.Pos
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	bag := &ast.BagExpr{Pos: pos}
	for p.cur.Kind != token.RBrace {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		bag.Elements = append(bag.Elements, e)
		if p.cur.Kind == token.Comma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return bag, nil
}
