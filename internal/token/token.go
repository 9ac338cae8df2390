// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package token defines the lexical token kinds and source positions shared
// by the lexer, parser, and every downstream diagnostic.
package token

import "fmt"

// Position identifies a span of source text: the file it came from, the
// 1-based line/column where the span starts, the byte offset, and its
// length in bytes. Every token and every AST node carries one.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
	Length int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	QualifiedIdent
	Keyword
	String
	Integer
	Double
	TypedLiteral // e.g. dateTime:"2024-01-01T00:00:00", ipAddress("10.0.0.1")

	// Punctuation
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Colon
	Equals // '=' assignment, used in attribute/function declarations and variable defs
	Semicolon

	// Operators
	EqEq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	AndAnd
	OrOr
	Bang
	Plus
	Minus
	Star
	Slash
	In
)

var kindNames = [...]string{
	EOF:            "EOF",
	Ident:          "identifier",
	QualifiedIdent: "qualified identifier",
	Keyword:        "keyword",
	String:         "string literal",
	Integer:        "integer literal",
	Double:         "double literal",
	TypedLiteral:   "typed literal",
	LBrace:         "'{'",
	RBrace:         "'}'",
	LParen:         "'('",
	RParen:         "')'",
	LBracket:       "'['",
	RBracket:       "']'",
	Comma:          "','",
	Colon:          "':'",
	Equals:         "'='",
	Semicolon:      "';'",
	EqEq:           "'=='",
	NotEq:          "'!='",
	Lt:             "'<'",
	LtEq:           "'<='",
	Gt:             "'>'",
	GtEq:           "'>='",
	AndAnd:         "'&&'",
	OrOr:           "'||'",
	Bang:           "'!'",
	Plus:           "'+'",
	Minus:          "'-'",
	Star:           "'*'",
	Slash:          "'/'",
	In:             "'in'",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical unit with its source span.
type Token struct {
	Kind Kind
	Text string // raw lexeme, or decoded value for String/TypedLiteral
	Pos  Position
}

func (t Token) String() string {
	if t.Kind == Keyword || t.Kind == Ident || t.Kind == QualifiedIdent {
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
	return t.Kind.String()
}

// Keywords is the reserved word set from spec §4.1. Reserved words cannot
// be used as plain identifiers anywhere a declaration name is expected.
var Keywords = map[string]bool{
	"namespace":              true,
	"import":                 true,
	"attribute":               true,
	"category":               true,
	"categoryId":             true,
	"id":                     true,
	"type":                   true,
	"function":               true,
	"policyset":              true,
	"policy":                 true,
	"rule":                   true,
	"permit":                 true,
	"deny":                   true,
	"target":                 true,
	"condition":              true,
	"clause":                 true,
	"on":                     true,
	"apply":                  true,
	"obligation":             true,
	"advice":                 true,
	"obligations":            true,
	"advices":                true,
	"permitOverrides":        true,
	"denyOverrides":          true,
	"firstApplicable":        true,
	"onlyOneApplicable":      true,
	"orderedPermitOverrides": true,
	"orderedDenyOverrides":   true,
	"deny-unless-permit":     true,
	"permit-unless-deny":     true,
	"bag":                    true,
	"true":                   true,
	"false":                  true,
	"in":                     true,
	"variable":               true,
}

// IsReservedWord reports whether word is a reserved ALFA keyword.
func IsReservedWord(word string) bool {
	return Keywords[word]
}
