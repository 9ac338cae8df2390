// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ast

import "github.com/alfatranslator/alfac/internal/token"

// Expr is any ALFA expression node. Before normalization the tree may
// contain sugared forms (BinaryExpr, UnaryExpr, InExpr, BagExpr); after
// normalization only Literal, AttrRef, FuncApply, and VarRef survive
// (spec §4.6 post-normalization invariant).
type Expr interface {
	exprNode()
	Position() token.Position
}

// Literal is a scalar or typed literal value.
type Literal struct {
	Pos   token.Position
	Type  QName // resolved datatype; filled by the checker for untyped literals
	Value string
	Kind  LiteralKind
}

// LiteralKind distinguishes the lexical form a literal came from, which
// determines its default ALFA datatype (spec §3).
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitInteger
	LitDouble
	LitBoolean
	LitTyped // dateTime:"...", ipAddress("..."), etc. — Type names the datatype
)

// AttrRef is a reference to a declared attribute, by simple or qualified
// name. The parser emits this node for every bare identifier reference;
// internal/checker rewrites it to VarRef wherever the name turns out to
// bind a policy-local variable instead.
type AttrRef struct {
	Pos  token.Position
	Name QName
}

// VarRef is a reference to a policy-local variable.
type VarRef struct {
	Pos  token.Position
	Name string
}

// FuncApply is a function application; after normalization, Func is always
// a resolved XACML function id and Args are fully normalized.
type FuncApply struct {
	Pos  token.Position
	Func QName
	Args []Expr
}

// BagExpr is a literal bag/set expression: `{ e1, e2, ... }`.
type BagExpr struct {
	Pos      token.Position
	Elements []Expr
}

// InExpr is ALFA's `e in bag` sugar; lowered by the normalizer to the
// `*-is-in` function family (spec §4.5, §4.6).
type InExpr struct {
	Pos     token.Position
	Elem    Expr
	Bag     Expr
}

// BinaryOp enumerates the sugared binary operators spec §4.2 lists.
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNeq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
)

var binaryOpText = [...]string{
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLtEq: "<=", OpGt: ">", OpGtEq: ">=",
	OpAnd: "&&", OpOr: "||", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
}

func (b BinaryOp) String() string { return binaryOpText[b] }

// BinaryExpr is a sugared infix operator application.
type BinaryExpr struct {
	Pos   token.Position
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// UnaryExpr is ALFA's `!e` and unary `-e`.
type UnaryExpr struct {
	Pos  token.Position
	Bang bool // true: logical not; false: arithmetic negation
	Expr Expr
}

func (Literal) exprNode()    {}
func (AttrRef) exprNode()    {}
func (VarRef) exprNode()     {}
func (FuncApply) exprNode()  {}
func (BagExpr) exprNode()    {}
func (InExpr) exprNode()     {}
func (BinaryExpr) exprNode() {}
func (UnaryExpr) exprNode()  {}

func (e Literal) Position() token.Position    { return e.Pos }
func (e AttrRef) Position() token.Position    { return e.Pos }
func (e VarRef) Position() token.Position     { return e.Pos }
func (e FuncApply) Position() token.Position  { return e.Pos }
func (e BagExpr) Position() token.Position    { return e.Pos }
func (e InExpr) Position() token.Position     { return e.Pos }
func (e BinaryExpr) Position() token.Position { return e.Pos }
func (e UnaryExpr) Position() token.Position  { return e.Pos }
