// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package types

import "fmt"

const xacml1Function = "urn:oasis:names:tc:xacml:1.0:function:"
const xacml3Function = "urn:oasis:names:tc:xacml:3.0:function:"

// arithmeticTypes is the set of datatypes XACML's add/subtract/multiply/
// divide functions are defined over.
var arithmeticTypes = map[string]bool{XSDInteger: true, XSDDouble: true}

// OperatorFunction resolves a sugared comparison/arithmetic operator over a
// concrete operand datatype to the XACML function id that implements it
// (spec §9's "explicit lookup table" design note; populated from the
// standard catalog, §4.5/§4.6). ok is false when XACML defines no such
// function for that (operator, datatype) pair.
func OperatorFunction(suffix string, datatypeURI string) (string, bool) {
	name, ok := ShortName(datatypeURI)
	if !ok {
		return "", false
	}
	switch suffix {
	case "equal":
		return xacml1Function + name + "-equal", true
	case "less-than", "less-than-or-equal", "greater-than", "greater-than-or-equal":
		if !orderable(datatypeURI) {
			return "", false
		}
		return xacml1Function + name + "-" + suffix, true
	case "add", "subtract", "multiply", "divide":
		if !arithmeticTypes[datatypeURI] {
			return "", false
		}
		return xacml1Function + name + "-" + suffix, true
	case "is-in":
		return xacml1Function + name + "-is-in", true
	case "bag":
		return xacml1Function + name + "-bag", true
	case "bag-size":
		return xacml3Function + name + "-bag-size", true
	case "one-and-only":
		return xacml1Function + name + "-one-and-only", true
	default:
		return "", false
	}
}

// orderable is the set of datatypes XACML defines ordering comparisons
// over: numerics, and date/time-like values.
func orderable(datatypeURI string) bool {
	switch datatypeURI {
	case XSDInteger, XSDDouble, XSDDate, XSDTime, XSDDateTime,
		XACMLDayTimeDuration, XACMLYearMonthDuration:
		return true
	default:
		return false
	}
}

// ComparisonSuffix maps ALFA's binary comparison operator text to the
// function-catalog suffix implementing it (shared by internal/checker and
// internal/normalizer so the two can never disagree on what a given
// operator lowers to).
var ComparisonSuffix = map[string]string{
	"==": "equal", "!=": "equal",
	"<": "less-than", "<=": "less-than-or-equal",
	">": "greater-than", ">=": "greater-than-or-equal",
}

// ArithmeticSuffix maps ALFA's binary arithmetic operator text to the
// function-catalog suffix implementing it.
var ArithmeticSuffix = map[string]string{
	"+": "add", "-": "subtract", "*": "multiply", "/": "divide",
}

// LogicalFunction resolves ALFA's `&&`, `||`, `!` to XACML's variadic
// logical functions; they are datatype-independent (operands are always
// boolean, spec §4.5).
func LogicalFunction(op string) string {
	switch op {
	case "and":
		return xacml1Function + "and"
	case "or":
		return xacml1Function + "or"
	case "not":
		return xacml1Function + "not"
	default:
		panic(fmt.Sprintf("types: unknown logical operator %q", op))
	}
}
