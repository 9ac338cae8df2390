// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package types implements the XACML 3.0 datatype/category/function model
// (spec §3, §4.5): the well-known literal datatypes, the single→bag
// coercion rule, and the operator-to-function lookup table the checker and
// normalizer use to resolve ALFA's sugared operators to XACML function ids.
package types

import "fmt"

// Well-known XACML/XML-Schema datatype URIs. ALFA's primitive literal forms
// always resolve to one of these regardless of any user `type` alias.
const (
	XSDString   = "http://www.w3.org/2001/XMLSchema#string"
	XSDBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDouble   = "http://www.w3.org/2001/XMLSchema#double"
	XSDDate     = "http://www.w3.org/2001/XMLSchema#date"
	XSDTime     = "http://www.w3.org/2001/XMLSchema#time"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
	XSDAnyURI   = "http://www.w3.org/2001/XMLSchema#anyURI"
	XSDHexBinary    = "http://www.w3.org/2001/XMLSchema#hexBinary"
	XSDBase64Binary = "http://www.w3.org/2001/XMLSchema#base64Binary"

	XACMLDayTimeDuration  = "urn:oasis:names:tc:xacml:2.0:data-type:dayTimeDuration"
	XACMLYearMonthDuration = "urn:oasis:names:tc:xacml:2.0:data-type:yearMonthDuration"
	XACMLX500Name         = "urn:oasis:names:tc:xacml:1.0:data-type:x500Name"
	XACMLRFC822Name       = "urn:oasis:names:tc:xacml:1.0:data-type:rfc822Name"
	XACMLIPAddress        = "urn:oasis:names:tc:xacml:2.0:data-type:ipAddress"
	XACMLDNSName          = "urn:oasis:names:tc:xacml:2.0:data-type:dnsName"
)

// literalPrefixURI maps a typed-literal lexical prefix (spec §4.1, e.g.
// `dateTime:"…"`) to its datatype URI.
var literalPrefixURI = map[string]string{
	"date":              XSDDate,
	"time":              XSDTime,
	"dateTime":          XSDDateTime,
	"dayTimeDuration":   XACMLDayTimeDuration,
	"yearMonthDuration": XACMLYearMonthDuration,
	"anyURI":            XSDAnyURI,
	"hexBinary":         XSDHexBinary,
	"base64Binary":      XSDBase64Binary,
	"x500Name":          XACMLX500Name,
	"rfc822Name":        XACMLRFC822Name,
	"ipAddress":         XACMLIPAddress,
	"dnsName":           XACMLDNSName,
}

// URIForTypedLiteralPrefix resolves a typed-literal prefix to its datatype
// URI. ok is false for an unrecognized prefix.
func URIForTypedLiteralPrefix(prefix string) (uri string, ok bool) {
	uri, ok = literalPrefixURI[prefix]
	return uri, ok
}

// shortName maps a datatype URI to the suffix XACML's standard function
// catalog uses to name operations over it (e.g. "string-equal").
var shortName = map[string]string{
	XSDString:             "string",
	XSDBoolean:            "boolean",
	XSDInteger:            "integer",
	XSDDouble:             "double",
	XSDDate:               "date",
	XSDTime:               "time",
	XSDDateTime:           "dateTime",
	XSDAnyURI:             "anyURI",
	XSDHexBinary:          "hexBinary",
	XSDBase64Binary:       "base64Binary",
	XACMLDayTimeDuration:  "dayTimeDuration",
	XACMLYearMonthDuration: "yearMonthDuration",
	XACMLX500Name:         "x500Name",
	XACMLRFC822Name:       "rfc822Name",
	XACMLIPAddress:        "ipAddress",
	XACMLDNSName:          "dnsName",
}

// ShortName returns the function-catalog suffix for a datatype URI.
func ShortName(uri string) (string, bool) {
	n, ok := shortName[uri]
	return n, ok
}

// Cardinality is an attribute or expression's single/bag arity.
type Cardinality int

const (
	Single Cardinality = iota
	Bag
)

func (c Cardinality) String() string {
	if c == Bag {
		return "bag"
	}
	return "single"
}

// Value is a resolved expression's (datatype, cardinality) pair — the
// output of every internal/checker typing rule (spec §4.5).
type Value struct {
	Datatype    string
	Cardinality Cardinality
}

func (v Value) String() string {
	if v.Cardinality == Bag {
		return fmt.Sprintf("bag of %s", v.Datatype)
	}
	return v.Datatype
}

// Assignable reports whether a value of type arg may be passed where param
// is required, under ALFA's single→bag coercion (spec §4.5): a single value
// is accepted where a bag is required; the reverse is never allowed.
func Assignable(arg, param Value) bool {
	if arg.Datatype != param.Datatype {
		return false
	}
	if param.Cardinality == Bag {
		return true
	}
	return arg.Cardinality == Single
}

// Datatype is a declared (possibly aliased) XACML datatype.
type Datatype struct {
	Name string
	URI  string
}

// Category is a declared XACML attribute category.
type Category struct {
	Name string
	URI  string
}

// ParamSig is one formal parameter of a Function signature.
type ParamSig struct {
	Datatype    string
	Cardinality Cardinality
}

// Signature is a function's full type: its parameters, return type, and
// variadic/higher-order flags (spec §3).
type Signature struct {
	Params      []ParamSig
	Variadic    bool
	Return      string
	ReturnCard  Cardinality
	HigherOrder bool
}

// Function is a declared (builtin or user) XACML function symbol.
type Function struct {
	Name string // qualified ALFA name
	ID   string // XACML FunctionId URI
	Sig  Signature
}

// CheckArity reports whether n arguments satisfy sig's arity (spec §4.5):
// exactly len(Params) for a non-variadic signature, or at least
// len(Params)-1 (the repeating tail parameter) for a variadic one.
func (sig Signature) CheckArity(n int) bool {
	if sig.Variadic {
		return n >= len(sig.Params)-1
	}
	return n == len(sig.Params)
}

// ParamAt returns the parameter signature applicable to argument index i,
// accounting for a variadic tail parameter that repeats.
func (sig Signature) ParamAt(i int) ParamSig {
	if i < len(sig.Params) {
		return sig.Params[i]
	}
	return sig.Params[len(sig.Params)-1]
}
