// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package symbols

import (
	"fmt"
	"strings"
)

// Resolve looks up name as seen from the namespace identified by fromFQN,
// implementing spec §4.3's resolution order.
//
// A qualified name bypasses the simple-name steps: it is looked up
// absolutely, then relative to each enclosing namespace outward.
func (t *Table) Resolve(fromFQN string, name interface{ String() string }) (*Symbol, error) {
	text := name.String()
	if strings.Contains(text, ".") {
		return t.resolveQualified(fromFQN, text)
	}
	return t.resolveSimple(fromFQN, text)
}

func (t *Table) resolveQualified(fromFQN, text string) (*Symbol, error) {
	if sym, ok := t.symbols[text]; ok {
		return sym, nil
	}
	for ns := t.namespaces[fromFQN]; ns != nil; ns = ns.Parent {
		if sym, ok := t.symbols[join(ns.FQN, text)]; ok {
			return sym, nil
		}
	}
	return nil, &UnresolvedError{Name: text}
}

func (t *Table) resolveSimple(fromFQN, name string) (*Symbol, error) {
	// Steps 1-2: current namespace, then each enclosing namespace outward.
	for ns := t.namespaces[fromFQN]; ns != nil; ns = ns.Parent {
		if sym, ok := ns.Decls[name]; ok {
			return sym, nil
		}
	}

	// Step 3: wildcard imports visible from fromFQN outward, nearest first.
	var candidates []*Symbol
	for ns := t.namespaces[fromFQN]; ns != nil; ns = ns.Parent {
		for _, imp := range ns.Imports {
			if !imp.wildcard {
				continue
			}
			if sym, ok := t.symbols[join(imp.target, name)]; ok {
				candidates = append(candidates, sym)
			}
		}
		if len(candidates) > 0 {
			break // nearest enclosing scope's wildcard imports win outright
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if len(candidates) > 1 {
		fqns := make([]string, len(candidates))
		for i, c := range candidates {
			fqns[i] = c.FQN
		}
		return nil, &AmbiguousError{Name: name, Candidates: fqns}
	}

	// Step 4: single-name imports, nearest enclosing scope first, first
	// import in declaration order wins.
	for ns := t.namespaces[fromFQN]; ns != nil; ns = ns.Parent {
		for _, imp := range ns.Imports {
			if imp.wildcard {
				continue
			}
			base := imp.target
			if i := strings.LastIndex(base, "."); i >= 0 && base[i+1:] == name {
				if sym, ok := t.symbols[base]; ok {
					return sym, nil
				}
			}
		}
	}

	// Step 5.
	return nil, &UnresolvedError{Name: name}
}

// UnresolvedError reports spec §7's UnresolvedReference.
type UnresolvedError struct{ Name string }

func (e *UnresolvedError) Error() string { return fmt.Sprintf("unresolved reference %q", e.Name) }

// AmbiguousError reports spec §7's AmbiguousReference, listing every
// candidate wildcard-import source.
type AmbiguousError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous reference %q: candidates %s", e.Name, strings.Join(e.Candidates, ", "))
}
