// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package parser

import (
	"fmt"
	"strings"

	"github.com/alfatranslator/alfac/internal/token"
)

// Error is a parse failure: an unexpected token where one of Expected was
// required (spec §4.2, §7).
type Error struct {
	Pos      token.Position
	Found    token.Token
	Expected []string
	Message  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: ParseError: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("%s: ParseError: unexpected %s, expected %s",
		e.Pos, e.Found, strings.Join(e.Expected, " or "))
}
