// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositionStringFormat(t *testing.T) {
	p := Position{File: "a.alfa", Line: 3, Column: 7}
	require.Equal(t, "a.alfa:3:7", p.String())
}

func TestKindStringKnownAndUnknown(t *testing.T) {
	require.Equal(t, "'=='", EqEq.String())
	require.Equal(t, "identifier", Ident.String())
	require.Equal(t, "Kind(999)", Kind(999).String())
}

func TestTokenStringIdentShowsLexeme(t *testing.T) {
	tok := Token{Kind: Ident, Text: "Age"}
	require.Equal(t, `identifier "Age"`, tok.String())
}

func TestTokenStringPunctuationShowsKindOnly(t *testing.T) {
	tok := Token{Kind: LBrace, Text: "{"}
	require.Equal(t, "'{'", tok.String())
}

func TestIsReservedWordRecognizesKeywords(t *testing.T) {
	require.True(t, IsReservedWord("policy"))
	require.True(t, IsReservedWord("denyOverrides"))
	require.False(t, IsReservedWord("Age"))
	require.False(t, IsReservedWord(""))
}
