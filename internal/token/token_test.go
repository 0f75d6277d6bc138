package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPipeline(t *testing.T) {
	assert.False(t, IsPipeline([]Token{Lit("echo"), Lit("hi")}))
	assert.True(t, IsPipeline([]Token{Lit("yes"), {Kind: Pipe}, Lit("head")}))
}

func TestStripBackground(t *testing.T) {
	toks := []Token{Lit("sleep"), Lit("10"), {Kind: Background}, {Kind: End}}
	rest, bg := StripBackground(toks)
	assert.True(t, bg)
	assert.Equal(t, []Token{Lit("sleep"), Lit("10")}, rest)

	toks2 := []Token{Lit("echo"), Lit("hi"), {Kind: End}}
	rest2, bg2 := StripBackground(toks2)
	assert.False(t, bg2)
	assert.Equal(t, toks2, rest2)
}

func TestStripBackgroundRequiresTrailingPosition(t *testing.T) {
	// '&' is only a background marker as the very last non-End token.
	toks := []Token{{Kind: Background}, Lit("echo")}
	_, bg := StripBackground(toks)
	assert.False(t, bg)
}

func TestSplitStages(t *testing.T) {
	toks := []Token{Lit("yes"), {Kind: Pipe}, Lit("head"), Lit("-n"), Lit("3")}
	stages := Split(toks)
	assert.Len(t, stages, 2)
	assert.Equal(t, []Token{Lit("yes")}, stages[0])
	assert.Equal(t, []Token{Lit("head"), Lit("-n"), Lit("3")}, stages[1])
}

func TestSplitSingleStage(t *testing.T) {
	toks := []Token{Lit("echo"), Lit("hi")}
	stages := Split(toks)
	assert.Len(t, stages, 1)
}
