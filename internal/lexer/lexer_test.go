package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshell/internal/token"
)

func TestTokenizeLiterals(t *testing.T) {
	toks, err := Tokenize("echo hello world")
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, token.Lit("echo"), toks[0])
	assert.Equal(t, token.Lit("hello"), toks[1])
	assert.Equal(t, token.Lit("world"), toks[2])
	assert.Equal(t, token.End, toks[3].Kind)
}

func TestTokenizeOperatorsAsOwnWords(t *testing.T) {
	toks, err := Tokenize("yes | head -n 3 > out.txt &")
	require.NoError(t, err)

	kinds := make([]token.Kind, 0, len(toks))
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.Literal, token.Pipe, token.Literal, token.Literal, token.Literal,
		token.Output, token.Literal, token.Background, token.End,
	}, kinds)
}

func TestTokenizeOperatorGluedToWordIsLiteral(t *testing.T) {
	toks, err := Tokenize("echo cmd>file")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, token.Literal, toks[1].Kind)
	assert.Equal(t, "cmd>file", toks[1].Value)
}

func TestTokenizeQuotedString(t *testing.T) {
	toks, err := Tokenize(`echo "hello world"`)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, "hello world", toks[1].Value)
}
