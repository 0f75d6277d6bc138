// Package lexer turns a raw command line into the job-control
// engine's token stream. It splits the line into shell words with
// github.com/anmitsu/go-shlex (the same library and call shape
// core/shell.go in the honeyssh reference uses for its interactive
// shell), then classifies each word against the token vocabulary.
package lexer

import (
	"github.com/anmitsu/go-shlex"

	"myshell/internal/token"
)

// Tokenize splits line into literal-string argv words and separator
// tokens. A separator only counts as one when it appears as its own
// shell word; "cmd>file" without a surrounding space is a single
// literal, matching the whitespace-token-boundary contract the core
// engine expects from its lexer.
func Tokenize(line string) ([]token.Token, error) {
	words, err := shlex.Split(line, true)
	if err != nil {
		return nil, err
	}

	tokens := make([]token.Token, 0, len(words)+1)
	for _, w := range words {
		switch w {
		case "<":
			tokens = append(tokens, token.Token{Kind: token.Input, Value: w})
		case ">":
			tokens = append(tokens, token.Token{Kind: token.Output, Value: w})
		case "|":
			tokens = append(tokens, token.Token{Kind: token.Pipe, Value: w})
		case "&":
			tokens = append(tokens, token.Token{Kind: token.Background, Value: w})
		default:
			tokens = append(tokens, token.Lit(w))
		}
	}
	tokens = append(tokens, token.Token{Kind: token.End})
	return tokens, nil
}
