// Package redir implements the redirection resolver of §4.1: it
// consumes '<'/'>' tokens from one pipeline stage's token sequence,
// opens the target files, and hands back a clean literal argv plus
// the descriptors to wire onto the child's stdin/stdout.
//
// A raw POSIX fd (-1 meaning "inherit") is expressed here as a
// *os.File (nil meaning "inherit"), since every consumer
// (internal/launcher) builds an *exec.Cmd, whose Stdin/Stdout fields
// are themselves *os.File-shaped. The mapping is exact: nil is -1.
package redir

import (
	"errors"
	"fmt"
	"os"

	"myshell/internal/token"
)

// ErrMalformed is returned when a redirection operator is not
// followed by a literal string.
var ErrMalformed = errors.New("redir: malformed redirection")

// Result is the outcome of resolving one stage's redirections.
type Result struct {
	Argv []string
	In   *os.File // nil = inherit
	Out  *os.File // nil = inherit
}

// Close releases any descriptors this Result opened. Safe to call
// after ownership of In/Out has been handed to a child and the
// parent's copy closed; closing an already-closed *os.File is a
// no-op error that Close ignores.
func (r *Result) Close() {
	if r.In != nil {
		r.In.Close()
	}
	if r.Out != nil {
		r.Out.Close()
	}
}

// Resolve scans tokens left to right, opening '<'/'>' targets and
// compacting the sequence down to literal argv words. If the same
// direction appears twice, the earlier descriptor is closed before
// the later file is opened. On ErrMalformed, any descriptors already
// opened are closed before returning.
func Resolve(tokens []token.Token) (Result, error) {
	var res Result

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.Kind {
		case token.Input, token.Output:
			if i+1 >= len(tokens) || tokens[i+1].Kind != token.Literal {
				res.Close()
				return Result{}, fmt.Errorf("%w: %s with no following literal", ErrMalformed, t)
			}
			name := tokens[i+1].Value
			if t.Kind == token.Input && res.In != nil {
				res.In.Close()
				res.In = nil
			} else if t.Kind == token.Output && res.Out != nil {
				res.Out.Close()
				res.Out = nil
			}
			f, err := openRedirect(t.Kind, name)
			if err != nil {
				res.Close()
				return Result{}, err
			}
			if t.Kind == token.Input {
				res.In = f
			} else {
				res.Out = f
			}
			i++ // skip the literal we just consumed
		case token.Literal:
			res.Argv = append(res.Argv, t.Value)
		case token.End:
			// end-of-args marker; nothing to compact.
		default:
			// Pipe tokens never appear within a single stage's token
			// slice (token.Split cuts stages at them). A trailing
			// Background token is removed by token.StripBackground; one
			// anywhere else reaches here and is skipped.
		}
	}

	return res, nil
}

func openRedirect(kind token.Kind, name string) (*os.File, error) {
	if kind == token.Input {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return f, nil
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}
