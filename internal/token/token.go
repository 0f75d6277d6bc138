// Package token defines the tagged token vocabulary the job-control
// engine consumes: a literal argv word or one of the recognised
// separators. Classification and pipeline/background detection live
// here so every other package operates on the same vocabulary.
package token

// Kind tags a Token as either a literal argv word or a separator.
type Kind int

const (
	Literal Kind = iota
	Input        // <
	Output       // >
	Pipe         // |
	Background   // &
	End          // end-of-args marker
)

// Token is one item of the stream produced by the lexer: a literal
// string (an argv element) or a separator.
type Token struct {
	Kind  Kind
	Value string
}

func Lit(v string) Token { return Token{Kind: Literal, Value: v} }

func (t Token) String() string {
	switch t.Kind {
	case Input:
		return "<"
	case Output:
		return ">"
	case Pipe:
		return "|"
	case Background:
		return "&"
	case End:
		return ""
	default:
		return t.Value
	}
}

// IsPipeline reports whether the token sequence contains a pipe
// separator anywhere, i.e. whether it must be routed through the
// pipeline driver rather than the single-job fast path.
func IsPipeline(tokens []Token) bool {
	for _, t := range tokens {
		if t.Kind == Pipe {
			return true
		}
	}
	return false
}

// StripBackground removes a trailing '&' token, reporting whether one
// was present. A trailing '&' only counts as a background marker when
// it is the very last non-End token.
func StripBackground(tokens []Token) ([]Token, bool) {
	n := len(tokens)
	for n > 0 && tokens[n-1].Kind == End {
		n--
	}
	if n == 0 || tokens[n-1].Kind != Background {
		return tokens, false
	}
	return tokens[:n-1], true
}

// Split breaks a token sequence into pipeline stages at Pipe
// separators. A stage with no tokens at all (a leading or doubled '|',
// or a '|' that ends the slice) is dropped. The End marker counts as a
// token, so a '|' followed only by End yields a stage holding just End.
func Split(tokens []Token) [][]Token {
	var stages [][]Token
	start := 0
	for i, t := range tokens {
		if t.Kind == Pipe {
			if i > start {
				stages = append(stages, tokens[start:i])
			}
			start = i + 1
		}
	}
	if start < len(tokens) {
		stages = append(stages, tokens[start:])
	}
	return stages
}
