// Package lineio implements the shell's line source: something that
// returns one command line at a time or signals end-of-input. It
// wraps github.com/abiosoft/readline, the same line-editing library
// the honeyssh reference shell embeds for its interactive session,
// for history and basic editing.
package lineio

import (
	"errors"
	"io"

	"github.com/abiosoft/readline"
)

// ErrInterrupted is returned when the user sends SIGINT (Ctrl-C)
// while a line is being read. The shell's prompt loop treats this the
// same way the original's sigsetjmp checkpoint does: discard the
// partial line and reprompt, without touching job-table state.
var ErrInterrupted = errors.New("lineio: interrupted")

// Source reads one line at a time from the controlling terminal.
type Source struct {
	inst *readline.Instance
}

// New builds a Source that reads from the terminal and echoes the
// given prompt before each line.
func New(prompt string) (*Source, error) {
	inst, err := readline.New(prompt)
	if err != nil {
		return nil, err
	}
	return &Source{inst: inst}, nil
}

// ReadLine returns the next line of input, io.EOF at end-of-input, or
// ErrInterrupted if the read was aborted by SIGINT.
func (s *Source) ReadLine() (string, error) {
	line, err := s.inst.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	case err != nil:
		return "", err
	default:
		return line, nil
	}
}

// AddHistory records a successfully evaluated line, mirroring the
// original's add_history call.
func (s *Source) AddHistory(line string) error {
	return s.inst.SaveHistory(line)
}

// Close releases the underlying terminal state.
func (s *Source) Close() error {
	return s.inst.Close()
}
