// Package builtins implements the job-control built-ins (jobs, fg, bg,
// kill) plus the shell-state built-ins dispatched alongside them (cd,
// quit). The job-control builtins operate with the job table locked
// for their entire critical section.
package builtins

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"myshell/internal/jobtable"
	"myshell/internal/monitor"
)

var (
	// ErrUsage signals a malformed built-in invocation, e.g. kill's
	// argument missing its '%' prefix.
	ErrUsage = errors.New("builtins: usage error")
	// ErrJobNotFound signals a well-formed built-in invocation naming a
	// slot that isn't occupied (for kill, also one whose job has
	// finished).
	ErrJobNotFound = errors.New("builtins: job not found")
	// ErrQuit signals the repl to run the shutdown sequence and exit
	// with status 0.
	ErrQuit = errors.New("builtins: quit")
)

// IsShellState reports whether name is one of the built-ins that
// don't touch job state.
func IsShellState(name string) bool {
	switch name {
	case "cd", "quit":
		return true
	}
	return false
}

// IsJobControl reports whether name is one of the job-table-facing
// built-ins.
func IsJobControl(name string) bool {
	switch name {
	case "jobs", "fg", "bg", "kill":
		return true
	}
	return false
}

// Cd changes the working directory; an empty path changes to $HOME,
// matching the original's do_chdir.
func Cd(args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = os.Getenv("HOME")
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("cd: %s: %w", dir, err)
	}
	return nil
}

// JobControl bundles the job-table-facing built-ins with the
// collaborators they need: the table itself, a foreground monitor to
// hand a resumed job to, and golang.org/x/sys/unix's raw kill(2).
type JobControl struct {
	Table   *jobtable.Table
	Monitor *monitor.Monitor
	Out     io.Writer
}

// Dispatch routes to the named job-control built-in.
func (jc *JobControl) Dispatch(name string, args []string) (int, error) {
	switch name {
	case "jobs":
		return jc.jobs()
	case "fg":
		return jc.fg(args)
	case "bg":
		return jc.bg(args)
	case "kill":
		return jc.kill(args)
	default:
		return 0, fmt.Errorf("builtins: %s is not a job-control builtin", name)
	}
}

var (
	colorRunning  = color.New(color.FgGreen).SprintFunc()
	colorStopped  = color.New(color.FgYellow).SprintFunc()
	colorFinished = color.New(color.FgCyan).SprintFunc()
)

func stateWord(s jobtable.State) string {
	switch s {
	case jobtable.Running:
		return colorRunning("running")
	case jobtable.Stopped:
		return colorStopped("stopped")
	default:
		return colorFinished("finished")
	}
}

// jobs enumerates all occupied slots, printing index, state, command,
// and (for finished jobs) exit code, then reaps the finished ones —
// the same "report and clean up" shape as the original's
// watchjobs(ALL).
func (jc *JobControl) jobs() (int, error) {
	jc.Table.WithLock(func() {
		jc.Table.Watch(nil, jc.printJob)
	})
	return 0, nil
}

func (jc *JobControl) printJob(slot int, job jobtable.Job) {
	if job.State == jobtable.Finished {
		code, _ := jc.Table.ExitCode(slot)
		fmt.Fprintf(jc.Out, "[%d] %s, status=%d %s\n", slot, stateWord(job.State), code, job.String())
		return
	}
	fmt.Fprintf(jc.Out, "[%d] %s %s\n", slot, stateWord(job.State), job.String())
}

// parseSlot parses an optional leading numeric slot argument, as used
// by fg/bg ("fg", "fg 2").
func parseSlot(args []string) (slot int, given bool, err error) {
	if len(args) == 0 || args[0] == "" {
		return 0, false, nil
	}
	n, convErr := strconv.Atoi(args[0])
	if convErr != nil {
		return 0, false, fmt.Errorf("%w: %s", ErrUsage, args[0])
	}
	return n, true, nil
}

func argOr(args []string, dflt string) string {
	if len(args) == 0 {
		return dflt
	}
	return args[0]
}

// fg resumes a stopped or running background job in the foreground:
// selects the job (explicit slot, or the default = highest
// non-finished slot), sends it SIGCONT, moves it into the foreground
// slot, then runs the foreground monitor.
func (jc *JobControl) fg(args []string) (int, error) {
	slot, given, err := parseSlot(args)
	if err != nil {
		return -1, err
	}

	var pgid int
	jc.Table.WithLock(func() {
		if !given {
			slot = jc.Table.Highest()
		}
		pgid = jc.Table.PGID(slot)
	})
	if pgid == 0 {
		fmt.Fprintf(jc.Out, "fg: job not found: %s\n", argOr(args, ""))
		return 1, ErrJobNotFound
	}

	if err := unix.Kill(-pgid, unix.SIGCONT); err != nil {
		return 1, fmt.Errorf("fg: %w", err)
	}

	var moveErr error
	jc.Table.WithLock(func() {
		moveErr = jc.Table.MoveJob(slot, jobtable.FGSlot)
	})
	if moveErr != nil {
		return 1, fmt.Errorf("fg: %w", moveErr)
	}

	code, err := jc.Monitor.Run()
	if err != nil {
		return 1, err
	}
	return code, nil
}

// bg resumes a stopped background job in place, leaving it in its
// background slot.
func (jc *JobControl) bg(args []string) (int, error) {
	slot, given, err := parseSlot(args)
	if err != nil {
		return -1, err
	}

	var pgid int
	jc.Table.WithLock(func() {
		if !given {
			slot = jc.Table.Highest()
		}
		pgid = jc.Table.PGID(slot)
	})
	if pgid == 0 {
		fmt.Fprintf(jc.Out, "bg: job not found: %s\n", argOr(args, ""))
		return 1, ErrJobNotFound
	}

	if err := unix.Kill(-pgid, unix.SIGCONT); err != nil {
		return 1, fmt.Errorf("bg: %w", err)
	}
	return 0, nil
}

// kill sends SIGTERM to the job named "%n". The '%' prefix is
// mandatory; its absence is a usage error, distinct from the
// job-not-found error for a missing/finished slot.
func (jc *JobControl) kill(args []string) (int, error) {
	if len(args) == 0 || !strings.HasPrefix(args[0], "%") {
		return -1, ErrUsage
	}
	slot, convErr := strconv.Atoi(strings.TrimPrefix(args[0], "%"))
	if convErr != nil {
		return -1, fmt.Errorf("%w: %s", ErrUsage, args[0])
	}

	var pgid int
	jc.Table.WithLock(func() {
		if st, err := jc.Table.State(slot); err == nil && st != jobtable.Finished {
			pgid = jc.Table.PGID(slot)
		}
	})
	if pgid == 0 {
		fmt.Fprintf(jc.Out, "kill: job not found: %s\n", args[0])
		return 1, ErrJobNotFound
	}

	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil {
		return 1, fmt.Errorf("kill: %w", err)
	}
	return 0, nil
}
