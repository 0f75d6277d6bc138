// Package shell implements the main evaluation loop and shutdown
// sequence: it reads lines, dispatches single commands versus
// pipelines, reports finished background jobs between prompts, and
// tears the job table down on exit.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"

	"myshell/internal/builtins"
	"myshell/internal/config"
	"myshell/internal/jobtable"
	"myshell/internal/launcher"
	"myshell/internal/lexer"
	"myshell/internal/lineio"
	"myshell/internal/monitor"
	"myshell/internal/pipeline"
	"myshell/internal/reaper"
	"myshell/internal/redir"
	"myshell/internal/token"
)

const prompt = "# "

// Shell owns every collaborator the job-control engine needs: the job
// table, the reaper, the foreground monitor, the job-control
// built-ins, the pipeline driver, and the line source.
type Shell struct {
	table   *jobtable.Table
	reaper  *reaper.Reaper
	monitor *monitor.Monitor
	jc      *builtins.JobControl
	pipe    *pipeline.Driver
	line    *lineio.Source
	cfg     config.Config
	out     io.Writer

	ttyFd   int
	shellPG int
}

// New builds a Shell. Precondition: stdin is a terminal — job control
// has no meaning without one.
func New(cfg config.Config) (*Shell, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return nil, errors.New("shell: stdin is not a terminal")
	}

	// Duplicate stdin to an internal terminal fd marked close-on-exec,
	// so children that execve don't inherit it.
	ttyFd, err := unix.Dup(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("shell: dup stdin: %w", err)
	}
	if _, err := unix.FcntlInt(uintptr(ttyFd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		unix.Close(ttyFd)
		return nil, fmt.Errorf("shell: fcntl cloexec: %w", err)
	}

	shellPG, err := unix.Getpgid(os.Getpid())
	if err != nil {
		unix.Close(ttyFd)
		return nil, fmt.Errorf("shell: getpgrp: %w", err)
	}
	if err := unix.IoctlSetInt(ttyFd, unix.TIOCSPGRP, shellPG); err != nil {
		unix.Close(ttyFd)
		return nil, fmt.Errorf("shell: tcsetpgrp: %w", err)
	}

	// Ignore SIGTSTP/SIGTTIN/SIGTTOU at the shell level; children
	// reset them to default (internal/launcher, bracketing each
	// launch). SIGINT is handled at the lineio/repl boundary via
	// ErrInterrupted, the Go-runtime analogue of the sigsetjmp
	// checkpoint.
	signal.Ignore(syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU)

	table := jobtable.New()
	rp := reaper.New(table)
	rp.Start()
	mon := monitor.New(table, rp, ttyFd, shellPG)

	src, err := lineio.New(prompt)
	if err != nil {
		rp.Stop()
		unix.Close(ttyFd)
		return nil, err
	}

	jc := &builtins.JobControl{Table: table, Monitor: mon, Out: os.Stdout}

	return &Shell{
		table:   table,
		reaper:  rp,
		monitor: mon,
		jc:      jc,
		pipe:    &pipeline.Driver{Table: table},
		line:    src,
		cfg:     cfg,
		out:     os.Stdout,
		ttyFd:   ttyFd,
		shellPG: shellPG,
	}, nil
}

// Run is the main evaluation loop. It returns the process exit status.
func (s *Shell) Run() int {
	for {
		line, err := s.line.ReadLine()
		switch {
		case errors.Is(err, lineio.ErrInterrupted):
			// SIGINT during prompt reading: discard the in-progress
			// line and reprompt. No job-table mutation has happened.
			fmt.Fprintln(s.out)
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.out)
			s.shutdown()
			return 0
		case err != nil:
			fmt.Fprintln(s.out, err)
			s.shutdown()
			return 1
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		_ = s.line.AddHistory(line)

		quit := s.eval(line)
		s.reportFinished()

		if quit {
			s.shutdown()
			return 0
		}
	}
}

// eval tokenises one line and dispatches it: strip a trailing '&'
// into the background flag; route to the pipeline driver when the
// tokens contain '|', otherwise the single-job path.
func (s *Shell) eval(line string) (quit bool) {
	tokens, err := lexer.Tokenize(line)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}

	tokens, bg := token.StripBackground(tokens)
	tokens = s.cfg.Expand(tokens)

	stages := token.Split(tokens)
	if len(stages) == 0 {
		return false
	}

	class := jobtable.FG
	if bg {
		class = jobtable.BG
	}

	if len(stages) == 1 && !token.IsPipeline(tokens) {
		return s.evalSingle(stages[0], class)
	}
	return s.evalPipeline(stages, class)
}

// evalSingle implements the single-job path (do_job in the original):
// resolve redirections, then attempt built-in dispatch first — both
// the shell-state built-ins cd/quit and the job-table built-ins
// jobs/fg/bg/kill — and only fork if the command is not a built-in.
// This is the fast path for a one-stage command: unlike the pipeline
// driver it never opens a pipe, and unlike the pipeline driver it
// recognises built-ins at all.
func (s *Shell) evalSingle(stage []token.Token, class jobtable.Class) (quit bool) {
	res, err := redir.Resolve(stage)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}
	if len(res.Argv) == 0 {
		res.Close()
		return false
	}
	name, args := res.Argv[0], res.Argv[1:]

	if builtins.IsShellState(name) {
		res.Close()
		return s.dispatchShellState(name, args)
	}
	if builtins.IsJobControl(name) {
		res.Close()
		code, err := s.jc.Dispatch(name, args)
		reportBuiltinErr(s.out, err)
		_ = code
		return false
	}

	if err := s.launchSingle(res, class); err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}
	if class == jobtable.FG {
		s.runForeground()
	}
	return false
}

// launchSingle forks the external command, performs the launcher's
// double-setpgid protocol, and registers it under a new job — all
// with the table locked, mirroring do_job's Sigprocmask(SIG_BLOCK)
// bracket around fork+addjob+addproc. The lock is released before
// this returns, so the caller is free to run the foreground monitor
// (which needs the lock for its own brief state checks) afterward.
func (s *Shell) launchSingle(res redir.Result, class jobtable.Class) error {
	s.table.Lock()
	defer s.table.Unlock()

	pid, err := launcher.Launch(launcher.Options{PGID: 0, In: res.In, Out: res.Out, Argv: res.Argv})
	closeFile(res.In)
	closeFile(res.Out)
	if err != nil {
		return err
	}

	slot, err := s.table.AddJob(pid, class)
	if err != nil {
		return err
	}
	_ = s.table.AddProc(slot, pid, res.Argv)

	if class == jobtable.BG {
		j, _ := s.table.Job(slot)
		s.announce(slot, j.Command())
	}
	return nil
}

func (s *Shell) evalPipeline(stages [][]token.Token, class jobtable.Class) (quit bool) {
	_, err := s.pipe.Run(stages, class, s.announce)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}
	if class == jobtable.FG {
		s.runForeground()
	}
	return false
}

func (s *Shell) runForeground() {
	if _, err := s.monitor.Run(); err != nil {
		fmt.Fprintln(s.out, err)
	}
}

func (s *Shell) announce(slot int, cmd string) {
	fmt.Fprintf(s.out, "[%d] running '%s'\n", slot, cmd)
}

func (s *Shell) dispatchShellState(name string, args []string) (quit bool) {
	switch name {
	case "cd":
		if err := builtins.Cd(args); err != nil {
			fmt.Fprintln(s.out, err)
		}
		return false
	case "quit":
		return true
	default:
		return false
	}
}

// reportFinished is called after every evaluated command, mirroring
// the original's watchjobs(FINISHED) call at the bottom of the main
// loop: report and reap background jobs that finished on their own,
// without re-printing jobs that are merely running or stopped. The
// foreground slot is skipped — its completion is already reported by
// the monitor, not here.
func (s *Shell) reportFinished() {
	finished := func(st jobtable.State) bool { return st == jobtable.Finished }
	s.table.WithLock(func() {
		s.table.Watch(finished, func(slot int, job jobtable.Job) {
			if slot == jobtable.FGSlot {
				return
			}
			code := job.Procs[len(job.Procs)-1].ExitCode
			fmt.Fprintf(s.out, "[%d] exited, status=%d (%s)\n", slot, code, job.Command())
		})
	})
}

// shutdown resumes every stopped job, sends SIGTERM to every occupied
// slot, and waits until every slot is finished before reporting and
// closing the terminal fd. A single wait is not enough when several
// jobs remain runnable or stopped at exit, so this loops on the
// reaper's notification channel instead.
func (s *Shell) shutdown() {
	ch, cancel := s.reaper.Subscribe()
	defer cancel()

	s.table.WithLock(func() {
		for slot := 0; slot < s.table.Len(); slot++ {
			pgid := s.table.PGID(slot)
			if pgid == 0 {
				continue
			}
			if st, _ := s.table.State(slot); st == jobtable.Stopped {
				_ = unix.Kill(-pgid, unix.SIGCONT)
			}
			_ = unix.Kill(-pgid, unix.SIGTERM)
		}
	})

	for {
		done := true
		s.table.WithLock(func() {
			for slot := 0; slot < s.table.Len(); slot++ {
				if s.table.PGID(slot) != 0 {
					done = false
					return
				}
			}
		})
		if done {
			break
		}
		<-ch
		s.reportFinished()
	}

	s.reaper.Stop()
	_ = s.line.Close()
	unix.Close(s.ttyFd)
}

func closeFile(f *os.File) {
	if f != nil {
		f.Close()
	}
}

func reportBuiltinErr(out io.Writer, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, builtins.ErrJobNotFound) {
		return // the builtin already printed its own "job not found" message
	}
	fmt.Fprintln(out, err)
}
