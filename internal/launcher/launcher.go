// Package launcher implements the shell's process launcher: fork a
// child, place it in the correct process group, wire its
// stdin/stdout, and exec the target command.
//
// Go's runtime cannot safely run arbitrary Go code between fork() and
// exec() (a forked child only has the calling OS thread; the rest of
// the goroutine scheduler is unusable until exec), so the protocol
// here is expressed through os/exec and syscall.SysProcAttr rather
// than a literal fork()/dup2()/execve() sequence. The teacher
// (Armaan1620-myshell/internal/executor) already takes this shape —
// exec.Command plus a unix.SysProcAttr{Setpgid: true} — this package
// generalises it to carry the full protocol proper job control needs:
// the double setpgid call and the SIGTSTP/SIGTTIN/SIGTTOU reset.
package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// Options describes one child process to launch.
type Options struct {
	// PGID is the target process group: 0 means "use the new child's
	// own pid as its pgid" (the first stage of a job or pipeline);
	// nonzero joins an already-established group (later pipeline
	// stages).
	PGID int
	In   *os.File // nil = inherit
	Out  *os.File // nil = inherit
	Argv []string
}

var jobControlSignals = []os.Signal{syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU}

// Launch starts opts.Argv[0] as a child process.
//
// Protocol: the child is placed in its process group from inside the
// fork/exec syscall (via SysProcAttr.Pgid); the parent performs the
// same setpgid call again immediately after start returns. The double
// call is essential, since the parent may need to setpgid a
// subsequent stage to this pid before this child has executed a
// single instruction. SIGTSTP/SIGTTIN/SIGTTOU,
// which the shell ignores at the process level, are bracketed back to
// their default disposition for the instant of the underlying
// fork+exec syscall so the exec'd image does not inherit SIG_IGN —
// the same ignore/reset bracket golang.org/x/sys-based job-control
// shells in the pack (e.g. putSelfInFg's SIGTTOU dance) use around a
// single risky syscall.
func Launch(opts Options) (pid int, err error) {
	if len(opts.Argv) == 0 {
		return 0, fmt.Errorf("launcher: empty argv")
	}

	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    opts.PGID,
	}

	if opts.In != nil {
		cmd.Stdin = opts.In
	} else {
		cmd.Stdin = os.Stdin
	}
	if opts.Out != nil {
		cmd.Stdout = opts.Out
	} else {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr

	signal.Reset(jobControlSignals...)
	startErr := cmd.Start()
	signal.Ignore(jobControlSignals...)

	if startErr != nil {
		return 0, fmt.Errorf("launcher: %w", startErr)
	}

	childPid := cmd.Process.Pid
	target := opts.PGID
	if target == 0 {
		target = childPid
	}
	// Second setpgid call, from the parent. Errors are expected and
	// ignored in the race where the child has already exited or
	// already called setpgid on itself.
	_ = syscall.Setpgid(childPid, target)

	return childPid, nil
}
