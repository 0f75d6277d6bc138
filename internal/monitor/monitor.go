// Package monitor implements the shell's foreground monitor: it hands
// the controlling terminal to the foreground job, waits for it to
// stop or finish, and reclaims the terminal for the shell.
package monitor

import (
	"fmt"

	"golang.org/x/sys/unix"

	"myshell/internal/jobtable"
	"myshell/internal/reaper"
)

// Monitor runs the foreground wait loop against one job table, tty,
// and shell process group.
type Monitor struct {
	table   *jobtable.Table
	reaper  *reaper.Reaper
	ttyFd   int
	shellPG int
}

func New(table *jobtable.Table, r *reaper.Reaper, ttyFd, shellPG int) *Monitor {
	return &Monitor{table: table, reaper: r, ttyFd: ttyFd, shellPG: shellPG}
}

// Run executes the monitor loop. Precondition: slot 0 is occupied.
// Returns the foreground pipeline's exit code, or -1 if the job
// stopped instead of finishing.
//
// A SIGCHLD for this job may already have been delivered and
// processed before the wait begins; that's handled by checking the
// job's state before ever blocking on the reaper's notification
// channel, not only after. Whichever way the race falls, state is
// read under the table lock, never speculatively.
func (m *Monitor) Run() (int, error) {
	pgid := m.table.PGID(jobtable.FGSlot)
	if pgid == 0 {
		return -1, jobtable.ErrNoSuchSlot
	}

	if err := unix.IoctlSetInt(m.ttyFd, unix.TIOCSPGRP, pgid); err != nil {
		return -1, fmt.Errorf("tcsetpgrp: %w", err)
	}
	defer func() {
		_ = unix.IoctlSetInt(m.ttyFd, unix.TIOCSPGRP, m.shellPG)
	}()

	ch, cancel := m.reaper.Subscribe()
	defer cancel()

	for {
		var (
			state State
			code  int
			err   error
		)
		m.table.WithLock(func() {
			state, code, err = m.checkLocked()
		})
		if err != nil {
			return -1, err
		}
		switch state {
		case running:
			<-ch
		case stopped:
			return -1, nil
		case finished:
			return code, nil
		}
	}
}

type State int

const (
	running State = iota
	stopped
	finished
)

// checkLocked inspects the foreground job's state and, for a terminal
// transition, performs the corresponding job-table action (demote on
// stop, delete on finish) before returning. Callers must hold the
// table lock.
func (m *Monitor) checkLocked() (State, int, error) {
	st, err := m.table.State(jobtable.FGSlot)
	if err != nil {
		return finished, -1, err
	}
	switch st {
	case jobtable.Running:
		return running, -1, nil
	case jobtable.Stopped:
		bg := m.table.AllocBGSlot()
		if err := m.table.MoveJob(jobtable.FGSlot, bg); err != nil {
			return finished, -1, err
		}
		return stopped, -1, nil
	default: // jobtable.Finished
		code, _ := m.table.ExitCode(jobtable.FGSlot)
		_ = m.table.DelJob(jobtable.FGSlot)
		return finished, code, nil
	}
}
