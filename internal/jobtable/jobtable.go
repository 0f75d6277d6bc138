// Package jobtable implements the shell's job table: an ordered,
// index-addressable arena of job slots. Slot 0 is reserved for the
// foreground job; slots >= 1 are background slots. Indices are stable
// identities for the shell's lifetime — a resumed or stopped job
// relocates between slots (MoveJob), it is never renamed.
//
// Every exported method that reads or mutates table state must be
// called with the table locked (Lock/Unlock, or the WithLock helper).
// Go gives user code no way to block SIGCHLD the way the original
// shell does around a critical section, so a mutex plays that role
// instead, guarding the same critical sections against the reaper
// goroutine.
package jobtable

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// State is a process's or job's lifecycle state.
type State int

const (
	Running State = iota
	Stopped
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Class selects which kind of slot AddJob allocates.
type Class int

const (
	FG Class = iota
	BG
)

// FGSlot is the reserved foreground slot index.
const FGSlot = 0

// Process is one launched child.
type Process struct {
	Pid      int
	State    State
	ExitCode int // meaningful only when State == Finished; -1 otherwise
}

// Job is a set of processes sharing one process group.
type Job struct {
	PGID    int // 0 means the slot is empty
	Procs   []Process
	State   State
	command string
	// RunID is a cosmetic random identifier stamped on each job by
	// AddJob. It is not part of String()'s rendering and plays no role
	// in slot lookup.
	RunID string
}

// Command returns the job's rendering of its original command text,
// stages joined by " | ".
func (j *Job) Command() string { return j.command }

var (
	// ErrSlotOccupied is returned by AddJob(FG, ...) when slot 0 is
	// not empty, and by MoveJob when the destination is occupied.
	ErrSlotOccupied = errors.New("jobtable: slot occupied")
	// ErrNotFinished guards DelJob's precondition.
	ErrNotFinished = errors.New("jobtable: job not finished")
	// ErrNoSuchSlot is returned for out-of-range or empty-slot access.
	ErrNoSuchSlot = errors.New("jobtable: no such job")
)

// Table is the job table. The zero value is not usable; use New.
type Table struct {
	mu   sync.Mutex
	jobs []Job // index 0 is always the FG slot
}

// New returns an empty table with the foreground slot pre-allocated,
// mirroring the original's njobmax == 1 starting size.
func New() *Table {
	return &Table{jobs: make([]Job, 1)}
}

// Lock blocks concurrent access to the table, standing in for
// "block SIGCHLD" at the entry of a critical section.
func (t *Table) Lock() { t.mu.Lock() }

// Unlock releases the table, standing in for unblocking SIGCHLD at
// the end of a critical section.
func (t *Table) Unlock() { t.mu.Unlock() }

// WithLock runs fn with the table locked.
func (t *Table) WithLock(fn func()) {
	t.Lock()
	defer t.Unlock()
	fn()
}

// AddJob allocates a slot for a new job. Callers must hold the lock.
func (t *Table) AddJob(pgid int, class Class) (int, error) {
	var slot int
	if class == FG {
		if t.jobs[FGSlot].PGID != 0 {
			return 0, ErrSlotOccupied
		}
		slot = FGSlot
	} else {
		slot = -1
		for i := 1; i < len(t.jobs); i++ {
			if t.jobs[i].PGID == 0 {
				slot = i
				break
			}
		}
		if slot == -1 {
			t.jobs = append(t.jobs, Job{})
			slot = len(t.jobs) - 1
		}
	}
	t.jobs[slot] = Job{PGID: pgid, State: Running, RunID: uuid.NewString()}
	return slot, nil
}

// AllocBGSlot reserves the lowest free background slot (>= 1),
// growing the table if none is free, without populating it. Used by
// the foreground monitor to find a destination for MoveJob when a
// foreground job stops: the slot must exist before the move, but
// MoveJob itself supplies every field the original addjob(0, BG)
// trick in the source left to be overwritten. Callers must hold the
// lock.
func (t *Table) AllocBGSlot() int {
	for i := 1; i < len(t.jobs); i++ {
		if t.jobs[i].PGID == 0 {
			return i
		}
	}
	t.jobs = append(t.jobs, Job{})
	return len(t.jobs) - 1
}

// AddProc appends a running process record to slot's job and extends
// its command-text rendering, stages joined by " | ". Callers must
// hold the lock.
func (t *Table) AddProc(slot int, pid int, argv []string) error {
	if slot < 0 || slot >= len(t.jobs) || t.jobs[slot].PGID == 0 {
		return ErrNoSuchSlot
	}
	j := &t.jobs[slot]
	j.Procs = append(j.Procs, Process{Pid: pid, State: Running, ExitCode: -1})
	if j.command != "" {
		j.command += " | "
	}
	j.command += strings.Join(argv, " ")
	return nil
}

// DelJob frees slot. Precondition: the job is Finished. Callers must
// hold the lock.
func (t *Table) DelJob(slot int) error {
	if slot < 0 || slot >= len(t.jobs) || t.jobs[slot].PGID == 0 {
		return ErrNoSuchSlot
	}
	if t.jobs[slot].State != Finished {
		return ErrNotFinished
	}
	t.jobs[slot] = Job{}
	return nil
}

// MoveJob relocates the entire record from `from` to `to`, zeroing
// `from`. Precondition: `to` is empty. Callers must hold the lock.
func (t *Table) MoveJob(from, to int) error {
	if from < 0 || from >= len(t.jobs) || t.jobs[from].PGID == 0 {
		return ErrNoSuchSlot
	}
	for to >= len(t.jobs) {
		t.jobs = append(t.jobs, Job{})
	}
	if t.jobs[to].PGID != 0 {
		return ErrSlotOccupied
	}
	t.jobs[to] = t.jobs[from]
	t.jobs[from] = Job{}
	return nil
}

// State returns the aggregate state of the job in the requested slot.
// Callers must hold the lock.
func (t *Table) State(slot int) (State, error) {
	if slot < 0 || slot >= len(t.jobs) || t.jobs[slot].PGID == 0 {
		return Finished, ErrNoSuchSlot
	}
	return t.jobs[slot].State, nil
}

// Job returns a copy of the job occupying slot. Callers must hold the
// lock for the duration over which the returned value must stay
// coherent.
func (t *Table) Job(slot int) (Job, error) {
	if slot < 0 || slot >= len(t.jobs) || t.jobs[slot].PGID == 0 {
		return Job{}, ErrNoSuchSlot
	}
	return t.jobs[slot], nil
}

// ExitCode returns the exit code of the job's last stage. Callers
// must hold the lock.
func (t *Table) ExitCode(slot int) (int, error) {
	j, err := t.Job(slot)
	if err != nil {
		return -1, err
	}
	if len(j.Procs) == 0 {
		return -1, ErrNoSuchSlot
	}
	return j.Procs[len(j.Procs)-1].ExitCode, nil
}

// Recompute derives slot's aggregate state from its member process
// states: any process still running makes the job running, else any
// process stopped makes the job stopped, else the job is finished.
// Callers must hold the lock.
func (t *Table) Recompute(slot int) {
	j := &t.jobs[slot]
	hasRunning, hasStopped := false, false
	for _, p := range j.Procs {
		switch p.State {
		case Running:
			hasRunning = true
		case Stopped:
			hasStopped = true
		}
	}
	switch {
	case hasRunning:
		j.State = Running
	case hasStopped:
		j.State = Stopped
	default:
		j.State = Finished
	}
}

// SetProcState records a state-change classified by the reaper for
// pid within slot, and its exit code when the process is Finished.
// Callers must hold the lock.
func (t *Table) SetProcState(slot int, pid int, state State, exitCode int) {
	j := &t.jobs[slot]
	for i := range j.Procs {
		if j.Procs[i].Pid == pid {
			j.Procs[i].State = state
			if state == Finished {
				j.Procs[i].ExitCode = exitCode
			}
			return
		}
	}
}

// Len returns the number of slots in the table, occupied or not, for
// iterating it (0..Len()).
func (t *Table) Len() int { return len(t.jobs) }

// PGID returns the process-group id of slot's occupant, or 0 if the
// slot is empty. Callers must hold the lock.
func (t *Table) PGID(slot int) int {
	if slot < 0 || slot >= len(t.jobs) {
		return 0
	}
	return t.jobs[slot].PGID
}

// Highest returns the greatest-index occupied slot whose state is not
// Finished, or -1 if there is none. Used by fg/bg's default-argument
// selection. Callers must hold the lock.
func (t *Table) Highest() int {
	for i := len(t.jobs) - 1; i >= 1; i-- {
		if t.jobs[i].PGID != 0 && t.jobs[i].State != Finished {
			return i
		}
	}
	return -1
}

// Watch visits every occupied slot matching filter (nil matches every
// slot), invoking fn for each and then reaping it if it turned out to
// be Finished. This is the shared core behind both of the original
// watchjobs(which) call sites: watchjobs(ALL) from the jobs builtin
// passes a nil filter, and watchjobs(FINISHED) from the main loop's
// post-command report passes a filter that only matches Finished.
// Callers must hold the lock.
func (t *Table) Watch(filter func(State) bool, fn func(slot int, job Job)) {
	for slot := 0; slot < len(t.jobs); slot++ {
		if t.jobs[slot].PGID == 0 {
			continue
		}
		job := t.jobs[slot]
		if filter != nil && !filter(job.State) {
			continue
		}
		fn(slot, job)
		if job.State == Finished {
			t.jobs[slot] = Job{}
		}
	}
}

// String renders a job's command text in parentheses, e.g.
// "(sleep 10)", as the `jobs` builtin prints it after the slot and
// state: "[1] running (sleep 10)".
func (j Job) String() string {
	return fmt.Sprintf("(%s)", j.command)
}
