// Package reaper implements the shell's child-state reaper: a
// SIGCHLD-driven collector that updates per-process and per-job
// state.
//
// The original's sigchld_handler runs in a reentrancy-constrained
// signal context (no heap ops, no stdio, errno saved/restored). Go's
// runtime gives user code no such handler; the idiomatic substitute
// already present in the retrieval pack (Armaan1620-myshell's SIGINT
// goroutine draining a channel fed by signal.Notify; sdfpt05-shell's
// signalChan dispatching SIGCHLD to a reapChildren call) is a
// dedicated goroutine draining a buffered os.Signal channel. That
// goroutine is this package's "handler."
package reaper

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"myshell/internal/jobtable"
)

// Reaper drains SIGCHLD notifications and updates table accordingly.
type Reaper struct {
	table *jobtable.Table
	sigc  chan os.Signal
	quit  chan struct{}
	wg    sync.WaitGroup

	mu   sync.Mutex
	subs []chan struct{}
}

// New builds a Reaper bound to table. Call Start to begin draining.
func New(table *jobtable.Table) *Reaper {
	return &Reaper{
		table: table,
		sigc:  make(chan os.Signal, 64),
		quit:  make(chan struct{}),
	}
}

// Start installs the SIGCHLD notification and launches the draining
// goroutine.
func (r *Reaper) Start() {
	signal.Notify(r.sigc, syscall.SIGCHLD)
	r.wg.Add(1)
	go r.loop()
}

// Stop uninstalls the notification and waits for the goroutine to
// exit, used during shutdown.
func (r *Reaper) Stop() {
	signal.Stop(r.sigc)
	close(r.quit)
	r.wg.Wait()
}

func (r *Reaper) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.sigc:
			r.Drain()
			r.broadcast()
		case <-r.quit:
			return
		}
	}
}

// Subscribe registers a channel that receives a tick after every
// drain cycle. This is the Go-runtime equivalent of a waiter that
// unblocked SIGCHLD inside sigsuspend and is about to be woken: the
// foreground monitor selects on it instead of calling sigsuspend
// directly. cancel must be called once the subscriber is done.
func (r *Reaper) Subscribe() (ch <-chan struct{}, cancel func()) {
	c := make(chan struct{}, 1)
	r.mu.Lock()
	r.subs = append(r.subs, c)
	r.mu.Unlock()
	cancel = func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range r.subs {
			if s == c {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
	}
	return c, cancel
}

func (r *Reaper) broadcast() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.subs {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

// Drain performs one non-blocking reap pass over every occupied slot:
// for each non-Finished process, wait4(pid, WNOHANG|WUNTRACED|
// WCONTINUED); classify; after a job's processes are all visited,
// recompute its aggregate state. This fully drains whatever state
// changes are available in one call, so multiple coalesced SIGCHLD
// deliveries are still handled correctly by a single Drain. Safe to
// call directly — e.g. from tests, or a forced synchronous check — as
// well as from the signal goroutine; the table's own lock serialises
// concurrent callers.
func (r *Reaper) Drain() {
	r.table.WithLock(func() {
		for slot := 0; slot < r.table.Len(); slot++ {
			if r.table.PGID(slot) == 0 {
				continue
			}
			job, err := r.table.Job(slot)
			if err != nil {
				continue
			}
			for _, p := range job.Procs {
				if p.State == jobtable.Finished {
					continue
				}
				reapOne(r.table, slot, p.Pid)
			}
			r.table.Recompute(slot)
		}
	})
}

func reapOne(table *jobtable.Table, slot, pid int) {
	var status syscall.WaitStatus
	wpid, err := syscall.Wait4(pid, &status, syscall.WNOHANG|syscall.WUNTRACED|syscall.WCONTINUED, nil)
	if err != nil || wpid <= 0 {
		return
	}
	switch {
	case status.Exited():
		table.SetProcState(slot, pid, jobtable.Finished, status.ExitStatus())
	case status.Signaled():
		table.SetProcState(slot, pid, jobtable.Finished, 128+int(status.Signal()))
	case status.Continued():
		table.SetProcState(slot, pid, jobtable.Running, -1)
	case status.Stopped():
		table.SetProcState(slot, pid, jobtable.Stopped, -1)
	}
}
