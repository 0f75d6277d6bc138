// Package pipeline implements the pipeline driver: it splits a token
// stream into stages at '|', threads pipes between them, launches
// each stage, and registers every stage under one job.
package pipeline

import (
	"errors"
	"fmt"
	"os"

	"myshell/internal/builtins"
	"myshell/internal/jobtable"
	"myshell/internal/launcher"
	"myshell/internal/redir"
	"myshell/internal/token"
)

// ErrBuiltinInPipeline is returned when a pipeline stage names a
// built-in. The original C source forks the shell's own address space
// for each stage, so a stage can run a built-in inside a
// fork()-but-not-yet-exec()'d copy of the shell and simply exit with
// its status. Go's runtime cannot safely run arbitrary Go code
// between fork and exec (a freshly forked child has only the calling
// OS thread; the goroutine scheduler is unusable until exec), so
// there is no faithful way to give a pipeline-stage built-in access to
// the live job table the way jobs/fg/bg/kill need. Every built-in
// this shell has is either meaningless as a non-final pipeline stage
// (cd, quit) or requires exactly the state a forked-and-severed
// process could never see (jobs, fg, bg, kill), so this is rejected
// up front rather than silently misbehaving.
var ErrBuiltinInPipeline = errors.New("pipeline: built-in commands cannot appear in a pipeline stage")

// Announce reports a backgrounded pipeline, e.g. "[N] running 'cmd'".
type Announce func(slot int, cmd string)

// Driver builds and registers a pipeline job.
type Driver struct {
	Table *jobtable.Table
}

// Run resolves redirections and forks each stage of a pipeline,
// threading a pipe between consecutive stages and registering every
// stage under one job. After each iteration the parent holds no pipe
// fds from the current stage: every unused end is closed in both
// parent and children.
func (d *Driver) Run(stages [][]token.Token, class jobtable.Class, announce Announce) (int, error) {
	if len(stages) == 0 {
		return -1, fmt.Errorf("pipeline: no stages")
	}

	d.Table.Lock()
	defer d.Table.Unlock()

	var input *os.File
	pgid := 0
	job := -1

	for i, stage := range stages {
		res, err := redir.Resolve(stage)
		if err != nil {
			closeFile(input)
			return -1, err
		}
		if len(res.Argv) == 0 {
			closeFile(input)
			res.Close()
			return -1, fmt.Errorf("pipeline: empty stage")
		}
		if builtins.IsJobControl(res.Argv[0]) || builtins.IsShellState(res.Argv[0]) {
			closeFile(input)
			res.Close()
			return -1, fmt.Errorf("%w: %s", ErrBuiltinInPipeline, res.Argv[0])
		}

		stageIn := input
		if res.In != nil {
			// An explicit '<' on this stage overrides the pipe fed
			// in from the previous stage; that pipe's read end would
			// otherwise leak since nothing else references it.
			closeFile(input)
			stageIn = res.In
		}

		isLast := i == len(stages)-1
		var stageOut, nextInput *os.File
		switch {
		case res.Out != nil:
			stageOut = res.Out
		case !isLast:
			r, w, perr := os.Pipe()
			if perr != nil {
				closeFile(input)
				res.Close()
				return -1, fmt.Errorf("pipeline: %w", perr)
			}
			nextInput, stageOut = r, w
		}

		pid, launchErr := launcher.Launch(launcher.Options{
			PGID: pgid,
			In:   stageIn,
			Out:  stageOut,
			Argv: res.Argv,
		})

		// Whether or not the launch succeeded, the parent's copies of
		// this stage's fds must be closed: the child (if started)
		// already dup'd what it needed, and the reader on the far end
		// of a pipe must see EOF once every writer, including the
		// parent's stray copy, is closed.
		closeFile(stageIn)
		closeFile(stageOut)

		if launchErr != nil {
			closeFile(nextInput)
			return -1, launchErr
		}

		if job == -1 {
			pgid = pid
			var jerr error
			job, jerr = d.Table.AddJob(pgid, class)
			if jerr != nil {
				closeFile(nextInput)
				return -1, jerr
			}
		}
		_ = d.Table.AddProc(job, pid, res.Argv)

		input = nextInput
	}

	if class == jobtable.BG {
		j, _ := d.Table.Job(job)
		announce(job, j.Command())
	}

	return job, nil
}

func closeFile(f *os.File) {
	if f != nil {
		f.Close()
	}
}
