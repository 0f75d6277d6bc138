package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshell/internal/jobtable"
	"myshell/internal/reaper"
)

func TestCheckLockedRunningLeavesTableUntouched(t *testing.T) {
	tbl := jobtable.New()
	slot, err := tbl.AddJob(100, jobtable.FG)
	require.NoError(t, err)
	require.NoError(t, tbl.AddProc(slot, 100, []string{"sleep", "10"}))

	m := New(tbl, reaper.New(tbl), -1, 0)

	tbl.Lock()
	state, code, err := m.checkLocked()
	tbl.Unlock()

	require.NoError(t, err)
	assert.Equal(t, running, state)
	assert.Equal(t, -1, code)
	assert.Equal(t, 100, tbl.PGID(jobtable.FGSlot))
}

func TestCheckLockedStoppedDemotesToBackgroundSlot(t *testing.T) {
	tbl := jobtable.New()
	slot, err := tbl.AddJob(100, jobtable.FG)
	require.NoError(t, err)
	require.NoError(t, tbl.AddProc(slot, 100, []string{"sleep", "10"}))
	tbl.SetProcState(slot, 100, jobtable.Stopped, -1)
	tbl.Recompute(slot)

	m := New(tbl, reaper.New(tbl), -1, 0)

	tbl.Lock()
	state, _, err := m.checkLocked()
	tbl.Unlock()

	require.NoError(t, err)
	assert.Equal(t, stopped, state)
	assert.Equal(t, 0, tbl.PGID(jobtable.FGSlot), "foreground slot must be freed")
	assert.Equal(t, 100, tbl.PGID(1), "job relocates to the first free background slot")
}

func TestCheckLockedFinishedDeletesAndReturnsExitCode(t *testing.T) {
	tbl := jobtable.New()
	slot, err := tbl.AddJob(100, jobtable.FG)
	require.NoError(t, err)
	require.NoError(t, tbl.AddProc(slot, 100, []string{"false"}))
	tbl.SetProcState(slot, 100, jobtable.Finished, 1)
	tbl.Recompute(slot)

	m := New(tbl, reaper.New(tbl), -1, 0)

	tbl.Lock()
	state, code, err := m.checkLocked()
	tbl.Unlock()

	require.NoError(t, err)
	assert.Equal(t, finished, state)
	assert.Equal(t, 1, code)
	assert.Equal(t, 0, tbl.PGID(jobtable.FGSlot))
}
