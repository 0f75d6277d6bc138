package builtins

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshell/internal/jobtable"
	"myshell/internal/monitor"
	"myshell/internal/reaper"
)

func TestIsShellStateAndIsJobControl(t *testing.T) {
	assert.True(t, IsShellState("cd"))
	assert.True(t, IsShellState("quit"))
	assert.False(t, IsShellState("jobs"))

	assert.True(t, IsJobControl("jobs"))
	assert.True(t, IsJobControl("fg"))
	assert.True(t, IsJobControl("bg"))
	assert.True(t, IsJobControl("kill"))
	assert.False(t, IsJobControl("cd"))
}

func TestCdChangesDirectory(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(orig)

	require.NoError(t, Cd([]string{dir}))
	cwd, err := os.Getwd()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cwd)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCdUnknownDirectoryErrors(t *testing.T) {
	err := Cd([]string{"/no/such/directory/anywhere"})
	assert.Error(t, err)
}

func newJobControl(t *testing.T, tbl *jobtable.Table) (*JobControl, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mon := monitor.New(tbl, reaper.New(tbl), -1, 0)
	return &JobControl{Table: tbl, Monitor: mon, Out: &buf}, &buf
}

func TestJobsListsAndReapsFinished(t *testing.T) {
	tbl := jobtable.New()
	slot, err := tbl.AddJob(100, jobtable.BG)
	require.NoError(t, err)
	require.NoError(t, tbl.AddProc(slot, 100, []string{"sleep", "1"}))
	tbl.SetProcState(slot, 100, jobtable.Finished, 0)
	tbl.Recompute(slot)

	jc, buf := newJobControl(t, tbl)
	code, err := jc.jobs()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, buf.String(), "sleep 1")
	assert.Equal(t, 0, tbl.PGID(slot), "finished job must be reaped after jobs prints it")
}

func TestKillRequiresPercentPrefix(t *testing.T) {
	tbl := jobtable.New()
	jc, _ := newJobControl(t, tbl)

	_, err := jc.kill([]string{"1"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestKillUnknownSlotReportsJobNotFound(t *testing.T) {
	tbl := jobtable.New()
	jc, buf := newJobControl(t, tbl)

	code, err := jc.kill([]string{"%9"})
	assert.Equal(t, 1, code)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Contains(t, buf.String(), "job not found")
}

func TestBgUnknownSlotReportsJobNotFound(t *testing.T) {
	tbl := jobtable.New()
	jc, buf := newJobControl(t, tbl)

	code, err := jc.bg([]string{"5"})
	assert.Equal(t, 1, code)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Contains(t, buf.String(), "job not found")
}

func TestParseSlotRejectsNonNumeric(t *testing.T) {
	tbl := jobtable.New()
	jc, _ := newJobControl(t, tbl)

	_, err := jc.fg([]string{"abc"})
	assert.ErrorIs(t, err, ErrUsage)
}
