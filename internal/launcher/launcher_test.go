package launcher

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLaunchNewGroup(t *testing.T) {
	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	defer out.Close()

	pid, err := Launch(Options{PGID: 0, Out: out, Argv: []string{"echo", "hi"}})
	require.NoError(t, err)
	require.Greater(t, pid, 0)

	// Query the group before reaping: once Wait4 collects the child,
	// its pid no longer exists and Getpgid fails with ESRCH.
	pgid, err := unix.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid, "PGID: 0 should make the child its own process group leader")

	var ws syscall.WaitStatus
	_, err = syscall.Wait4(pid, &ws, 0, nil)
	require.NoError(t, err)
	assert.True(t, ws.Exited())
	assert.Equal(t, 0, ws.ExitStatus())

	data, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))
}

func TestLaunchJoinsExistingGroup(t *testing.T) {
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer devnull.Close()

	firstPid, err := Launch(Options{PGID: 0, Out: devnull, Argv: []string{"sleep", "0.2"}})
	require.NoError(t, err)
	defer syscall.Wait4(firstPid, nil, 0, nil)

	secondPid, err := Launch(Options{PGID: firstPid, Out: devnull, Argv: []string{"true"}})
	require.NoError(t, err)
	defer syscall.Wait4(secondPid, nil, 0, nil)

	pgid, err := unix.Getpgid(secondPid)
	require.NoError(t, err)
	assert.Equal(t, firstPid, pgid)
}

func TestLaunchRejectsEmptyArgv(t *testing.T) {
	_, err := Launch(Options{})
	assert.Error(t, err)
}
