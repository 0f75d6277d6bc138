package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myshell/internal/token"
)

func TestLoadMissingFileIsNotError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadParsesAliasesAndExtraPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rc.yaml")
	contents := "aliases:\n  ll: ls -la\nextra_path:\n  - /opt/tools/bin\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ls -la", cfg.Aliases["ll"])
	assert.Equal(t, []string{"/opt/tools/bin"}, cfg.ExtraPath)
}

func TestExpandSubstitutesLeadingAlias(t *testing.T) {
	cfg := Config{Aliases: map[string]string{"ll": "ls -la"}}
	in := []token.Token{token.Lit("ll"), token.Lit("/tmp")}

	out := cfg.Expand(in)
	assert.Equal(t, []token.Token{token.Lit("ls"), token.Lit("-la"), token.Lit("/tmp")}, out)
}

func TestExpandLeavesUnknownWordAlone(t *testing.T) {
	cfg := Config{Aliases: map[string]string{"ll": "ls -la"}}
	in := []token.Token{token.Lit("echo"), token.Lit("hi")}

	out := cfg.Expand(in)
	assert.Equal(t, in, out)
}

func TestApplyPathPrependsDirectories(t *testing.T) {
	old := os.Getenv("PATH")
	defer os.Setenv("PATH", old)
	os.Setenv("PATH", "/usr/bin")

	cfg := Config{ExtraPath: []string{"/opt/a", "/opt/b"}}
	require.NoError(t, cfg.ApplyPath())
	assert.Equal(t, "/opt/a:/opt/b:/usr/bin", os.Getenv("PATH"))
}
