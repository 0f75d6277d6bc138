// Package config loads the shell's optional startup file: a small set
// of command aliases and extra PATH directories. Every complete shell
// in the retrieval pack carries some YAML-driven config
// (josephlewis42-honeyssh's Configuration, Upendra-23-cmd-BlockCI-q's
// pipeline config), so this follows the same shape with
// gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"myshell/internal/token"
)

// Config is the shape of ~/.myshellrc.yaml.
type Config struct {
	// Aliases maps a literal argv[0] word to its expansion, e.g.
	// {"ll": "ls -la"}. Expansion is a single literal substitution,
	// not macro/variable scripting — it happens before tokens reach
	// the job-control engine at all.
	Aliases map[string]string `yaml:"aliases"`
	// ExtraPath lists additional directories prepended to $PATH at
	// startup.
	ExtraPath []string `yaml:"extra_path"`
}

// DefaultPath returns the default rc file location, $HOME/.myshellrc.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".myshellrc.yaml")
}

// Load reads and parses path. A missing file is not an error: Load
// returns the zero Config, matching the original's lack of any
// required startup file.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyPath prepends ExtraPath to the process's $PATH, in order, so
// external-command lookup (via os/exec's PATH search) finds them
// first.
func (c Config) ApplyPath() error {
	if len(c.ExtraPath) == 0 {
		return nil
	}
	existing := os.Getenv("PATH")
	dirs := append(append([]string{}, c.ExtraPath...), existing)
	return os.Setenv("PATH", joinPath(dirs))
}

func joinPath(dirs []string) string {
	out := ""
	for i, d := range dirs {
		if d == "" {
			continue
		}
		if out != "" {
			out += ":"
		}
		out += d
		_ = i
	}
	return out
}

// Expand substitutes a leading alias word with its literal expansion,
// e.g. "ll" -> "ls -la", splicing the expanded words in front of the
// rest of the token stream. This is a single literal substitution,
// applied once, with no recursion and no variables — an ambient
// shell convenience, not scripting.
func (c Config) Expand(tokens []token.Token) []token.Token {
	if len(tokens) == 0 || tokens[0].Kind != token.Literal {
		return tokens
	}
	expansion, ok := c.Aliases[tokens[0].Value]
	if !ok {
		return tokens
	}
	words := strings.Fields(expansion)
	out := make([]token.Token, 0, len(words)+len(tokens)-1)
	for _, w := range words {
		out = append(out, token.Lit(w))
	}
	return append(out, tokens[1:]...)
}
