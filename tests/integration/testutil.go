// Package integration runs the tnfpkg binary end to end against
// throwaway configuration directories and GeoPackage files.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// tnfpkgBin is the path to the built tnfpkg binary.
	tnfpkgBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot walks up from the working directory to the directory
// holding go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// TestEnv is an isolated configuration directory plus a directory for
// dataset files.
type TestEnv struct {
	t       *testing.T
	Config  string
	DataDir string
}

// NewTestEnv creates a test environment. config, when non-empty, is
// written to config.yaml; otherwise the binary writes its defaults.
func NewTestEnv(t *testing.T, config string) *TestEnv {
	t.Helper()
	if buildErr != nil {
		t.Fatalf("failed to build tnfpkg: %v", buildErr)
	}
	if tnfpkgBin == "" {
		t.Fatal("tnfpkg binary not built")
	}

	tempDir := t.TempDir()
	env := &TestEnv{
		t:       t,
		Config:  filepath.Join(tempDir, "config"),
		DataDir: filepath.Join(tempDir, "data"),
	}
	for _, dir := range []string{env.Config, env.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}
	if config != "" {
		if err := os.WriteFile(filepath.Join(env.Config, "config.yaml"), []byte(config), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	return env
}

// Path returns the location of a dataset file inside the environment.
func (e *TestEnv) Path(name string) string {
	return filepath.Join(e.DataDir, name)
}

// CmdResult holds the result of one tnfpkg invocation.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes tnfpkg with the environment's config directory.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()
	cmd := exec.Command(tnfpkgBin, append([]string{"--config-dir", e.Config}, args...)...)
	cmd.Env = append(os.Environ(), "TNF_TEMPLATE=")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			e.t.Fatalf("failed to run tnfpkg: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return CmdResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
}

// MustRun executes tnfpkg and fails the test on a non-zero exit.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	res := e.Run(args...)
	if res.ExitCode != 0 {
		e.t.Fatalf("tnfpkg %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, res.ExitCode, res.Stdout, res.Stderr)
	}
	return res
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var out T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", s, err)
	}
	return out
}

// Info mirrors the JSON printed by "tnfpkg info".
type Info struct {
	Path             string            `json:"path"`
	SRID             int               `json:"srid"`
	HasTopologyLevel bool              `json:"has_topology_level"`
	Tables           int               `json:"tables"`
	Digest           string            `json:"schema_digest"`
	Metadata         map[string]string `json:"metadata"`
}

// Created mirrors the JSON printed by "tnfpkg create".
type Created struct {
	Path       string `json:"path"`
	SRID       int    `json:"srid"`
	Identifier string `json:"dataset_identifier"`
	Type       string `json:"dataset_type"`
	Template   string `json:"template"`
	Digest     string `json:"schema_digest"`
}

// Table mirrors one entry printed by "tnfpkg tables".
type Table struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
	Rows   int64  `json:"rows"`
}
