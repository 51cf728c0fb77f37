package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sortFixture = `name: cli
cases:
  - name: sort
    this: [3, 1, 2]
    method: sort
    after: [1, 2, 3]
  - name: grow
    this: {a: 1, list: [1]}
    method: hasOwnProperty
    args: [list]
    result: true
`

func setup(t *testing.T) (configPath, fixturePath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "avmcore.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"[storage]\npath = '"+filepath.Join(dir, "snapshots.db")+"'\ntimeout = '1s'\n"), 0o644))
	fixturePath = filepath.Join(dir, "cli.yaml")
	require.NoError(t, os.WriteFile(fixturePath, []byte(sortFixture), 0o644))
	return configPath, fixturePath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	configPath, fixturePath := setup(t)
	out, err := execute(t, "-c", configPath, "run", fixturePath)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   cli/sort")
	assert.Contains(t, out, "ok   cli/grow")
}

func TestRunReportsFailures(t *testing.T) {
	configPath, _ := setup(t)
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`name: bad
cases:
  - name: wrong
    this: [1]
    method: pop
    result: 2
`), 0o644))
	out, err := execute(t, "-c", configPath, "run", bad)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL bad/wrong")
	assert.Contains(t, out, "Mismatch Error at")
}

func TestSnapshotLifecycle(t *testing.T) {
	configPath, fixturePath := setup(t)

	out, err := execute(t, "-c", configPath, "snapshot", "save", "state", fixturePath, "--case", "grow")
	require.NoError(t, err)
	assert.Contains(t, out, "saved state: 2 object(s)")

	out, err = execute(t, "-c", configPath, "snapshot", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "state")

	out, err = execute(t, "-c", configPath, "snapshot", "show", "state")
	require.NoError(t, err)
	assert.Equal(t, "{a: 1, list: [1]}\n", out)

	_, err = execute(t, "-c", configPath, "snapshot", "save", "other", fixturePath, "--case", "missing")
	assert.Error(t, err)

	_, err = execute(t, "-c", configPath, "snapshot", "delete", "state")
	require.NoError(t, err)
	_, err = execute(t, "-c", configPath, "snapshot", "show", "state")
	assert.Error(t, err)
}

func TestVersionOverride(t *testing.T) {
	configPath, _ := setup(t)
	legacy := filepath.Join(t.TempDir(), "legacy.yaml")
	require.NoError(t, os.WriteFile(legacy, []byte(`name: legacy
cases:
  - name: join
    this: [1, !undefined ]
    method: join
    result: "1,"
`), 0o644))
	_, err := execute(t, "-c", configPath, "run", legacy)
	assert.Error(t, err)
	_, err = execute(t, "-c", configPath, "--swf-version", "6", "run", legacy)
	assert.NoError(t, err)
}
