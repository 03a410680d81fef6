package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProject writes a config, a data tree with one node and returns the
// config path and the tree path.
func setupProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	tree := filepath.Join(dir, "nodes")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "plant"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "plant", "pump.yaml"),
		[]byte("TITLE: Pump\nspeed: 10\nobsolete: true\ngrid: [1, 2]\n"), 0644))

	config := filepath.Join(dir, "nodeattr.yaml")
	require.NoError(t, os.WriteFile(config, []byte("root: nodes\nlog:\n  level: error\n"), 0644))
	return config, tree
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	showJSON, showMatch, exportOutput, checkWatch, applyCreate = false, "", "", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNodesCommand(t *testing.T) {
	config, _ := setupProject(t)

	out, err := run(t, "--config", config, "nodes")
	require.NoError(t, err)
	assert.Equal(t, "plant/pump\n", out)

	out, err = run(t, "--config", config, "nodes", "office/*")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestShowCommand(t *testing.T) {
	config, _ := setupProject(t)

	out, err := run(t, "--config", config, "show", "plant/pump", "--match", "s*")
	require.NoError(t, err)
	assert.Contains(t, out, "speed")
	assert.NotContains(t, out, "obsolete")

	out, err = run(t, "--config", config, "show", "plant/pump", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "TITLE"`)
	assert.Contains(t, out, `"multidim": true`)

	_, err = run(t, "--config", config, "show", "plant/ghost")
	assert.Error(t, err)
}

func TestCheckAndApplyCommands(t *testing.T) {
	config, tree := setupProject(t)
	dir := filepath.Dir(config)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
attributes:
  - name: speed
    value: 70000
    type: uint16
`), 0644))

	out, err := run(t, "--config", config, "check", "plant/pump", bad)
	require.Error(t, err)
	assert.Contains(t, out, `"speed" value is out of range.`)

	out, err = run(t, "--config", config, "apply", "plant/pump", bad)
	require.Error(t, err)
	before, _ := os.ReadFile(filepath.Join(tree, "plant", "pump.yaml"))
	assert.Contains(t, string(before), "obsolete")

	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte("name,value,type,multidim\nspeed,1500,uint16,\ngrid,\"[1, 2]\",array,true\n"), 0644))

	out, err = run(t, "--config", config, "check", "plant/pump", good)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	out, err = run(t, "--config", config, "apply", "plant/pump", good)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted TITLE\n")
	assert.Contains(t, out, "deleted obsolete\n")
	assert.Contains(t, out, "written speed\n")

	after, err := os.ReadFile(filepath.Join(tree, "plant", "pump.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(after), "obsolete")
	assert.NotContains(t, string(after), "TITLE")
	assert.Contains(t, string(after), "speed: 1500")
}

func TestExportCommand(t *testing.T) {
	config, _ := setupProject(t)
	target := filepath.Join(filepath.Dir(config), "pump.json")

	_, err := run(t, "--config", config, "export", "plant/pump", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Pump"`)

	// An unmodified export applies cleanly.
	out, err := run(t, "--config", config, "apply", "plant/pump", target)
	require.NoError(t, err)
	assert.NotContains(t, out, "deleted")
}

func TestVersionCommand(t *testing.T) {
	config, _ := setupProject(t)
	out, err := run(t, "--config", config, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nodeattr version ")
}
