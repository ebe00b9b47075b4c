package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "catalog/testdata/hexagon_mini.json"

func runWrangle(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--catalog", fixture}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildWritesSnapshot(t *testing.T) {
	name := filepath.Join(t.TempDir(), "model.json")

	_, err := runWrangle(t, "build", "--snapshot", name)
	require.NoError(t, err)
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"X2_AUTOJOIN_SA1_addi_SL2_jumpr31"`)

	info, err := os.Stat(name)
	require.NoError(t, err)
	_, err = runWrangle(t, "build", "--snapshot", name)
	require.NoError(t, err)
	again, err := os.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime(), "an unchanged snapshot is not rewritten")
}

func TestDiff(t *testing.T) {
	name := filepath.Join(t.TempDir(), "model.json")
	_, err := runWrangle(t, "build", "--snapshot", name)
	require.NoError(t, err)

	out, err := runWrangle(t, "diff", "--previous", name)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	stale := strings.Replace(string(data), "jumpr r31", "jumpr r30", 1)
	require.NoError(t, os.WriteFile(name, []byte(stale), 0644))

	out, err = runWrangle(t, "diff", "--previous", name)
	assert.True(t, errors.Is(err, errChanged), "got %v", err)
	assert.Contains(t, out, "jumpr r30")
}

func TestTree(t *testing.T) {
	out, err := runWrangle(t, "tree")
	require.NoError(t, err)
	for _, want := range []string{"hexagon", "class 0x5", "IntRegs", "R3 (r3)", "sub-instructions"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "VectRegRev")
}

func TestDump(t *testing.T) {
	out, err := runWrangle(t, "dump")
	require.NoError(t, err)
	assert.Contains(t, out, "SL2_jumpr31")
}

func TestBadInputs(t *testing.T) {
	_, err := runWrangle(t, "--log-level", "loud", "build")
	assert.Error(t, err)

	_, err = runWrangle(t, "--catalog", "testdata/missing.json", "build")
	assert.Error(t, err)

	cfg := filepath.Join(t.TempDir(), "wrangle.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[duplex]\nhigh_shfit = 8\n"), 0644))
	_, err = runWrangle(t, "--config", cfg, "build")
	assert.Error(t, err)
}
