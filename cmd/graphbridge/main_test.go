package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/graphbridge/internal/cli"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_Tree(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, &bytes.Buffer{}, nil))
	assert.Contains(t, out.String(), "Math/\n")
	assert.Contains(t, out.String(), "  Sign (Math.Sign)\n")
	assert.Contains(t, out.String(), "Text/\n")
}

func TestRun_Search(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, &bytes.Buffer{}, []string{"-search", "div"}))
	assert.Equal(t, "Math.DivMod\tMath/Integer/Div Mod\tmethod\n", out.String())
}

func TestRun_Dump(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, &bytes.Buffer{}, []string{"-dump"}))
	assert.Contains(t, out.String(), `descriptor "Text.Separator#set" {`)
}

func TestRun_BrokenManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`node "Math.Sign" {`), 0o600))

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load manifests")
}

func TestRun_StrictFailsOnMemberErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "extra.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
node "Math.Missing" {
  menu_path = "Math/Missing"
}
`), 0o600))

	errW := &bytes.Buffer{}
	err := run(context.Background(), &bytes.Buffer{}, errW, []string{"-strict", path})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, errW.String(), "Math.Missing")

	err = run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{path})
	assert.NoError(t, err)
}
