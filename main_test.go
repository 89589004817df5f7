package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chapterize/config"
	"chapterize/ffmetadata"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLabelsCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "labels.txt")
	dst := filepath.Join(dir, "chapters.txt")
	require.NoError(t, os.WriteFile(src, []byte("0\t60\tOne\n60\t90.5\tTwo\n"), 0644))

	out, err := execute(t, "labels", src, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 chapters")

	doc, err := ffmetadata.ParseFile(dst)
	require.NoError(t, err)
	require.Len(t, doc.Chapters, 2)
	assert.Nil(t, doc.Tags)
	assert.Equal(t, int64(90_500_000_000), doc.Chapters[1].EndUnits)
}

func TestLabelsCommand_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(src, []byte("0\t1\tOnly\n"), 0644))

	_, err := execute(t, "labels", src)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "FFMETADATA.txt"))
}

func TestLabelsCommand_RequiresFile(t *testing.T) {
	_, err := execute(t, "labels")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chapterize.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Output, cfg.Output)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")
}

func TestBuild_MissingSource(t *testing.T) {
	_, err := execute(t, "build", filepath.Join(t.TempDir(), "missing"), "--config", writeEmptyConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

// writeEmptyConfig keeps tests independent of config files on the machine.
func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}
