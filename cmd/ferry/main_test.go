package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	// keep a developer's own config out of the tests
	dir, err := os.MkdirTemp("", "ferry-config-")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_CONFIG_HOME", dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func ferry(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCopy_SingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	writeFile(t, src, "hello")

	code, _, stderr := ferry(t, "cp", src, dst)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "hello", readFile(t, dst))

	code, _, stderr = ferry(t, "cp", src, dst)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "target already exists")

	writeFile(t, src, "again")
	code, _, _ = ferry(t, "cp", "-f", src, dst)
	assert.Equal(t, 0, code)
	assert.Equal(t, "again", readFile(t, dst))
}

func TestCopy_IntoDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	writeFile(t, a, "A")
	writeFile(t, b, "B")

	code, _, stderr := ferry(t, "cp", "-j", "2", a, b, out)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "A", readFile(t, filepath.Join(out, "a")))
	assert.Equal(t, "B", readFile(t, filepath.Join(out, "b")))
}

func TestCopy_NoTargetDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "x")
	require.NoError(t, os.Mkdir(dst, 0o755))

	code, _, stderr := ferry(t, "cp", "-T", "-f", src, dst)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "x", readFile(t, dst))
}

func TestCopy_MultipleSourcesNeedDirectory(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	writeFile(t, a, "A")

	code, _, stderr := ferry(t, "cp", a, a, filepath.Join(dir, "missing"))
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "is not a directory")
}

func TestCopy_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))
	a := filepath.Join(dir, "a")
	writeFile(t, a, "A")

	code, _, stderr := ferry(t, "cp", a, filepath.Join(dir, "nope"), out)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no such file")
	assert.Equal(t, "A", readFile(t, filepath.Join(out, "a")))
}

// every failed source is reported even when more operations fail than the
// event channel can buffer
func TestCopy_ManyFailuresAllReported(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))
	a := filepath.Join(dir, "a")
	writeFile(t, a, "A")
	promPath := filepath.Join(dir, "ferry.prom")

	const missing = 300
	args := []string{"cp", "-j", "8", "--metrics-file", promPath, a}
	for i := range missing {
		args = append(args, filepath.Join(dir, fmt.Sprintf("missing%03d", i)))
	}
	args = append(args, out)

	code, _, stderr := ferry(t, args...)
	assert.Equal(t, 1, code)
	assert.Equal(t, missing, strings.Count(stderr, "ferry: copy "))
	for i := range missing {
		assert.Contains(t, stderr, fmt.Sprintf("missing%03d", i))
	}
	assert.Equal(t, "A", readFile(t, filepath.Join(out, "a")))

	prom := readFile(t, promPath)
	assert.Contains(t, prom, `ferry_operations_total{op="copy",result="failed"} 300`)
	assert.Contains(t, prom, `ferry_operations_total{op="copy",result="ok"} 1`)
}

func TestCopy_PreserveAndVerify(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "payload")
	old := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, os.Chmod(src, 0o600))
	require.NoError(t, os.Chtimes(src, old, old))

	code, _, stderr := ferry(t, "cp", "-p", "--verify", "-v", src, dst)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "verified 1")

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.True(t, old.Equal(info.ModTime()))
}

func TestCopy_SymlinkNoDereference(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink("target", link))

	code, _, stderr := ferry(t, "cp", "-P", link, filepath.Join(dir, "copy"))
	require.Equal(t, 0, code, stderr)
	got, err := os.Readlink(filepath.Join(dir, "copy"))
	require.NoError(t, err)
	assert.Equal(t, "target", got)
}

func TestCopy_VerboseListsEntities(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.Mkdir(src, 0o755))

	code, stdout, _ := ferry(t, "cp", "-v", src, filepath.Join(dir, "dst"))
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "directory")
}

func TestCopy_InvalidBWLimit(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, src, "x")

	code, _, stderr := ferry(t, "cp", "--bwlimit", "fast", src, filepath.Join(dir, "dst"))
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "invalid --bwlimit")
}

func TestCopy_LogAndMetricsFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	logPath := filepath.Join(dir, "ferry.log")
	promPath := filepath.Join(dir, "ferry.prom")
	writeFile(t, src, "data")

	code, _, stderr := ferry(t, "cp", "--log", logPath, "--metrics-file", promPath, src, filepath.Join(dir, "dst"))
	require.Equal(t, 0, code, stderr)

	var types []string
	for _, line := range strings.Split(strings.TrimSpace(readFile(t, logPath)), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == "ferry.event" {
			types = append(types, rec["type"].(string))
		}
	}
	assert.Equal(t, []string{"OpStarted", "EntityCreated", "OpCompleted"}, types)
	assert.Contains(t, readFile(t, promPath), `ferry_operations_total{op="copy",result="ok"} 1`)
}

func TestCopy_ConfigAndEnvDefaults(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgDir)
	require.NoError(t, os.MkdirAll(filepath.Join(cfgDir, "ferry"), 0o755))
	writeFile(t, filepath.Join(cfgDir, "ferry", "config.toml"), "[defaults]\npreserve = true\n")

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, src, "x")
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, old, old))

	code, _, stderr := ferry(t, "cp", src, filepath.Join(dir, "preserved"))
	require.Equal(t, 0, code, stderr)
	info, err := os.Stat(filepath.Join(dir, "preserved"))
	require.NoError(t, err)
	assert.True(t, old.Equal(info.ModTime()), "config preserve=true copies timestamps")

	t.Setenv("FERRY_PRESERVE", "false")
	code, _, _ = ferry(t, "cp", src, filepath.Join(dir, "plain"))
	require.Equal(t, 0, code)
	info, err = os.Stat(filepath.Join(dir, "plain"))
	require.NoError(t, err)
	assert.False(t, old.Equal(info.ModTime()), "environment overrides the config file")
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "moving")

	code, _, stderr := ferry(t, "mv", "--atomic", src, dst)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "moving", readFile(t, dst))
	_, err := os.Stat(src)
	assert.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, src, "other")
	code, _, stderr = ferry(t, "mv", src, dst)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "target already exists")

	code, _, _ = ferry(t, "mv", "-f", src, dst)
	assert.Equal(t, 0, code)
	assert.Equal(t, "other", readFile(t, dst))
}

func TestEnv(t *testing.T) {
	code, stdout, _ := ferry(t, "env", "-o", "json")
	require.Equal(t, 0, code)
	var r envReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	assert.NotEmpty(t, r.OS)
	assert.GreaterOrEqual(t, r.BufferSize, 16<<10)

	code, stdout, _ = ferry(t, "env", "-o", "yaml")
	require.Equal(t, 0, code)
	var y map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &y))
	assert.Contains(t, y, "copy_file_range")

	code, stdout, _ = ferry(t, "env")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "io_uring:")

	code, stdout, _ = ferry(t, "env", "-o", "json", "--bench", t.TempDir())
	require.Equal(t, 0, code)
	r = envReport{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	require.NotNil(t, r.Benchmark)
	assert.Positive(t, r.Benchmark.SuggestedJobs)

	code, _, stderr := ferry(t, "env", "-o", "xml")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown output format")
}

func TestVersionAndUsage(t *testing.T) {
	code, stdout, _ := ferry(t, "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "ferry dev\n", stdout)

	code, _, _ = ferry(t, "cp", "only-one")
	assert.Equal(t, 2, code)
}

func TestGenDocs(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := ferry(t, "gen-docs", "--dir", dir, "--format", "markdown")
	require.Equal(t, 0, code, stderr)
	_, err := os.Stat(filepath.Join(dir, "ferry_cp.md"))
	assert.NoError(t, err)
}
