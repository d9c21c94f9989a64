package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vast-data/go-invoke/codegen"
	"github.com/vast-data/go-invoke/core"
	"github.com/vast-data/go-invoke/manifest"
)

const jobsSource = `package jobs

import "context"

type Foo struct{}

// +invoke:method:returnType=int
func (f *Foo) Bar() int { return 1 }

type Baz struct{}

// +invoke:method
func (b Baz) Qux(ctx context.Context, name string) (string, error) { return name, nil }
`

const misplacedSource = `package jobs

// +invoke:method
func Orphan() {}
`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "invokectl "+core.Version()+"\n", out)
}

func TestScanTable(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)

	out, err := run(t, "scan", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Foo")
	assert.Contains(t, out, "Bar")
	assert.Contains(t, out, "Baz")
	assert.Contains(t, out, "Qux")
	assert.Contains(t, out, "int")
}

func TestScanJSON(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)

	out, err := run(t, "scan", "-o", "json", "--module", "example.com/jobs", dir)
	require.NoError(t, err)

	var m manifest.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "example.com/jobs", m.Module)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, "Baz", m.Entries[0].Component)
	assert.Equal(t, "any", m.Entries[0].ReturnType)
	assert.Equal(t, "Foo", m.Entries[1].Component)
	assert.Equal(t, "int", m.Entries[1].ReturnType)
}

func TestScanSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "jobs.go", jobsSource)

	out, err := run(t, "scan", "-o", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "component: Foo")
	assert.Contains(t, out, "return_type: int")
}

func TestScanMissingPath(t *testing.T) {
	_, err := run(t, "scan", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestScanUnsupportedOutput(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)

	_, err := run(t, "scan", "-o", "xml", dir)
	require.ErrorContains(t, err, `unsupported output format "xml"`)
}

func TestCheckOK(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)

	out, err := run(t, "check", dir)
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 method(s) to invoke\n", out)
}

func TestCheckMisplacedMarker(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)
	writeSource(t, dir, "orphan.go", misplacedSource)

	out, err := run(t, "check", dir)
	require.ErrorContains(t, err, "1 problem(s) found")
	assert.Contains(t, out, "error:")
	assert.Contains(t, out, "only valid on a method")
}

func TestCheckStrictReturnType(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", `package jobs

type Foo struct{}

// +invoke:method:returnType=string
func (f Foo) Bar() int { return 1 }
`)

	out, err := run(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "warning:")
	assert.Contains(t, out, "ok: 1 method(s) to invoke")

	out, err = run(t, "check", "--strict", dir)
	require.ErrorContains(t, err, "1 problem(s) found")
	assert.Contains(t, out, `Foo.Bar declares string but returns "int"`)
}

func TestCheckAgainstManifest(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)
	stored := filepath.Join(t.TempDir(), "invoke.yaml")

	_, err := run(t, "manifest", "--file", stored, dir)
	require.NoError(t, err)

	out, err := run(t, "check", "--manifest", stored, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 2 method(s) to invoke")

	writeSource(t, dir, "runner.go", `package jobs

type Runner struct{}

// +invoke:method
func (r *Runner) Run() error { return nil }
`)
	out, err = run(t, "check", "--manifest", stored, dir)
	require.ErrorContains(t, err, "1 problem(s) found")
	assert.Contains(t, out, "added: jobs.Runner.Run")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)

	out, err := run(t, "generate", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, codegen.DefaultFileName)
	assert.Contains(t, out, "wrote "+path+" (2 method(s))")
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(src), codegen.Header)
	assert.Contains(t, string(src), "func RegisterFooMethodToInvoke(r *core.Registry, c *Foo) error")
	assert.Contains(t, string(src), "func RegisterBazMethodToInvoke(r *core.Registry, c *Baz) error")
}

func TestGenerateDryRun(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)

	out, err := run(t, "generate", "--dry-run", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "package jobs")
	assert.NoFileExists(t, filepath.Join(dir, codegen.DefaultFileName))
}

func TestGenerateRefusesBrokenSources(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)
	writeSource(t, dir, "orphan.go", misplacedSource)

	_, err := run(t, "generate", dir)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, codegen.DefaultFileName))
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)
	stored := filepath.Join(t.TempDir(), "invoke.msgpack")

	out, err := run(t, "manifest", "-f", stored, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 method(s))")

	m, err := manifest.ReadFile(stored)
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)

	out, err = run(t, "manifest", "--read", stored, "-o", "json")
	require.NoError(t, err)
	var shown manifest.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, m.Entries, shown.Entries)
}

func TestManifestUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)

	_, err := run(t, "manifest", "--format", "toml", dir)
	require.ErrorIs(t, err, manifest.ErrUnknownFormat)
}

func TestSchema(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)

	out, err := run(t, "schema", "-o", "json", dir)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/invoke/Foo/Bar")
	assert.Contains(t, paths, "/invoke/Baz/Qux")

	out, err = run(t, "schema", "-o", "yaml", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "openapi: 3.0.3")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output: json\nmodule: example.com/from-config\n"), 0o644))

	out, err := run(t, "--config", cfg, "scan", dir)
	require.NoError(t, err)
	var m manifest.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "example.com/from-config", m.Module)
}

func TestEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "jobs.go", jobsSource)
	t.Setenv("INVOKECTL_OUTPUT", "yaml")

	out, err := run(t, "scan", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "entries:")
}
