package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlan = `
sites:
  - siteId: S1
    priority: 1
    isActive: true
    currentTask: DR
    firings: 2
tasks:
  - taskId: DR
    order: 1
    uom: fixed
    taskDuration: 120
  - taskId: CH
    order: 2
    uom: fixed
    taskDuration: 60
`

func setup(t *testing.T) (cfgFile, planFile string) {
	t.Helper()
	dir := t.TempDir()
	planFile = filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(planFile, []byte(testPlan), 0o644))
	cfgFile = filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("planning:\n  plan_file: %q\n  grid_hours: 6\nhistory:\n  path: %q\n",
		planFile, filepath.Join(dir, "schedules.jsonl"))
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))
	return cfgFile, planFile
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerateAndHistory(t *testing.T) {
	cfgFile, _ := setup(t)

	out, errOut, err := execute(t, "generate", "-c", cfgFile, "--format", "csv", "--summary", "--by", "tester")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Priority,Site,Status,Hour 1,Hour 2,Hour 3,Hour 4,Hour 5,Hour 6", lines[0])
	assert.Equal(t, "1,S1,Active,DR,DR,CH,DR,DR,CH", lines[1])
	assert.Contains(t, errOut, "S1")

	out, _, err = execute(t, "history", "ls", "-c", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "tester")
	assert.Contains(t, out, "1 schedules")

	out, _, err = execute(t, "history", "show", "latest", "-c", cfgFile, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"generatedBy": "tester"`)
}

func TestGenerateWritesFile(t *testing.T) {
	cfgFile, _ := setup(t)
	dest := filepath.Join(t.TempDir(), "out.json")

	_, _, err := execute(t, "generate", "-c", cfgFile, "--format", "json", "--out", dest, "--hours", "3")
	require.NoError(t, err)
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"gridHours": 3`)
}

func TestGenerateUnknownFormat(t *testing.T) {
	cfgFile, _ := setup(t)
	_, _, err := execute(t, "generate", "-c", cfgFile, "--format", "xlsx", "--out", "", "--hours", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	out, _, err := execute(t, "history", "ls", "-c", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "0 schedules")
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"", "json", "csv", "html"} {
		assert.NoError(t, checkFormat(f), f)
	}
	assert.Error(t, checkFormat("xlsx"))
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, _, err := execute(t, "history", "ls", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
