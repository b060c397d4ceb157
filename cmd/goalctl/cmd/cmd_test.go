package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestRun_CreatesGoalAndWritesExport(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, RunCmd(), "--format", "json", "--out", dir, "I want to build a weekly exercise routine")
	require.NoError(t, err)

	assert.Contains(t, out, "Perfect! I've created a goal profile for you.")
	assert.Contains(t, out, "outcome: exported")
	assert.Contains(t, out, "Weekly Exercise Routine (weekly_exercise)")

	files, err := filepath.Glob(filepath.Join(dir, "goalcoach-goals-*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "I want to build a weekly exercise routine"`)
}

func TestRun_NeedsMoreInfo(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, RunCmd(), "--out", dir, "I want to get fit")
	require.NoError(t, err)
	assert.Contains(t, out, "outcome: needs_info")

	files, _ := filepath.Glob(filepath.Join(dir, "*"))
	assert.Empty(t, files)
}

func TestRun_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, RunCmd(), "--format", "docx", "I want to read more")
	assert.Error(t, err)
}

func TestExport_ConvertsJSONProfile(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, RunCmd(), "--format", "json", "--out", dir, "I want to build a weekly exercise routine")
	require.NoError(t, err)
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	out, err := execute(t, ExportCmd(), "--in", files[0], "--format", "csv", "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "I want to build a weekly exercise routine")
}

func TestExport_SingleGoal(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "goal.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"id":"g1","title":"Read 12 books","type":"yearly","status":"active","priority":"medium","startDate":"2025-01-01T00:00:00Z","targetValue":12,"currentValue":3,"unit":"books","milestones":[],"tags":[],"createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-01-01T00:00:00Z"}`), 0644))
	outFile := filepath.Join(dir, "goal.md")

	out, err := execute(t, ExportCmd(), "--in", in, "--out", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 goal(s)")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Read 12 books")
}

func TestExport_RequiresInput(t *testing.T) {
	_, err := execute(t, ExportCmd())
	assert.Error(t, err)
}

func TestDecodeProfile(t *testing.T) {
	p, err := decodeProfile([]byte(`[{"id":"a","title":"A"},{"id":"b","title":"B"}]`))
	require.NoError(t, err)
	assert.Len(t, p.Goals, 2)

	p, err = decodeProfile([]byte(`{"userContext":{"name":"Sam"},"goals":[{"id":"a","title":"A"}],"version":"1.0"}`))
	require.NoError(t, err)
	require.Len(t, p.Goals, 1)
	require.NotNil(t, p.UserContext)
	assert.Equal(t, "Sam", p.UserContext.Name)

	_, err = decodeProfile([]byte("  "))
	assert.Error(t, err)
}

func TestTemplates_Lists(t *testing.T) {
	out, err := execute(t, TemplatesCmd())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "habit_tracker"))
	assert.True(t, strings.HasPrefix(lines[2], "weekly_exercise"))
	assert.True(t, strings.HasPrefix(lines[3], "monthly_reading"))
}
