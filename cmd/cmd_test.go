package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const courseYAML = `title: Pointers
version: 1.0.0
nodes:
  - id: addr
    difficulty: 1
    effort: 1
    content: gen/addr
  - id: deref
    difficulty: 2
    effort: 1
    content: gen/deref
  - id: nil
    difficulty: 3
    effort: 2
edges:
  - from: addr
    to: deref
  - from: deref
    to: nil
`

const cyclicYAML = `title: Broken
nodes:
  - id: a
  - id: b
edges:
  - from: a
    to: b
  - from: b
    to: a
`

// resetFlags restores every flag to its default so commands can be run
// repeatedly against the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type fixture struct {
	dir    string
	db     string
	course string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	course := filepath.Join(dir, "pointers.yaml")
	require.NoError(t, os.WriteFile(course, []byte(courseYAML), 0o644))
	return &fixture{dir: dir, db: filepath.Join(dir, "data", "noobular.db"), course: course}
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--db", f.db, "--learner", "kim"))
	t.Cleanup(func() { resetFlags(rootCmd) })

	err := rootCmd.Execute()
	resetFlags(rootCmd)
	return out.String(), err
}

func TestValidate(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "validate", f.course)
	require.NoError(t, err)
	assert.Contains(t, out, "Pointers: 3 nodes, 2 edges")

	broken := filepath.Join(f.dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(cyclicYAML), 0o644))
	out, err = f.run(t, "validate", broken)
	require.Error(t, err)
	assert.Contains(t, out, "cycle")
}

func TestGraph(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "graph", f.course)
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[2], "addr"), "first row %q", lines[2])
	assert.Contains(t, out, "3 nodes")

	out, err = f.run(t, "graph", f.course, "--dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "// Pointers\ndigraph"), out)
	assert.Contains(t, out, `label="deref"`)
	assert.Equal(t, 2, strings.Count(out, "->"))
}

func TestAttemptAndNext(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "next", f.course)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "addr\t"), out)

	for range 4 {
		_, err := f.run(t, "attempt", f.course, "addr", "--outcome", "pass")
		require.NoError(t, err)
	}

	out, err = f.run(t, "next", f.course)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "deref\t"), out)

	out, err = f.run(t, "status", f.course)
	require.NoError(t, err)
	assert.Contains(t, out, "1/3 mastered")
	assert.Contains(t, out, "needs deref")

	out, err = f.run(t, "replay", f.course)
	require.NoError(t, err)
	assert.Contains(t, out, "event #4")
}

func TestAttempt_Rejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "attempt", f.course, "ghost", "--outcome", "pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")

	_, err = f.run(t, "attempt", f.course, "addr", "--outcome", "maybe")
	require.Error(t, err)

	_, err = f.run(t, "attempt", f.course, "addr")
	require.Error(t, err, "outcome is required")
}

func TestDiagnose(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "diagnose", f.course, "deref", "addr")
	require.NoError(t, err)
	assert.Contains(t, out, "addr placed at 1.000")
	assert.Contains(t, out, "2 nodes placed")
	assert.Less(t, strings.Index(out, "addr"), strings.Index(out, "deref"))

	out, err = f.run(t, "status", f.course)
	require.NoError(t, err)
	assert.Contains(t, out, "2/3 mastered")

	_, err = f.run(t, "diagnose", f.course, "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "session", "start", f.course, "--budget", "1.5")
	require.NoError(t, err)
	assert.Contains(t, out, "budget 1.5")

	_, err = f.run(t, "session", "start", f.course)
	require.Error(t, err)

	_, err = f.run(t, "attempt", f.course, "addr", "--outcome", "partial", "--effort", "1")
	require.NoError(t, err)

	out, err = f.run(t, "next", f.course, "--budget", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Session complete")

	out, err = f.run(t, "session", "end", f.course)
	require.NoError(t, err)
	assert.Contains(t, out, "1.0 of 1.5 effort spent")

	out, err = f.run(t, "session", "end", f.course)
	require.NoError(t, err)
	assert.Contains(t, out, "No open session")
}

func TestPlan(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "plan", f.course, "--budget", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "addr")
	assert.Contains(t, out, "1 exercises")
}

func TestCourses(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "courses")
	require.NoError(t, err)
	assert.Contains(t, out, "No courses loaded")

	_, err = f.run(t, "next", f.course)
	require.NoError(t, err)
	_, err = f.run(t, "next", f.course)
	require.NoError(t, err)

	out, err = f.run(t, "courses")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "Pointers"))
}

func TestContent(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "content", f.course)
	require.NoError(t, err)
	assert.Contains(t, out, "2 ready, 1 pending, 0 failed")

	contentDir := filepath.Join(f.dir, "content")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "nil.md"), []byte("# nil pointers\n"), 0o644))

	out, err = f.run(t, "content", f.course, "--content-dir", contentDir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 ready, 0 pending, 0 failed")
}

func TestNext_WithContentDir(t *testing.T) {
	f := newFixture(t)
	contentDir := filepath.Join(f.dir, "content")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))

	// Referenced content is ready at once; the lookup for nil runs in the
	// background and never holds up the decision.
	out, err := f.run(t, "next", f.course, "--content-dir", contentDir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "addr\t"), out)

	out, err = f.run(t, "status", f.course, "--content-dir", contentDir)
	require.NoError(t, err)
	assert.Contains(t, out, "0/3 mastered")
}

func TestVersion(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "noobular (devel)\n", out)
}
