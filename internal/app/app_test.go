package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/foldertree/internal/config"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple command",
			input:    "print",
			expected: []string{"print"},
		},
		{
			name:     "command with arguments",
			input:    "select Work/Notes",
			expected: []string{"select", "Work/Notes"},
		},
		{
			name:     "double quoted string",
			input:    `export markdown "my file.md"`,
			expected: []string{"export", "markdown", "my file.md"},
		},
		{
			name:     "single quoted string",
			input:    "export markdown 'my file.md'",
			expected: []string{"export", "markdown", "my file.md"},
		},
		{
			name:     "escaped quotes",
			input:    `filter "value with \"quotes\""`,
			expected: []string{"filter", `value with "quotes"`},
		},
		{
			name:     "escaped backslash",
			input:    `export markdown "C:\\Users\\test"`,
			expected: []string{"export", "markdown", `C:\Users\test`},
		},
		{
			name:     "tabs and spaces",
			input:    "command\twith\t  mixed",
			expected: []string{"command", "with", "mixed"},
		},
		{
			name:     "empty quoted string",
			input:    `filter ""`,
			expected: []string{"filter", ""},
		},
		{
			name:     "empty input",
			input:    "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCommand(tt.input))
		})
	}
}

type fixture struct {
	work, inbox, notes string
	out               *bytes.Buffer
	app               *App
}

// newFixture lays out Work (group) > {Inbox (folder), Notes (folder)} backed
// by two temporary directories
func newFixture(t *testing.T, format string) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		inbox: filepath.Join(base, "inbox"),
		notes: filepath.Join(base, "notes"),
		out:   &bytes.Buffer{},
	}
	writeFile(t, filepath.Join(f.inbox, "todo.md"))
	writeFile(t, filepath.Join(f.inbox, "idea.md"))
	writeFile(t, filepath.Join(f.notes, "plan.md"))

	cfg, err := config.Parse([]byte(fmt.Sprintf(`
[[group]]
id = 1
name = "Work"
expanded = true

[[folder]]
id = 2
name = "Inbox"
parent = 1
dir = %q
expanded = true

[[folder]]
id = 3
name = "Notes"
parent = 1
dir = %q
expanded = true
`, f.inbox, f.notes)))
	require.NoError(t, err)

	f.app, err = NewApp(cfg, Options{Out: f.out, Format: format})
	require.NoError(t, err)
	require.NoError(t, f.app.Scan(context.Background()))
	t.Cleanup(func() { f.app.Close() })
	return f
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func (f *fixture) run(t *testing.T, commands ...string) string {
	t.Helper()
	f.out.Reset()
	in := strings.NewReader(strings.Join(commands, "\n") + "\n")
	require.NoError(t, f.app.Run(context.Background(), in))
	return f.out.String()
}

func TestNewAppRejectsUnknownFormat(t *testing.T) {
	_, err := NewApp(&config.Config{}, Options{Format: "html"})
	assert.Error(t, err)
}

func TestRunRendersFlatList(t *testing.T) {
	f := newFixture(t, FormatFlat)
	out := f.run(t)
	for _, p := range []string{"Work/Inbox", "Work/Inbox/idea.md", "Work/Inbox/todo.md", "Work/Notes/plan.md"} {
		assert.Contains(t, out, p)
	}
}

func TestFilterCommand(t *testing.T) {
	f := newFixture(t, FormatFlat)
	out := f.run(t, "filter plan")

	last := out[strings.LastIndex(out, "   0 "):]
	assert.Contains(t, last, "Work/Notes/plan.md")
	assert.NotContains(t, last, "todo.md")
}

func TestSelectionAndMoveLeaves(t *testing.T) {
	f := newFixture(t, FormatFlat)
	out := f.run(t,
		"select Work/Inbox/idea.md",
		"ctrl Work/Inbox/todo.md",
		"selection",
		"move Work/Notes",
	)
	assert.Contains(t, out, "2 selected, moving 0 collections and 2 leaves")
	assert.Contains(t, out, "-- Moved to Work/Notes")

	_, err := os.Stat(filepath.Join(f.notes, "todo.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.inbox, "idea.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	out = f.run(t, "print")
	assert.Contains(t, out, "Work/Notes/idea.md")
	assert.NotContains(t, out, "Work/Inbox/idea.md")
}

func TestMoveCarriedLeavesDropped(t *testing.T) {
	f := newFixture(t, FormatFlat)
	out := f.run(t,
		"select Work/Inbox",
		"ctrl Work/Inbox/todo.md",
		"selection",
	)
	assert.Contains(t, out, "moving 1 collections and 0 leaves: Work/Inbox")
}

func TestInvalidMove(t *testing.T) {
	f := newFixture(t, FormatFlat)
	out := f.run(t, "select Work/Inbox", "move Work/Notes")
	assert.Contains(t, out, "-- Cannot move the selection into Work/Notes")

	out = f.run(t, "move Nowhere")
	assert.Contains(t, out, "-- No such node: Nowhere")
}

func TestCollapseAndFormat(t *testing.T) {
	f := newFixture(t, FormatTree)
	out := f.run(t, "collapse Work/Inbox", "format markdown")

	md := out[strings.LastIndex(out, "- Work"):]
	assert.Contains(t, md, "  - Inbox [+]\n")
	assert.NotContains(t, md, "todo.md")
	assert.Contains(t, md, "    - plan.md\n")
}

func TestExportCommand(t *testing.T) {
	f := newFixture(t, FormatTree)
	path := filepath.Join(t.TempDir(), "view.md")
	out := f.run(t, "export markdown "+path)
	assert.Contains(t, out, "-- Exported to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "- Work\n  - Inbox\n"), string(data))
}

func TestRescanPicksUpNewFiles(t *testing.T) {
	f := newFixture(t, FormatFlat)
	writeFile(t, filepath.Join(f.notes, "new.md"))
	out := f.run(t, "rescan Work/Notes")
	assert.Contains(t, out, "Work/Notes/new.md")
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, FormatFlat)
	out := f.run(t, "frobnicate", "quit", "print")
	assert.Contains(t, out, "-- Unknown command: frobnicate")
	assert.True(t, f.app.quit)
}

func TestWatchRerendersOnChange(t *testing.T) {
	f := newFixture(t, FormatFlat)
	f.app.opts.Watch = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pw.Close()

	var out syncBuffer
	f.app.out = &out
	go func() { done <- f.app.Run(ctx, pr) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "plan.md") }, 2*time.Second, 10*time.Millisecond)
	writeFile(t, filepath.Join(f.notes, "later.md"))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Work/Notes/later.md") }, 4*time.Second, 20*time.Millisecond)

	_, err = pw.WriteString("quit\n")
	require.NoError(t, err)
	require.NoError(t, <-done)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
