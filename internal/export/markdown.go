package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pstuifzand/foldertree/internal/cache"
	"github.com/pstuifzand/foldertree/internal/model"
)

// ExportToMarkdown writes the visible tree to a markdown file as a nested
// unordered list.
func ExportToMarkdown(v View, names Names, opts Options, filePath string) error {
	var sb strings.Builder
	if err := Markdown(&sb, v, names, opts); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown file: %w", err)
	}
	return nil
}

// Markdown writes the visible tree as bullets, two spaces per level. Marked
// nodes are bold.
func Markdown(w io.Writer, v View, names Names, opts Options) error {
	var sb strings.Builder
	if opts.Title != "" {
		sb.WriteString("# ")
		sb.WriteString(opts.Title)
		sb.WriteString("\n\n")
	}
	opts.Color = false

	if root := v.Root(); root != nil {
		for _, child := range root.Children {
			writeNodeAsMarkdown(&sb, child, names, opts, 0)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeNodeAsMarkdown(sb *strings.Builder, n *cache.Node, names Names, opts Options, depth int) {
	writeBullet(sb, n.Collection, names, opts, depth)
	for _, child := range n.Children {
		writeNodeAsMarkdown(sb, child, names, opts, depth+1)
	}
	for _, leaf := range n.Leaves {
		writeBullet(sb, leaf, names, opts, depth+1)
	}
}

func writeBullet(sb *strings.Builder, h model.Handle, names Names, opts Options, depth int) {
	text := label(names, h, opts)
	if strings.TrimSpace(text) == "" {
		text = "(unnamed)"
	}
	if opts.marked(h) {
		text = "**" + text + "**"
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	sb.WriteString(text)
	sb.WriteString("\n")
}
