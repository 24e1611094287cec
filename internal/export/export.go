// Package export renders the filtered view of a tree as text.
package export

import (
	"fmt"

	"github.com/pstuifzand/foldertree/internal/cache"
	"github.com/pstuifzand/foldertree/internal/debug"
	"github.com/pstuifzand/foldertree/internal/model"
)

// View is the read side of a filter cache
type View interface {
	Root() *cache.Node
	Flat() []model.Handle
}

// Names resolves what renderers show for a node, normally a *model.Tree
type Names interface {
	Kind(h model.Handle) (model.Kind, bool)
	Name(h model.Handle) string
	FullPath(h model.Handle) string
	IsExpanded(h model.Handle) bool
	Style(h model.Handle) model.Style
}

// Options tune the renderers. The zero value renders plain names.
type Options struct {
	// Title is written as a heading by Markdown
	Title string
	// Describe replaces the name of leaves
	Describe func(model.Handle) string
	// Marked flags nodes, typically the selection
	Marked func(model.Handle) bool
	// Color renders collection colors as 24-bit terminal escapes
	Color bool
	// Width caps the path column of Flat; 0 means no cap
	Width int
}

func (o Options) marked(h model.Handle) bool {
	return o.Marked != nil && o.Marked(h)
}

// label is the display text of h: icon, name and a marker for collapsed
// collections
func label(names Names, h model.Handle, o Options) string {
	kind, _ := names.Kind(h)
	if kind == model.KindLeaf {
		if o.Describe != nil {
			return o.Describe(h)
		}
		return names.Name(h)
	}

	style := names.Style(h)
	text := names.Name(h)
	if style.Icon != "" {
		text = style.Icon + " " + text
	}
	if !names.IsExpanded(h) {
		text += " [+]"
	}
	if o.Color {
		text = colorize(text, style)
	}
	return text
}

func colorize(text string, style model.Style) string {
	if style.HasColor {
		r, g, b := style.Color.RGB255()
		text = fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", r, g, b, text)
	}
	if style.HasBack {
		r, g, b := style.Background.RGB255()
		text = fmt.Sprintf("\x1b[48;2;%d;%d;%dm%s\x1b[0m", r, g, b, text)
	}
	return text
}

// Dump returns a structural dump of the cache tree for debugging
func Dump(v View) string {
	return debug.Sdump(v.Root())
}
