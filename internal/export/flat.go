package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pstuifzand/foldertree/internal/model"
)

// Flat writes the flat list one node per line: index, marker, full path and
// kind, with the path column aligned on display width.
func Flat(w io.Writer, v View, names Names, opts Options) error {
	flat := v.Flat()
	paths := make([]string, len(flat))
	width := 0
	for i, h := range flat {
		p := names.FullPath(h)
		if h == model.RootHandle {
			p = "/"
		}
		if opts.Width > 0 {
			p = runewidth.Truncate(p, opts.Width, "…")
		}
		paths[i] = p
		width = max(width, runewidth.StringWidth(p))
	}

	var sb strings.Builder
	for i, h := range flat {
		kind, _ := names.Kind(h)
		fmt.Fprintf(&sb, "%4d %s%s  %s\n", i, marker(opts, h), runewidth.FillRight(paths[i], width), kind)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func marker(opts Options, h model.Handle) string {
	if opts.Marked == nil {
		return ""
	}
	if opts.marked(h) {
		return "* "
	}
	return "  "
}
