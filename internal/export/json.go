package export

import (
	"io"

	json "github.com/goccy/go-json"

	"github.com/pstuifzand/foldertree/internal/cache"
	"github.com/pstuifzand/foldertree/internal/model"
)

type jsonNode struct {
	Handle   int        `json:"handle"`
	Kind     string     `json:"kind"`
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Label    string     `json:"label,omitempty"`
	Expanded bool       `json:"expanded,omitempty"`
	Marked   bool       `json:"marked,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

// JSON writes the visible tree as an indented JSON document rooted at the
// root collection.
func JSON(w io.Writer, v View, names Names, opts Options) error {
	opts.Color = false
	var doc jsonNode
	if root := v.Root(); root != nil {
		doc = toJSON(root, names, opts)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toJSON(n *cache.Node, names Names, opts Options) jsonNode {
	out := collectionJSON(n.Collection, names, opts)
	for _, child := range n.Children {
		out.Children = append(out.Children, toJSON(child, names, opts))
	}
	for _, leaf := range n.Leaves {
		out.Children = append(out.Children, leafJSON(leaf, names, opts))
	}
	return out
}

func collectionJSON(h model.Handle, names Names, opts Options) jsonNode {
	kind, _ := names.Kind(h)
	return jsonNode{
		Handle:   int(h),
		Kind:     kind.String(),
		Name:     names.Name(h),
		Path:     names.FullPath(h),
		Expanded: names.IsExpanded(h),
		Marked:   opts.marked(h),
	}
}

func leafJSON(h model.Handle, names Names, opts Options) jsonNode {
	n := jsonNode{
		Handle: int(h),
		Kind:   model.KindLeaf.String(),
		Name:   names.Name(h),
		Path:   names.FullPath(h),
		Marked: opts.marked(h),
	}
	if opts.Describe != nil {
		n.Label = opts.Describe(h)
	}
	return n
}
