package export

import (
	"github.com/disiqueira/gotree/v3"

	"github.com/pstuifzand/foldertree/internal/cache"
)

// Tree renders the visible tree with box-drawing branches
func Tree(v View, names Names, opts Options) string {
	rootLabel := opts.Title
	if rootLabel == "" {
		rootLabel = "."
	}
	t := gotree.New(rootLabel)
	if root := v.Root(); root != nil {
		for _, child := range root.Children {
			addNode(t, child, names, opts)
		}
	}
	return t.Print()
}

func addNode(parent gotree.Tree, n *cache.Node, names Names, opts Options) {
	branch := parent.Add(marker(opts, n.Collection) + label(names, n.Collection, opts))
	for _, child := range n.Children {
		addNode(branch, child, names, opts)
	}
	for _, leaf := range n.Leaves {
		branch.Add(marker(opts, leaf) + label(names, leaf, opts))
	}
}
