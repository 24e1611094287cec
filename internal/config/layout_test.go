package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/foldertree/internal/model"
	"github.com/pstuifzand/foldertree/internal/sortspec"
)

func stringFolders(dirs map[string][]string) FolderSource[string] {
	return func(f FolderConfig) (model.Generator[string], model.LeafFactory[string], error) {
		names, ok := dirs[f.Dir]
		if !ok {
			return nil, nil, errors.New("no such dir")
		}
		gen := func() []string { return names }
		return gen, func(s string) model.LeafInfo { return model.LeafInfo{Name: s} }, nil
	}
}

func TestBuildResolvesParentsInAnyOrder(t *testing.T) {
	cfg, err := Parse([]byte(`
[[group]]
id = 2
name = "Inner"
parent = 1
expanded = true

[[group]]
id = 1
name = "Outer"
priority = 3
icon = "*"
color = "#ff0000"
sort = ["name", "size"]

[[folder]]
id = 5
name = "Files"
parent = 2
dir = "d"
show_if_empty = false
`))
	require.NoError(t, err)

	tree := model.NewTree[string](nil)
	size := sortspec.Step[model.Handle]{Name: "size", Key: func(model.Handle) sortspec.Key { return sortspec.None() }}
	handles, err := Build(cfg, tree, Builder[string]{
		Folders: stringFolders(map[string][]string{"d": {"b", "a"}}),
		Steps:   map[string]sortspec.Step[model.Handle]{"size": size},
	})
	require.NoError(t, err)

	outer, inner, files := handles[1], handles[2], handles[5]
	assert.Equal(t, "Outer//Inner/Files", tree.FullPath(files))
	assert.Equal(t, outer, tree.Parent(inner))
	assert.True(t, tree.IsExpanded(inner))
	assert.False(t, tree.IsExpanded(outer))
	assert.False(t, tree.ShowIfEmpty(files))
	assert.True(t, tree.ShowIfEmpty(outer))
	assert.Equal(t, 3, tree.Priority(outer))
	assert.Equal(t, []string{"name", "size"}, tree.SortSpec(outer).Names())

	style := tree.Style(outer)
	assert.Equal(t, "*", style.Icon)
	assert.True(t, style.HasColor)
	assert.False(t, style.HasBack)

	tree.EnsureAllFolders()
	assert.Len(t, tree.Children(files), 2)
}

func TestBuildErrors(t *testing.T) {
	folders := stringFolders(map[string][]string{"d": nil})
	tests := []struct {
		name   string
		layout string
		target error
	}{
		{"root id", "[[group]]\nid = 0\nname = \"x\"\n", ErrLayout},
		{"duplicate id", "[[group]]\nid = 1\nname = \"a\"\n[[group]]\nid = 1\nname = \"b\"\n", model.ErrDuplicateID},
		{"cycle", "[[group]]\nid = 1\nname = \"a\"\nparent = 2\n[[group]]\nid = 2\nname = \"b\"\nparent = 1\n", model.ErrCycle},
		{"missing parent", "[[group]]\nid = 1\nname = \"a\"\nparent = 9\n", ErrLayout},
		{"folder parent", "[[folder]]\nid = 1\nname = \"f\"\ndir = \"d\"\n[[folder]]\nid = 2\nname = \"g\"\nparent = 1\ndir = \"d\"\n", ErrLayout},
		{"duplicate name", "[[group]]\nid = 1\nname = \"a\"\n[[group]]\nid = 2\nname = \"a\"\n", model.ErrDuplicateName},
		{"bad color", "[[group]]\nid = 1\nname = \"a\"\ncolor = \"#zzz\"\n", nil},
		{"unknown step", "[[group]]\nid = 1\nname = \"a\"\nsort = [\"weight\"]\n", ErrLayout},
		{"unknown dir", "[[folder]]\nid = 1\nname = \"f\"\ndir = \"nope\"\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.layout))
			require.NoError(t, err)
			_, err = Build(cfg, model.NewTree[string](nil), Builder[string]{Folders: folders})
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}
