package config

import (
	"errors"
	"fmt"

	"github.com/pstuifzand/foldertree/internal/model"
	"github.com/pstuifzand/foldertree/internal/sortspec"
)

var ErrLayout = errors.New("invalid layout")

// CollectionConfig is what groups and folders share
type CollectionConfig struct {
	ID          int      `toml:"id" yaml:"id"`
	Name        string   `toml:"name" yaml:"name"`
	Parent      int      `toml:"parent,omitempty" yaml:"parent,omitempty"`
	Expanded    bool     `toml:"expanded,omitempty" yaml:"expanded,omitempty"`
	ShowIfEmpty *bool    `toml:"show_if_empty,omitempty" yaml:"show_if_empty,omitempty"`
	Priority    int      `toml:"priority,omitempty" yaml:"priority,omitempty"`
	Icon        string   `toml:"icon,omitempty" yaml:"icon,omitempty"`
	Color       string   `toml:"color,omitempty" yaml:"color,omitempty"`
	Background  string   `toml:"background,omitempty" yaml:"background,omitempty"`
	Sort        []string `toml:"sort,omitempty" yaml:"sort,omitempty"`
}

// GroupConfig is a [[group]] entry
type GroupConfig struct {
	CollectionConfig `yaml:",inline"`
}

// FolderConfig is a [[folder]] entry. Dir and Pattern feed the filesystem
// record source.
type FolderConfig struct {
	CollectionConfig `yaml:",inline"`
	Dir              string `toml:"dir,omitempty" yaml:"dir,omitempty"`
	Pattern          string `toml:"pattern,omitempty" yaml:"pattern,omitempty"`
	Recursive        bool   `toml:"recursive,omitempty" yaml:"recursive,omitempty"`
}

// FolderSource supplies the generator and leaf factory for a configured folder
type FolderSource[T comparable] func(FolderConfig) (model.Generator[T], model.LeafFactory[T], error)

// Builder controls how a layout is materialized
type Builder[T comparable] struct {
	// Folders is required when the layout has folders
	Folders FolderSource[T]
	// Steps resolves sort step names beyond the built-in name and priority
	Steps map[string]sortspec.Step[model.Handle]
}

// Build adds the configured groups and folders to tree and returns the
// handle of every collection by id. Groups may be listed in any order;
// parents are resolved first.
func Build[T comparable](cfg *Config, tree *model.Tree[T], b Builder[T]) (map[int]model.Handle, error) {
	handles := map[int]model.Handle{0: model.RootHandle}
	groups := map[int]bool{0: true}

	pending := make([]GroupConfig, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		if g.ID == 0 {
			return nil, fmt.Errorf("%w: group %q: id 0 is reserved for the root", ErrLayout, g.Name)
		}
		if groups[g.ID] {
			return nil, fmt.Errorf("%w: group id %d: %w", ErrLayout, g.ID, model.ErrDuplicateID)
		}
		groups[g.ID] = true
		pending = append(pending, g)
	}

	for len(pending) > 0 {
		var next []GroupConfig
		for _, g := range pending {
			parent, ok := handles[g.Parent]
			if !ok {
				next = append(next, g)
				continue
			}
			h, err := tree.AddFolderGroup(parent, g.ID, g.Name)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", g.Name, err)
			}
			handles[g.ID] = h
			if err := apply(tree, h, g.CollectionConfig, b.Steps); err != nil {
				return nil, err
			}
		}
		if len(next) == len(pending) {
			g := next[0]
			if !groups[g.Parent] {
				return nil, fmt.Errorf("%w: group %q: parent %d is not a group", ErrLayout, g.Name, g.Parent)
			}
			return nil, fmt.Errorf("%w: group %q: %w", ErrLayout, g.Name, model.ErrCycle)
		}
		pending = next
	}

	for _, f := range cfg.Folders {
		if f.ID == 0 {
			return nil, fmt.Errorf("%w: folder %q: id 0 is reserved for the root", ErrLayout, f.Name)
		}
		if !groups[f.Parent] {
			return nil, fmt.Errorf("%w: folder %q: parent %d is not a group", ErrLayout, f.Name, f.Parent)
		}
		if b.Folders == nil {
			return nil, fmt.Errorf("%w: folder %q: no folder source", ErrLayout, f.Name)
		}
		gen, toLeaf, err := b.Folders(f)
		if err != nil {
			return nil, fmt.Errorf("folder %q: %w", f.Name, err)
		}
		h, err := tree.AddFolder(handles[f.Parent], f.ID, f.Name, gen, toLeaf)
		if err != nil {
			return nil, fmt.Errorf("folder %q: %w", f.Name, err)
		}
		handles[f.ID] = h
		if err := apply(tree, h, f.CollectionConfig, b.Steps); err != nil {
			return nil, err
		}
	}

	return handles, nil
}

func apply[T comparable](tree *model.Tree[T], h model.Handle, c CollectionConfig, steps map[string]sortspec.Step[model.Handle]) error {
	tree.SetExpanded(h, c.Expanded)
	if c.ShowIfEmpty != nil {
		tree.SetShowIfEmpty(h, *c.ShowIfEmpty)
	}
	tree.SetPriority(h, c.Priority)

	style := model.Style{Icon: c.Icon}
	if c.Color != "" {
		col, err := model.ParseColor(c.Color)
		if err != nil {
			return fmt.Errorf("%q color: %w", c.Name, err)
		}
		style = style.WithColor(col)
	}
	if c.Background != "" {
		col, err := model.ParseColor(c.Background)
		if err != nil {
			return fmt.Errorf("%q background: %w", c.Name, err)
		}
		style = style.WithBackground(col)
	}
	tree.SetStyle(h, style)

	spec := tree.SortSpec(h)
	for _, name := range c.Sort {
		switch name {
		case "name":
			spec.Add(tree.ByName())
		case "priority":
			spec.Add(tree.ByPriority())
		default:
			step, ok := steps[name]
			if !ok {
				return fmt.Errorf("%w: %q: unknown sort step %q", ErrLayout, c.Name, name)
			}
			spec.Add(step)
		}
	}
	return nil
}
