package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/pstuifzand/foldertree/internal/config"
)

func main() {
	numFiles := pflag.Int("files", 1000, "Number of files to generate")
	output := pflag.StringP("output", "o", "large_test", "Output directory")
	depth := pflag.Int("depth", 2, "Nesting depth of groups")
	fanout := pflag.Int("fanout", 3, "Children per group")
	pflag.Parse()

	if *numFiles < 1 {
		fmt.Fprintf(os.Stderr, "files must be at least 1\n")
		os.Exit(1)
	}
	if *fanout < 1 || *depth < 0 {
		fmt.Fprintf(os.Stderr, "fanout must be at least 1 and depth not negative\n")
		os.Exit(1)
	}

	stats, err := generateLayout(*output, *numFiles, *depth, *fanout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate layout: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d groups, %d folders and %d files\n", stats.groups, stats.folders, stats.files)
	fmt.Printf("Layout saved to: %s\n", filepath.Join(*output, "layout.toml"))
	fmt.Printf("Total size: %s\n", humanize.Bytes(uint64(stats.bytes)))
}

type layoutStats struct {
	groups, folders, files int
	bytes                  int64
}

type generator struct {
	root   string
	cfg    *config.Config
	nextID int
	stats  layoutStats
}

// generateLayout writes a group tree of the given depth and fanout below
// root. Groups at the bottom hold fanout folders, and files are spread over
// the folders round-robin.
func generateLayout(root string, numFiles, depth, fanout int) (layoutStats, error) {
	g := &generator{root: root, cfg: &config.Config{Settings: map[string]string{}}, nextID: 1}
	g.cfg.Filter.Mode = config.ModeSubstring

	var folders []config.FolderConfig
	var walk func(parent, level int, prefix string)
	walk = func(parent, level int, prefix string) {
		for i := range fanout {
			name := fmt.Sprintf("%s%d", prefix, i)
			if level < depth {
				id := g.add()
				g.cfg.Groups = append(g.cfg.Groups, config.GroupConfig{CollectionConfig: config.CollectionConfig{
					ID: id, Name: generateName(id, level), Parent: parent, Expanded: level == 0,
				}})
				g.stats.groups++
				walk(id, level+1, name+"-")
				continue
			}
			id := g.add()
			folders = append(folders, config.FolderConfig{
				CollectionConfig: config.CollectionConfig{ID: id, Name: generateName(id, level), Parent: parent},
				Dir:              filepath.Join(root, "data", name),
				Pattern:          "*.md",
			})
		}
	}
	walk(0, 0, "")
	g.cfg.Folders = folders
	g.stats.folders = len(folders)

	for _, f := range folders {
		if err := os.MkdirAll(f.Dir, 0o755); err != nil {
			return g.stats, err
		}
	}
	for i := range numFiles {
		f := folders[i%len(folders)]
		content := generateDescription(i) + "\n"
		path := filepath.Join(f.Dir, fmt.Sprintf("%s-%d.md", categories[i%len(categories)], i))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return g.stats, err
		}
		g.stats.files++
		g.stats.bytes += int64(len(content))
	}

	if err := g.cfg.SaveTo(filepath.Join(root, "layout.toml")); err != nil {
		return g.stats, err
	}
	return g.stats, nil
}

func (g *generator) add() int {
	id := g.nextID
	g.nextID++
	return id
}

var categories = []string{
	"task", "note", "idea", "bug", "feature", "enhancement",
	"documentation", "refactor", "test", "optimization",
	"research", "design", "implementation", "review",
}

func generateName(id, level int) string {
	if level == 0 {
		return fmt.Sprintf("Area %d", id)
	}
	return fmt.Sprintf("%s %d", generateDescription(id), id)
}

func generateDescription(index int) string {
	descriptions := []string{
		"Core functionality",
		"User interface",
		"Performance improvement",
		"Bug fix",
		"New capability",
		"API integration",
		"Data validation",
		"Error handling",
		"Caching layer",
		"Database schema",
		"Authentication",
		"Configuration",
		"Logging system",
		"Monitoring",
		"Security audit",
	}

	return descriptions[index%len(descriptions)]
}
