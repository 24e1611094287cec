package app

import (
	"fmt"
	"log"
	"strings"

	"github.com/pstuifzand/foldertree/internal/debug"
	"github.com/pstuifzand/foldertree/internal/export"
	"github.com/pstuifzand/foldertree/internal/fsrecord"
	"github.com/pstuifzand/foldertree/internal/model"
	"github.com/pstuifzand/foldertree/internal/selection"
)

const helpText = `Commands:
  filter [text]            set or clear the filter
  select|shift|ctrl PATH   click PATH, optionally with shift or ctrl held
  anchor PATH              set the range anchor
  clear                    clear the selection
  expand|collapse|toggle PATH
  move PATH                move the selection into PATH
  rescan [PATH]            rescan one folder or all of them
  format tree|markdown|flat|json
  export markdown FILE     write the view to FILE
  selection                show the selection and what would move
  print                    render the view
  dump                     show the cache structure
  debug [on|off]           toggle debug logging
  quit`

// parseCommand splits cmd into words. Double and single quotes group words
// and a backslash escapes the next character.
func parseCommand(cmd string) []string {
	var parts []string
	var current strings.Builder
	inWord := false
	var quote rune
	escaped := false

	for _, r := range cmd {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				parts = append(parts, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		parts = append(parts, current.String())
	}
	return parts
}

// handleCommand runs one command line. It reports whether the view must be
// rendered even if the visible list did not change.
func (a *App) handleCommand(cmd string) bool {
	parts := parseCommand(cmd)
	if len(parts) == 0 {
		return false
	}
	args := parts[1:]

	switch parts[0] {
	case "q", "quit":
		a.Quit()
		return false

	case "filter", "f":
		a.view.SetFilter(strings.Join(args, " "))
		return false

	case "select", "shift", "ctrl":
		h, ok := a.resolveArg(args)
		if !ok {
			return false
		}
		var mods selection.Modifiers
		switch parts[0] {
		case "shift":
			mods = selection.Shift
		case "ctrl":
			mods = selection.Ctrl
		}
		a.sel.SelectItem(h, mods, true, true)
		return true

	case "anchor":
		if h, ok := a.resolveArg(args); ok {
			a.sel.SetAnchor(h)
		}
		return false

	case "clear":
		a.sel.Clear()
		return true

	case "expand", "collapse", "toggle":
		h, ok := a.resolveArg(args)
		if !ok {
			return false
		}
		switch parts[0] {
		case "expand":
			a.tree.SetExpanded(h, true)
		case "collapse":
			a.tree.SetExpanded(h, false)
		default:
			a.tree.ToggleExpanded(h)
		}
		return false

	case "move", "mv":
		h, ok := a.resolveArg(args)
		if !ok {
			return false
		}
		if !a.moves.IsValidTransfer(h) {
			a.SetStatus("Cannot move the selection into " + a.displayPath(h))
			return false
		}
		if err := a.moves.Transfer(h, fsrecord.Mover(a.dirOf)); err != nil {
			a.SetStatus("Move failed: " + err.Error())
			return false
		}
		a.SetStatus("Moved to " + a.displayPath(h))
		return true

	case "rescan":
		if len(args) == 0 {
			folders := make([]model.Handle, 0, len(a.specs))
			for h := range a.specs {
				folders = append(folders, h)
			}
			a.rescan(folders)
			return false
		}
		if h, ok := a.resolveArg(args); ok {
			a.rescan([]model.Handle{h})
		}
		return false

	case "format":
		if len(args) != 1 || !validFormat(args[0]) {
			a.SetStatus("Usage: format tree|markdown|flat|json")
			return false
		}
		a.format = args[0]
		return true

	case "export":
		if len(args) != 2 || args[0] != FormatMarkdown {
			a.SetStatus("Usage: export markdown FILE")
			return false
		}
		a.view.UpdateCache()
		if err := export.ExportToMarkdown(a.view, a.tree, a.renderOptions(), args[1]); err != nil {
			a.SetStatus("Export failed: " + err.Error())
			return false
		}
		a.SetStatus("Exported to " + args[1])
		return false

	case "selection", "sel":
		a.SetStatus(a.describeSelection())
		return false

	case "print", "p":
		return true

	case "dump":
		a.view.UpdateCache()
		fmt.Fprint(a.out, export.Dump(a.view))
		return false

	case "debug":
		enabled := !debug.Enabled()
		if len(args) == 1 {
			enabled = args[0] == "on"
		}
		a.SetDebugMode(enabled)
		if enabled {
			a.SetStatus("Debug mode ON")
		} else {
			a.SetStatus("Debug mode OFF")
		}
		return false

	case "help", "?":
		fmt.Fprintln(a.out, helpText)
		return false

	default:
		a.SetStatus("Unknown command: " + parts[0])
		return false
	}
}

// resolveArg finds the node named by the full path in args
func (a *App) resolveArg(args []string) (model.Handle, bool) {
	if len(args) == 0 {
		a.SetStatus("Missing path")
		return model.NoHandle, false
	}
	path := strings.Join(args, " ")
	h, ok := a.resolve(path)
	if !ok {
		a.SetStatus("No such node: " + path)
	}
	return h, ok
}

// resolve finds a node by its full path. "/" names the root.
func (a *App) resolve(path string) (model.Handle, bool) {
	path = strings.TrimSpace(path)
	if path == "/" || path == "" {
		return model.RootHandle, true
	}
	found := model.NoHandle
	a.tree.Walk(model.RootHandle, func(h model.Handle) bool {
		if found != model.NoHandle {
			return false
		}
		p := a.tree.FullPath(h)
		if p == path {
			found = h
			return false
		}
		return h == model.RootHandle || strings.HasPrefix(path, p)
	})
	return found, found != model.NoHandle
}

func (a *App) displayPath(h model.Handle) string {
	if h == model.RootHandle {
		return "/"
	}
	return a.tree.FullPath(h)
}

func (a *App) describeSelection() string {
	set := a.moves.Set()
	switch {
	case a.sel.Count() == 0:
		return "Nothing selected"
	case set.Empty():
		return fmt.Sprintf("%d selected, nothing to move", a.sel.Count())
	}

	names := make([]string, 0, len(set.Collections)+len(set.Leaves))
	for _, h := range set.Handles() {
		names = append(names, a.displayPath(h))
	}
	msg := fmt.Sprintf("%d selected, moving %d collections and %d leaves: %s",
		a.sel.Count(), len(set.Collections), len(set.Leaves), strings.Join(names, ", "))
	log.Print(msg)
	return msg
}
