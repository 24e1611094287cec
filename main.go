package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/pstuifzand/foldertree/internal/app"
	"github.com/pstuifzand/foldertree/internal/config"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Layout file, TOML or YAML (default ~/.config/foldertree/config.toml)")
	filter := pflag.StringP("filter", "f", "", "Initial filter")
	mode := pflag.StringP("mode", "m", "", "Filter mode: substring, fuzzy or query")
	format := pflag.String("format", app.FormatTree, "Output format: tree, markdown, flat or json")
	long := pflag.BoolP("long", "l", false, "Show size and age of files")
	width := pflag.Int("width", 0, "Truncate paths in flat output to this width")
	color := pflag.String("color", "auto", "Color output: auto, always or never")
	interactive := pflag.BoolP("interactive", "i", false, "Read commands from stdin")
	watchDirs := pflag.BoolP("watch", "w", false, "Watch folder directories and rerender on changes")
	logPath := pflag.String("log", "foldertree.log", "Log file")
	debug := pflag.Bool("debug", false, "Enable debug logging")
	pflag.Parse()

	logFile, err := os.Create(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := run(*configPath, *mode, *color, *interactive, app.Options{
		Out:      os.Stdout,
		Format:   *format,
		Filter:   *filter,
		Describe: *long,
		Watch:    *watchDirs,
		Width:    *width,
	}, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, mode, color string, interactive bool, opts app.Options, debug bool) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr != nil {
			return fmt.Errorf("config file: %w", statErr)
		}
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	switch mode {
	case "":
	case config.ModeSubstring, config.ModeFuzzy, config.ModeQuery:
		cfg.Set("filter.mode", mode)
	default:
		return fmt.Errorf("unknown filter mode %q", mode)
	}

	switch color {
	case "always":
		opts.Color = true
	case "never":
	case "auto":
		opts.Color = term.IsTerminal(int(os.Stdout.Fd()))
	default:
		return fmt.Errorf("unknown color setting %q", color)
	}

	application, err := app.NewApp(cfg, opts)
	if err != nil {
		return err
	}
	defer application.Close()
	application.SetDebugMode(debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Scan(ctx); err != nil {
		return fmt.Errorf("failed to scan folders: %w", err)
	}

	var in io.Reader
	if interactive {
		in = os.Stdin
	}
	if err := application.Run(ctx, in); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}
