package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/smc/sourcemap-compose/internal/sourcemap"
)

const helpText = `
Usage:
  smc [options] map1.json map2.json ... mapN.json

Composes N source maps, each describing one transformation stage (map1 ran
first, mapN ran last), into a single flat map from mapN's generated code
straight back to map1's original sources.

Options:
  -o=...       Write the composed map to this file instead of stdout
  -watch       Recompose whenever any input map file changes
  -h, -help    Print this help text
`

func main() {
	osArgs := os.Args[1:]
	outFile := ""
	watch := false

	argsEnd := 0
	for _, arg := range osArgs {
		switch {
		case arg == "-h", arg == "-help", arg == "--help":
			fmt.Fprintf(os.Stderr, "%s\n", helpText)
			os.Exit(0)

		case strings.HasPrefix(arg, "-o="):
			outFile = arg[len("-o="):]

		case arg == "-watch":
			watch = true

		default:
			osArgs[argsEnd] = arg
			argsEnd++
		}
	}
	osArgs = osArgs[:argsEnd]

	if len(osArgs) == 0 {
		fmt.Fprintf(os.Stderr, "%s\n", helpText)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	if watch {
		if err := runWatch(osArgs, outFile, logger); err != nil {
			logger.Error("watch failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := composeOnce(osArgs, outFile, logger); err != nil {
		logger.Error("compose failed", zap.Error(err))
		os.Exit(1)
	}
}

func composeOnce(files []string, outFile string, logger *zap.Logger) error {
	maps := make([]*sourcemap.Map, len(files))
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		m, err := sourcemap.Parse(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		maps[i] = m
	}

	composed, err := sourcemap.Compose(maps)
	if err != nil {
		return fmt.Errorf("composing %d maps: %w", len(maps), err)
	}

	out, err := sourcemap.Encode(composed)
	if err != nil {
		return fmt.Errorf("encoding composed map: %w", err)
	}

	if outFile == "" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	logger.Info("wrote composed map", zap.String("path", outFile), zap.Int("inputs", len(files)))
	return os.WriteFile(outFile, out, 0644)
}

// runWatch recomposes files whenever any of them changes on disk, grounded on
// gopherjs's build.Session.Watcher field: a watcher is created once, each
// input file is added to it, and a loop re-runs the build (here, the compose)
// on every write or create event until the process is killed or the watcher's
// channels close.
func runWatch(files []string, outFile string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range files {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}

	if err := composeOnce(files, outFile, logger); err != nil {
		logger.Error("compose failed", zap.Error(err))
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Info("input changed, recomposing", zap.String("path", event.Name))
			if err := composeOnce(files, outFile, logger); err != nil {
				logger.Error("compose failed", zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))
		}
	}
}
