// Offline tile database builder: derives movement, walk, dash, surge and heuristic
// data from raw collision chunks.
//
// Usage:
//
//	go run ./cmd/tilebuild all                      # every stage, every chunk
//	go run ./cmd/tilebuild -floor 0 walk dash       # selected stages on one floor
//	go run ./cmd/tilebuild -chunk 3,4 -reset dash   # rebuild one chunk
//	go run ./cmd/tilebuild --list                   # list stages
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/udisondev/tilenav/internal/builder"
	"github.com/udisondev/tilenav/internal/config"
	"github.com/udisondev/tilenav/internal/storage"
)

const defaultConfigPath = "config/tilenav.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tilebuild", flag.ContinueOnError)
	configPath := fs.String("config", configPathFromEnv(), "path to YAML config")
	reset := fs.Bool("reset", false, "rebuild outputs that already exist")
	floor := fs.Int("floor", -1, "only build this floor (-1 = all)")
	chunk := fs.String("chunk", "", "only build chunk \"cx,cy\"")
	workers := fs.Int("workers", 0, "parallel chunks (0 = config value)")
	list := fs.Bool("list", false, "list stages and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: tilebuild [flags] <all | stage ...>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		printStages()
		return nil
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no stage given")
	}
	stages, err := parseStages(fs.Args())
	if err != nil {
		printStages()
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	opts := builder.Options{
		Workers:     cfg.Builder.Workers,
		Reset:       cfg.Builder.Reset || *reset,
		MaxDistance: cfg.Builder.MaxDistance,
	}
	if *workers > 0 {
		opts.Workers = *workers
	}

	store, closeStore, err := storage.OpenBackend(ctx, cfg.Storage.Backend, cfg.Storage.Dir, cfg.Storage.Database.DSN())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer closeStore()

	world := cfg.World.Geo()
	b := builder.New(store, world, opts)

	keys := b.Chunks(int32(*floor))
	if *chunk != "" {
		cx, cy, err := parsePair(*chunk)
		if err != nil {
			return fmt.Errorf("parsing -chunk: %w", err)
		}
		keys = filterChunk(keys, cx, cy)
		if len(keys) == 0 {
			return fmt.Errorf("chunk %s is outside the world", *chunk)
		}
	}

	slog.Info("tilebuild starting",
		"stages", fmt.Sprint(stages),
		"chunks", len(keys),
		"workers", opts.Workers,
		"reset", opts.Reset,
		"backend", cfg.Storage.Backend)

	totalStart := time.Now()
	for _, s := range stages {
		if err := b.Run(ctx, s, keys); err != nil {
			return fmt.Errorf("stage %s: %w", s, err)
		}
	}
	slog.Info("tilebuild done", "elapsed", time.Since(totalStart).Round(time.Millisecond))
	return nil
}

func configPathFromEnv() string {
	if p := os.Getenv("TILENAV_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

func parseStages(args []string) ([]builder.Stage, error) {
	if len(args) == 1 && args[0] == "all" {
		return builder.Stages(), nil
	}
	known := make(map[string]builder.Stage)
	for _, s := range builder.Stages() {
		known[string(s)] = s
	}
	stages := make([]builder.Stage, 0, len(args))
	for _, name := range args {
		s, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown stage: %s", name)
		}
		stages = append(stages, s)
	}
	return stages, nil
}

func printStages() {
	for _, s := range builder.Stages() {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", s, s.Describe())
	}
}

func filterChunk(keys []storage.ChunkKey, cx, cy int32) []storage.ChunkKey {
	var out []storage.ChunkKey
	for _, k := range keys {
		if k.X == cx && k.Y == cy {
			out = append(out, k)
		}
	}
	return out
}

// parsePair parses "a,b".
func parsePair(s string) (int32, int32, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("want \"a,b\", got %q", s)
	}
	x, err := strconv.ParseInt(strings.TrimSpace(a), 10, 32)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseInt(strings.TrimSpace(b), 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(x), int32(y), nil
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}
