// Route planner: loads the map section around start and goal and prints the
// shortest-time plan.
//
// Usage:
//
//	go run ./cmd/pathplan -start 2125,5146 -goal 2134,5162 -facing s
//	go run ./cmd/pathplan -start 10,10 -goal 40,40 -cooldowns 0,0,0,17 -radius 30
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/udisondev/tilenav/internal/config"
	"github.com/udisondev/tilenav/internal/geo"
	"github.com/udisondev/tilenav/internal/planner"
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
	fs := flag.NewFlagSet("pathplan", flag.ContinueOnError)
	configPath := fs.String("config", configPathFromEnv(), "path to YAML config")
	startFlag := fs.String("start", "", "start tile \"x,y\" (required)")
	goalFlag := fs.String("goal", "", "goal tile \"x,y\" (required)")
	floor := fs.Int("floor", 0, "floor index")
	facingFlag := fs.String("facing", "n", "start facing (n, ne, e, ... or 0-7)")
	cdFlag := fs.String("cooldowns", "0,0,0,0", "start cooldowns \"secd,scd,ecd,bdcd\"")
	radius := fs.Int("radius", -1, "search margin in tiles (-1 = config value)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *startFlag == "" || *goalFlag == "" {
		fs.Usage()
		return errors.New("-start and -goal are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	req, err := buildRequest(*startFlag, *goalFlag, *facingFlag, *cdFlag)
	if err != nil {
		return err
	}
	req.Floor = int32(*floor)
	req.Radius = cfg.Planner.Radius
	if *radius >= 0 {
		req.Radius = int32(*radius)
	}

	store, closeStore, err := storage.OpenBackend(ctx, cfg.Storage.Backend, cfg.Storage.Dir, cfg.Storage.Database.DSN())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer closeStore()

	table, err := planner.LoadTable(ctx, store)
	if err != nil {
		return err
	}

	start := time.Now()
	plan, err := planner.PlanRoute(ctx, store, cfg.World.Geo(), table, req)
	if errors.Is(err, planner.ErrUnreachable) {
		fmt.Println("no path")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(plan.Labels(), " "))
	for _, s := range plan.States {
		fmt.Println(s)
	}
	fmt.Printf("cost: %d ticks, elapsed: %s\n", plan.Cost, time.Since(start).Round(time.Microsecond))
	return nil
}

func buildRequest(startFlag, goalFlag, facingFlag, cdFlag string) (planner.Request, error) {
	sx, sy, err := parsePair(startFlag)
	if err != nil {
		return planner.Request{}, fmt.Errorf("parsing -start: %w", err)
	}
	gx, gy, err := parsePair(goalFlag)
	if err != nil {
		return planner.Request{}, fmt.Errorf("parsing -goal: %w", err)
	}
	facing, err := geo.ParseDirection(facingFlag)
	if err != nil {
		return planner.Request{}, fmt.Errorf("parsing -facing: %w", err)
	}
	cd, err := parseCooldowns(cdFlag)
	if err != nil {
		return planner.Request{}, fmt.Errorf("parsing -cooldowns: %w", err)
	}
	return planner.Request{
		Start: planner.State{X: sx, Y: sy, Facing: facing, CD: cd},
		Goal:  geo.Tile{X: gx, Y: gy},
	}, nil
}

func parseCooldowns(s string) (planner.Cooldowns, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return planner.Cooldowns{}, fmt.Errorf("want 4 values, got %d", len(parts))
	}
	var v [4]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return planner.Cooldowns{}, err
		}
		if n > geo.MaxCooldown {
			return planner.Cooldowns{}, fmt.Errorf("cooldown %d above %d", n, geo.MaxCooldown)
		}
		v[i] = uint8(n)
	}
	return planner.Cooldowns{Shared: v[0], Surge: v[1], Escape: v[2], Dash: v[3]}, nil
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

func configPathFromEnv() string {
	if p := os.Getenv("TILENAV_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
