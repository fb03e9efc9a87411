package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/tilenav/internal/geo"
	"github.com/udisondev/tilenav/internal/section"
	"github.com/udisondev/tilenav/internal/storage"
)

// Request is what an upstream caller supplies to plan one route.
type Request struct {
	Start  State
	Goal   geo.Tile
	Floor  int32
	Radius int32 // margin around start and goal, in tiles
}

// SearchBox returns the section box for req: the bounding box of start and goal grown
// by the radius and clipped to the world.
func SearchBox(world geo.World, req Request) section.Box {
	return section.Box{
		XStart: max(0, min(req.Start.X, req.Goal.X)-req.Radius),
		XEnd:   min(world.Width-1, max(req.Start.X, req.Goal.X)+req.Radius),
		YStart: max(0, min(req.Start.Y, req.Goal.Y)-req.Radius),
		YEnd:   min(world.Height-1, max(req.Start.Y, req.Goal.Y)+req.Radius),
	}
}

// PlanRoute loads the section around req and searches it.
func PlanRoute(ctx context.Context, store storage.Store, world geo.World, table Heuristic, req Request) (Plan, error) {
	if req.Radius < 0 {
		return Plan{}, fmt.Errorf("negative radius %d", req.Radius)
	}
	if !world.Contains(req.Start.X, req.Start.Y) || !world.Contains(req.Goal.X, req.Goal.Y) {
		return Plan{}, fmt.Errorf("%w: start %v or goal %v outside world", ErrInvalidStart, req.Start.Tile(), req.Goal)
	}

	box := SearchBox(world, req)
	sec, err := section.Load(ctx, store, world, box, req.Floor)
	if err != nil {
		return Plan{}, fmt.Errorf("loading map section: %w", err)
	}

	start := time.Now()
	plan, err := Search(sec, table, req.Start, req.Goal)
	if err != nil {
		slog.Info("no route", "start", req.Start, "goal", req.Goal, "expanded", plan.Expanded, "err", err)
		return plan, err
	}
	slog.Info("route planned",
		"start", req.Start,
		"goal", req.Goal,
		"cost", plan.Cost,
		"moves", len(plan.Moves),
		"expanded", plan.Expanded,
		"elapsed", time.Since(start))
	return plan, nil
}
