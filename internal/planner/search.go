package planner

import (
	"container/heap"
	"errors"
	"fmt"
	"slices"

	"github.com/udisondev/tilenav/internal/geo"
)

var (
	// ErrUnreachable is returned when the open set empties before the goal is reached.
	ErrUnreachable = errors.New("planner: goal unreachable")
	// ErrInvalidStart is returned for start states the search cannot expand.
	ErrInvalidStart = errors.New("planner: invalid start state")
)

// Plan is a search result.
type Plan struct {
	States   []State    // start .. goal state
	Kinds    []MoveKind // one per edge, len(States)-1
	Moves    []Move     // Kinds with ability runs folded into the following step
	Cost     int        // timesteps
	Expanded int        // nodes expanded
}

// Tiles returns the tile sequence of the plan.
func (p Plan) Tiles() []geo.Tile {
	tiles := make([]geo.Tile, len(p.States))
	for i, s := range p.States {
		tiles[i] = s.Tile()
	}
	return tiles
}

// Labels returns the compressed move labels, e.g. ["walk", "surge+walk"].
func (p Plan) Labels() []string {
	labels := make([]string, len(p.Moves))
	for i, m := range p.Moves {
		labels[i] = m.String()
	}
	return labels
}

// edge records how a state was reached.
type edge struct {
	prev State
	kind MoveKind
}

// Search runs A* from start until a state within one tile of goal is popped.
// Edges cost 1 for walk and wait and 0 for abilities; a successor is queued only when
// it is new or strictly improves its best known cost.
func Search(m Map, h Heuristic, start State, goal geo.Tile) (Plan, error) {
	if !start.CD.Valid() || !start.Facing.Valid() {
		return Plan{}, fmt.Errorf("%w: %v", ErrInvalidStart, start)
	}
	if !m.Contains(start.X, start.Y) {
		return Plan{}, fmt.Errorf("%w: %v outside map", ErrInvalidStart, start)
	}

	open := &openList{}
	best := map[State]int{start: 0}
	cameFrom := make(map[State]edge, 1024)
	var seq uint64

	heap.Push(open, &searchNode{state: start, f: h.Estimate(start, goal)})

	expanded := 0
	for open.Len() > 0 {
		n := heap.Pop(open).(*searchNode)
		if n.g > best[n.state] {
			continue // stale entry
		}
		if n.state.AtGoal(goal) {
			return reconstruct(n.state, n.g, expanded, cameFrom), nil
		}
		expanded++

		successors(m, n.state, func(next State, cost int, kind MoveKind) {
			g := n.g + cost
			if old, seen := best[next]; seen && g >= old {
				return
			}
			best[next] = g
			cameFrom[next] = edge{prev: n.state, kind: kind}
			seq++
			heap.Push(open, &searchNode{state: next, g: g, f: g + h.Estimate(next, goal), seq: seq})
		})
	}
	return Plan{Expanded: expanded}, ErrUnreachable
}

// successors emits the neighbours of s in a fixed order: walks, dashes, surge, escape, wait.
// Destinations outside the map are skipped.
func successors(m Map, s State, emit func(State, int, MoveKind)) {
	for _, r := range m.WalkRange(s.X, s.Y) {
		emit(s.MoveTo(r.X, r.Y, r.Facing).Advance(), 1, MoveWalk)
	}
	if s.CanDash() {
		for _, r := range m.DashRange(s.X, s.Y) {
			emit(s.Dash(r.X, r.Y, r.Facing), 0, MoveDash)
		}
	}
	if s.CanTeleportForward() {
		if x, y := m.SurgeRange(s.X, s.Y, s.Facing); m.Contains(x, y) {
			emit(s.TeleportForward(m), 0, MoveSurge)
		}
	}
	if s.CanTeleportBackward() {
		if x, y := m.EscapeRange(s.X, s.Y, s.Facing); m.Contains(x, y) {
			emit(s.TeleportBackward(m), 0, MoveEscape)
		}
	}
	emit(s.Advance(), 1, MoveWait)
}

func reconstruct(goal State, cost, expanded int, cameFrom map[State]edge) Plan {
	states := []State{goal}
	var kinds []MoveKind
	for cur := goal; ; {
		e, ok := cameFrom[cur]
		if !ok {
			break
		}
		states = append(states, e.prev)
		kinds = append(kinds, e.kind)
		cur = e.prev
	}
	slices.Reverse(states)
	slices.Reverse(kinds)
	return Plan{
		States:   states,
		Kinds:    kinds,
		Moves:    CompressMoves(kinds),
		Cost:     cost,
		Expanded: expanded,
	}
}

// searchNode is an open-list entry.
type searchNode struct {
	state State
	g, f  int
	seq   uint64
	index int
}

// openList is a min-heap by f, ties broken by insertion order.
type openList []*searchNode

func (h openList) Len() int { return len(h) }
func (h openList) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h openList) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *openList) Push(x any)   { n := x.(*searchNode); n.index = len(*h); *h = append(*h, n) }
func (h *openList) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}
