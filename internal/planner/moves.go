package planner

import "strings"

// MoveKind labels one edge of a plan.
type MoveKind uint8

const (
	MoveWait MoveKind = iota
	MoveWalk
	MoveDash
	MoveSurge
	MoveEscape
)

var moveNames = [...]string{
	MoveWait:   "wait",
	MoveWalk:   "walk",
	MoveDash:   "bd",
	MoveSurge:  "surge",
	MoveEscape: "escape",
}

func (k MoveKind) String() string {
	if int(k) < len(moveNames) {
		return moveNames[k]
	}
	return "unknown"
}

// Ability reports whether k is an instant ability (dash or teleport).
func (k MoveKind) Ability() bool {
	return k == MoveDash || k == MoveSurge || k == MoveEscape
}

// Move is one instruction: a run of abilities together with the step that follows them.
type Move []MoveKind

func (m Move) String() string {
	parts := make([]string, len(m))
	for i, k := range m {
		parts[i] = k.String()
	}
	return strings.Join(parts, "+")
}

// CompressMoves folds every run of ability kinds into the kind that follows it.
// Walk and wait are never merged with each other.
func CompressMoves(kinds []MoveKind) []Move {
	var (
		out     []Move
		pending Move
	)
	for _, k := range kinds {
		pending = append(pending, k)
		if !k.Ability() {
			out = append(out, pending)
			pending = nil
		}
	}
	if len(pending) > 0 {
		out = append(out, pending)
	}
	return out
}
