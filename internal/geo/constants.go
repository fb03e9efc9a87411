package geo

// Default world extents (tiles).
const (
	DefaultWorldWidth  = 6400
	DefaultWorldHeight = 12800
	DefaultFloors      = 4
	DefaultChunkSize   = 1280
)

// Ability reach and packing geometry.
const (
	WalkRadius = 2
	WalkWindow = 2*WalkRadius + 1 // 5
	WalkWords  = 2                // 25 nibbles in two uint64

	DashRadius = 10
	DashWindow = 2*DashRadius + 1       // 21
	DashBits   = DashWindow * DashWindow // 441
	DashWords  = 7                       // 448 bits

	SurgeReach  = 10
	EscapeReach = 7

	// Directions is the number of compass directions and the depth of a surge chunk.
	Directions = 8
)

// Cooldown bounds. A counter of MaxCooldown means the ability was just used.
const (
	MaxCooldown    = 17
	CooldownStates = MaxCooldown + 1
	// TeleportFloor is the minimum remaining cooldown a teleport leaves on its sibling counters.
	TeleportFloor = 2
)

// Movement bitmask: one bit per traversable edge.
const (
	EdgeWest      byte = 1 << 0 // 0x01
	EdgeNorth     byte = 1 << 1 // 0x02
	EdgeEast      byte = 1 << 2 // 0x04
	EdgeSouth     byte = 1 << 3 // 0x08
	EdgeNorthWest byte = 1 << 4 // 0x10
	EdgeNorthEast byte = 1 << 5 // 0x20
	EdgeSouthEast byte = 1 << 6 // 0x40
	EdgeSouthWest byte = 1 << 7 // 0x80
	EdgeAll       byte = 0xFF
)

// absentCode marks an empty walk nibble. Any code >= Directions is absent on decode.
const absentCode = 0x0F
