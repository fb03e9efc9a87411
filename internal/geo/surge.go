package geo

// PackOffsets packs a forward offset (low nibble) and a backward offset (high nibble).
func PackOffsets(forward, backward uint8) byte {
	return forward&0x0F | backward<<4
}

// ForwardOffset returns the surge offset stored in b.
func ForwardOffset(b byte) int32 {
	return int32(b & 0x0F)
}

// BackwardOffset returns the escape offset stored in b.
func BackwardOffset(b byte) int32 {
	return int32(b >> 4)
}

// TeleportOffsets ray-casts through the dash mask for every facing. The forward
// offset is the furthest marked step along the facing within SurgeReach, the backward
// offset the furthest marked step against it within EscapeReach; 0 when nothing is marked.
func TeleportOffsets(mask *DashMask) [Directions]byte {
	var out [Directions]byte
	for d := range Direction(Directions) {
		out[d] = PackOffsets(ray(mask, d, SurgeReach), ray(mask, d.Opposite(), EscapeReach))
	}
	return out
}

func ray(mask *DashMask, d Direction, reach int32) uint8 {
	dx, dy := d.Step()
	var off uint8
	for k := int32(1); k <= reach; k++ {
		if mask.Has(dx*k, dy*k) {
			off = uint8(k)
		}
	}
	return off
}

// Advance returns (x, y) moved offset tiles along d.
func Advance(x, y int32, d Direction, offset int32) (int32, int32) {
	dx, dy := d.Step()
	return x + dx*offset, y + dy*offset
}
