package world

// MoveWithCollision translates a body centred at (x, y) by (dx, dy) and
// returns the resolved position. X is resolved first against the current Y,
// then Y against the resolved X; a blocked axis is cancelled entirely, which
// gives sliding along walls. Steps must stay below one tile per call.
func (w *World) MoveWithCollision(x, y, dx, dy float64) (float64, float64) {
	nx := x + dx
	if w.boxBlocked(nx, y) {
		nx = x
	}
	ny := y + dy
	if w.boxBlocked(nx, ny) {
		ny = y
	}
	return nx, ny
}

// BoxBlocked reports whether any corner of a body centred at (cx, cy) lies on
// a solid tile.
func (w *World) BoxBlocked(cx, cy float64) bool {
	return w.boxBlocked(cx, cy)
}

func (w *World) boxBlocked(cx, cy float64) bool {
	const r = BodyHalfSize
	corners := [4][2]float64{
		{cx - r, cy - r},
		{cx + r, cy - r},
		{cx - r, cy + r},
		{cx + r, cy + r},
	}
	for _, c := range corners {
		t := TileAt(c[0], c[1])
		if w.SolidAtTile(t.X, t.Y) {
			return true
		}
	}
	return false
}
