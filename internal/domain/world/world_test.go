package world

import (
	"math/rand"
	"testing"
)

func rowsLayout(rows ...string) Layout {
	return Layout{
		Width:  len(rows[0]),
		Height: len(rows),
		Rows:   rows,
		NPC:    NPCSpawn{Name: "Tester"},
	}
}

func TestDefaultLayoutBuilds(t *testing.T) {
	l := DefaultLayout()
	w := New(l)
	if w.Grid.Width != 64 || w.Grid.Height != 36 {
		t.Fatalf("unexpected grid size %dx%d", w.Grid.Width, w.Grid.Height)
	}
	want := map[DecorationType]int{
		DecorationTree:     14,
		DecorationRock:     5,
		DecorationMushroom: 6,
		DecorationChest:    1,
		DecorationShard:    3,
		DecorationBeacon:   1,
		DecorationForge:    1,
	}
	for typ, n := range want {
		if got := len(w.DecorationsOf(typ)); got != n {
			t.Errorf("%s: got %d decorations, want %d", typ, got, n)
		}
	}
	for _, p := range w.Decorations() {
		if !w.Walkable(p.Tile.X, p.Tile.Y) {
			t.Errorf("decoration %s at %s is not on ground", p.Decoration.Type, p.Tile)
		}
	}
	if w.SolidAtTile(l.HubSpawn.X, l.HubSpawn.Y) {
		t.Fatalf("hub spawn must be open ground")
	}
}

func TestWalkableOutOfBounds(t *testing.T) {
	w := New(rowsLayout(
		"...",
		"...",
	))
	tests := []struct {
		name   string
		tx, ty int
		want   bool
	}{
		{"inside", 1, 1, true},
		{"negative x", -1, 0, false},
		{"negative y", 0, -1, false},
		{"past width", 3, 0, false},
		{"past height", 0, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Walkable(tt.tx, tt.ty); got != tt.want {
				t.Errorf("Walkable(%d,%d) = %v, want %v", tt.tx, tt.ty, got, tt.want)
			}
			if !tt.want && !w.SolidAtTile(tt.tx, tt.ty) {
				t.Errorf("SolidAtTile(%d,%d) should be true off the grid", tt.tx, tt.ty)
			}
		})
	}
}

func TestDecorationSkippedOnSky(t *testing.T) {
	l := rowsLayout(
		". .",
	)
	l.Decorations = []DecorationGroup{{Type: DecorationRock, Tiles: []TileCoord{{X: 1, Y: 0}, {X: 2, Y: 0}}}}
	w := New(l)
	if d := w.DecorationAt(1, 0); d != nil {
		t.Fatalf("expected no decoration on sky, got %+v", d)
	}
	if d := w.DecorationAt(2, 0); d == nil || !d.Solid {
		t.Fatalf("expected solid rock on ground, got %+v", d)
	}
}

func TestDecorationAtFarCoordinatesDoesNotAlias(t *testing.T) {
	w := New(rowsLayout("M.", ".."))
	if w.DecorationAt(0, 0) == nil {
		t.Fatal("expected mushroom at 0,0")
	}
	for _, c := range []TileCoord{{X: 65536, Y: 0}, {X: 0, Y: 65536}, {X: -65536, Y: 0}, {X: 1 << 16, Y: 1 << 16}} {
		if d := w.DecorationAt(c.X, c.Y); d != nil {
			t.Errorf("DecorationAt(%v) aliased an in-bounds tile: %+v", c, d)
		}
	}
}

func TestDecorationTraits(t *testing.T) {
	w := New(rowsLayout("TMCSBF"))
	tests := []struct {
		x      int
		typ    DecorationType
		solid  bool
		pickup PickupKind
	}{
		{0, DecorationTree, true, PickupNone},
		{1, DecorationMushroom, false, PickupMushroom},
		{2, DecorationChest, true, PickupNone},
		{3, DecorationShard, false, PickupShard},
		{4, DecorationBeacon, true, PickupNone},
		{5, DecorationForge, true, PickupNone},
	}
	for _, tt := range tests {
		d := w.DecorationAt(tt.x, 0)
		if d == nil {
			t.Fatalf("missing decoration at x=%d", tt.x)
		}
		if d.Type != tt.typ || d.Solid != tt.solid || d.Pickup != tt.pickup {
			t.Errorf("x=%d: got %+v", tt.x, d)
		}
	}
}

func TestParseLayoutRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"no size":      "npc: {name: a, tile: [0, 0]}\n",
		"bad rune":     "width: 1\nheight: 1\nrows: ['#']\nnpc: {name: a, tile: [0, 0]}\n",
		"short row":    "width: 2\nheight: 1\nrows: ['.']\nnpc: {name: a, tile: [0, 0]}\n",
		"unknown deco": "width: 1\nheight: 1\nrows: ['.']\ndecorations: [{type: statue, tiles: [[0, 0]]}]\nnpc: {name: a, tile: [0, 0]}\n",
		"solid spawn":  "width: 2\nheight: 1\nrows: ['T.']\nhub_spawn: [0, 0]\nplayer_start: [1, 0]\nnpc: {name: a, tile: [1, 0]}\n",
		"bad coord":    "width: 1\nheight: 1\nrows: ['.']\nhub_spawn: [0]\nnpc: {name: a, tile: [0, 0]}\n",
		"too wide":     "width: 40000\nheight: 1\nnpc: {name: a, tile: [0, 0]}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseLayout([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestTileCoordString(t *testing.T) {
	c := TileCoord{X: 12, Y: -3}
	got, err := ParseTileCoord(c.String())
	if err != nil {
		t.Fatalf("ParseTileCoord err: %v", err)
	}
	if got != c {
		t.Fatalf("got %v want %v", got, c)
	}
	if _, err := ParseTileCoord("12"); err == nil {
		t.Fatal("expected error for missing comma")
	}
}

func TestMoveWithCollisionBlocksAndSlides(t *testing.T) {
	// Column x=2 is sky; the rest is ground.
	w := New(rowsLayout(
		".. ..",
		".. ..",
		".. ..",
	))
	x, y := TileCoord{X: 1, Y: 1}.Center()

	nx, ny := w.MoveWithCollision(x, y, 6, 0)
	if nx != x || ny != y {
		t.Fatalf("expected x blocked by sky column, got (%v,%v)", nx, ny)
	}

	nx, ny = w.MoveWithCollision(x, y, 6, 5)
	if nx != x {
		t.Fatalf("expected x cancelled, got %v", nx)
	}
	if ny != y+5 {
		t.Fatalf("expected slide along y, got %v", ny)
	}

	nx, ny = w.MoveWithCollision(x, y, -3, 0)
	if nx != x-3 || ny != y {
		t.Fatalf("expected free move left, got (%v,%v)", nx, ny)
	}
}

func TestMoveWithCollisionSolidDecoration(t *testing.T) {
	w := New(rowsLayout(
		"...",
		".R.",
		"...",
	))
	x, y := TileCoord{X: 1, Y: 0}.Center()
	_, ny := w.MoveWithCollision(x, y, 0, 6)
	if ny != y {
		t.Fatalf("expected rock to block downward move, got y=%v", ny)
	}
	w.DecorationAt(1, 1).Solid = false
	_, ny = w.MoveWithCollision(x, y, 0, 6)
	if ny != y+6 {
		t.Fatalf("expected move once rock is not solid, got y=%v", ny)
	}
}

func TestMoveWithCollisionContainment(t *testing.T) {
	w := New(DefaultLayout())
	rng := rand.New(rand.NewSource(7))
	x, y := w.HubSpawn.Center()
	for i := 0; i < 20000; i++ {
		dx := (rng.Float64()*2 - 1) * (TileSize - 0.5)
		dy := (rng.Float64()*2 - 1) * (TileSize - 0.5)
		x, y = w.MoveWithCollision(x, y, dx, dy)
		if w.BoxBlocked(x, y) {
			t.Fatalf("step %d: body at (%v,%v) overlaps a solid tile", i, x, y)
		}
	}
}
