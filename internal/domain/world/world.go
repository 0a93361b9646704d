package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	TileSize = 16
	// MaxSpan bounds layout width and height so tile keys stay unique.
	MaxSpan = 1 << 15
	// BodyHalfSize is the half-width of every walking body's square bounding box.
	BodyHalfSize = 4.0
)

type DecorationType string

const (
	DecorationTree     DecorationType = "tree"
	DecorationRock     DecorationType = "rock"
	DecorationMushroom DecorationType = "mushroom"
	DecorationChest    DecorationType = "chest"
	DecorationShard    DecorationType = "shard"
	DecorationBeacon   DecorationType = "beacon"
	DecorationForge    DecorationType = "forge"
)

type PickupKind string

const (
	PickupNone     PickupKind = ""
	PickupMushroom PickupKind = "mushroom"
	PickupShard    PickupKind = "shard"
)

// PickupKinds lists every pickup kind in persistence order.
var PickupKinds = []PickupKind{PickupMushroom, PickupShard}

type traits struct {
	solid  bool
	pickup PickupKind
}

var decorationTraits = map[DecorationType]traits{
	DecorationTree:     {solid: true},
	DecorationRock:     {solid: true},
	DecorationMushroom: {pickup: PickupMushroom},
	DecorationChest:    {solid: true},
	DecorationShard:    {pickup: PickupShard},
	DecorationBeacon:   {solid: true},
	DecorationForge:    {solid: true},
}

// TileCoord addresses one grid cell.
type TileCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// key packs an in-bounds coordinate; callers check bounds first.
func (c TileCoord) key() uint32 {
	return uint32(c.X)<<16 | uint32(c.Y)
}

func (c TileCoord) String() string {
	return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y)
}

// ParseTileCoord parses the "x,y" form produced by TileCoord.String.
func ParseTileCoord(s string) (TileCoord, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return TileCoord{}, fmt.Errorf("tile coord %q: missing comma", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return TileCoord{}, fmt.Errorf("tile coord %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return TileCoord{}, fmt.Errorf("tile coord %q: %w", s, err)
	}
	return TileCoord{X: x, Y: y}, nil
}

// Center returns the world-space centre of the tile.
func (c TileCoord) Center() (float64, float64) {
	return float64(c.X*TileSize) + TileSize/2, float64(c.Y*TileSize) + TileSize/2
}

// TileAt returns the tile containing the world-space point.
func TileAt(px, py float64) TileCoord {
	return TileCoord{X: int(math.Floor(px / TileSize)), Y: int(math.Floor(py / TileSize))}
}

// Decoration is a static object placed on a walkable tile. Only Solid and
// Picked change after the world is built.
type Decoration struct {
	Type   DecorationType
	Solid  bool
	Pickup PickupKind
	Picked bool
}

// Placed pairs a decoration with its tile.
type Placed struct {
	Tile       TileCoord
	Decoration *Decoration
}

// Grid is the immutable walkability field.
type Grid struct {
	Width    int
	Height   int
	walkable []bool
}

func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, walkable: make([]bool, width*height)}
}

func (g *Grid) InBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < g.Width && ty < g.Height
}

// Walkable reports whether the tile is ground. Out of bounds is never walkable.
func (g *Grid) Walkable(tx, ty int) bool {
	if !g.InBounds(tx, ty) {
		return false
	}
	return g.walkable[ty*g.Width+tx]
}

func (g *Grid) set(tx, ty int, v bool) {
	if g.InBounds(tx, ty) {
		g.walkable[ty*g.Width+tx] = v
	}
}

// World owns the grid and the sparse decoration registry.
type World struct {
	Grid     *Grid
	HubSpawn TileCoord

	decorations map[uint32]*Decoration
	order       []TileCoord
}

func (w *World) Walkable(tx, ty int) bool {
	return w.Grid.Walkable(tx, ty)
}

// DecorationAt returns the decoration on the tile, or nil.
func (w *World) DecorationAt(tx, ty int) *Decoration {
	if !w.Grid.InBounds(tx, ty) {
		return nil
	}
	return w.decorations[TileCoord{X: tx, Y: ty}.key()]
}

// SolidAtTile is true for non-walkable tiles and tiles holding a solid decoration.
func (w *World) SolidAtTile(tx, ty int) bool {
	if !w.Grid.Walkable(tx, ty) {
		return true
	}
	d := w.DecorationAt(tx, ty)
	return d != nil && d.Solid
}

// Decorations returns every placed decoration in placement order.
func (w *World) Decorations() []Placed {
	out := make([]Placed, 0, len(w.order))
	for _, c := range w.order {
		out = append(out, Placed{Tile: c, Decoration: w.decorations[c.key()]})
	}
	return out
}

// DecorationsOf returns the placed decorations of one type in placement order.
func (w *World) DecorationsOf(t DecorationType) []Placed {
	out := make([]Placed, 0)
	for _, c := range w.order {
		if d := w.decorations[c.key()]; d.Type == t {
			out = append(out, Placed{Tile: c, Decoration: d})
		}
	}
	return out
}

// place registers a decoration; tiles that are not ground are skipped.
func (w *World) place(c TileCoord, t DecorationType) bool {
	if !w.Grid.Walkable(c.X, c.Y) {
		return false
	}
	tr := decorationTraits[t]
	k := c.key()
	if _, exists := w.decorations[k]; !exists {
		w.order = append(w.order, c)
	}
	w.decorations[k] = &Decoration{Type: t, Solid: tr.solid, Pickup: tr.pickup}
	return true
}

// New builds a fresh world from a layout. Decorations are rebuilt from the
// layout every time, never from persisted state.
func New(l Layout) *World {
	w := &World{
		Grid:        NewGrid(l.Width, l.Height),
		HubSpawn:    l.HubSpawn,
		decorations: make(map[uint32]*Decoration),
	}
	for _, op := range l.Shape {
		switch {
		case op.Paint != nil:
			r := op.Paint
			for y := r.Y; y < r.Y+r.H; y++ {
				for x := r.X; x < r.X+r.W; x++ {
					w.Grid.set(x, y, true)
				}
			}
		case op.Carve != nil:
			c := op.Carve
			for y := c.Y - c.R - 1; y <= c.Y+c.R+1; y++ {
				for x := c.X - c.R - 1; x <= c.X+c.R+1; x++ {
					dx, dy := x-c.X, y-c.Y
					if dx*dx+dy*dy <= c.R*c.R {
						w.Grid.set(x, y, false)
					}
				}
			}
		}
	}
	for y, row := range l.Rows {
		x := 0
		for _, r := range row {
			if r == '.' {
				w.Grid.set(x, y, true)
			} else if t, ok := decorationRunes[r]; ok {
				w.Grid.set(x, y, true)
				w.place(TileCoord{X: x, Y: y}, t)
			}
			x++
		}
	}
	for _, group := range l.Decorations {
		for _, c := range group.Tiles {
			w.place(c, group.Type)
		}
	}
	return w
}
