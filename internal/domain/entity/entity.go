// Package entity holds the closed set of simulated things. Entity is a sealed
// interface; callers dispatch with a type switch over the concrete kinds.
package entity

import "math"

type Kind string

const (
	KindPlayer     Kind = "player"
	KindNPC        Kind = "npc"
	KindSlime      Kind = "slime"
	KindHarpy      Kind = "harpy"
	KindProjectile Kind = "projectile"
)

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(o Vec) Vec                { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec                { return Vec{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec) Scale(s float64) Vec          { return Vec{X: v.X * s, Y: v.Y * s} }
func (v Vec) Len() float64                 { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist2(o Vec) float64          { return (v.X-o.X)*(v.X-o.X) + (v.Y-o.Y)*(v.Y-o.Y) }
func (v Vec) IsZero() bool                 { return v.X == 0 && v.Y == 0 }
func (v Vec) Perp() Vec                    { return Vec{X: -v.Y, Y: v.X} }
func (v Vec) Equal(o Vec) bool             { return v.X == o.X && v.Y == o.Y }
func (v Vec) Within(o Vec, r float64) bool { return v.Dist2(o) < r*r }

// Normalized returns the unit vector, or the zero vector for zero input.
func (v Vec) Normalized() Vec {
	n := v.Len()
	if n < 1e-9 {
		return Vec{}
	}
	return Vec{X: v.X / n, Y: v.Y / n}
}

var (
	Right = Vec{X: 1}
	Left  = Vec{X: -1}
	Down  = Vec{Y: 1}
	Up    = Vec{Y: -1}
)

type Entity interface {
	Kind() Kind
	Pos() Vec
	entity()
}

type Inventory struct {
	Mushroom int `json:"mushroom"`
	Coin     int `json:"coin"`
	Shard    int `json:"shard"`
	Feather  int `json:"feather"`
}

type Player struct {
	Position Vec
	Speed    float64
	RunSpeed float64

	// Facing is always one of Right, Left, Down, Up.
	Facing Vec

	HP    int
	MaxHP int
	XP    int
	Level int

	Inventory Inventory
	HasGlider bool

	AttackCooldown float64
	Invulnerable   float64
	Dash           float64
	DashCooldown   float64
}

func (p *Player) Kind() Kind { return KindPlayer }
func (p *Player) Pos() Vec   { return p.Position }
func (*Player) entity()      {}

// Dashing reports whether a dash is in progress.
func (p *Player) Dashing() bool { return p.Dash > 0 }

// Face turns the player toward the dominant axis of (ax, ay). An exact
// diagonal keeps the current axis so attacks never go diagonal.
func (p *Player) Face(ax, ay float64) {
	if ax == 0 && ay == 0 {
		return
	}
	absX, absY := math.Abs(ax), math.Abs(ay)
	switch {
	case absX > absY:
		p.Facing = Vec{X: sign(ax)}
	case absY > absX:
		p.Facing = Vec{Y: sign(ay)}
	case p.Facing.Y != 0:
		p.Facing = Vec{Y: sign(ay)}
	default:
		p.Facing = Vec{X: sign(ax)}
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

type NPC struct {
	Name     string
	Position Vec

	// QuestState only ever increases.
	QuestState int
}

func (n *NPC) Kind() Kind { return KindNPC }
func (n *NPC) Pos() Vec   { return n.Position }
func (*NPC) entity()      {}

type Slime struct {
	Position Vec
	HP       int
	MaxHP    int
	Dir      Vec
	Wander   float64
	Hurt     float64
}

func (s *Slime) Kind() Kind { return KindSlime }
func (s *Slime) Pos() Vec   { return s.Position }
func (*Slime) entity()      {}

// Alive is derived from HP for slimes.
func (s *Slime) Alive() bool { return s.HP > 0 }

type Harpy struct {
	Position     Vec
	HP           int
	MaxHP        int
	Alive        bool
	Aim          Vec
	FireCooldown float64
	Hurt         float64

	// Phase offsets the weaving drift; derived from the spawn position.
	Phase float64
}

func (h *Harpy) Kind() Kind { return KindHarpy }
func (h *Harpy) Pos() Vec   { return h.Position }
func (*Harpy) entity()      {}

type Projectile struct {
	Position Vec
	Velocity Vec
	Age      float64
	Spent    bool
}

func (p *Projectile) Kind() Kind { return KindProjectile }
func (p *Projectile) Pos() Vec   { return p.Position }
func (*Projectile) entity()      {}
