package game

import (
	"skyisle/internal/domain/entity"
	"skyisle/internal/domain/world"
)

// View is a read-only copy of everything a renderer needs for one frame.
type View struct {
	Time    float64 `json:"time"`
	Paused  bool    `json:"paused"`
	SoundOn bool    `json:"sound_on"`

	Player      PlayerView       `json:"player"`
	NPC         NPCView          `json:"npc"`
	Slimes      []EnemyView      `json:"slimes"`
	Harpies     []EnemyView      `json:"harpies"`
	Projectiles []entity.Vec     `json:"projectiles"`
	Decorations []DecorationView `json:"decorations"`

	Dialog *DialogView `json:"dialog,omitempty"`
	Prompt string      `json:"prompt,omitempty"`
	Toasts []string    `json:"toasts"`
	Flags  Flags       `json:"flags"`
}

type PlayerView struct {
	Position     entity.Vec       `json:"position"`
	Facing       entity.Vec       `json:"facing"`
	HP           int              `json:"hp"`
	MaxHP        int              `json:"max_hp"`
	XP           int              `json:"xp"`
	XPToNext     int              `json:"xp_to_next"`
	Level        int              `json:"level"`
	Inventory    entity.Inventory `json:"inventory"`
	HasGlider    bool             `json:"has_glider"`
	Invulnerable bool             `json:"invulnerable"`
	Dashing      bool             `json:"dashing"`
	Attacking    bool             `json:"attacking"`
}

type NPCView struct {
	Name     string     `json:"name"`
	Position entity.Vec `json:"position"`
	Quest    int        `json:"quest"`
}

type EnemyView struct {
	Position entity.Vec `json:"position"`
	HP       int        `json:"hp"`
	MaxHP    int        `json:"max_hp"`
	Hurt     bool       `json:"hurt"`
}

type DecorationView struct {
	Type  world.DecorationType `json:"type"`
	Tile  world.TileCoord      `json:"tile"`
	Solid bool                 `json:"solid"`
	// Active marks an opened chest or a lit beacon.
	Active bool `json:"active,omitempty"`
}

type DialogView struct {
	Text     string `json:"text"`
	Done     bool   `json:"done"`
	Blocking bool   `json:"blocking"`
}

// Snapshot copies the current state. Dead enemies and picked decorations are
// left out.
func (g *Game) Snapshot() View {
	v := View{
		Time:        g.Time,
		Paused:      g.Paused,
		SoundOn:     g.SoundOn,
		Slimes:      []EnemyView{},
		Harpies:     []EnemyView{},
		Projectiles: make([]entity.Vec, 0, len(g.projectiles)),
		Decorations: []DecorationView{},
		Toasts:      []string{},
		Flags:       g.Flags,
	}
	for _, e := range g.entities {
		switch e := e.(type) {
		case *entity.Player:
			v.Player = PlayerView{
				Position:     e.Position,
				Facing:       e.Facing,
				HP:           e.HP,
				MaxHP:        e.MaxHP,
				XP:           e.XP,
				XPToNext:     XPToLevel(e.Level),
				Level:        e.Level,
				Inventory:    e.Inventory,
				HasGlider:    e.HasGlider,
				Invulnerable: e.Invulnerable > 0,
				Dashing:      e.Dashing(),
				Attacking:    e.AttackCooldown > attackCooldown/2,
			}
		case *entity.NPC:
			v.NPC = NPCView{Name: e.Name, Position: e.Position, Quest: e.QuestState}
		case *entity.Slime:
			if e.Alive() {
				v.Slimes = append(v.Slimes, EnemyView{Position: e.Position, HP: e.HP, MaxHP: e.MaxHP, Hurt: e.Hurt > 0})
			}
		case *entity.Harpy:
			if e.Alive {
				v.Harpies = append(v.Harpies, EnemyView{Position: e.Position, HP: e.HP, MaxHP: e.MaxHP, Hurt: e.Hurt > 0})
			}
		case *entity.Projectile:
		}
	}
	for _, pr := range g.projectiles {
		v.Projectiles = append(v.Projectiles, pr.Position)
	}
	for _, pl := range g.World.Decorations() {
		d := pl.Decoration
		if d.Picked {
			continue
		}
		active := (d.Type == world.DecorationChest && g.Flags.ChestOpened) ||
			(d.Type == world.DecorationBeacon && g.Flags.BeaconLit)
		v.Decorations = append(v.Decorations, DecorationView{Type: d.Type, Tile: pl.Tile, Solid: d.Solid, Active: active})
	}
	if d := g.dialog; d != nil {
		v.Dialog = &DialogView{Text: d.Visible(), Done: d.FullyRevealed, Blocking: d.BlocksInput}
	} else {
		v.Prompt = g.Target().Prompt()
	}
	for _, t := range g.toasts {
		v.Toasts = append(v.Toasts, t.Text)
	}
	return v
}
