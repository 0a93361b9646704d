// Package game runs the island simulation: one Game per save slot, advanced
// by Step with the elapsed time and the logical input of that frame.
package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"skyisle/internal/domain/dialog"
	"skyisle/internal/domain/entity"
	"skyisle/internal/domain/input"
	"skyisle/internal/domain/save"
	"skyisle/internal/domain/world"
)

// Saver receives a record after every state-changing event. Implementations
// must swallow their own failures; the simulation never sees them.
type Saver interface {
	Save(rec save.Record)
	Reset()
}

// Flags are the one-shot world facts that survive a reload.
type Flags struct {
	ChestOpened    bool `json:"chest_opened"`
	BeaconLit      bool `json:"beacon_lit"`
	HarpiesCleared bool `json:"harpies_cleared"`
}

type Options struct {
	Logger  zerolog.Logger
	Saver   Saver
	Rand    *rand.Rand
	MaxStep time.Duration
}

type Game struct {
	World *world.World
	Flags Flags

	Paused  bool
	SoundOn bool
	Time    float64

	entities    []entity.Entity
	player      *entity.Player
	npc         *entity.NPC
	projectiles []*entity.Projectile

	dialog       *dialog.Dialog
	resetPending bool
	toasts       []Toast
	events       []Event
	hub          entity.Vec
	maxStep      float64

	logger zerolog.Logger
	saver  Saver
	rand   *rand.Rand
}

// New builds a fresh game from a layout. Persisted progress is applied
// afterwards with Restore.
func New(l world.Layout, opts Options) *Game {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.MaxStep <= 0 {
		opts.MaxStep = DefaultMaxStep
	}
	g := &Game{
		World:   world.New(l),
		SoundOn: true,
		maxStep: opts.MaxStep.Seconds(),
		logger:  opts.Logger,
		saver:   opts.Saver,
		rand:    opts.Rand,
	}
	hx, hy := l.HubSpawn.Center()
	g.hub = entity.Vec{X: hx, Y: hy}

	px, py := l.PlayerStart.Center()
	g.player = &entity.Player{
		Position: entity.Vec{X: px, Y: py},
		Speed:    playerSpeed,
		RunSpeed: playerRunSpeed,
		Facing:   entity.Right,
		HP:       playerBaseHP,
		MaxHP:    playerBaseHP,
		Level:    1,
	}
	nx, ny := l.NPC.Tile.Center()
	g.npc = &entity.NPC{Name: l.NPC.Name, Position: entity.Vec{X: nx, Y: ny}}
	g.entities = append(g.entities, g.player, g.npc)

	for _, t := range l.Slimes {
		x, y := t.Center()
		g.entities = append(g.entities, &entity.Slime{Position: entity.Vec{X: x, Y: y}, HP: slimeHP, MaxHP: slimeHP})
	}
	for _, t := range l.Harpies {
		x, y := t.Center()
		g.entities = append(g.entities, &entity.Harpy{
			Position:     entity.Vec{X: x, Y: y},
			HP:           harpyHP,
			MaxHP:        harpyHP,
			Alive:        true,
			Aim:          entity.Left,
			FireCooldown: g.fireCooldown(),
			Phase:        (x + y) * 0.05,
		})
	}
	return g
}

func (g *Game) Player() *entity.Player { return g.player }
func (g *Game) NPC() *entity.NPC       { return g.npc }

// Entities returns the live entity list; projectiles are kept separately.
func (g *Game) Entities() []entity.Entity { return g.entities }

func (g *Game) Projectiles() []*entity.Projectile { return g.projectiles }

// Dialog returns the open dialog, or nil.
func (g *Game) Dialog() *dialog.Dialog { return g.dialog }

func (g *Game) Hub() entity.Vec { return g.hub }

// Harpies returns the harpies in spawn order.
func (g *Game) Harpies() []*entity.Harpy {
	out := make([]*entity.Harpy, 0)
	for _, e := range g.entities {
		if h, ok := e.(*entity.Harpy); ok {
			out = append(out, h)
		}
	}
	return out
}

// Slimes returns the slimes in spawn order.
func (g *Game) Slimes() []*entity.Slime {
	out := make([]*entity.Slime, 0)
	for _, e := range g.entities {
		if s, ok := e.(*entity.Slime); ok {
			out = append(out, s)
		}
	}
	return out
}

// Welcome opens the non-blocking greeting banner.
func (g *Game) Welcome() {
	g.openDialog(dialog.NewBanner([]string{
		"Welcome to the sky island.",
		"Move to look around. E to talk or pick things up, J to swing, K to dash.",
	}))
}

// Step advances the simulation by dt seconds using the frame's input.
func (g *Game) Step(dt float64, in input.Query) {
	dt = math.Max(0, math.Min(dt, g.maxStep))
	g.Time += dt

	if in.Pressed(input.Pause) {
		g.Paused = !g.Paused
		if g.Paused {
			g.emit(EventPaused, "", 0)
		} else {
			g.emit(EventResumed, "", 0)
		}
	}
	if g.Paused {
		g.stepPaused(in)
		return
	}

	consumed := g.stepDialog(in)
	if !g.inputBlocked() {
		g.stepPlayer(dt, in, consumed)
	}

	p := g.player
	p.AttackCooldown = math.Max(0, p.AttackCooldown-dt)
	p.Dash = math.Max(0, p.Dash-dt)
	p.DashCooldown = math.Max(0, p.DashCooldown-dt)

	for _, e := range g.entities {
		switch e := e.(type) {
		case *entity.Player, *entity.NPC, *entity.Projectile:
		case *entity.Slime:
			g.updateSlime(e, dt)
		case *entity.Harpy:
			g.updateHarpy(e, dt)
		}
	}
	g.updateProjectiles(dt)

	p.Invulnerable = math.Max(0, p.Invulnerable-dt)
	g.decayToasts(dt)
}

// stepPaused handles the actions that stay live while paused.
func (g *Game) stepPaused(in input.Query) {
	if in.Pressed(input.ToggleSound) {
		g.SoundOn = !g.SoundOn
		g.emit(EventSoundToggled, "", boolInt(g.SoundOn))
		if g.SoundOn {
			g.toast("Sound on.")
		} else {
			g.toast("Sound off.")
		}
	}
	if in.Pressed(input.ResetSave) {
		if g.saver != nil {
			g.saver.Reset()
		}
		g.resetPending = true
		g.emit(EventSaveReset, "", 0)
		g.toast("Save cleared. Progress restarts on next load.")
		g.logger.Info().Msg("save reset requested")
	}
}

// stepDialog feeds the frame to the open dialog and reports whether the
// interact press was spent on it.
func (g *Game) stepDialog(in input.Query) bool {
	d := g.dialog
	if d == nil {
		return false
	}
	consumed := false
	switch {
	case in.Pressed(input.Interact):
		consumed = true
		if cmd, closed := d.Acknowledge(); closed {
			g.closeDialog(cmd)
		} else {
			g.emit(EventDialogSkipped, "", 0)
		}
	case d.ClosesOnFirstMove && input.AnyMove(in):
		if cmd, closed := d.Close(); closed {
			g.closeDialog(cmd)
		}
	}
	if g.dialog == d {
		d.Tick()
	}
	return consumed
}

func (g *Game) inputBlocked() bool {
	return g.dialog != nil && g.dialog.BlocksInput
}

func (g *Game) stepPlayer(dt float64, in input.Query, interactConsumed bool) {
	p := g.player
	ax, ay := input.Axis(in)
	p.Face(ax, ay)

	if in.Pressed(input.Dash) && p.DashCooldown <= 0 && !p.Dashing() {
		p.Dash = dashDuration
		p.DashCooldown = dashCooldown
		if p.HasGlider {
			p.DashCooldown = gliderDashCooldown
		}
		g.emit(EventDash, "", 0)
	}

	var dx, dy float64
	if p.Dashing() {
		dx, dy = p.Facing.X*dashSpeed*dt, p.Facing.Y*dashSpeed*dt
	} else {
		speed := p.Speed
		if in.Held(input.Run) {
			speed = p.RunSpeed
		}
		dx, dy = ax*speed*dt, ay*speed*dt
	}
	if dx != 0 || dy != 0 {
		p.Position.X, p.Position.Y = g.World.MoveWithCollision(p.Position.X, p.Position.Y, dx, dy)
	}

	if in.Pressed(input.Attack) {
		g.tryAttack()
	}
	if in.Pressed(input.Interact) && !interactConsumed {
		g.interact()
	}
}

func (g *Game) fireCooldown() float64 {
	return harpyFireMin + g.rand.Float64()*(harpyFireMax-harpyFireMin)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
