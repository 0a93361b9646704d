// Package desktop runs a game in a local ebiten window.
package desktop

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"

	"skyisle/internal/app/game"
	"skyisle/internal/domain/input"
	"skyisle/internal/domain/world"
)

const (
	screenW = 480
	screenH = 320
	scale   = 2
)

// bindings maps every action to the keys that drive it.
var bindings = map[input.Action][]ebiten.Key{
	input.MoveUp:      {ebiten.KeyW, ebiten.KeyArrowUp},
	input.MoveDown:    {ebiten.KeyS, ebiten.KeyArrowDown},
	input.MoveLeft:    {ebiten.KeyA, ebiten.KeyArrowLeft},
	input.MoveRight:   {ebiten.KeyD, ebiten.KeyArrowRight},
	input.Run:         {ebiten.KeyShiftLeft, ebiten.KeyShiftRight},
	input.Attack:      {ebiten.KeyJ},
	input.Interact:    {ebiten.KeyE, ebiten.KeySpace},
	input.Dash:        {ebiten.KeyK},
	input.Pause:       {ebiten.KeyEscape},
	input.ToggleSound: {ebiten.KeyS},
	input.ResetSave:   {ebiten.KeyR},
}

var (
	colGround     = color.RGBA{R: 92, G: 148, B: 84, A: 255}
	colVoid       = color.RGBA{R: 24, G: 36, B: 64, A: 255}
	colPlayer     = color.RGBA{R: 240, G: 220, B: 140, A: 255}
	colPlayerHurt = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colNPC        = color.RGBA{R: 150, G: 120, B: 220, A: 255}
	colSlime      = color.RGBA{R: 90, G: 210, B: 120, A: 255}
	colHarpy      = color.RGBA{R: 220, G: 110, B: 150, A: 255}
	colHurt       = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	colShot       = color.RGBA{R: 255, G: 190, B: 90, A: 255}
	colPanel      = color.RGBA{R: 10, G: 10, B: 20, A: 200}
)

var decorationColors = map[world.DecorationType]color.RGBA{
	world.DecorationTree:     {R: 40, G: 96, B: 52, A: 255},
	world.DecorationRock:     {R: 120, G: 120, B: 128, A: 255},
	world.DecorationMushroom: {R: 210, G: 70, B: 60, A: 255},
	world.DecorationChest:    {R: 150, G: 100, B: 50, A: 255},
	world.DecorationShard:    {R: 120, G: 220, B: 250, A: 255},
	world.DecorationBeacon:   {R: 90, G: 90, B: 110, A: 255},
	world.DecorationForge:    {R: 170, G: 70, B: 30, A: 255},
}

var colBeaconLit = color.RGBA{R: 255, G: 230, B: 120, A: 255}

// Runner adapts a game to ebiten's update and draw callbacks.
type Runner struct {
	game   *game.Game
	frame  *input.Frame
	clock  *game.Clock
	logger zerolog.Logger
	now    func() time.Time
}

func NewRunner(g *game.Game, maxStep time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		game:   g,
		frame:  input.NewFrame(),
		clock:  game.NewClock(maxStep),
		logger: logger,
		now:    time.Now,
	}
}

// Run opens the window and blocks until it is closed.
func (r *Runner) Run(title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(screenW*scale, screenH*scale)
	return ebiten.RunGame(r)
}

func (r *Runner) Update() error {
	r.poll()
	r.game.Step(r.clock.Tick(r.now()), r.frame)
	r.frame.EndFrame()
	for _, ev := range r.game.DrainEvents() {
		r.logger.Debug().Str("event", string(ev.Kind)).Str("subject", ev.Subject).Int("value", ev.Value).Msg("game event")
	}
	return nil
}

func (r *Runner) poll() {
	for _, a := range input.Actions {
		held, pressed := false, false
		for _, k := range bindings[a] {
			held = held || ebiten.IsKeyPressed(k)
			pressed = pressed || inpututil.IsKeyJustPressed(k)
		}
		switch {
		case pressed:
			r.frame.Press(a)
		case held:
			r.frame.Hold(a)
		default:
			r.frame.Release(a)
		}
	}
}

func (r *Runner) Layout(_, _ int) (int, int) {
	return screenW, screenH
}

func (r *Runner) Draw(screen *ebiten.Image) {
	v := r.game.Snapshot()
	screen.Fill(colVoid)

	// Camera centred on the player.
	camX := float32(v.Player.Position.X) - screenW/2
	camY := float32(v.Player.Position.Y) - screenH/2

	grid := r.game.World.Grid
	for ty := 0; ty < grid.Height; ty++ {
		for tx := 0; tx < grid.Width; tx++ {
			if !grid.Walkable(tx, ty) {
				continue
			}
			x := float32(tx*world.TileSize) - camX
			y := float32(ty*world.TileSize) - camY
			if x < -world.TileSize || y < -world.TileSize || x > screenW || y > screenH {
				continue
			}
			vector.DrawFilledRect(screen, x, y, world.TileSize, world.TileSize, colGround, false)
		}
	}

	for _, d := range v.Decorations {
		col := decorationColors[d.Type]
		if d.Type == world.DecorationBeacon && d.Active {
			col = colBeaconLit
		}
		x := float32(d.Tile.X*world.TileSize) - camX
		y := float32(d.Tile.Y*world.TileSize) - camY
		inset := float32(2)
		if !d.Solid {
			inset = 5
		}
		vector.DrawFilledRect(screen, x+inset, y+inset, world.TileSize-2*inset, world.TileSize-2*inset, col, false)
	}

	body := func(x, y float64, half float32, col color.Color) {
		vector.DrawFilledRect(screen, float32(x)-camX-half, float32(y)-camY-half, half*2, half*2, col, false)
	}
	body(v.NPC.Position.X, v.NPC.Position.Y, 5, colNPC)
	for _, s := range v.Slimes {
		col := colSlime
		if s.Hurt {
			col = colHurt
		}
		body(s.Position.X, s.Position.Y, 5, col)
	}
	for _, h := range v.Harpies {
		col := colHarpy
		if h.Hurt {
			col = colHurt
		}
		body(h.Position.X, h.Position.Y, 6, col)
	}
	for _, p := range v.Projectiles {
		vector.DrawFilledCircle(screen, float32(p.X)-camX, float32(p.Y)-camY, 2, colShot, false)
	}
	pc := color.Color(colPlayer)
	if v.Player.Invulnerable && int(v.Time*20)%2 == 0 {
		pc = colPlayerHurt
	}
	body(v.Player.Position.X, v.Player.Position.Y, world.BodyHalfSize, pc)

	r.drawHUD(screen, v)
}

func (r *Runner) drawHUD(screen *ebiten.Image, v game.View) {
	p := v.Player
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("HP %d/%d  Lv %d  XP %d/%d  Coins %d",
		p.HP, p.MaxHP, p.Level, p.XP, p.XPToNext, p.Inventory.Coin), 6, 4)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Mushrooms %d  Shards %d  Feathers %d",
		p.Inventory.Mushroom, p.Inventory.Shard, p.Inventory.Feather), 6, 18)

	for i, t := range v.Toasts {
		ebitenutil.DebugPrintAt(screen, t, 6, 40+i*14)
	}
	if v.Prompt != "" && v.Dialog == nil {
		ebitenutil.DebugPrintAt(screen, v.Prompt, screenW/2-60, screenH-52)
	}
	if d := v.Dialog; d != nil {
		vector.DrawFilledRect(screen, 8, screenH-64, screenW-16, 56, colPanel, false)
		ebitenutil.DebugPrintAt(screen, d.Text, 16, screenH-58)
		if d.Done && d.Blocking {
			ebitenutil.DebugPrintAt(screen, "[E]", screenW-40, screenH-22)
		}
	}
	if v.Paused {
		vector.DrawFilledRect(screen, 0, 0, screenW, screenH, colPanel, false)
		sound := "off"
		if v.SoundOn {
			sound = "on"
		}
		ebitenutil.DebugPrintAt(screen, "PAUSED", screenW/2-18, screenH/2-30)
		ebitenutil.DebugPrintAt(screen, "S: sound "+sound+"   R: reset save   Esc: resume", screenW/2-130, screenH/2-10)
	}
}
