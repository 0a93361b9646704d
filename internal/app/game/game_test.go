package game

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"skyisle/internal/domain/dialog"
	"skyisle/internal/domain/entity"
	"skyisle/internal/domain/input"
	"skyisle/internal/domain/save"
	"skyisle/internal/domain/world"
)

const frame = 1.0 / 60

type memSaver struct {
	saves  []save.Record
	resets int
}

func (m *memSaver) Save(r save.Record) { m.saves = append(m.saves, r) }
func (m *memSaver) Reset()             { m.resets++ }

func (m *memSaver) last(t *testing.T) save.Record {
	t.Helper()
	if len(m.saves) == 0 {
		t.Fatal("expected at least one save")
	}
	return m.saves[len(m.saves)-1]
}

// arena is a walled 10x6 floor with a beacon at (8,2), a chest at (8,4) and
// a forge at (8,6).
func arena() world.Layout {
	return world.Layout{
		Width:  12,
		Height: 8,
		Rows: []string{
			"~~~~~~~~~~~~",
			"~..........~",
			"~.......B..~",
			"~..........~",
			"~.......C..~",
			"~..........~",
			"~.......F..~",
			"~~~~~~~~~~~~",
		},
		HubSpawn:    world.TileCoord{X: 2, Y: 2},
		PlayerStart: world.TileCoord{X: 2, Y: 2},
		NPC:         world.NPCSpawn{Name: "Keeper", Tile: world.TileCoord{X: 2, Y: 5}},
	}
}

func newTestGame(t *testing.T, l world.Layout) (*Game, *memSaver) {
	t.Helper()
	s := &memSaver{}
	g := New(l, Options{Logger: zerolog.Nop(), Saver: s, Rand: rand.New(rand.NewSource(1))})
	return g, s
}

func press(a ...input.Action) *input.Frame { return input.NewFrame().Press(a...) }
func hold(a ...input.Action) *input.Frame  { return input.NewFrame().Hold(a...) }
func idle() *input.Frame                   { return input.NewFrame() }

func tileCenter(x, y int) entity.Vec {
	cx, cy := world.TileCoord{X: x, Y: y}.Center()
	return entity.Vec{X: cx, Y: cy}
}

// closeDialog presses interact until the open dialog is gone.
func closeDialog(t *testing.T, g *Game) {
	t.Helper()
	for i := 0; g.Dialog() != nil; i++ {
		if i > 3 {
			t.Fatal("dialog did not close")
		}
		g.Step(frame, press(input.Interact))
	}
}

func TestPickupMushroomPersists(t *testing.T) {
	g, s := newTestGame(t, world.DefaultLayout())
	g.Player().Position = tileCenter(12, 29)

	g.Step(frame, press(input.Interact))

	if got := g.Player().Inventory.Mushroom; got != 1 {
		t.Fatalf("expected 1 mushroom, got %d", got)
	}
	if d := g.World.DecorationAt(12, 29); d == nil || !d.Picked {
		t.Fatalf("expected mushroom at 12,29 to be picked")
	}
	rec := s.last(t)
	if got := rec.Picked[world.PickupMushroom]; len(got) != 1 || got[0] != "12,29" {
		t.Fatalf("unexpected persisted picks %v", got)
	}

	g.Step(frame, press(input.Interact))
	if got := g.Player().Inventory.Mushroom; got != 1 {
		t.Fatalf("picked mushroom must not be collected twice, got %d", got)
	}
}

func TestQuestAdvancesOnlyWhenDialogCloses(t *testing.T) {
	g, s := newTestGame(t, arena())
	g.Player().Position = tileCenter(2, 4)

	g.Step(frame, press(input.Interact))
	if g.Dialog() == nil {
		t.Fatal("expected the npc dialog to open")
	}
	if g.NPC().QuestState != QuestIntro {
		t.Fatalf("quest must not advance before close, got %d", g.NPC().QuestState)
	}
	closeDialog(t, g)
	if g.NPC().QuestState != QuestMushrooms {
		t.Fatalf("expected quest %d, got %d", QuestMushrooms, g.NPC().QuestState)
	}
	if s.last(t).Quest != QuestMushrooms {
		t.Fatal("quest advance must be persisted")
	}
}

func TestMushroomRewardPaidOnce(t *testing.T) {
	g, _ := newTestGame(t, arena())
	p := g.Player()
	p.Position = tileCenter(2, 4)
	p.Inventory.Mushroom = 4
	g.NPC().QuestState = QuestMushrooms

	g.Step(frame, press(input.Interact))
	closeDialog(t, g)
	if p.Inventory.Mushroom != 1 || p.MaxHP != playerBaseHP+mushroomMaxHPBonus {
		t.Fatalf("unexpected reward state: mushrooms=%d maxHP=%d", p.Inventory.Mushroom, p.MaxHP)
	}
	if g.NPC().QuestState != QuestBeacon {
		t.Fatalf("expected quest %d, got %d", QuestBeacon, g.NPC().QuestState)
	}

	for i := 0; i < 3; i++ {
		g.Step(frame, press(input.Interact))
		closeDialog(t, g)
	}
	if p.MaxHP != playerBaseHP+mushroomMaxHPBonus || p.Inventory.Mushroom != 1 {
		t.Fatalf("reward paid again: mushrooms=%d maxHP=%d", p.Inventory.Mushroom, p.MaxHP)
	}

	// A stale command replayed after the state moved on does nothing.
	g.run(dialog.Command{Op: opCompleteMushrooms})
	if p.MaxHP != playerBaseHP+mushroomMaxHPBonus {
		t.Fatalf("replayed command changed max hp to %d", p.MaxHP)
	}
}

func TestLethalContactRespawnsAtHub(t *testing.T) {
	l := arena()
	l.Slimes = []world.TileCoord{{X: 6, Y: 4}}
	g, s := newTestGame(t, l)
	p := g.Player()
	p.Position = tileCenter(6, 4)
	p.HP = 1
	g.Slimes()[0].Position = p.Position

	g.Step(frame, idle())

	if p.HP != p.MaxHP {
		t.Fatalf("expected full hp after respawn, got %d/%d", p.HP, p.MaxHP)
	}
	if !p.Position.Equal(g.Hub()) {
		t.Fatalf("expected hub position %v, got %v", g.Hub(), p.Position)
	}
	if p.Invulnerable <= 0 {
		t.Fatal("expected invulnerability after the hit")
	}
	rec := s.last(t)
	if rec.X != g.Hub().X || rec.Y != g.Hub().Y || rec.HP != p.MaxHP {
		t.Fatalf("respawn not persisted: %+v", rec)
	}
}

func TestInvulnerabilityWindow(t *testing.T) {
	l := arena()
	l.Slimes = []world.TileCoord{{X: 6, Y: 4}}
	g, _ := newTestGame(t, l)
	p := g.Player()
	p.Position = tileCenter(6, 4)
	g.Slimes()[0].Position = p.Position

	g.Step(frame, idle())
	if p.HP != playerBaseHP-contactDamage {
		t.Fatalf("expected first contact to land, hp=%d", p.HP)
	}
	for i := 0; i < 10; i++ {
		g.Step(frame, idle())
	}
	if p.HP != playerBaseHP-contactDamage {
		t.Fatalf("contact during invulnerability must not land, hp=%d", p.HP)
	}

	p.Invulnerable = 0
	g.Step(frame, idle())
	if p.HP != playerBaseHP-2*contactDamage {
		t.Fatalf("expected second contact after the window, hp=%d", p.HP)
	}
}

func TestHarpyTakesFourHits(t *testing.T) {
	l := arena()
	l.Harpies = []world.TileCoord{{X: 7, Y: 3}}
	g, s := newTestGame(t, l)
	p := g.Player()
	p.Position = tileCenter(5, 3)
	h := g.Harpies()[0]
	h.Position = p.Position.Add(entity.Right.Scale(attackReach))

	for i := 0; i < 3; i++ {
		p.AttackCooldown = 0
		g.Step(frame, press(input.Attack))
	}
	if !h.Alive || h.HP != 1 {
		t.Fatalf("after three hits expected alive with 1 hp, got alive=%v hp=%d", h.Alive, h.HP)
	}

	p.AttackCooldown = 0
	g.Step(frame, press(input.Attack))
	if h.Alive {
		t.Fatal("fourth hit should down the harpy")
	}
	if p.Inventory.Feather != 1 || p.XP != harpyXP {
		t.Fatalf("unexpected loot: feathers=%d xp=%d", p.Inventory.Feather, p.XP)
	}
	if !g.Flags.HarpiesCleared || !s.last(t).HarpiesCleared {
		t.Fatal("downing the last harpy must set and persist the cleared flag")
	}
}

func TestAttackCooldownGatesSwings(t *testing.T) {
	l := arena()
	l.Slimes = []world.TileCoord{{X: 7, Y: 3}}
	g, _ := newTestGame(t, l)
	p := g.Player()
	p.Position = tileCenter(5, 3)
	s := g.Slimes()[0]
	s.Position = p.Position.Add(entity.Right.Scale(attackReach))

	g.Step(frame, press(input.Attack))
	g.Step(frame, press(input.Attack))
	if s.HP != slimeHP-meleeDamage {
		t.Fatalf("second swing inside the cooldown must not land, hp=%d", s.HP)
	}
}

func TestLevelUpCarriesOverflow(t *testing.T) {
	g, _ := newTestGame(t, arena())
	p := g.Player()

	g.grantXP(13)
	if p.Level != 2 || p.XP != 7 || p.MaxHP != playerBaseHP+levelUpMaxHPBonus || p.HP != p.MaxHP {
		t.Fatalf("unexpected state after 13 xp: level=%d xp=%d maxHP=%d hp=%d", p.Level, p.XP, p.MaxHP, p.HP)
	}
	g.grantXP(3)
	if p.Level != 3 || p.XP != 0 {
		t.Fatalf("expected level 3 with 0 xp, got level=%d xp=%d", p.Level, p.XP)
	}
	if XPToLevel(3) != 14 {
		t.Fatalf("unexpected threshold %d", XPToLevel(3))
	}
}

func TestBeaconLightsAndWakesHarpies(t *testing.T) {
	l := arena()
	l.Harpies = []world.TileCoord{{X: 3, Y: 6}}
	g, _ := newTestGame(t, l)
	p := g.Player()
	p.Position = tileCenter(7, 2)
	h := g.Harpies()[0]
	start := h.Position

	for i := 0; i < 10; i++ {
		g.Step(frame, idle())
	}
	if !h.Position.Equal(start) {
		t.Fatal("harpies must stay dormant until the beacon is lit")
	}

	g.Step(frame, press(input.Interact))
	closeDialog(t, g)
	if g.Flags.BeaconLit {
		t.Fatal("beacon must not light before the quest reaches it")
	}

	g.NPC().QuestState = QuestBeacon
	p.Inventory.Shard = shardBeaconAmount
	g.Step(frame, press(input.Interact))
	closeDialog(t, g)
	if !g.Flags.BeaconLit || p.Inventory.Shard != 0 {
		t.Fatalf("expected lit beacon and spent shards, lit=%v shards=%d", g.Flags.BeaconLit, p.Inventory.Shard)
	}

	g.Step(frame, idle())
	if h.Position.Equal(start) {
		t.Fatal("harpy should move once the beacon is lit")
	}
}

func TestChestOpensOnceAndStopsBlocking(t *testing.T) {
	g, s := newTestGame(t, arena())
	p := g.Player()
	p.Position = tileCenter(7, 4)

	g.Step(frame, press(input.Interact))
	if g.Flags.ChestOpened {
		t.Fatal("chest must open on dialog close, not on interact")
	}
	closeDialog(t, g)
	if !g.Flags.ChestOpened || p.Inventory.Coin != chestCoins {
		t.Fatalf("expected opened chest and %d coins, got %v %d", chestCoins, g.Flags.ChestOpened, p.Inventory.Coin)
	}
	if g.World.SolidAtTile(8, 4) {
		t.Fatal("opened chest must not block movement")
	}
	if !s.last(t).ChestOpened {
		t.Fatal("chest open must be persisted")
	}

	g.Step(frame, press(input.Interact))
	closeDialog(t, g)
	if p.Inventory.Coin != chestCoins {
		t.Fatalf("empty chest paid again: %d", p.Inventory.Coin)
	}
}

func TestForgeRestoresHP(t *testing.T) {
	g, _ := newTestGame(t, arena())
	p := g.Player()
	p.Position = tileCenter(7, 6)
	p.HP = 3
	p.Inventory.Coin = forgeCost + 1

	g.Step(frame, press(input.Interact))
	closeDialog(t, g)
	if p.HP != p.MaxHP || p.Inventory.Coin != 1 {
		t.Fatalf("expected full hp and 1 coin, got hp=%d coins=%d", p.HP, p.Inventory.Coin)
	}
}

func TestBlockingDialogFreezesPlayerAndHostiles(t *testing.T) {
	l := arena()
	l.Slimes = []world.TileCoord{{X: 2, Y: 4}}
	g, _ := newTestGame(t, l)
	p := g.Player()
	p.Position = tileCenter(2, 4)
	g.Slimes()[0].Position = tileCenter(9, 1)

	g.Step(frame, press(input.Interact))
	if g.Dialog() == nil || !g.Dialog().BlocksInput {
		t.Fatal("expected a blocking dialog")
	}

	g.Slimes()[0].Position = p.Position
	before := p.Position
	g.Step(frame, hold(input.MoveRight).Press(input.Attack))
	if !p.Position.Equal(before) {
		t.Fatalf("player moved under a blocking dialog: %v -> %v", before, p.Position)
	}
	if p.AttackCooldown != 0 {
		t.Fatal("attack must be ignored under a blocking dialog")
	}
	if p.HP != playerBaseHP {
		t.Fatalf("hostiles must not land damage under a blocking dialog, hp=%d", p.HP)
	}
}

func TestBannerClosesOnFirstMove(t *testing.T) {
	g, _ := newTestGame(t, arena())
	g.Welcome()
	before := g.Player().Position

	g.Step(frame, hold(input.MoveRight))
	if g.Dialog() != nil {
		t.Fatal("banner should close on movement")
	}
	if g.Player().Position.X <= before.X {
		t.Fatal("banner must not block movement")
	}
}

func TestProjectileIgnoredWhileDashing(t *testing.T) {
	g, _ := newTestGame(t, arena())
	p := g.Player()
	p.Position = tileCenter(5, 3)
	g.projectiles = append(g.projectiles, &entity.Projectile{Position: p.Position})

	p.Dash = 0.1
	g.Step(frame, idle())
	if p.HP != playerBaseHP || len(g.Projectiles()) != 1 {
		t.Fatalf("dash should ignore projectiles, hp=%d projectiles=%d", p.HP, len(g.Projectiles()))
	}

	p.Dash = 0
	g.Step(frame, idle())
	if p.HP != playerBaseHP-projectileDamage || len(g.Projectiles()) != 0 {
		t.Fatalf("expected a hit that removes the projectile, hp=%d projectiles=%d", p.HP, len(g.Projectiles()))
	}
}

func TestProjectileExpires(t *testing.T) {
	g, _ := newTestGame(t, arena())
	g.projectiles = append(g.projectiles, &entity.Projectile{Position: tileCenter(9, 6), Velocity: entity.Vec{}})
	for i := 0; i < int(projectileMaxAge/frame)+2; i++ {
		g.Step(frame, idle())
	}
	if len(g.Projectiles()) != 0 {
		t.Fatal("expected the projectile to expire")
	}
}

func TestDashUsesFacingAndGliderCooldown(t *testing.T) {
	g, _ := newTestGame(t, arena())
	p := g.Player()
	p.Position = tileCenter(4, 3)
	before := p.Position

	g.Step(frame, press(input.Dash))
	if got := p.Position.X - before.X; math.Abs(got-dashSpeed*frame) > 1e-9 {
		t.Fatalf("expected dash step %v, got %v", dashSpeed*frame, got)
	}
	if p.DashCooldown <= gliderDashCooldown {
		t.Fatalf("unexpected cooldown %v without glider", p.DashCooldown)
	}

	p.Dash, p.DashCooldown, p.HasGlider = 0, 0, true
	g.Step(frame, press(input.Dash))
	if p.DashCooldown > gliderDashCooldown {
		t.Fatalf("glider should shorten the cooldown, got %v", p.DashCooldown)
	}
}

func TestPauseFreezesAndHandlesMenuActions(t *testing.T) {
	g, s := newTestGame(t, arena())
	p := g.Player()

	g.Step(frame, press(input.Pause))
	if !g.Paused {
		t.Fatal("expected paused")
	}
	before := p.Position
	g.Step(frame, hold(input.MoveRight).Press(input.ToggleSound, input.ResetSave))
	if !p.Position.Equal(before) {
		t.Fatal("player moved while paused")
	}
	if g.SoundOn {
		t.Fatal("expected sound toggled off")
	}
	if s.resets != 1 {
		t.Fatalf("expected one reset, got %d", s.resets)
	}

	g.Step(frame, press(input.Pause))
	if g.Paused {
		t.Fatal("expected resumed")
	}
}

func TestResetStaysPendingUntilNextSave(t *testing.T) {
	g, s := newTestGame(t, world.DefaultLayout())
	if g.ResetPending() {
		t.Fatal("fresh game has nothing to reset")
	}

	g.Step(frame, press(input.Pause))
	g.Step(frame, press(input.ResetSave))
	g.Step(frame, press(input.Pause))
	if !g.ResetPending() {
		t.Fatal("reset should stay pending after resuming")
	}
	if len(s.saves) != 0 {
		t.Fatalf("reset must not be followed by a save, got %d", len(s.saves))
	}

	g.Player().Position = tileCenter(12, 29)
	g.Step(frame, press(input.Interact))
	if len(s.saves) != 1 {
		t.Fatalf("expected the pickup to save, got %d saves", len(s.saves))
	}
	if g.ResetPending() {
		t.Fatal("a later save supersedes the reset")
	}
}

func TestStepClampsDelta(t *testing.T) {
	g, _ := newTestGame(t, arena())
	p := g.Player()
	before := p.Position

	g.Step(5, hold(input.MoveRight))
	if got := p.Position.X - before.X; got > playerSpeed*DefaultMaxStep.Seconds()+1e-9 {
		t.Fatalf("a long frame must be clamped, moved %v", got)
	}
}

func TestToastsAreCappedAndExpire(t *testing.T) {
	g, _ := newTestGame(t, arena())
	for i := 0; i < 6; i++ {
		g.toast("hello")
	}
	if len(g.Toasts()) != toastLimit {
		t.Fatalf("expected %d toasts, got %d", toastLimit, len(g.Toasts()))
	}
	for i := 0; i < 100; i++ {
		g.Step(frame*2, idle())
	}
	if len(g.Toasts()) != 0 {
		t.Fatalf("expected toasts to expire, got %d", len(g.Toasts()))
	}
}

func TestSaveRoundTripOnFreshWorld(t *testing.T) {
	g, _ := newTestGame(t, world.DefaultLayout())
	p := g.Player()
	p.Position = tileCenter(12, 29)
	g.Step(frame, press(input.Interact))
	g.run(dialog.Command{Op: opOpenChest})
	g.advanceQuest(QuestBeacon)
	g.grantXP(7)

	rec := g.Record()
	b, err := rec.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := save.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	g2, _ := newTestGame(t, world.DefaultLayout())
	g2.Restore(decoded)
	if got := g2.Record(); !reflect.DeepEqual(got, rec) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
	chest := g2.World.DecorationsOf(world.DecorationChest)[0]
	if chest.Decoration.Solid {
		t.Fatal("reloaded opened chest must not block")
	}
	if d := g2.World.DecorationAt(12, 29); !d.Picked {
		t.Fatal("picked mushroom must stay picked after reload")
	}
}

func TestRestoreSanitizesRecord(t *testing.T) {
	g, _ := newTestGame(t, arena())
	g.Restore(save.Record{
		Version:   save.Version,
		X:         -100,
		Y:         -100,
		HP:        -5,
		MaxHP:     0,
		Level:     0,
		XP:        -3,
		Inventory: entity.Inventory{Mushroom: -1, Coin: -9},
		Quest:     -2,
		Picked: map[world.PickupKind][]string{
			world.PickupMushroom: {"garbage", "8,4"},
		},
	})
	p := g.Player()
	if !p.Position.Equal(g.Hub()) {
		t.Fatalf("invalid position should fall back to hub, got %v", p.Position)
	}
	if p.MaxHP != playerBaseHP || p.HP != p.MaxHP || p.Level != 1 || p.XP != 0 {
		t.Fatalf("unexpected player stats %+v", p)
	}
	if p.Inventory != (entity.Inventory{}) || g.NPC().QuestState != 0 {
		t.Fatalf("negative counters must clamp to zero: %+v quest=%d", p.Inventory, g.NPC().QuestState)
	}
	if g.World.DecorationAt(8, 4).Picked {
		t.Fatal("a chest tile listed as a mushroom must not be marked picked")
	}
}

func TestRestoreHarpiesCleared(t *testing.T) {
	g, _ := newTestGame(t, world.DefaultLayout())
	rec := g.Record()
	rec.HarpiesCleared = true
	rec.BeaconLit = true

	g2, _ := newTestGame(t, world.DefaultLayout())
	g2.Restore(rec)
	for _, h := range g2.Harpies() {
		if h.Alive {
			t.Fatal("cleared harpies must not come back after reload")
		}
	}
}

func TestSnapshotHidesPickedAndDead(t *testing.T) {
	g, _ := newTestGame(t, world.DefaultLayout())
	total := len(g.Snapshot().Decorations)
	g.Player().Position = tileCenter(12, 29)
	g.Step(frame, press(input.Interact))

	v := g.Snapshot()
	if len(v.Decorations) != total-1 {
		t.Fatalf("picked decoration should be hidden, got %d of %d", len(v.Decorations), total)
	}
	if len(v.Harpies) != 3 || len(v.Slimes) != 1 {
		t.Fatalf("unexpected enemies in view: %d harpies %d slimes", len(v.Harpies), len(v.Slimes))
	}
	if v.Player.Inventory.Mushroom != 1 || v.NPC.Name != "Sir Cloudrick" {
		t.Fatalf("unexpected view %+v", v.Player)
	}
}

func TestClockClampsAndStartsAtZero(t *testing.T) {
	c := NewClock(0)
	t0 := time.Unix(1000, 0)
	if got := c.Tick(t0); got != 0 {
		t.Fatalf("first tick should be 0, got %v", got)
	}
	if got := c.Tick(t0.Add(10 * DefaultMaxStep)); got != DefaultMaxStep.Seconds() {
		t.Fatalf("expected clamp to %v, got %v", DefaultMaxStep.Seconds(), got)
	}
}
