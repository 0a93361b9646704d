package game

import (
	"skyisle/internal/domain/entity"
	"skyisle/internal/domain/save"
	"skyisle/internal/domain/world"
)

// Record captures the persisted delta over a fresh world.
func (g *Game) Record() save.Record {
	p := g.player
	picked := make(map[world.PickupKind][]string, len(world.PickupKinds))
	for _, k := range world.PickupKinds {
		picked[k] = []string{}
	}
	for _, pl := range g.World.Decorations() {
		d := pl.Decoration
		if d.Pickup != world.PickupNone && d.Picked {
			picked[d.Pickup] = append(picked[d.Pickup], pl.Tile.String())
		}
	}
	return save.Record{
		Version:        save.Version,
		X:              p.Position.X,
		Y:              p.Position.Y,
		HP:             p.HP,
		MaxHP:          p.MaxHP,
		XP:             p.XP,
		Level:          p.Level,
		Inventory:      p.Inventory,
		HasGlider:      p.HasGlider,
		Quest:          g.npc.QuestState,
		ChestOpened:    g.Flags.ChestOpened,
		BeaconLit:      g.Flags.BeaconLit,
		HarpiesCleared: g.Flags.HarpiesCleared,
		Picked:         picked,
	}
}

// Restore applies a record to a freshly built game. Out-of-range values are
// clamped and an unusable position falls back to the hub spawn.
func (g *Game) Restore(r save.Record) {
	p := g.player

	p.Position = entity.Vec{X: r.X, Y: r.Y}
	if g.World.BoxBlocked(r.X, r.Y) {
		p.Position = g.hub
	}
	p.MaxHP = r.MaxHP
	if p.MaxHP < 1 {
		p.MaxHP = playerBaseHP
	}
	p.HP = r.HP
	if p.HP < 1 || p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	p.Level = max(1, r.Level)
	p.XP = max(0, r.XP)
	p.Inventory = entity.Inventory{
		Mushroom: max(0, r.Inventory.Mushroom),
		Coin:     max(0, r.Inventory.Coin),
		Shard:    max(0, r.Inventory.Shard),
		Feather:  max(0, r.Inventory.Feather),
	}
	p.HasGlider = r.HasGlider
	g.npc.QuestState = max(0, r.Quest)

	g.Flags = Flags{
		ChestOpened:    r.ChestOpened,
		BeaconLit:      r.BeaconLit,
		HarpiesCleared: r.HarpiesCleared,
	}

	for _, kind := range world.PickupKinds {
		for _, t := range r.PickedTiles(kind) {
			if d := g.World.DecorationAt(t.X, t.Y); d != nil && d.Pickup == kind {
				d.Picked = true
			}
		}
	}
	if g.Flags.ChestOpened {
		g.unblockChests()
	}
	if g.Flags.HarpiesCleared {
		for _, h := range g.Harpies() {
			h.Alive = false
			h.HP = 0
		}
	}

	g.emit(EventLoaded, "", 0)
	g.toast("Save loaded.")
}

func (g *Game) persist() {
	if g.saver != nil {
		g.saver.Save(g.Record())
	}
	g.resetPending = false
	g.emit(EventSaved, "", 0)
}

// ResetPending reports whether the stored record was deleted and nothing has
// been saved since. Hosts skip their exit save while it is set so the reset
// survives the restart.
func (g *Game) ResetPending() bool { return g.resetPending }
