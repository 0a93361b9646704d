package game

import (
	"fmt"

	"skyisle/internal/domain/dialog"
	"skyisle/internal/domain/world"
)

type TargetKind string

const (
	TargetNone   TargetKind = ""
	TargetPickup TargetKind = "pickup"
	TargetChest  TargetKind = "chest"
	TargetBeacon TargetKind = "beacon"
	TargetForge  TargetKind = "forge"
	TargetNPC    TargetKind = "npc"
)

// Target is what an interact press would act on.
type Target struct {
	Kind       TargetKind        `json:"kind"`
	Tile       world.TileCoord   `json:"tile"`
	Decoration *world.Decoration `json:"-"`
}

// Prompt is the hint shown for the target.
func (t Target) Prompt() string {
	switch t.Kind {
	case TargetPickup:
		return "E: pick up"
	case TargetChest:
		return "E: open"
	case TargetBeacon:
		return "E: inspect beacon"
	case TargetForge:
		return "E: use forge"
	case TargetNPC:
		return "E: talk"
	default:
		return ""
	}
}

// Target scans the player's tile and its four neighbours for an
// interactable decoration, then falls back to the NPC within talk range.
func (g *Game) Target() Target {
	p := g.player
	at := world.TileAt(p.Position.X, p.Position.Y)
	spots := [...]world.TileCoord{
		at,
		{X: at.X + 1, Y: at.Y},
		{X: at.X - 1, Y: at.Y},
		{X: at.X, Y: at.Y + 1},
		{X: at.X, Y: at.Y - 1},
	}
	for _, c := range spots {
		d := g.World.DecorationAt(c.X, c.Y)
		if d == nil {
			continue
		}
		switch d.Type {
		case world.DecorationMushroom, world.DecorationShard:
			if !d.Picked {
				return Target{Kind: TargetPickup, Tile: c, Decoration: d}
			}
		case world.DecorationChest:
			return Target{Kind: TargetChest, Tile: c, Decoration: d}
		case world.DecorationBeacon:
			return Target{Kind: TargetBeacon, Tile: c, Decoration: d}
		case world.DecorationForge:
			return Target{Kind: TargetForge, Tile: c, Decoration: d}
		}
	}
	if p.Position.Within(g.npc.Position, npcTalkRadius) {
		return Target{Kind: TargetNPC}
	}
	return Target{}
}

func (g *Game) interact() {
	t := g.Target()
	switch t.Kind {
	case TargetPickup:
		g.pickUp(t)
	case TargetChest:
		g.inspectChest(t)
	case TargetBeacon:
		g.inspectBeacon(t)
	case TargetForge:
		g.inspectForge(t)
	case TargetNPC:
		g.talk()
	default:
		g.emit(EventNothingNearby, "", 0)
		g.toast("Nothing to interact with here.")
	}
}

func (g *Game) pickUp(t Target) {
	d := t.Decoration
	d.Picked = true
	inv := &g.player.Inventory
	switch d.Pickup {
	case world.PickupMushroom:
		inv.Mushroom++
		g.toast(fmt.Sprintf("Picked a mushroom (%d).", inv.Mushroom))
	case world.PickupShard:
		inv.Shard++
		g.toast(fmt.Sprintf("Found a sky shard (%d).", inv.Shard))
	}
	g.emit(EventItemPicked, string(d.Pickup), 1)
	g.persist()
}

func (g *Game) inspectChest(t Target) {
	if g.Flags.ChestOpened {
		t.Decoration.Solid = false
		g.openDialog(dialog.New([]string{"The chest is empty."}, dialog.Command{}))
		return
	}
	g.openDialog(dialog.New([]string{
		"The old chest creaks open.",
		fmt.Sprintf("Inside: %d coins!", chestCoins),
	}, dialog.Command{Op: opOpenChest, X: t.Tile.X, Y: t.Tile.Y}))
}

func (g *Game) inspectBeacon(t Target) {
	shards := g.player.Inventory.Shard
	switch {
	case g.Flags.BeaconLit:
		g.openDialog(dialog.New([]string{"The beacon burns bright above the island."}, dialog.Command{}))
	case g.npc.QuestState < QuestBeacon:
		g.openDialog(dialog.New([]string{"A cold stone beacon. Someone here must know its purpose."}, dialog.Command{}))
	case shards < shardBeaconAmount:
		g.openDialog(dialog.New([]string{
			"The beacon is cold.",
			fmt.Sprintf("It needs %d sky shards. You have %d.", shardBeaconAmount, shards),
		}, dialog.Command{}))
	default:
		g.openDialog(dialog.New([]string{
			"You set the sky shards into the beacon.",
			"Light floods the sky. Something stirs on the wind...",
		}, dialog.Command{Op: opLightBeacon, X: t.Tile.X, Y: t.Tile.Y}))
	}
}

func (g *Game) inspectForge(t Target) {
	coins := g.player.Inventory.Coin
	if g.player.HP >= g.player.MaxHP {
		g.openDialog(dialog.New([]string{"The forge hums. You are already in full health."}, dialog.Command{}))
		return
	}
	if coins < forgeCost {
		g.openDialog(dialog.New([]string{
			"The forge is cold.",
			fmt.Sprintf("Stoking it costs %d coins. You have %d.", forgeCost, coins),
		}, dialog.Command{}))
		return
	}
	g.openDialog(dialog.New([]string{
		fmt.Sprintf("You feed %d coins to the forge.", forgeCost),
		"Its warmth mends your wounds.",
	}, dialog.Command{Op: opUseForge, X: t.Tile.X, Y: t.Tile.Y}))
}
