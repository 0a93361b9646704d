package game

import (
	"fmt"

	"skyisle/internal/domain/dialog"
	"skyisle/internal/domain/world"
)

// Quest states of the NPC. Legacy is only reachable from older saves.
const (
	QuestIntro     = 0
	QuestMushrooms = 1
	QuestLegacy    = 2
	QuestBeacon    = 3
	QuestHarpies   = 4
	QuestDone      = 5
)

// Dialog close commands.
const (
	opAcceptMushrooms   = "quest.accept_mushrooms"
	opCompleteMushrooms = "quest.complete_mushrooms"
	opResumeLegacy      = "quest.resume"
	opAssignHarpies     = "quest.assign_harpies"
	opGrantGlider       = "quest.grant_glider"
	opOpenChest         = "chest.open"
	opLightBeacon       = "beacon.light"
	opUseForge          = "forge.use"
)

// talk opens the dialog for the NPC's current quest state. Only dialogs
// that complete a step carry a command; reminders can be reopened freely.
func (g *Game) talk() {
	n := g.npc
	inv := g.player.Inventory
	switch n.QuestState {
	case QuestIntro:
		g.openDialog(dialog.New([]string{
			fmt.Sprintf("%s: Ah, a traveler! The winds brought you here.", n.Name),
			fmt.Sprintf("Bring me %d glowcap mushrooms and I'll make it worth your while.", mushroomQuestAmount),
		}, dialog.Command{Op: opAcceptMushrooms}))
	case QuestMushrooms:
		if inv.Mushroom < mushroomQuestAmount {
			g.openDialog(dialog.New([]string{
				fmt.Sprintf("%s: Mushrooms grow near the trees. You have %d of %d.", n.Name, inv.Mushroom, mushroomQuestAmount),
			}, dialog.Command{}))
			return
		}
		g.openDialog(dialog.New([]string{
			fmt.Sprintf("%s: Splendid! These will brew a fine tonic.", n.Name),
			"Drink it and feel sturdier.",
			fmt.Sprintf("Now find %d sky shards and light the old beacon to the north.", shardBeaconAmount),
		}, dialog.Command{Op: opCompleteMushrooms}))
	case QuestLegacy:
		g.openDialog(dialog.New([]string{
			fmt.Sprintf("%s: Welcome back. The beacon still waits for its shards.", n.Name),
		}, dialog.Command{Op: opResumeLegacy}))
	case QuestBeacon:
		if !g.Flags.BeaconLit {
			g.openDialog(dialog.New([]string{
				fmt.Sprintf("%s: Gather %d sky shards and light the beacon. You carry %d.", n.Name, shardBeaconAmount, inv.Shard),
			}, dialog.Command{}))
			return
		}
		g.openDialog(dialog.New([]string{
			fmt.Sprintf("%s: The beacon burns! But its light woke the harpies.", n.Name),
			"Drive them off before they tear the island apart.",
		}, dialog.Command{Op: opAssignHarpies}))
	case QuestHarpies:
		if !g.Flags.HarpiesCleared {
			left := 0
			for _, h := range g.Harpies() {
				if h.Alive {
					left++
				}
			}
			g.openDialog(dialog.New([]string{
				fmt.Sprintf("%s: %d harpies still circle the island.", n.Name, left),
			}, dialog.Command{}))
			return
		}
		g.openDialog(dialog.New([]string{
			fmt.Sprintf("%s: The skies are calm again. Thank you, friend.", n.Name),
			fmt.Sprintf("Take this glider and %d coins. Your dashes will recover faster.", gliderCoins),
		}, dialog.Command{Op: opGrantGlider}))
	default:
		g.openDialog(dialog.New([]string{
			fmt.Sprintf("%s: The island is at peace. Enjoy the view.", n.Name),
		}, dialog.Command{}))
	}
}

// run executes a dialog close command. Every handler re-checks the state it
// completes so a reward can never be paid twice.
func (g *Game) run(cmd dialog.Command) {
	p := g.player
	switch cmd.Op {
	case opAcceptMushrooms:
		if g.npc.QuestState == QuestIntro {
			g.advanceQuest(QuestMushrooms)
			g.toast("Quest: gather mushrooms.")
			g.persist()
		}
	case opCompleteMushrooms:
		if g.npc.QuestState == QuestMushrooms && p.Inventory.Mushroom >= mushroomQuestAmount {
			p.Inventory.Mushroom -= mushroomQuestAmount
			p.MaxHP += mushroomMaxHPBonus
			p.HP = min(p.MaxHP, p.HP+mushroomMaxHPBonus)
			g.advanceQuest(QuestBeacon)
			g.toast(fmt.Sprintf("Max HP +%d!", mushroomMaxHPBonus))
			g.persist()
		}
	case opResumeLegacy:
		if g.npc.QuestState == QuestLegacy {
			g.advanceQuest(QuestBeacon)
			g.persist()
		}
	case opAssignHarpies:
		if g.npc.QuestState == QuestBeacon && g.Flags.BeaconLit {
			g.advanceQuest(QuestHarpies)
			g.toast("Quest: drive off the harpies.")
			g.persist()
		}
	case opGrantGlider:
		if g.npc.QuestState == QuestHarpies && g.Flags.HarpiesCleared {
			p.HasGlider = true
			p.Inventory.Coin += gliderCoins
			g.advanceQuest(QuestDone)
			g.toast(fmt.Sprintf("Got the glider and %d coins!", gliderCoins))
			g.persist()
		}
	case opOpenChest:
		if g.Flags.ChestOpened {
			return
		}
		g.Flags.ChestOpened = true
		g.unblockChests()
		p.Inventory.Coin += chestCoins
		g.emit(EventChestOpened, "", chestCoins)
		g.toast(fmt.Sprintf("+%d coins", chestCoins))
		g.persist()
	case opLightBeacon:
		if g.Flags.BeaconLit || g.npc.QuestState < QuestBeacon || p.Inventory.Shard < shardBeaconAmount {
			return
		}
		p.Inventory.Shard -= shardBeaconAmount
		g.Flags.BeaconLit = true
		g.emit(EventBeaconLit, "", 0)
		g.toast("The beacon is lit!")
		g.logger.Info().Int("x", cmd.X).Int("y", cmd.Y).Msg("beacon lit")
		g.persist()
	case opUseForge:
		if p.Inventory.Coin < forgeCost {
			return
		}
		p.Inventory.Coin -= forgeCost
		p.HP = p.MaxHP
		g.emit(EventForgeUsed, "", forgeCost)
		g.toast("HP fully restored.")
		g.persist()
	default:
		g.logger.Warn().Str("op", cmd.Op).Msg("unknown dialog command")
	}
}

// advanceQuest moves the NPC forward; the state never goes back.
func (g *Game) advanceQuest(to int) {
	if to <= g.npc.QuestState {
		return
	}
	g.npc.QuestState = to
	g.emit(EventQuestAdvanced, g.npc.Name, to)
	g.logger.Debug().Int("quest", to).Msg("quest advanced")
}

func (g *Game) unblockChests() {
	for _, pl := range g.World.DecorationsOf(world.DecorationChest) {
		pl.Decoration.Solid = false
	}
}
