package game

import "skyisle/internal/domain/dialog"

type EventKind string

const (
	EventAttackSwung     EventKind = "attack_swung"
	EventEnemyHit        EventKind = "enemy_hit"
	EventEnemyDefeated   EventKind = "enemy_defeated"
	EventPlayerHurt      EventKind = "player_hurt"
	EventPlayerRespawned EventKind = "player_respawned"
	EventProjectileFired EventKind = "projectile_fired"
	EventDash            EventKind = "dash"
	EventItemPicked      EventKind = "item_picked"
	EventLevelUp         EventKind = "level_up"
	EventQuestAdvanced   EventKind = "quest_advanced"
	EventChestOpened     EventKind = "chest_opened"
	EventBeaconLit       EventKind = "beacon_lit"
	EventHarpiesCleared  EventKind = "harpies_cleared"
	EventForgeUsed       EventKind = "forge_used"
	EventDialogOpened    EventKind = "dialog_opened"
	EventDialogSkipped   EventKind = "dialog_skipped"
	EventDialogClosed    EventKind = "dialog_closed"
	EventNothingNearby   EventKind = "nothing_nearby"
	EventPaused          EventKind = "paused"
	EventResumed         EventKind = "resumed"
	EventSoundToggled    EventKind = "sound_toggled"
	EventSaveReset       EventKind = "save_reset"
	EventSaved           EventKind = "saved"
	EventLoaded          EventKind = "loaded"
)

// Event is a presentation cue. Hosts drain them after each step to play
// sounds, flash sprites or forward them to other processes.
type Event struct {
	Kind    EventKind `json:"kind"`
	Time    float64   `json:"t"`
	Subject string    `json:"subject,omitempty"`
	Value   int       `json:"value,omitempty"`
}

// Toast is a short-lived notification line.
type Toast struct {
	Text string  `json:"text"`
	Age  float64 `json:"age"`
}

func (g *Game) emit(kind EventKind, subject string, value int) {
	g.events = append(g.events, Event{Kind: kind, Time: g.Time, Subject: subject, Value: value})
}

// DrainEvents returns the events buffered since the last call.
func (g *Game) DrainEvents() []Event {
	out := g.events
	g.events = nil
	return out
}

func (g *Game) toast(text string) {
	g.toasts = append(g.toasts, Toast{Text: text})
	if n := len(g.toasts); n > toastLimit {
		g.toasts = append(g.toasts[:0:0], g.toasts[n-toastLimit:]...)
	}
}

func (g *Game) decayToasts(dt float64) {
	kept := g.toasts[:0]
	for _, t := range g.toasts {
		t.Age += dt
		if t.Age < toastLifetime {
			kept = append(kept, t)
		}
	}
	g.toasts = kept
}

// Toasts returns the visible notifications, oldest first.
func (g *Game) Toasts() []Toast {
	return append([]Toast(nil), g.toasts...)
}

func (g *Game) openDialog(d *dialog.Dialog) {
	g.dialog = d
	g.emit(EventDialogOpened, "", 0)
}

func (g *Game) closeDialog(cmd dialog.Command) {
	g.dialog = nil
	g.emit(EventDialogClosed, cmd.Op, 0)
	if !cmd.IsZero() {
		g.run(cmd)
	}
}
