package input

import "github.com/zyedidia/generic/mapset"

// Action is a logical input, independent of physical keys.
type Action string

const (
	MoveUp      Action = "move-up"
	MoveDown    Action = "move-down"
	MoveLeft    Action = "move-left"
	MoveRight   Action = "move-right"
	Run         Action = "run"
	Attack      Action = "attack"
	Interact    Action = "interact"
	Dash        Action = "dash"
	Pause       Action = "pause"
	ToggleSound Action = "toggle-sound"
	ResetSave   Action = "reset-save"
)

var Actions = []Action{
	MoveUp, MoveDown, MoveLeft, MoveRight,
	Run, Attack, Interact, Dash,
	Pause, ToggleSound, ResetSave,
}

func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// Query is what the simulation consumes each step.
type Query interface {
	Held(a Action) bool
	Pressed(a Action) bool
}

// Axis returns the raw movement vector components from the held directions.
func Axis(q Query) (ax, ay float64) {
	if q.Held(MoveLeft) {
		ax--
	}
	if q.Held(MoveRight) {
		ax++
	}
	if q.Held(MoveUp) {
		ay--
	}
	if q.Held(MoveDown) {
		ay++
	}
	return ax, ay
}

// AnyMove reports whether any direction is held.
func AnyMove(q Query) bool {
	return q.Held(MoveUp) || q.Held(MoveDown) || q.Held(MoveLeft) || q.Held(MoveRight)
}

// Frame accumulates input between steps. Pressed edges latch until EndFrame
// so a press that arrives between two steps is never lost.
type Frame struct {
	held    mapset.Set[Action]
	pressed mapset.Set[Action]
}

func NewFrame() *Frame {
	return &Frame{held: mapset.New[Action](), pressed: mapset.New[Action]()}
}

// Hold marks actions as held.
func (f *Frame) Hold(actions ...Action) *Frame {
	for _, a := range actions {
		f.held.Put(a)
	}
	return f
}

// Press records a new press; a pressed action is also held.
func (f *Frame) Press(actions ...Action) *Frame {
	for _, a := range actions {
		f.held.Put(a)
		f.pressed.Put(a)
	}
	return f
}

func (f *Frame) Release(actions ...Action) *Frame {
	for _, a := range actions {
		f.held.Remove(a)
	}
	return f
}

// Replace sets the held set wholesale and adds new presses.
func (f *Frame) Replace(held, pressed []Action) {
	f.held = mapset.New[Action]()
	f.Hold(held...)
	for _, a := range pressed {
		f.pressed.Put(a)
	}
}

func (f *Frame) Held(a Action) bool    { return f.held.Has(a) || f.pressed.Has(a) }
func (f *Frame) Pressed(a Action) bool { return f.pressed.Has(a) }

// EndFrame consumes the pressed edges after a step.
func (f *Frame) EndFrame() {
	f.pressed = mapset.New[Action]()
}

// HeldActions lists held actions in canonical order.
func (f *Frame) HeldActions() []Action {
	out := make([]Action, 0, f.held.Size())
	for _, a := range Actions {
		if f.held.Has(a) {
			out = append(out, a)
		}
	}
	return out
}
