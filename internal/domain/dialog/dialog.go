package dialog

import "strings"

// RevealPerFrame is the typewriter speed in characters per processed frame.
// It is not scaled by the frame delta.
const RevealPerFrame = 0.9

// Command is the deferred action a dialog carries until it closes. The
// simulation interprets Op; X and Y address a tile when the action needs one.
type Command struct {
	Op string `json:"op"`
	X  int    `json:"x,omitempty"`
	Y  int    `json:"y,omitempty"`
}

func (c Command) IsZero() bool { return c.Op == "" }

type Dialog struct {
	Lines             []string
	Reveal            float64
	FullyRevealed     bool
	BlocksInput       bool
	ClosesOnFirstMove bool
	OnClose           Command

	text   []rune
	closed bool
}

// New opens a modal dialog that blocks player input until acknowledged.
func New(lines []string, onClose Command) *Dialog {
	return &Dialog{
		Lines:       lines,
		BlocksInput: true,
		OnClose:     onClose,
		text:        []rune(strings.Join(lines, "\n")),
	}
}

// NewBanner opens a flavor banner that lets the player keep moving and
// disappears on the first directional input.
func NewBanner(lines []string) *Dialog {
	return &Dialog{
		Lines:             lines,
		ClosesOnFirstMove: true,
		text:              []rune(strings.Join(lines, "\n")),
	}
}

func (d *Dialog) Len() int { return len(d.text) }

// Tick advances the typewriter by one frame.
func (d *Dialog) Tick() {
	if d.FullyRevealed {
		return
	}
	d.Reveal += RevealPerFrame
	if int(d.Reveal) >= len(d.text) {
		d.FullyRevealed = true
	}
}

// Visible returns the revealed prefix of the text.
func (d *Dialog) Visible() string {
	if d.FullyRevealed {
		return string(d.text)
	}
	n := int(d.Reveal)
	if n > len(d.text) {
		n = len(d.text)
	}
	return string(d.text[:n])
}

// Acknowledge skips to the full text, or closes the dialog when the text is
// already fully revealed. closed is true only on the call that closed it.
func (d *Dialog) Acknowledge() (cmd Command, closed bool) {
	if !d.FullyRevealed {
		d.Reveal = float64(len(d.text))
		d.FullyRevealed = true
		return Command{}, false
	}
	return d.Close()
}

// Close dismisses the dialog and hands back its command exactly once.
func (d *Dialog) Close() (Command, bool) {
	if d.closed {
		return Command{}, false
	}
	d.closed = true
	return d.OnClose, true
}

func (d *Dialog) Closed() bool { return d.closed }
