package world

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed layout.yaml
var defaultLayout []byte

type Rect struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

type Circle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	R int `yaml:"r"`
}

// ShapeOp is one step of island shaping; exactly one field is set.
type ShapeOp struct {
	Paint *Rect   `yaml:"paint,omitempty"`
	Carve *Circle `yaml:"carve,omitempty"`
}

type DecorationGroup struct {
	Type  DecorationType `yaml:"type"`
	Tiles []TileCoord    `yaml:"tiles"`
}

type NPCSpawn struct {
	Name string    `yaml:"name"`
	Tile TileCoord `yaml:"tile"`
}

// Layout describes an island. Ground comes either from Shape operations or
// from Rows, where '.' is ground, ' ' or '~' is sky, and a decoration rune
// places that decoration on ground.
type Layout struct {
	Width       int               `yaml:"width"`
	Height      int               `yaml:"height"`
	Shape       []ShapeOp         `yaml:"shape"`
	Rows        []string          `yaml:"rows"`
	Decorations []DecorationGroup `yaml:"decorations"`
	HubSpawn    TileCoord         `yaml:"hub_spawn"`
	PlayerStart TileCoord         `yaml:"player_start"`
	NPC         NPCSpawn          `yaml:"npc"`
	Slimes      []TileCoord       `yaml:"slimes"`
	Harpies     []TileCoord       `yaml:"harpies"`
}

// UnmarshalYAML accepts the compact [x, y] form.
func (c *TileCoord) UnmarshalYAML(value *yaml.Node) error {
	var xy []int
	if err := value.Decode(&xy); err != nil {
		return fmt.Errorf("tile coord: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("tile coord: want [x, y], got %d values", len(xy))
	}
	c.X, c.Y = xy[0], xy[1]
	return nil
}

// DefaultLayout returns the built-in island.
func DefaultLayout() Layout {
	l, err := ParseLayout(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("embedded layout: %v", err))
	}
	return l
}

// LoadLayout reads a layout override from disk.
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return Layout{}, fmt.Errorf("empty layout path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(b)
}

func ParseLayout(b []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(b, &l); err != nil {
		return Layout{}, fmt.Errorf("parse layout yaml: %w", err)
	}
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

var decorationRunes = map[rune]DecorationType{
	'T': DecorationTree,
	'R': DecorationRock,
	'M': DecorationMushroom,
	'C': DecorationChest,
	'S': DecorationShard,
	'B': DecorationBeacon,
	'F': DecorationForge,
}

func (l Layout) validate() error {
	if len(l.Rows) > 0 {
		if len(l.Rows) != l.Height {
			return fmt.Errorf("rows count must equal height")
		}
		for y, row := range l.Rows {
			if len([]rune(row)) != l.Width {
				return fmt.Errorf("row %d width mismatch", y)
			}
			for _, r := range row {
				if _, ok := decorationRunes[r]; ok {
					continue
				}
				switch r {
				case '.', ' ', '~':
				default:
					return fmt.Errorf("unknown tile rune %q", string(r))
				}
			}
		}
	}
	if l.Width <= 0 || l.Height <= 0 || l.Width > MaxSpan || l.Height > MaxSpan {
		return fmt.Errorf("invalid layout dimensions %dx%d", l.Width, l.Height)
	}
	for i, op := range l.Shape {
		if (op.Paint == nil) == (op.Carve == nil) {
			return fmt.Errorf("shape op %d must set exactly one of paint or carve", i)
		}
	}
	for _, g := range l.Decorations {
		if _, ok := decorationTraits[g.Type]; !ok {
			return fmt.Errorf("unknown decoration type %q", g.Type)
		}
	}
	if l.NPC.Name == "" {
		return fmt.Errorf("npc name required")
	}
	w := New(l)
	if w.SolidAtTile(l.HubSpawn.X, l.HubSpawn.Y) {
		return fmt.Errorf("hub spawn %s is not open ground", l.HubSpawn)
	}
	if w.SolidAtTile(l.PlayerStart.X, l.PlayerStart.Y) {
		return fmt.Errorf("player start %s is not open ground", l.PlayerStart)
	}
	return nil
}
