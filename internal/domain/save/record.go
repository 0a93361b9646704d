package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"skyisle/internal/domain/entity"
	"skyisle/internal/domain/world"
)

// Version tags the record format and is part of the storage key.
const Version = 2

var ErrVersion = errors.New("unsupported save version")

// Key is the store key of the record inside a namespace.
func Key(namespace string) string {
	return namespace + ":sky_island_rpg_save_v" + strconv.Itoa(Version)
}

// Record is the persisted delta over a freshly built world: scalar player
// state, the quest integer, one-shot flags, and picked decoration tiles.
type Record struct {
	Version int     `json:"version" jsonschema:"required"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	HP      int     `json:"hp"`
	MaxHP   int     `json:"max_hp"`
	XP      int     `json:"xp"`
	Level   int     `json:"level"`

	Inventory entity.Inventory `json:"inventory"`
	HasGlider bool             `json:"has_glider"`

	Quest          int  `json:"quest"`
	ChestOpened    bool `json:"chest_opened"`
	BeaconLit      bool `json:"beacon_lit"`
	HarpiesCleared bool `json:"harpies_cleared"`

	// Picked maps a pickup kind to "x,y" tile keys.
	Picked map[world.PickupKind][]string `json:"picked"`
}

func (r Record) Encode() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode save record: %w", err)
	}
	return b, nil
}

func Decode(b []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("decode save record: %w", err)
	}
	if r.Version != Version {
		return Record{}, fmt.Errorf("%w: %d", ErrVersion, r.Version)
	}
	return r, nil
}

// PickedTiles parses the tile keys recorded for one pickup kind, skipping
// malformed entries.
func (r Record) PickedTiles(kind world.PickupKind) []world.TileCoord {
	keys := r.Picked[kind]
	out := make([]world.TileCoord, 0, len(keys))
	for _, k := range keys {
		c, err := world.ParseTileCoord(k)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}
