// Package formats provides pluggable level file format parsers.
package formats

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// YAMLLevel represents the YAML structure for a level file.
//
// The layout can be drawn with a `map` block, listed element by element, or
// both; list entries are applied on top of the map.
type YAMLLevel struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Goal        string            `yaml:"goal,omitempty"`
	Order       int               `yaml:"order,omitempty"`
	TileSize    int               `yaml:"tile_size,omitempty"`
	TimeLimit   int               `yaml:"time_limit,omitempty"`
	Size        *YAMLSize         `yaml:"size,omitempty"`
	Map         string            `yaml:"map,omitempty"`
	Start       *YAMLPoint        `yaml:"start,omitempty"`
	Exit        *YAMLPoint        `yaml:"exit,omitempty"`
	Obstacles   []YAMLPoint       `yaml:"obstacles,omitempty"`
	Items       []YAMLItem        `yaml:"items,omitempty"`
	Doors       []YAMLDoor        `yaml:"doors,omitempty"`
	Decorations []YAMLDecoration  `yaml:"decorations,omitempty"`
	Hints       []string          `yaml:"hints,omitempty"`
	Solution    string            `yaml:"solution,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
}

// YAMLSize represents grid dimensions.
type YAMLSize struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// YAMLPoint is a tile coordinate.
type YAMLPoint struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// YAMLItem is a collectible.
type YAMLItem struct {
	ID   string `yaml:"id"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Kind string `yaml:"kind"`
}

// YAMLDoor declares a door or amends one drawn on the map (matched by id).
type YAMLDoor struct {
	ID   string `yaml:"id"`
	X    *int   `yaml:"x,omitempty"`
	Y    *int   `yaml:"y,omitempty"`
	Open bool   `yaml:"open,omitempty"`
	Key  string `yaml:"key,omitempty"`
}

// YAMLDecoration is cosmetic scenery.
type YAMLDecoration struct {
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Kind string `yaml:"kind"`
}

// Level represents a parsed level ready for use.
type Level struct {
	World    *world.World
	Goal     string
	Order    int
	Solution string
	Metadata map[string]string
}

// Map legend.
const (
	glyphEmpty      = '.'
	glyphTree       = '#'
	glyphStart      = 'S'
	glyphExit       = 'E'
	glyphCoin       = 'c'
	glyphFruit      = 'f'
	glyphKey        = 'k'
	glyphDoorClosed = 'D'
	glyphDoorOpen   = 'd'
)

var glyphKinds = map[rune]world.Kind{
	glyphCoin:  world.KindCoin,
	glyphFruit: world.KindFruit,
	glyphKey:   world.KindKey,
}

// ParseYAML parses a YAML level file. The result is not validated.
func ParseYAML(data []byte) (Level, error) {
	var yl YAMLLevel
	if err := yaml.Unmarshal(data, &yl); err != nil {
		return Level{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if yl.ID == "" {
		return Level{}, fmt.Errorf("level has no id")
	}

	w := world.New(yl.ID, yl.Name)
	w.Description = yl.Description
	w.TimeLimitSeconds = yl.TimeLimit
	w.Hints = yl.Hints
	if yl.TileSize > 0 {
		w.TileSize = yl.TileSize
	}
	if yl.Size != nil {
		w.Width, w.Height = yl.Size.W, yl.Size.H
	}

	if strings.TrimSpace(yl.Map) != "" {
		if err := parseMap(w, yl.Map); err != nil {
			return Level{}, err
		}
	}

	if yl.Start != nil {
		w.Start = world.T(yl.Start.X, yl.Start.Y)
	}
	if yl.Exit != nil {
		w.Exit = world.T(yl.Exit.X, yl.Exit.Y)
	}
	for _, p := range yl.Obstacles {
		w.Obstacles[world.T(p.X, p.Y)] = true
	}
	for _, it := range yl.Items {
		id := it.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", it.Kind, w.CountKind(world.Kind(it.Kind))+1)
		}
		w.Collectibles = append(w.Collectibles, world.Collectible{
			ID:   id,
			Tile: world.T(it.X, it.Y),
			Kind: world.Kind(it.Kind),
		})
	}
	if err := applyDoors(w, yl.Doors); err != nil {
		return Level{}, err
	}
	for _, d := range yl.Decorations {
		w.Decorations = append(w.Decorations, world.Decoration{Tile: world.T(d.X, d.Y), Kind: d.Kind})
	}

	return Level{
		World:    w,
		Goal:     yl.Goal,
		Order:    yl.Order,
		Solution: yl.Solution,
		Metadata: yl.Metadata,
	}, nil
}

// parseMap reads the ASCII layout. Items and doors get ids numbered per kind
// in reading order (coin-1, coin-2, key-1, door-1...).
func parseMap(w *world.World, m string) error {
	var rows [][]rune
	for _, line := range strings.Split(m, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, []rune(line))
	}

	w.Width = len(rows[0])
	w.Height = len(rows)
	var starts, exits int
	doors := 0

	for y, row := range rows {
		if len(row) != w.Width {
			return fmt.Errorf("map row %d has width %d, expected %d", y, len(row), w.Width)
		}
		for x, g := range row {
			t := world.T(x, y)
			switch g {
			case glyphEmpty:
			case glyphTree:
				w.Obstacles[t] = true
			case glyphStart:
				w.Start = t
				starts++
			case glyphExit:
				w.Exit = t
				exits++
			case glyphCoin, glyphFruit, glyphKey:
				kind := glyphKinds[g]
				w.Collectibles = append(w.Collectibles, world.Collectible{
					ID:   fmt.Sprintf("%s-%d", kind, w.CountKind(kind)+1),
					Tile: t,
					Kind: kind,
				})
			case glyphDoorClosed, glyphDoorOpen:
				doors++
				w.Doors = append(w.Doors, world.Door{
					ID:            fmt.Sprintf("door-%d", doors),
					Tile:          t,
					InitiallyOpen: g == glyphDoorOpen,
				})
			default:
				return fmt.Errorf("map row %d: unknown glyph %q at column %d", y, g, x)
			}
		}
	}

	if starts != 1 || exits != 1 {
		return fmt.Errorf("map needs exactly one %c and one %c, found %d and %d", glyphStart, glyphExit, starts, exits)
	}
	return nil
}

func applyDoors(w *world.World, doors []YAMLDoor) error {
	for _, yd := range doors {
		idx := -1
		for i := range w.Doors {
			if w.Doors[i].ID == yd.ID {
				idx = i
				break
			}
		}

		if idx < 0 {
			if yd.X == nil || yd.Y == nil {
				return fmt.Errorf("door %q is not on the map and has no position", yd.ID)
			}
			w.Doors = append(w.Doors, world.Door{ID: yd.ID})
			idx = len(w.Doors) - 1
		}

		d := &w.Doors[idx]
		if yd.X != nil && yd.Y != nil {
			d.Tile = world.T(*yd.X, *yd.Y)
		}
		if yd.Open {
			d.InitiallyOpen = true
		}
		d.RequiredKey = yd.Key
	}
	return nil
}

// FormatExtensions returns supported file extensions.
func FormatExtensions() []string {
	return []string{".yaml", ".yml"}
}
