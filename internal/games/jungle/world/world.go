// Package world describes jungle levels: the static layout the simulator
// plays against. A World never changes while an attempt is running.
package world

// Canonical grid dimensions.
const (
	DefaultWidth    = 8
	DefaultHeight   = 6
	DefaultTileSize = 60
)

// Kind identifies what a collectible is.
type Kind string

const (
	KindCoin  Kind = "coin"
	KindFruit Kind = "fruit"
	KindKey   Kind = "key"
)

// Valid reports whether k is a known collectible kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCoin, KindFruit, KindKey:
		return true
	}
	return false
}

// Required reports whether the win condition needs this kind collected.
// Keys only open doors.
func (k Kind) Required() bool {
	return k == KindCoin || k == KindFruit
}

// Collectible is an item the player picks up by stepping on its tile.
type Collectible struct {
	ID   string
	Tile Tile
	Kind Kind
}

// Door blocks its tile while closed.
// RequiredKey names the key collectible that opens it under the keyed door
// policy; it is ignored under the global policy.
type Door struct {
	ID            string
	Tile          Tile
	InitiallyOpen bool
	RequiredKey   string
}

// Decoration is cosmetic scenery (animals, flowers). It never affects play.
type Decoration struct {
	Tile Tile
	Kind string
}

// World is one level definition.
type World struct {
	ID          string
	Name        string
	Description string
	Width       int
	Height      int
	TileSize    int

	Start Tile
	Exit  Tile

	Obstacles    map[Tile]bool
	Collectibles []Collectible
	Doors        []Door
	Decorations  []Decoration

	// TimeLimitSeconds of 0 means the level is untimed.
	TimeLimitSeconds int
	Hints            []string
}

// New creates an empty canonical-size world.
func New(id, name string) *World {
	return &World{
		ID:        id,
		Name:      name,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		TileSize:  DefaultTileSize,
		Obstacles: make(map[Tile]bool),
	}
}

// InBounds reports whether t lies on the grid.
func (w *World) InBounds(t Tile) bool {
	return t.X >= 0 && t.X < w.Width && t.Y >= 0 && t.Y < w.Height
}

// IsObstacle reports whether t is impassable terrain.
func (w *World) IsObstacle(t Tile) bool {
	return w.Obstacles[t]
}

// Timed reports whether the level has a countdown.
func (w *World) Timed() bool {
	return w.TimeLimitSeconds > 0
}

// CollectiblesAt returns every collectible placed on t, in declaration order.
func (w *World) CollectiblesAt(t Tile) []Collectible {
	var out []Collectible
	for _, c := range w.Collectibles {
		if c.Tile == t {
			out = append(out, c)
		}
	}
	return out
}

// DoorAt returns the door on t, if any.
func (w *World) DoorAt(t Tile) (Door, bool) {
	for _, d := range w.Doors {
		if d.Tile == t {
			return d, true
		}
	}
	return Door{}, false
}

// DecorationAt returns the decoration on t, if any.
func (w *World) DecorationAt(t Tile) (Decoration, bool) {
	for _, d := range w.Decorations {
		if d.Tile == t {
			return d, true
		}
	}
	return Decoration{}, false
}

// CountKind returns how many collectibles of kind k the level holds.
func (w *World) CountKind(k Kind) int {
	n := 0
	for _, c := range w.Collectibles {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the world.
func (w *World) Clone() *World {
	c := *w
	c.Obstacles = make(map[Tile]bool, len(w.Obstacles))
	for t, v := range w.Obstacles {
		c.Obstacles[t] = v
	}
	c.Collectibles = append([]Collectible(nil), w.Collectibles...)
	c.Doors = append([]Door(nil), w.Doors...)
	c.Decorations = append([]Decoration(nil), w.Decorations...)
	c.Hints = append([]string(nil), w.Hints...)
	return &c
}
