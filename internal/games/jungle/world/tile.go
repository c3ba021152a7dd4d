package world

import "fmt"

// Tile is a grid coordinate: X is the column, Y the row.
// X increases to the right, Y increases downward (screen coordinates).
type Tile struct {
	X int
	Y int
}

// T is a convenience constructor for Tile.
func T(x, y int) Tile {
	return Tile{X: x, Y: y}
}

// String returns a string representation of the tile.
func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

// Step returns the neighbouring tile in the given direction.
func (t Tile) Step(d Dir) Tile {
	dx, dy := d.Delta()
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

// Dir is one of the four cardinal movement directions.
type Dir uint8

const (
	DirUp Dir = iota
	DirRight
	DirDown
	DirLeft
)

// String returns the direction name.
func (d Dir) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Delta returns the (dx, dy) offset for one step in this direction.
func (d Dir) Delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirRight:
		return 1, 0
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	default:
		return 0, 0
	}
}

// ParseDir converts a direction name into a Dir.
func ParseDir(s string) (Dir, bool) {
	switch s {
	case "up":
		return DirUp, true
	case "right":
		return DirRight, true
	case "down":
		return DirDown, true
	case "left":
		return DirLeft, true
	default:
		return 0, false
	}
}
