package core

// Color identifies the palette slot of a screen cell.
// The platform layer maps each slot to a concrete terminal color per theme.
type Color uint8

// Palette slots used by the jungle renderer and the HUD.
const (
	ColorDefault Color = iota
	ColorGrass
	ColorGrid
	ColorTree
	ColorBark
	ColorCoin
	ColorFruit
	ColorKey
	ColorDoorClosed
	ColorDoorOpen
	ColorExit
	ColorPlayer
	ColorAnimal
	ColorSparkle
	ColorHUD
	ColorAlert
	ColorDim
	ColorSuccess
)

// String returns the palette slot name.
func (c Color) String() string {
	switch c {
	case ColorDefault:
		return "default"
	case ColorGrass:
		return "grass"
	case ColorGrid:
		return "grid"
	case ColorTree:
		return "tree"
	case ColorBark:
		return "bark"
	case ColorCoin:
		return "coin"
	case ColorFruit:
		return "fruit"
	case ColorKey:
		return "key"
	case ColorDoorClosed:
		return "door_closed"
	case ColorDoorOpen:
		return "door_open"
	case ColorExit:
		return "exit"
	case ColorPlayer:
		return "player"
	case ColorAnimal:
		return "animal"
	case ColorSparkle:
		return "sparkle"
	case ColorHUD:
		return "hud"
	case ColorAlert:
		return "alert"
	case ColorDim:
		return "dim"
	case ColorSuccess:
		return "success"
	default:
		return "unknown"
	}
}
