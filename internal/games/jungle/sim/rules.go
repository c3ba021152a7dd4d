package sim

import (
	"fmt"
	"time"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// DoorPolicy decides which doors a collected key opens.
type DoorPolicy string

const (
	// DoorsGlobal opens every door in the level on any key pickup.
	DoorsGlobal DoorPolicy = "global"
	// DoorsKeyed opens only doors whose RequiredKey is the collected key.
	// Doors without a RequiredKey still open on any key.
	DoorsKeyed DoorPolicy = "keyed"
)

// ParseDoorPolicy converts a config value into a DoorPolicy.
func ParseDoorPolicy(s string) (DoorPolicy, error) {
	switch DoorPolicy(s) {
	case "", DoorsGlobal:
		return DoorsGlobal, nil
	case DoorsKeyed:
		return DoorsKeyed, nil
	}
	return "", fmt.Errorf("sim: unknown door policy %q", s)
}

// Rules holds the tunable parts of the game rules.
type Rules struct {
	CoinPoints  int
	FruitPoints int
	KeyPoints   int
	DoorPolicy  DoorPolicy
	// GraceDelay is how long the expired state stays visible before the
	// automatic reset.
	GraceDelay time.Duration
}

// DefaultRules returns the canonical scoring and door behaviour.
func DefaultRules() Rules {
	return Rules{
		CoinPoints:  10,
		FruitPoints: 5,
		KeyPoints:   0,
		DoorPolicy:  DoorsGlobal,
		GraceDelay:  time.Second,
	}
}

// Points returns the score awarded for collecting an item of kind k.
func (r Rules) Points(k world.Kind) int {
	switch k {
	case world.KindCoin:
		return r.CoinPoints
	case world.KindFruit:
		return r.FruitPoints
	case world.KindKey:
		return r.KeyPoints
	}
	return 0
}

// opens reports whether picking up key opens door d.
func (r Rules) opens(key string, d world.Door) bool {
	if r.DoorPolicy == DoorsKeyed && d.RequiredKey != "" {
		return d.RequiredKey == key
	}
	return true
}

func (r Rules) normalized() Rules {
	if r.DoorPolicy == "" {
		r.DoorPolicy = DoorsGlobal
	}
	if r.GraceDelay < 0 {
		r.GraceDelay = 0
	}
	// Score never decreases within an attempt.
	r.CoinPoints = max(r.CoinPoints, 0)
	r.FruitPoints = max(r.FruitPoints, 0)
	r.KeyPoints = max(r.KeyPoints, 0)
	return r
}
