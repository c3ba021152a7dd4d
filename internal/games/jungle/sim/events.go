package sim

import (
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// EventKind names something that happened during play.
type EventKind string

// Simulator events.
const (
	EventMoved         EventKind = "moved"
	EventBlocked       EventKind = "blocked"
	EventWaited        EventKind = "waited"
	EventIgnored       EventKind = "ignored"
	EventCollected     EventKind = "collected"
	EventDoorOpened    EventKind = "door_opened"
	EventLevelComplete EventKind = "level_complete"
	EventCountdown     EventKind = "countdown"
	EventTimeExpired   EventKind = "time_expired"
	EventReset         EventKind = "reset"
)

// Run and host events. The simulator never emits these; the executor and the
// host bridge share the type so listeners see one stream.
const (
	EventUnknownCommand EventKind = "unknown_command"
	EventQueueExhausted EventKind = "queue_exhausted"
	EventRunCancelled   EventKind = "run_cancelled"
	EventRejected       EventKind = "rejected"
	EventLevelLoaded    EventKind = "level_loaded"
)

// Event is a flat record; only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind  `json:"kind"`
	Tile     world.Tile `json:"tile"`
	Dir      string     `json:"dir,omitempty"`
	ItemID   string     `json:"item_id,omitempty"`
	ItemKind world.Kind `json:"item_kind,omitempty"`
	Points   int        `json:"points,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	Command  string     `json:"command,omitempty"`
	Token    int64      `json:"token,omitempty"`
}

// Has reports whether events contains one of the given kind.
func Has(events []Event, kind EventKind) bool {
	return Count(events, kind) > 0
}

// Count returns how many events of the given kind are in events.
func Count(events []Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Mutates reports whether an event of this kind changes simulation state, and
// therefore warrants a fresh snapshot for observers.
func (k EventKind) Mutates() bool {
	switch k {
	case EventMoved, EventCollected, EventDoorOpened, EventLevelComplete,
		EventCountdown, EventTimeExpired, EventReset, EventLevelLoaded:
		return true
	}
	return false
}
