package sim

import (
	"sort"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// Snapshot is the read-only view of the simulation handed to hosts after
// every mutation.
type Snapshot struct {
	Level         string     `json:"level"`
	Attempt       int        `json:"attempt"`
	Player        world.Tile `json:"player"`
	Collected     []string   `json:"collected"`
	Total         int        `json:"total"`
	DoorsOpen     []string   `json:"doors_open"`
	Score         int        `json:"score"`
	KeysCollected int        `json:"keys_collected"`
	Timed         bool       `json:"timed"`
	Remaining     int        `json:"remaining_seconds"`
	Complete      bool       `json:"complete"`
	Expired       bool       `json:"expired"`
}

// Snapshot captures the current state.
func (s *Simulator) Snapshot() Snapshot {
	st := s.state
	snap := Snapshot{
		Level:         s.world.ID,
		Attempt:       s.attempt,
		Player:        st.Player,
		Collected:     trueKeys(st.Collected),
		Total:         len(s.world.Collectibles),
		DoorsOpen:     trueKeys(st.DoorOpen),
		Score:         st.Score,
		KeysCollected: st.KeysCollected,
		Timed:         s.world.Timed(),
		Remaining:     st.Remaining,
		Complete:      st.Complete,
		Expired:       s.expired,
	}
	return snap
}

func trueKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
