// Package command defines the instructions a jungle program is made of.
package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// Kind is the command tag. Tags outside the known set are kept as-is so
// newer hosts can send instructions an older executor skips.
type Kind string

const (
	KindMoveUp    Kind = "move_up"
	KindMoveDown  Kind = "move_down"
	KindMoveLeft  Kind = "move_left"
	KindMoveRight Kind = "move_right"
	KindWait      Kind = "wait"
)

// Command is one discrete instruction.
type Command struct {
	Kind Kind `json:"type"`
}

// Move returns the move command for a direction.
func Move(d world.Dir) Command {
	switch d {
	case world.DirUp:
		return Command{Kind: KindMoveUp}
	case world.DirDown:
		return Command{Kind: KindMoveDown}
	case world.DirLeft:
		return Command{Kind: KindMoveLeft}
	default:
		return Command{Kind: KindMoveRight}
	}
}

// Wait returns the wait command.
func Wait() Command {
	return Command{Kind: KindWait}
}

// Of returns a command with the given tag, normalizing known aliases.
func Of(tag string) Command {
	return Command{Kind: Normalize(tag)}
}

// Dir returns the movement direction for move commands.
func (c Command) Dir() (world.Dir, bool) {
	switch c.Kind {
	case KindMoveUp:
		return world.DirUp, true
	case KindMoveDown:
		return world.DirDown, true
	case KindMoveLeft:
		return world.DirLeft, true
	case KindMoveRight:
		return world.DirRight, true
	}
	return 0, false
}

// IsWait reports whether c is a wait.
func (c Command) IsWait() bool {
	return c.Kind == KindWait
}

// Known reports whether the executor understands c.
func (c Command) Known() bool {
	_, move := c.Dir()
	return move || c.IsWait()
}

func (c Command) String() string {
	return string(c.Kind)
}

// Normalize maps the tag spellings hosts have used over time onto the
// canonical kinds. Unrecognized tags are returned lowercased and trimmed.
func Normalize(tag string) Kind {
	t := strings.ToLower(strings.TrimSpace(tag))
	t = strings.ReplaceAll(t, "-", "_")
	switch t {
	case "up", "move_up", "moveup", "north":
		return KindMoveUp
	case "down", "move_down", "movedown", "south":
		return KindMoveDown
	case "left", "move_left", "moveleft", "west":
		return KindMoveLeft
	case "right", "move_right", "moveright", "east":
		return KindMoveRight
	case "wait", "pause", "idle":
		return KindWait
	}
	return Kind(t)
}

// wireCommand is the JSON shape hosts send. Both {"type":"move_up"} and
// {"type":"move","direction":"up"} are accepted.
type wireCommand struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
}

// UnmarshalJSON accepts an object form or a bare string tag.
func (c *Command) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		*c = Of(tag)
		return nil
	}

	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("command: decode: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(w.Type), "move") && w.Direction != "" {
		*c = Of(w.Direction)
		return nil
	}
	*c = Of(w.Type)
	return nil
}

// Queue is an ordered batch of commands handed to the executor as one run.
type Queue []Command

// Clone returns an independent copy of q.
func (q Queue) Clone() Queue {
	return append(Queue(nil), q...)
}

// Moves counts the move commands in q.
func (q Queue) Moves() int {
	n := 0
	for _, c := range q {
		if _, ok := c.Dir(); ok {
			n++
		}
	}
	return n
}

// String renders q as a space-separated list of tags.
func (q Queue) String() string {
	parts := make([]string, len(q))
	for i, c := range q {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// FromTags builds a queue from raw tags.
func FromTags(tags ...string) Queue {
	q := make(Queue, len(tags))
	for i, t := range tags {
		q[i] = Of(t)
	}
	return q
}
