// Package bridge hosts jungle engines behind a message loop so that outer
// hosts (HTTP, websocket, SSH) can drive them concurrently.
// Each Session owns one engine and is the only goroutine that touches it.
package bridge

import (
	"errors"
	"time"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
)

// SessionID uniquely identifies a hosted session.
type SessionID string

// ErrSessionClosed is returned by requests to a closed session.
var ErrSessionClosed = errors.New("bridge: session closed")

// MessageType tags outbound messages.
type MessageType string

const (
	MessageEvent    MessageType = "event"
	MessageSnapshot MessageType = "snapshot"
)

// Message is one outbound notification. Seq increases by one per message of
// a session, so a subscriber can tell when it dropped some.
type Message struct {
	Type     MessageType   `json:"type"`
	Session  SessionID     `json:"session"`
	Seq      uint64        `json:"seq"`
	Event    *sim.Event    `json:"event,omitempty"`
	Snapshot *sim.Snapshot `json:"snapshot,omitempty"`
}

// ResultSaver is an interface for saving completed attempts.
// This allows sessions to save results without depending on the storage package.
type ResultSaver interface {
	SaveSessionResult(result ResultData) error
}

// ResultData contains a completed attempt for persistence.
type ResultData struct {
	Session  string
	Level    string
	Mode     string
	Player   string
	Score    int
	Keys     int
	Commands int
	Duration time.Duration
}
