package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/jungle-code/internal/bridge"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Sessions are addressed by unguessable ids; any page may embed the game.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is an inbound websocket request.
type clientMessage struct {
	Type     string        `json:"type"` // run | reset | level | next | snapshot
	ID       string        `json:"id,omitempty"`
	Program  string        `json:"program,omitempty"`
	Commands command.Queue `json:"commands,omitempty"`
	Token    int64         `json:"token,omitempty"`
	Level    string        `json:"level,omitempty"`
}

// replyMessage answers one clientMessage.
type replyMessage struct {
	Type  string `json:"type"` // always "reply"
	ID    string `json:"id,omitempty"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  int    `json:"code,omitempty"`

	Snapshot *sim.Snapshot `json:"snapshot,omitempty"`
}

// connection pumps one websocket: session messages and replies out,
// requests in.
type connection struct {
	ws      *websocket.Conn
	replies chan []byte
}

func (s *Server) sessionStream(c *gin.Context, sess *bridge.Session) {
	msgs, unsubscribe, err := sess.Subscribe(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		unsubscribe()
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn := &connection{
		ws:      ws,
		replies: make(chan []byte, 16),
	}
	s.logger.Info("stream opened", "session", string(sess.ID()), "remote", ws.RemoteAddr().String())

	go conn.writePump(msgs)
	conn.readPump(s, sess)

	unsubscribe()
	s.logger.Info("stream closed", "session", string(sess.ID()))
}

// readPump reads requests until the client goes away.
func (c *connection) readPump(s *Server, sess *bridge.Session) {
	defer c.ws.Close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(replyMessage{Type: "reply", Error: "malformed message: " + err.Error(), Code: http.StatusBadRequest})
			continue
		}
		c.reply(s.handleClientMessage(sess, msg))
	}
}

func (s *Server) handleClientMessage(sess *bridge.Session, msg clientMessage) replyMessage {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RequestTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case "run":
		_, err = run(ctx, sess, runRequest{Program: msg.Program, Commands: msg.Commands, Token: msg.Token})
	case "reset":
		err = sess.Reset(ctx)
	case "level":
		err = s.loadLevel(ctx, sess, msg.Level)
	case "next":
		err = s.nextLevel(ctx, sess)
	case "snapshot":
		snap, err := sess.Snapshot(ctx)
		if err != nil {
			return replyMessage{Type: "reply", ID: msg.ID, Error: err.Error(), Code: statusFor(err)}
		}
		return replyMessage{Type: "reply", ID: msg.ID, Ok: true, Snapshot: &snap}
	default:
		return replyMessage{Type: "reply", ID: msg.ID, Error: "unknown message type " + msg.Type, Code: http.StatusBadRequest}
	}

	if err != nil {
		return replyMessage{Type: "reply", ID: msg.ID, Error: err.Error(), Code: statusFor(err)}
	}
	return replyMessage{Type: "reply", ID: msg.ID, Ok: true}
}

// reply queues a reply; a client too slow to take replies loses them.
func (c *connection) reply(r replyMessage) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	select {
	case c.replies <- data:
	default:
	}
}

// writePump is the only writer of the websocket.
func (c *connection) writePump(msgs <-chan bridge.Message) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-msgs:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Session or subscription ended
				c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}

		case data := <-c.replies:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
