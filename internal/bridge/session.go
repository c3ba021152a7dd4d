package bridge

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/jungle-code/internal/games/jungle"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// Config holds per-session settings.
type Config struct {
	TickRate int            // Loop frequency (Hz)
	Options  jungle.Options // Rules, pacing and rendering
	Buffer   int            // Per-subscriber buffer
	Mode     string         // Recorded with results
	Player   string         // Recorded with results
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickRate: 60,
		Options:  jungle.DefaultOptions(),
		Buffer:   DefaultBuffer,
		Mode:     "bridge",
	}
}

// Inbound messages handled by the session loop.
type (
	runMsg struct {
		queue command.Queue
		token int64
		reply chan error
	}
	resetMsg struct {
		reply chan error
	}
	loadMsg struct {
		world *world.World
		reply chan error
	}
	snapshotMsg struct {
		reply chan sim.Snapshot
	}
	frameMsg struct {
		tileSize int
		reply    chan image.Image
	}
	subscribeMsg struct {
		sub   *subscriber
		reply chan struct{}
	}
)

// Session is one hosted level attempt. All engine access happens on the
// loop goroutine; the exported methods are safe for concurrent use.
type Session struct {
	id     SessionID
	cfg    Config
	logger *log.Logger
	saver  ResultSaver

	// loop-owned
	engine *jungle.Engine
	seq    uint64

	reqs     chan any
	done     chan struct{}
	doneOnce sync.Once
	stopped  chan struct{}

	subsMu sync.Mutex
	subs   map[*subscriber]struct{}

	lastActive atomic.Int64 // unix nanos
}

// NewSession creates a session on w. The loop does not run until Start.
func NewSession(w *world.World, cfg Config, logger *log.Logger) (*Session, error) {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	engine, err := jungle.NewEngine(w, cfg.Options)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	id := SessionID(uuid.NewString())
	s := &Session{
		id:      id,
		cfg:     cfg,
		logger:  logger.With("session", string(id)),
		engine:  engine,
		reqs:    make(chan any, 16),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		subs:    make(map[*subscriber]struct{}),
	}
	s.touch()
	engine.Subscribe(sessionListener{s})
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() SessionID {
	return s.id
}

// SetResultSaver sets the optional result saver. Call before Start.
func (s *Session) SetResultSaver(saver ResultSaver) {
	s.saver = saver
}

// Start runs the loop in a new goroutine.
func (s *Session) Start() {
	go s.loop()
}

// Done returns a channel that closes when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close stops the loop and closes every subscription. Safe to call multiple
// times.
func (s *Session) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Wait blocks until a started loop has exited.
func (s *Session) Wait() {
	<-s.stopped
}

// LastActive returns the time of the latest inbound request.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Subscribers returns the number of open subscriptions.
func (s *Session) Subscribers() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Run submits a command queue. A token of 0 means "the next token".
// Rejections (busy, stale token, empty queue, level complete) are returned
// and also broadcast as a rejected event.
func (s *Session) Run(ctx context.Context, q command.Queue, token int64) error {
	reply := make(chan error, 1)
	return s.call(ctx, runMsg{queue: q, token: token, reply: reply}, reply)
}

// Reset cancels any run and restarts the attempt.
func (s *Session) Reset(ctx context.Context) error {
	reply := make(chan error, 1)
	return s.call(ctx, resetMsg{reply: reply}, reply)
}

// LoadLevel switches the session to w. Malformed worlds are refused and the
// current level keeps running.
func (s *Session) LoadLevel(ctx context.Context, w *world.World) error {
	reply := make(chan error, 1)
	return s.call(ctx, loadMsg{world: w, reply: reply}, reply)
}

func (s *Session) call(ctx context.Context, msg any, reply chan error) error {
	if err := s.send(ctx, msg); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) send(ctx context.Context, msg any) error {
	s.touch()
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.reqs <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot(ctx context.Context) (sim.Snapshot, error) {
	reply := make(chan sim.Snapshot, 1)
	if err := s.send(ctx, snapshotMsg{reply: reply}); err != nil {
		return sim.Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-s.done:
		return sim.Snapshot{}, ErrSessionClosed
	case <-ctx.Done():
		return sim.Snapshot{}, ctx.Err()
	}
}

// Frame rasterizes the current frame, effects included.
func (s *Session) Frame(ctx context.Context, tileSize int) (image.Image, error) {
	reply := make(chan image.Image, 1)
	if err := s.send(ctx, frameMsg{tileSize: tileSize, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case img := <-reply:
		return img, nil
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe opens a message stream. The first message is the current
// snapshot. The channel closes when cancel is called or the session ends.
// A subscriber that falls behind loses its oldest messages.
func (s *Session) Subscribe(ctx context.Context) (<-chan Message, func(), error) {
	sub := newSubscriber(s.cfg.Buffer)
	reply := make(chan struct{}, 1)
	if err := s.send(ctx, subscribeMsg{sub: sub, reply: reply}); err != nil {
		return nil, nil, err
	}
	select {
	case <-reply:
	case <-s.done:
		return nil, nil, ErrSessionClosed
	case <-ctx.Done():
		// A closed subscriber is never registered by the loop.
		s.unsubscribe(sub)
		return nil, nil, ctx.Err()
	}
	return sub.msgs, func() { s.unsubscribe(sub) }, nil
}

// unsubscribe closes sub before removing it, so a registration racing with
// it either sees it closed or is undone here.
func (s *Session) unsubscribe(sub *subscriber) {
	sub.close()
	s.subsMu.Lock()
	delete(s.subs, sub)
	s.subsMu.Unlock()
}

// loop is the authoritative session loop: one clock, one writer.
func (s *Session) loop() {
	defer close(s.stopped)
	defer s.closeSubscribers()

	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer ticker.Stop()

	s.logger.Debug("session started", "level", s.engine.World().ID)
	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if dt > 0 {
				s.engine.Advance(dt)
			}

		case msg := <-s.reqs:
			s.handle(msg)

		case <-s.done:
			s.logger.Debug("session stopped")
			return
		}
	}
}

func (s *Session) handle(msg any) {
	switch m := msg.(type) {
	case runMsg:
		token := m.token
		if token == 0 {
			token = s.engine.NextToken()
		}
		err := s.engine.Run(m.queue, token)
		if err != nil {
			s.logger.Debug("run rejected", "token", token, "error", err)
		} else {
			s.logger.Debug("run accepted", "token", token, "commands", len(m.queue))
		}
		m.reply <- err
	case resetMsg:
		s.engine.Reset()
		m.reply <- nil
	case loadMsg:
		err := s.engine.LoadLevel(m.world)
		if err != nil {
			s.logger.Warn("level refused", "error", err)
		} else {
			s.logger.Info("level loaded", "level", m.world.ID)
		}
		m.reply <- err
	case snapshotMsg:
		m.reply <- s.engine.Snapshot()
	case frameMsg:
		m.reply <- s.engine.Renderer().Image(s.engine.Snapshot(), m.tileSize)
	case subscribeMsg:
		s.subsMu.Lock()
		if m.sub.closed() {
			s.subsMu.Unlock()
			m.reply <- struct{}{}
			return
		}
		s.subs[m.sub] = struct{}{}
		s.subsMu.Unlock()
		snap := s.engine.Snapshot()
		m.sub.send(s.next(Message{Type: MessageSnapshot, Snapshot: &snap}))
		m.reply <- struct{}{}
	}
}

func (s *Session) next(msg Message) Message {
	s.seq++
	msg.Seq = s.seq
	msg.Session = s.id
	return msg
}

func (s *Session) broadcast(msg Message) {
	msg = s.next(msg)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for sub := range s.subs {
		sub.send(msg)
	}
}

func (s *Session) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for sub := range s.subs {
		sub.close()
		delete(s.subs, sub)
	}
}

func (s *Session) saveResult() {
	r := s.engine.Result()
	if r == nil {
		return
	}
	s.logger.Info("level complete", "level", r.Level, "score", r.Score, "commands", r.Commands, "attempt", r.Attempt)
	if s.saver == nil {
		return
	}
	err := s.saver.SaveSessionResult(ResultData{
		Session:  string(s.id),
		Level:    r.Level,
		Mode:     s.cfg.Mode,
		Player:   s.cfg.Player,
		Score:    r.Score,
		Keys:     r.Keys,
		Commands: r.Commands,
		Duration: r.Elapsed,
	})
	if err != nil {
		s.logger.Warn("could not save result", "error", err)
	}
}

// sessionListener forwards engine notifications; it runs on the loop.
type sessionListener struct {
	s *Session
}

func (l sessionListener) OnEvent(e sim.Event) {
	if e.Kind == sim.EventLevelComplete {
		l.s.saveResult()
	}
	l.s.broadcast(Message{Type: MessageEvent, Event: &e})
}

func (l sessionListener) OnSnapshot(snap sim.Snapshot) {
	l.s.broadcast(Message{Type: MessageSnapshot, Snapshot: &snap})
}
