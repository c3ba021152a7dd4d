package server

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/jungle-code/internal/bridge"
	"github.com/vovakirdan/jungle-code/internal/games/jungle"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/executor"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/levels"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/render"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

var (
	errNotComplete = errors.New("server: level not complete yet")
	errLastLevel   = errors.New("server: no next level")
	errNoStore     = errors.New("server: results are not stored")
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.loggingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.hub.Len()})
	})

	api := r.Group("/api")
	api.GET("/levels", s.listLevels)
	api.GET("/levels/:level", s.getLevel)
	api.GET("/levels/:level/preview.png", s.levelPreview)
	api.GET("/results", s.listResults)

	sessions := api.Group("/sessions")
	sessions.POST("", s.createSession)
	sessions.GET("/:id", s.withSession(s.getSession))
	sessions.DELETE("/:id", s.deleteSession)
	sessions.POST("/:id/run", s.withSession(s.runSession))
	sessions.POST("/:id/reset", s.withSession(s.resetSession))
	sessions.POST("/:id/level", s.withSession(s.loadSessionLevel))
	sessions.POST("/:id/next", s.withSession(s.nextSessionLevel))
	sessions.GET("/:id/frame.png", s.withSession(s.sessionFrame))
	sessions.GET("/:id/ws", s.withSession(s.sessionStream))

	return r
}

// levelInfo is the public view of a level; solutions stay server-side.
type levelInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Goal        string   `json:"goal"`
	Description string   `json:"description,omitempty"`
	Order       int      `json:"order"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	TimeLimit   int      `json:"time_limit,omitempty"`
	Items       int      `json:"items"`
	Doors       int      `json:"doors"`
	Hints       []string `json:"hints,omitempty"`
}

func infoFor(l levels.Level, withHints bool) levelInfo {
	w := l.World
	info := levelInfo{
		ID:          l.ID,
		Name:        l.Name,
		Goal:        l.Goal,
		Description: w.Description,
		Order:       l.Order,
		Width:       w.Width,
		Height:      w.Height,
		TimeLimit:   w.TimeLimitSeconds,
		Items:       len(w.Collectibles),
		Doors:       len(w.Doors),
	}
	if withHints {
		info.Hints = w.Hints
	}
	return info
}

func (s *Server) listLevels(c *gin.Context) {
	list := s.hub.Catalog().List()
	out := make([]levelInfo, 0, len(list))
	for _, l := range list {
		out = append(out, infoFor(l, false))
	}
	c.JSON(http.StatusOK, gin.H{"levels": out})
}

func (s *Server) getLevel(c *gin.Context) {
	l, err := s.hub.Catalog().Get(c.Param("level"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, infoFor(l, true))
}

func (s *Server) levelPreview(c *gin.Context) {
	l, err := s.hub.Catalog().Get(c.Param("level"))
	if err != nil {
		abort(c, err)
		return
	}
	img := render.Preview(l.World, s.tileSize(c))
	if w, err := strconv.Atoi(c.Query("width")); err == nil && w > 0 {
		img = render.Thumbnail(img, w)
	}
	writePNG(c, img)
}

func (s *Server) listResults(c *gin.Context) {
	if s.store == nil {
		abort(c, errNoStore)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	var (
		results any
		err     error
	)
	if level := c.Query("level"); level != "" {
		results, err = s.store.TopResults(level, limit)
	} else {
		results, err = s.store.RecentResults(limit)
	}
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type createRequest struct {
	Level  string `json:"level"`
	Player string `json:"player"`
}

func (s *Server) createSession(c *gin.Context) {
	var req createRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	sess, err := s.hub.Create(req.Level, req.Player)
	if err != nil {
		abort(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	snap, err := sess.Snapshot(ctx)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID(), "snapshot": snap})
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.hub.Remove(bridge.SessionID(c.Param("id"))) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// withSession resolves :id before calling h.
func (s *Server) withSession(h func(*gin.Context, *bridge.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.hub.Get(bridge.SessionID(c.Param("id")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h(c, sess)
	}
}

func (s *Server) getSession(c *gin.Context, sess *bridge.Session) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	snap, err := sess.Snapshot(ctx)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// runRequest carries either program source or a command list.
type runRequest struct {
	Program  string        `json:"program"`
	Commands command.Queue `json:"commands"`
	Token    int64         `json:"token"`
}

func (r runRequest) queue() (command.Queue, error) {
	if r.Program != "" {
		return command.Compile(r.Program)
	}
	if len(r.Commands) == 0 {
		return nil, executor.ErrEmptyQueue
	}
	return r.Commands, nil
}

func (s *Server) runSession(c *gin.Context, sess *bridge.Session) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	n, err := run(ctx, sess, req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true, "commands": n})
}

func run(ctx context.Context, sess *bridge.Session, req runRequest) (int, error) {
	q, err := req.queue()
	if err != nil {
		return 0, err
	}
	return len(q), sess.Run(ctx, q, req.Token)
}

func (s *Server) resetSession(c *gin.Context, sess *bridge.Session) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := sess.Reset(ctx); err != nil {
		abort(c, err)
		return
	}
	s.respondSnapshot(c, ctx, sess)
}

type levelRequest struct {
	Level string `json:"level" binding:"required"`
}

func (s *Server) loadSessionLevel(c *gin.Context, sess *bridge.Session) {
	var req levelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.loadLevel(ctx, sess, req.Level); err != nil {
		abort(c, err)
		return
	}
	s.respondSnapshot(c, ctx, sess)
}

func (s *Server) loadLevel(ctx context.Context, sess *bridge.Session, id string) error {
	l, err := s.hub.Catalog().Get(id)
	if err != nil {
		return err
	}
	return sess.LoadLevel(ctx, l.World)
}

func (s *Server) nextSessionLevel(c *gin.Context, sess *bridge.Session) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.nextLevel(ctx, sess); err != nil {
		abort(c, err)
		return
	}
	s.respondSnapshot(c, ctx, sess)
}

// nextLevel advances a completed session to the following catalog level.
func (s *Server) nextLevel(ctx context.Context, sess *bridge.Session) error {
	snap, err := sess.Snapshot(ctx)
	if err != nil {
		return err
	}
	if !snap.Complete {
		return errNotComplete
	}
	next, ok := s.hub.Catalog().Next(snap.Level)
	if !ok {
		return errLastLevel
	}
	return sess.LoadLevel(ctx, next.World)
}

func (s *Server) sessionFrame(c *gin.Context, sess *bridge.Session) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	img, err := sess.Frame(ctx, s.tileSize(c))
	if err != nil {
		abort(c, err)
		return
	}
	writePNG(c, img)
}

func (s *Server) respondSnapshot(c *gin.Context, ctx context.Context, sess *bridge.Session) {
	snap, err := sess.Snapshot(ctx)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
}

func (s *Server) tileSize(c *gin.Context) int {
	if n, err := strconv.Atoi(c.Query("tile")); err == nil && n >= 8 && n <= 256 {
		return n
	}
	return s.config.TileSize
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	var (
		compileErr *command.CompileError
		invalid    world.ValidationError
	)
	switch {
	case errors.Is(err, levels.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &compileErr), errors.Is(err, command.ErrTooLong), errors.Is(err, executor.ErrEmptyQueue):
		return http.StatusBadRequest
	case errors.Is(err, executor.ErrBusy), errors.Is(err, jungle.ErrStaleToken),
		errors.Is(err, jungle.ErrLevelComplete), errors.Is(err, errNotComplete), errors.Is(err, errLastLevel):
		return http.StatusConflict
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bridge.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, bridge.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, errNoStore):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func writePNG(c *gin.Context, img image.Image) {
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		abort(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
