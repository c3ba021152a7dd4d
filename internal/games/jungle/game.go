package jungle

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/vovakirdan/jungle-code/internal/config"
	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/executor"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/levels"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
	"github.com/vovakirdan/jungle-code/internal/registry"
)

// Mode selects how the player drives the explorer.
type Mode int

const (
	// ModeProgram runs a typed program through the paced executor.
	ModeProgram Mode = iota
	// ModeExplore moves one tile per arrow key with no countdown.
	ModeExplore
)

// exploreInterval is the pacing for single-step explore moves.
const exploreInterval = 120 * time.Millisecond

// Package-level settings applied to new games.
var (
	settingsMu         sync.Mutex
	catalog            *levels.Catalog
	configPath         string
	pacePreset         config.PacePreset
	selectedStartLevel string
	startProgram       string
)

// SetConfigPath sets a custom config file path.
func SetConfigPath(path string) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	configPath = path
}

// SetPacePreset sets the pace preset applied over the loaded config.
func SetPacePreset(preset config.PacePreset) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	pacePreset = preset
}

// SetCatalog sets the level catalog used by new games.
func SetCatalog(c *levels.Catalog) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	catalog = c
}

// SetStartLevel selects the level the next game starts on. Empty means the
// first level of the catalog.
func SetStartLevel(id string) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	selectedStartLevel = id
}

// SetStartProgram preloads the program editor of the next game.
func SetStartProgram(src string) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	startProgram = src
}

// Catalog returns the configured catalog, loading the built-in levels on
// first use.
func Catalog() (*levels.Catalog, error) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	if catalog != nil {
		return catalog, nil
	}
	c, err := levels.LoadCatalog(levels.Builtin())
	if err != nil {
		return nil, err
	}
	catalog = c
	return c, nil
}

func settings() (Options, string, string) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	opts, _, err := LoadOptions(configPath, pacePreset)
	if err != nil {
		opts = DefaultOptions()
	}
	level, prog := selectedStartLevel, startProgram
	selectedStartLevel, startProgram = "", "" // consumed on use
	return opts, level, prog
}

// Game adapts the engine to the platform's registry.Game interface.
type Game struct {
	mode    Mode
	opts    Options
	catalog *levels.Catalog
	level   levels.Level
	engine  *Engine

	program string
	message string
	paused  bool
	dt      time.Duration
	failed  error

	pending  *registry.Result
	reported bool
}

// New creates a program-mode game.
func New() *Game {
	return &Game{mode: ModeProgram}
}

// NewExplore creates an explore-mode game.
func NewExplore() *Game {
	return &Game{mode: ModeExplore}
}

func init() {
	registry.Register("jungle", func() registry.Game {
		return New()
	})
	registry.Register("jungle_explore", func() registry.Game {
		return NewExplore()
	})
}

// ID returns the mode identifier.
func (g *Game) ID() string {
	if g.mode == ModeExplore {
		return "jungle_explore"
	}
	return "jungle"
}

// Title returns the display name.
func (g *Game) Title() string {
	if g.mode == ModeExplore {
		return "Jungle Explorer (free walk)"
	}
	return "Jungle Code"
}

// Reset starts (or restarts) the game on the selected level.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	opts, start, prog := settings()
	if cfg.Seed != 0 {
		opts.Render.Seed = cfg.Seed
	}
	if g.mode == ModeExplore {
		opts.Pacing.Interval = exploreInterval
	}
	g.opts = opts
	g.dt = time.Second / time.Duration(max(cfg.TickRate, 1))
	g.paused = false
	g.failed = nil
	if prog != "" {
		g.program = prog
	}

	c, err := Catalog()
	if err != nil {
		g.failed = err
		return
	}
	g.catalog = c
	// Options may have changed since the last reset; load builds a new engine.
	g.engine = nil

	id := start
	if id == "" {
		id = g.level.ID
	}
	lvl, err := c.Get(id)
	if err != nil {
		if lvl, err = c.First(); err != nil {
			g.failed = err
			return
		}
	}
	if err := g.load(lvl); err != nil {
		g.failed = err
	}
}

func (g *Game) load(lvl levels.Level) error {
	w := lvl.World
	if g.mode == ModeExplore {
		w = w.Clone()
		w.TimeLimitSeconds = 0
	}

	if g.engine == nil {
		e, err := NewEngine(w, g.opts)
		if err != nil {
			return err
		}
		g.engine = e
	} else if err := g.engine.LoadLevel(w); err != nil {
		return err
	}
	g.level = lvl
	g.pending = nil
	g.reported = false
	g.message = lvl.Goal
	return nil
}

// Step advances the game by one platform tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if g.engine == nil {
		return core.StepResult{State: g.State()}
	}

	if in.Has(core.ActionPause) {
		g.paused = !g.paused
	}
	if in.Has(core.ActionReset) {
		g.engine.Reset()
		g.pending, g.reported = nil, false
		g.message = "Back to the start. Try again!"
	}
	if in.Has(core.ActionNext) && g.engine.Snapshot().Complete {
		g.nextLevel()
	}
	if in.Has(core.ActionRun) {
		g.runProgram()
	}
	g.handleMoves(in)

	if !g.paused {
		g.engine.Advance(g.dt)
	}

	if r := g.engine.Result(); r != nil && !g.reported {
		g.reported = true
		g.pending = &registry.Result{
			Level:    r.Level,
			Score:    r.Score,
			Keys:     r.Keys,
			Commands: r.Commands,
			Duration: r.Elapsed,
		}
		if _, ok := g.catalog.Next(g.level.ID); ok {
			g.message = "Level complete! Press n for the next level."
		} else {
			g.message = "You finished the whole jungle!"
		}
	}

	return core.StepResult{State: g.State()}
}

func (g *Game) handleMoves(in core.InputFrame) {
	var q command.Queue
	switch {
	case in.Has(core.ActionUp):
		q = command.Queue{command.Move(world.DirUp)}
	case in.Has(core.ActionDown):
		q = command.Queue{command.Move(world.DirDown)}
	case in.Has(core.ActionLeft):
		q = command.Queue{command.Move(world.DirLeft)}
	case in.Has(core.ActionRight):
		q = command.Queue{command.Move(world.DirRight)}
	case in.Has(core.ActionWait):
		q = command.Queue{command.Wait()}
	default:
		return
	}
	// Keys pressed mid-run are dropped, same as a second run request.
	if err := g.engine.Run(q, g.engine.NextToken()); err != nil && !errors.Is(err, executor.ErrBusy) {
		g.message = describe(err)
	}
}

func (g *Game) runProgram() {
	q, err := command.Compile(g.program)
	if err != nil {
		g.message = err.Error()
		return
	}
	if err := g.engine.Run(q, g.engine.NextToken()); err != nil {
		g.message = describe(err)
		return
	}
	g.message = fmt.Sprintf("Running %d commands...", len(q))
}

func (g *Game) nextLevel() {
	next, ok := g.catalog.Next(g.level.ID)
	if !ok {
		return
	}
	if err := g.load(next); err != nil {
		g.message = err.Error()
	}
}

// Render draws the current frame.
func (g *Game) Render(dst *core.Screen) {
	if g.failed != nil {
		dst.Clear()
		dst.DrawTextCentered(dst.Height()/2, "Cannot start: "+g.failed.Error(), core.ColorAlert)
		return
	}
	if g.engine == nil {
		return
	}
	msg := g.message
	if g.paused {
		msg = "Paused (p to resume)"
	}
	g.engine.Draw(dst, msg)
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	if g.engine == nil {
		return core.GameState{}
	}
	snap := g.engine.Snapshot()
	return core.GameState{
		Score:    snap.Score,
		GameOver: snap.Complete,
		Paused:   g.paused,
		Busy:     g.engine.Running(),
	}
}

// Engine exposes the underlying engine.
func (g *Game) Engine() *Engine {
	return g.engine
}

// Frame rasterizes the current frame at the given tile size.
func (g *Game) Frame(tileSize int) image.Image {
	if g.engine == nil {
		return nil
	}
	return g.engine.Renderer().Image(g.engine.Snapshot(), tileSize)
}

// Levels lists the catalog.
func (g *Game) Levels() []registry.LevelInfo {
	if g.catalog == nil {
		return nil
	}
	var out []registry.LevelInfo
	for _, l := range g.catalog.List() {
		out = append(out, registry.LevelInfo{ID: l.ID, Title: l.Name, Goal: l.Goal})
	}
	return out
}

// LevelID returns the current level id.
func (g *Game) LevelID() string {
	return g.level.ID
}

// SetLevel switches to the level with the given id.
func (g *Game) SetLevel(id string) error {
	if g.catalog == nil {
		return fmt.Errorf("jungle: game not started")
	}
	lvl, err := g.catalog.Get(id)
	if err != nil {
		return err
	}
	return g.load(lvl)
}

// Hints returns the hints for the current level.
func (g *Game) Hints() []string {
	if g.level.World == nil {
		return nil
	}
	return g.level.World.Hints
}

// Program returns the program source.
func (g *Game) Program() string {
	return g.program
}

// SetProgram replaces the program after checking that it compiles.
func (g *Game) SetProgram(src string) error {
	if _, err := command.Compile(src); err != nil {
		return err
	}
	g.program = src
	return nil
}

// TakeResult returns the finished attempt once.
func (g *Game) TakeResult() (registry.Result, bool) {
	if g.pending == nil {
		return registry.Result{}, false
	}
	r := *g.pending
	g.pending = nil
	return r, true
}

func describe(err error) string {
	switch {
	case errors.Is(err, executor.ErrBusy):
		return "Still running, wait for the explorer to finish."
	case errors.Is(err, executor.ErrEmptyQueue):
		return "The program is empty. Add some blocks first!"
	case errors.Is(err, ErrLevelComplete):
		return "Level complete! Press r to play again or n for the next level."
	default:
		return err.Error()
	}
}
