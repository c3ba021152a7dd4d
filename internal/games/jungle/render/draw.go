package render

import (
	"fmt"
	"math"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

const (
	hudRows    = 2 // title + counters above the board
	footerRows = 2 // status + message below the board
)

var decorationGlyphs = map[string]rune{
	"monkey":   'm',
	"parrot":   'v',
	"snake":    's',
	"tiger":    't',
	"elephant": 'e',
	"frog":     'f',
	"flower":   '*',
	"bush":     '"',
}

var itemGlyphs = map[world.Kind]struct {
	r rune
	c core.Color
}{
	world.KindCoin:  {'$', core.ColorCoin},
	world.KindFruit: {'♥', core.ColorFruit},
	world.KindKey:   {'K', core.ColorKey},
}

// MinSize returns the smallest screen that fits the level and its HUD.
func (r *Renderer) MinSize() (w, h int) {
	bw, bh := r.boardSize()
	return max(bw, 36), bh + hudRows + footerRows
}

func (r *Renderer) boardSize() (w, h int) {
	return r.world.Width*r.opts.CellW + 2, r.world.Height*r.opts.CellH + 2
}

// Draw paints the level, the player and the HUD into dst.
func (r *Renderer) Draw(dst *core.Screen, snap sim.Snapshot, status Status) {
	dst.Clear()

	minW, minH := r.MinSize()
	if dst.Width() < minW || dst.Height() < minH {
		r.drawTooSmall(dst, minW, minH)
		return
	}

	bw, bh := r.boardSize()
	ox := (dst.Width()-bw)/2 + r.shakeOffset()
	oy := hudRows

	r.drawHUD(dst, snap)
	dst.DrawBox(core.NewRect(ox, oy, bw, bh), core.ColorBark)

	// Cells start inside the border.
	cx, cy := ox+1, oy+1
	r.drawTerrain(dst, cx, cy, snap)
	r.drawItems(dst, cx, cy, snap)
	r.drawPlayer(dst, cx, cy, snap)
	r.drawEffects(dst, cx, cy)
	r.drawOverlay(dst, oy, bh, snap)
	r.drawFooter(dst, oy+bh, snap, status)
}

func (r *Renderer) drawTooSmall(dst *core.Screen, minW, minH int) {
	y := dst.Height() / 2
	dst.DrawTextCentered(y, "Window too small", core.ColorAlert)
	dst.DrawTextCentered(y+1, fmt.Sprintf("Need %dx%d", minW, minH), core.ColorDim)
}

func (r *Renderer) drawHUD(dst *core.Screen, snap sim.Snapshot) {
	title := r.world.Name
	if title == "" {
		title = r.world.ID
	}
	dst.DrawTextCentered(0, title, core.ColorHUD)

	line := fmt.Sprintf("Score %d   Keys %d   Items %d/%d", snap.Score, snap.KeysCollected, len(snap.Collected), snap.Total)
	if snap.Timed {
		line += fmt.Sprintf("   Time %ds", snap.Remaining)
	}
	c := core.ColorHUD
	if snap.Timed && snap.Remaining <= 10 {
		c = core.ColorAlert
	}
	dst.DrawTextCentered(1, line, c)
}

// cellOrigin returns the top-left screen cell of tile t.
func (r *Renderer) cellOrigin(cx, cy int, t world.Tile) (int, int) {
	return cx + t.X*r.opts.CellW, cy + t.Y*r.opts.CellH
}

// glyphPos returns where a tile's main glyph goes.
func (r *Renderer) glyphPos(cx, cy int, t world.Tile) (int, int) {
	x, y := r.cellOrigin(cx, cy, t)
	return x + r.opts.CellW/2, y + (r.opts.CellH-1)/2
}

func (r *Renderer) drawTerrain(dst *core.Screen, cx, cy int, snap sim.Snapshot) {
	open := make(map[string]bool, len(snap.DoorsOpen))
	for _, id := range snap.DoorsOpen {
		open[id] = true
	}

	w := r.world
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			t := world.T(x, y)
			px, py := r.cellOrigin(cx, cy, t)
			cell := core.NewRect(px, py, r.opts.CellW, r.opts.CellH)

			switch {
			case w.IsObstacle(t):
				dst.DrawRect(cell, '♣', core.ColorTree)
			default:
				dst.SetColored(px, py, '·', core.ColorGrid)
			}
		}
	}

	for _, d := range w.Doors {
		px, py := r.cellOrigin(cx, cy, d.Tile)
		cell := core.NewRect(px, py, r.opts.CellW, r.opts.CellH)
		if open[d.ID] {
			dst.DrawRect(cell, '░', core.ColorDoorOpen)
		} else {
			dst.DrawRect(cell, '▓', core.ColorDoorClosed)
		}
	}

	ex, ey := r.glyphPos(cx, cy, w.Exit)
	exitColor := core.ColorExit
	if snap.Complete {
		exitColor = core.ColorSuccess
	}
	dst.SetColored(ex, ey, '⌂', exitColor)

	for _, d := range w.Decorations {
		g, ok := decorationGlyphs[d.Kind]
		if !ok {
			g = '~'
		}
		px, py := r.cellOrigin(cx, cy, d.Tile)
		dst.SetColored(px+r.opts.CellW-1, py+r.opts.CellH-1, g, core.ColorAnimal)
	}
}

func (r *Renderer) drawItems(dst *core.Screen, cx, cy int, snap sim.Snapshot) {
	taken := make(map[string]bool, len(snap.Collected))
	for _, id := range snap.Collected {
		taken[id] = true
	}
	for _, c := range r.world.Collectibles {
		if taken[c.ID] {
			continue
		}
		g := itemGlyphs[c.Kind]
		x, y := r.glyphPos(cx, cy, c.Tile)
		dst.SetColored(x, y, g.r, g.c)
	}
}

func (r *Renderer) drawPlayer(dst *core.Screen, cx, cy int, snap sim.Snapshot) {
	cw, ch := float64(r.opts.CellW), float64(r.opts.CellH)
	x := cx + int(math.Round((r.display.X-0.5)*cw)) + r.opts.CellW/2
	y := cy + int(math.Round((r.display.Y-0.5)*ch)) + (r.opts.CellH-1)/2

	c := core.ColorPlayer
	if snap.Complete {
		c = core.ColorSuccess
	}
	dst.SetColored(x, y, '@', c)
}

func (r *Renderer) drawEffects(dst *core.Screen, cx, cy int) {
	cw, ch := float64(r.opts.CellW), float64(r.opts.CellH)
	toScreen := func(v core.Vec) (int, int) {
		return cx + int(math.Floor(v.X*cw)), cy + int(math.Floor(v.Y*ch))
	}

	for _, e := range r.effects {
		switch e.kind {
		case effectSparkle:
			p := easeOutQuad(e.progress())
			c := core.ColorSparkle
			if e.item == world.KindCoin {
				c = core.ColorCoin
			}
			g := '✦'
			if p > 0.5 {
				g = '·'
			}
			spread := 0.3 + 0.5*p
			for _, d := range []core.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: 1}} {
				x, y := toScreen(e.origin.Add(d.Scale(spread)))
				dst.SetColored(x, y, g, c)
			}
		case effectBurst:
			g := '*'
			if e.progress() > 0.6 {
				g = '·'
			}
			for _, pt := range e.particles {
				x, y := toScreen(pt.pos)
				dst.SetColored(x, y, g, core.ColorSparkle)
			}
		}
	}
}

func (r *Renderer) drawOverlay(dst *core.Screen, oy, bh int, snap sim.Snapshot) {
	mid := oy + bh/2
	switch {
	case snap.Expired:
		c := core.ColorDim
		if r.flashing() {
			c = core.ColorAlert
		}
		dst.DrawTextCentered(mid, " TIME'S UP! ", c)
	case r.phase == PhaseDone:
		dst.DrawTextCentered(mid, " LEVEL COMPLETE! ", core.ColorSuccess)
	}
}

func (r *Renderer) drawFooter(dst *core.Screen, y int, snap sim.Snapshot, status Status) {
	var line string
	c := core.ColorDim
	switch r.phase {
	case PhaseRunning:
		line = fmt.Sprintf("Running step %d/%d", status.Step, status.Steps)
		c = core.ColorHUD
	case PhaseDone:
		line = fmt.Sprintf("Complete! Final score %d", snap.Score)
		c = core.ColorSuccess
	default:
		line = "Ready"
		if snap.Attempt > 1 {
			line = fmt.Sprintf("Ready (attempt %d)", snap.Attempt)
		}
	}
	dst.DrawTextCentered(y, line, c)
	if status.Message != "" {
		dst.DrawTextCentered(y+1, status.Message, core.ColorDim)
	}
}
