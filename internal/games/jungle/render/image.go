package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// imageHUDHeight is the pixel band above the board used for score text.
const imageHUDHeight = 24

// Palette maps palette slots to RGB for raster output.
var Palette = map[core.Color]color.RGBA{
	core.ColorDefault:    {R: 240, G: 240, B: 240, A: 255},
	core.ColorGrass:      {R: 116, G: 184, B: 92, A: 255},
	core.ColorGrid:       {R: 98, G: 160, B: 78, A: 255},
	core.ColorTree:       {R: 34, G: 102, B: 44, A: 255},
	core.ColorBark:       {R: 110, G: 72, B: 40, A: 255},
	core.ColorCoin:       {R: 250, G: 204, B: 21, A: 255},
	core.ColorFruit:      {R: 230, G: 57, B: 70, A: 255},
	core.ColorKey:        {R: 218, G: 165, B: 32, A: 255},
	core.ColorDoorClosed: {R: 120, G: 66, B: 18, A: 255},
	core.ColorDoorOpen:   {R: 196, G: 164, B: 132, A: 255},
	core.ColorExit:       {R: 59, G: 130, B: 246, A: 255},
	core.ColorPlayer:     {R: 255, G: 140, B: 0, A: 255},
	core.ColorAnimal:     {R: 150, G: 98, B: 60, A: 255},
	core.ColorSparkle:    {R: 255, G: 255, B: 200, A: 255},
	core.ColorHUD:        {R: 255, G: 255, B: 255, A: 255},
	core.ColorAlert:      {R: 239, G: 68, B: 68, A: 255},
	core.ColorDim:        {R: 60, G: 60, B: 60, A: 255},
	core.ColorSuccess:    {R: 34, G: 197, B: 94, A: 255},
}

// terrainCache holds the static layer (grass, grid, trees) per level.
var terrainCache sync.Map

// Image rasterizes the current frame, including the smoothed player position
// and any running effects.
func (r *Renderer) Image(snap sim.Snapshot, tileSize int) image.Image {
	return drawFrame(r.world, snap, tileSize, r.display, r.effects)
}

// Preview rasterizes the initial layout of w.
func Preview(w *world.World, tileSize int) image.Image {
	st := sim.NewState(w)
	snap := sim.Snapshot{
		Level:     w.ID,
		Attempt:   1,
		Player:    st.Player,
		Total:     len(w.Collectibles),
		Timed:     w.Timed(),
		Remaining: st.Remaining,
	}
	for id, open := range st.DoorOpen {
		if open {
			snap.DoorsOpen = append(snap.DoorsOpen, id)
		}
	}
	return drawFrame(w, snap, tileSize, tileCenter(w.Start), nil)
}

// Thumbnail scales img to the given width keeping the aspect ratio.
func Thumbnail(img image.Image, width int) image.Image {
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render: create dir: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

func drawFrame(w *world.World, snap sim.Snapshot, tileSize int, player core.Vec, effects []effect) image.Image {
	if tileSize <= 0 {
		tileSize = w.TileSize
	}
	if tileSize <= 0 {
		tileSize = world.DefaultTileSize
	}
	ts := float64(tileSize)
	width := w.Width * tileSize
	height := w.Height*tileSize + imageHUDHeight

	dc := gg.NewContext(width, height)
	dc.DrawImage(terrain(w, tileSize), 0, imageHUDHeight)

	// board coordinates from here on
	dc.Translate(0, imageHUDHeight)
	drawDoors(dc, w, snap, ts)
	drawExit(dc, w, snap, ts)
	drawDecorations(dc, w, ts)
	drawCollectibles(dc, w, snap, ts)

	dc.SetColor(playerColor(snap))
	dc.DrawCircle(player.X*ts, player.Y*ts, ts*0.32)
	dc.Fill()
	dc.SetColor(Palette[core.ColorDim])
	dc.SetLineWidth(2)
	dc.DrawCircle(player.X*ts, player.Y*ts, ts*0.32)
	dc.Stroke()

	drawParticles(dc, effects, ts)
	dc.Identity()

	var img image.Image = dc.Image()
	if snap.Expired {
		img = imaging.Blur(img, 3.5)
	}

	out := gg.NewContextForImage(img)
	drawImageHUD(out, w, snap, width)
	return out.Image()
}

// terrain returns the cached static layer for w.
func terrain(w *world.World, tileSize int) image.Image {
	key := fmt.Sprintf("%s_%p_%d", w.ID, w, tileSize)
	if img, ok := terrainCache.Load(key); ok {
		return img.(image.Image)
	}

	ts := float64(tileSize)
	dc := gg.NewContext(w.Width*tileSize, w.Height*tileSize)
	dc.SetColor(Palette[core.ColorGrass])
	dc.Clear()

	dc.SetColor(Palette[core.ColorGrid])
	dc.SetLineWidth(1)
	for x := 0; x <= w.Width; x++ {
		dc.DrawLine(float64(x)*ts, 0, float64(x)*ts, float64(w.Height)*ts)
		dc.Stroke()
	}
	for y := 0; y <= w.Height; y++ {
		dc.DrawLine(0, float64(y)*ts, float64(w.Width)*ts, float64(y)*ts)
		dc.Stroke()
	}

	for t, blocked := range w.Obstacles {
		if !blocked {
			continue
		}
		x, y := float64(t.X)*ts, float64(t.Y)*ts
		dc.SetColor(Palette[core.ColorBark])
		dc.DrawRectangle(x+ts*0.42, y+ts*0.55, ts*0.16, ts*0.4)
		dc.Fill()
		dc.SetColor(Palette[core.ColorTree])
		dc.DrawCircle(x+ts/2, y+ts*0.4, ts*0.35)
		dc.Fill()
	}

	img := dc.Image()
	terrainCache.Store(key, img)
	return img
}

func drawDoors(dc *gg.Context, w *world.World, snap sim.Snapshot, ts float64) {
	open := make(map[string]bool, len(snap.DoorsOpen))
	for _, id := range snap.DoorsOpen {
		open[id] = true
	}
	for _, d := range w.Doors {
		x, y := float64(d.Tile.X)*ts, float64(d.Tile.Y)*ts
		if open[d.ID] {
			dc.SetColor(Palette[core.ColorDoorOpen])
			dc.SetLineWidth(3)
			dc.DrawRectangle(x+4, y+4, ts-8, ts-8)
			dc.Stroke()
			continue
		}
		dc.SetColor(Palette[core.ColorDoorClosed])
		dc.DrawRoundedRectangle(x+3, y+3, ts-6, ts-6, ts*0.1)
		dc.Fill()
		dc.SetColor(Palette[core.ColorKey])
		dc.DrawCircle(x+ts*0.7, y+ts/2, ts*0.06)
		dc.Fill()
	}
}

func drawExit(dc *gg.Context, w *world.World, snap sim.Snapshot, ts float64) {
	x, y := float64(w.Exit.X)*ts, float64(w.Exit.Y)*ts
	c := Palette[core.ColorExit]
	if snap.Complete {
		c = Palette[core.ColorSuccess]
	}
	// flag pole and pennant
	dc.SetColor(Palette[core.ColorDim])
	dc.SetLineWidth(3)
	dc.DrawLine(x+ts*0.3, y+ts*0.15, x+ts*0.3, y+ts*0.85)
	dc.Stroke()
	dc.SetColor(c)
	dc.MoveTo(x+ts*0.3, y+ts*0.15)
	dc.LineTo(x+ts*0.75, y+ts*0.3)
	dc.LineTo(x+ts*0.3, y+ts*0.45)
	dc.ClosePath()
	dc.Fill()
}

func drawDecorations(dc *gg.Context, w *world.World, ts float64) {
	dc.SetColor(Palette[core.ColorAnimal])
	for _, d := range w.Decorations {
		x, y := float64(d.Tile.X)*ts, float64(d.Tile.Y)*ts
		dc.DrawCircle(x+ts*0.82, y+ts*0.82, ts*0.1)
		dc.Fill()
	}
}

func drawCollectibles(dc *gg.Context, w *world.World, snap sim.Snapshot, ts float64) {
	taken := make(map[string]bool, len(snap.Collected))
	for _, id := range snap.Collected {
		taken[id] = true
	}
	for _, c := range w.Collectibles {
		if taken[c.ID] {
			continue
		}
		cx, cy := (float64(c.Tile.X)+0.5)*ts, (float64(c.Tile.Y)+0.5)*ts
		switch c.Kind {
		case world.KindCoin:
			dc.SetColor(Palette[core.ColorCoin])
			dc.DrawCircle(cx, cy, ts*0.18)
			dc.Fill()
		case world.KindFruit:
			dc.SetColor(Palette[core.ColorFruit])
			dc.DrawCircle(cx, cy+ts*0.03, ts*0.16)
			dc.Fill()
			dc.SetColor(Palette[core.ColorTree])
			dc.DrawEllipse(cx+ts*0.06, cy-ts*0.16, ts*0.07, ts*0.04)
			dc.Fill()
		case world.KindKey:
			dc.SetColor(Palette[core.ColorKey])
			dc.SetLineWidth(3)
			dc.DrawCircle(cx-ts*0.12, cy, ts*0.08)
			dc.Stroke()
			dc.DrawLine(cx-ts*0.04, cy, cx+ts*0.2, cy)
			dc.Stroke()
		}
	}
}

func drawParticles(dc *gg.Context, effects []effect, ts float64) {
	for _, e := range effects {
		alpha := 1 - e.progress()
		switch e.kind {
		case effectBurst:
			for _, p := range e.particles {
				c := Palette[core.ColorSparkle]
				dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(alpha*255))
				dc.DrawCircle(p.pos.X*ts, p.pos.Y*ts, ts*0.05)
				dc.Fill()
			}
		case effectSparkle:
			c := Palette[core.ColorSparkle]
			dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(alpha*255))
			dc.SetLineWidth(2)
			dc.DrawCircle(e.origin.X*ts, e.origin.Y*ts, ts*(0.2+0.3*easeOutQuad(e.progress())))
			dc.Stroke()
		}
	}
}

func drawImageHUD(dc *gg.Context, w *world.World, snap sim.Snapshot, width int) {
	dc.SetColor(Palette[core.ColorDim])
	dc.DrawRectangle(0, 0, float64(width), imageHUDHeight)
	dc.Fill()

	dc.SetColor(Palette[core.ColorHUD])
	text := fmt.Sprintf("%s  Score: %d  Keys: %d", w.Name, snap.Score, snap.KeysCollected)
	dc.DrawStringAnchored(text, 8, imageHUDHeight/2, 0, 0.5)

	if snap.Timed {
		c := Palette[core.ColorHUD]
		if snap.Remaining < 30 {
			c = Palette[core.ColorAlert]
		}
		dc.SetColor(c)
		dc.DrawStringAnchored(fmt.Sprintf("Time: %ds", snap.Remaining), float64(width)-8, imageHUDHeight/2, 1, 0.5)
	}
	if snap.Complete {
		dc.SetColor(Palette[core.ColorSuccess])
		dc.DrawStringAnchored("LEVEL COMPLETE", float64(width)/2, imageHUDHeight+8, 0.5, 1)
	}
}

func playerColor(snap sim.Snapshot) color.Color {
	if snap.Complete {
		return Palette[core.ColorSuccess]
	}
	return Palette[core.ColorPlayer]
}
