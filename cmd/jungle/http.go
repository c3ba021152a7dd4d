package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jungle-code/internal/bridge"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/levels"
	"github.com/vovakirdan/jungle-code/internal/server"
)

var (
	flagHTTPAddr    string
	flagTileSize    int
	flagMaxSessions int
	flagSessionIdle time.Duration
	flagWatch       bool
)

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Start the HTTP + websocket host bridge",
	Long: `Start an HTTP server that hosts simulation sessions for a web or app
front end. Each session runs one level attempt on its own loop; clients send
programs over REST or a websocket and receive snapshots and events.

Routes:
  GET    /api/levels                        level catalog
  GET    /api/levels/:level/preview.png     level preview
  GET    /api/results?level=&limit=         stored results
  POST   /api/sessions                      create a session {"level": "..."}
  POST   /api/sessions/:id/run              {"program": "right 3"} or {"commands": [...]}
  POST   /api/sessions/:id/reset|level|next
  GET    /api/sessions/:id/frame.png        current frame
  GET    /api/sessions/:id/ws               websocket stream

Examples:
  jungle http
  jungle http --addr :9000 --levels ./levels --watch`,
	RunE: runHTTP,
}

func init() {
	httpCmd.Flags().StringVar(&flagHTTPAddr, "addr", ":8080", "HTTP listen address")
	httpCmd.Flags().IntVar(&flagTileSize, "tile", 0, "Tile size of PNG frames (default: from config)")
	httpCmd.Flags().IntVar(&flagMaxSessions, "max-sessions", 256, "Maximum concurrent sessions")
	httpCmd.Flags().DurationVar(&flagSessionIdle, "session-idle", 10*time.Minute, "Close sessions idle this long")
	httpCmd.Flags().BoolVar(&flagWatch, "watch", false, "Reload the levels directory when files change")
}

func runHTTP(_ *cobra.Command, _ []string) error {
	logger := newLogger("jungle-http")

	hubCfg := bridge.DefaultHubConfig()
	hubCfg.Session.Options = settings.options
	hubCfg.Session.TickRate = flagFPS
	hubCfg.Session.Mode = "http"
	hubCfg.MaxSessions = flagMaxSessions
	hubCfg.IdleTimeout = flagSessionIdle

	hub := bridge.NewHub(hubCfg, settings.catalog, logger)
	store := openStore()
	if store != nil {
		defer store.Close()
		hub.SetResultSaver(store)
	}
	hub.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if dir := levelsDir(); dir != "" && (flagWatch || settings.config.Levels.Watch) {
		w := levels.NewWatcher(dir, settings.catalog, logger.With("component", "levels"), nil)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("level watcher stopped", "error", err)
			}
		}()
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Address = flagHTTPAddr
	srvCfg.TileSize = settings.config.Render.TileSize
	if flagTileSize > 0 {
		srvCfg.TileSize = flagTileSize
	}

	srv := server.New(srvCfg, hub, store, logger)
	fmt.Printf("Starting jungle HTTP server on %s\n", srvCfg.Address)
	return srv.ListenAndServe()
}
