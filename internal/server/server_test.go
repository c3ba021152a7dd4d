package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jungle-code/internal/bridge"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/executor"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/levels"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
	"github.com/vovakirdan/jungle-code/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, interval time.Duration) *Server {
	t.Helper()
	catalog, err := levels.LoadCatalog(levels.Builtin())
	require.NoError(t, err)

	store, err := storage.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := bridge.DefaultHubConfig()
	cfg.Session.TickRate = 200
	cfg.Session.Mode = "http"
	cfg.Session.Options.Pacing = executor.Config{Interval: interval, UnknownDelay: time.Millisecond}
	hub := bridge.NewHub(cfg, catalog, nil)
	hub.SetResultSaver(store)
	hub.Start()
	t.Cleanup(hub.Stop)

	return New(DefaultConfig(), hub, store, nil)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, srv *Server, level string) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sessions", `{"level":"`+level+`","player":"tester"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[struct {
		ID       string       `json:"id"`
		Snapshot sim.Snapshot `json:"snapshot"`
	}](t, rec)
	require.NotEmpty(t, out.ID)
	assert.Equal(t, level, out.Snapshot.Level)
	return out.ID
}

func snapshot(t *testing.T, srv *Server, id string) sim.Snapshot {
	t.Helper()
	rec := do(t, srv, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[sim.Snapshot](t, rec)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestListLevels(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)

	rec := do(t, srv, http.MethodGet, "/api/levels", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[struct {
		Levels []levelInfo `json:"levels"`
	}](t, rec)
	require.Len(t, out.Levels, 5)
	assert.Equal(t, "first-steps", out.Levels[0].ID)
	assert.NotContains(t, rec.Body.String(), "solution")

	rec = do(t, srv, http.MethodGet, "/api/levels/key-collector", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[levelInfo](t, rec)
	assert.NotEmpty(t, info.Hints)

	rec = do(t, srv, http.MethodGet, "/api/levels/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLevelPreview(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)

	rec := do(t, srv, http.MethodGet, "/api/levels/first-steps/preview.png?tile=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())

	rec = do(t, srv, http.MethodGet, "/api/levels/first-steps/preview.png?width=64", "")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err = png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)
	id := createSession(t, srv, "first-steps")

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/next", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "next before completion")

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/run", `{"program":"right 7"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Eventually(t, func() bool {
		return snapshot(t, srv, id).Complete
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 10, snapshot(t, srv, id).Score)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/run", `{"program":"left"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "run after completion")

	require.Eventually(t, func() bool {
		rec := do(t, srv, http.MethodGet, "/api/results?level=first-steps", "")
		return rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), `"Mode":"http"`)
	}, time.Second, 20*time.Millisecond)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/next", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "key-collector", decode[sim.Snapshot](t, rec).Level)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/level", `{"level":"loop-master"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "loop-master", decode[sim.Snapshot](t, rec).Level)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/level", `{"level":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/frame.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)

	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunErrors(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	id := createSession(t, srv, "first-steps")
	path := "/api/sessions/" + id + "/run"

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{"program":`, http.StatusBadRequest},
		{"compile error", `{"program":"fly 3"}`, http.StatusBadRequest},
		{"empty program", `{"program":"# nothing"}`, http.StatusBadRequest},
		{"no commands", `{}`, http.StatusBadRequest},
		{"accepted", `{"commands":["right",{"type":"move","direction":"up"}],"token":4}`, http.StatusAccepted},
		{"busy", `{"program":"right","token":9}`, http.StatusConflict},
		{"stale", `{"program":"right","token":2}`, http.StatusConflict},
	}

	for _, tt := range tests {
		rec := do(t, srv, http.MethodPost, path, tt.body)
		assert.Equal(t, tt.want, rec.Code, "%s: %s", tt.name, rec.Body.String())
	}

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[sim.Snapshot](t, rec).Attempt)

	rec = do(t, srv, http.MethodPost, "/api/sessions/nope/run", `{"program":"right"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionUnknownLevel(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)
	rec := do(t, srv, http.MethodPost, "/api/sessions", `{"level":"atlantis"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, "empty body picks the first level")
}

func TestWebsocketStream(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)
	id := createSession(t, srv, "first-steps")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first bridge.Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, bridge.MessageSnapshot, first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, "first-steps", first.Snapshot.Level)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "run", ID: "r1", Program: "right 7"}))

	var (
		replied   bool
		completes int
	)
	for completes == 0 || !replied {
		var raw map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&raw))

		var typ string
		require.NoError(t, json.Unmarshal(raw["type"], &typ))
		switch typ {
		case "reply":
			var r replyMessage
			b, _ := json.Marshal(raw)
			require.NoError(t, json.Unmarshal(b, &r))
			assert.True(t, r.Ok, r.Error)
			assert.Equal(t, "r1", r.ID)
			replied = true
		case string(bridge.MessageEvent):
			var m bridge.Message
			b, _ := json.Marshal(raw)
			require.NoError(t, json.Unmarshal(b, &m))
			if m.Event.Kind == sim.EventLevelComplete {
				completes++
			}
		}
	}
	assert.Equal(t, 1, completes)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "bogus", ID: "b1"}))
	for {
		var r replyMessage
		require.NoError(t, conn.ReadJSON(&r))
		if r.Type == "reply" {
			assert.False(t, r.Ok)
			assert.Equal(t, http.StatusBadRequest, r.Code)
			break
		}
	}
}
