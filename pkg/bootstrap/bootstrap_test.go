package bootstrap

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/replayview/replayview/internal/errors"
	"github.com/replayview/replayview/pkg/assets"
	"github.com/replayview/replayview/pkg/render"
	"github.com/replayview/replayview/pkg/routes"
)

// countingRenderer wraps the HTML renderer and counts Hydrate calls.
type countingRenderer struct {
	mu    sync.Mutex
	calls int
	inner *render.HTMLRenderer
}

func (r *countingRenderer) Hydrate(m *render.Mount, root *render.Node) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.inner.Hydrate(m, root)
}

func (r *countingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testApp(t *testing.T, mutate func(*Config)) (*App, *countingRenderer, *render.Mount) {
	t.Helper()

	mount := render.NewMount("app")
	renderer := &countingRenderer{inner: render.NewHTMLRenderer()}
	cfg := Config{
		Mount:    mount,
		Renderer: renderer,
		Logger:   zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(app.Close)
	return app, renderer, mount
}

func TestNew_RequiresMount(t *testing.T) {
	_, err := New(Config{Renderer: render.NewHTMLRenderer()})
	if err == nil {
		t.Fatal("expected error for missing mount")
	}
	var rerr *errors.ReplayError
	if !stderrors.As(err, &rerr) || rerr.Code != "E401" {
		t.Fatalf("expected E401, got %v", err)
	}
}

func TestNew_RequiresRenderer(t *testing.T) {
	_, err := New(Config{Mount: render.NewMount("app")})
	if err == nil {
		t.Fatal("expected error for missing renderer")
	}
	var rerr *errors.ReplayError
	if !stderrors.As(err, &rerr) || rerr.Code != "E402" {
		t.Fatalf("expected E402, got %v", err)
	}
}

func TestInitialize_RendersOnce(t *testing.T) {
	app, renderer, mount := testApp(t, func(cfg *Config) {
		cfg.InitialState = State{"user": "ada"}
	})

	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if app.Phase() != PhaseMounted {
		t.Fatalf("phase = %s, want mounted", app.Phase())
	}
	if got := renderer.count(); got != 1 {
		t.Fatalf("render count = %d, want 1", got)
	}
	if mount.Generation() != 1 {
		t.Fatalf("mount generation = %d, want 1", mount.Generation())
	}
	if !strings.Contains(mount.HTML(), `data-view="home"`) {
		t.Fatalf("mount HTML missing home view: %s", mount.HTML())
	}
	if v, ok := app.Store().Get("user"); !ok || v != "ada" {
		t.Fatalf("store not seeded: %v %v", v, ok)
	}
}

func TestInitialize_SecondCallNoop(t *testing.T) {
	app, renderer, _ := testApp(t, nil)

	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	store := app.Store()
	if err := app.Initialize(); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}

	if renderer.count() != 1 {
		t.Fatalf("render count = %d, want 1", renderer.count())
	}
	if app.Store() != store {
		t.Fatal("second Initialize replaced the store")
	}
}

func TestRenderApp_BeforeInitialize(t *testing.T) {
	app, _, _ := testApp(t, nil)

	err := app.RenderApp(RenderProps{Path: "/"})
	var rerr *errors.ReplayError
	if !stderrors.As(err, &rerr) || rerr.Code != "E403" {
		t.Fatalf("expected E403, got %v", err)
	}
}

func TestRenderApp_EqualPropsLeaveMountAlone(t *testing.T) {
	app, _, mount := testApp(t, nil)
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	gen := mount.Generation()
	for i := 0; i < 3; i++ {
		if err := app.RenderApp(RenderProps{Path: "/"}); err != nil {
			t.Fatalf("RenderApp: %v", err)
		}
	}

	if mount.Generation() != gen {
		t.Fatalf("generation advanced from %d to %d on equal props", gen, mount.Generation())
	}
}

func TestRenderApp_PathChange(t *testing.T) {
	app, _, mount := testApp(t, nil)
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := app.RenderApp(RenderProps{Path: "/login"}); err != nil {
		t.Fatalf("RenderApp: %v", err)
	}

	if mount.Generation() != 2 {
		t.Fatalf("generation = %d, want 2", mount.Generation())
	}
	if !strings.Contains(mount.HTML(), `data-view="login"`) {
		t.Fatalf("mount HTML missing login view: %s", mount.HTML())
	}
}

func TestRenderApp_UnknownPath(t *testing.T) {
	app, _, mount := testApp(t, func(cfg *Config) {
		cfg.Player = true
	})
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// The player table has no /login route.
	if err := app.RenderApp(RenderProps{Path: "/login"}); err != nil {
		t.Fatalf("RenderApp: %v", err)
	}
	if !strings.Contains(mount.HTML(), `data-view="not-found"`) {
		t.Fatalf("mount HTML missing not-found view: %s", mount.HTML())
	}
}

func TestEntryURL_FromResolver(t *testing.T) {
	m := assets.NewManifest()
	m.SetOrigin("http://127.0.0.1:8096")
	m.SetPrefix("/static/")
	m.Set("app.js", "app.js")
	m.SetHash("0123456789abcdef")

	app, _, mount := testApp(t, func(cfg *Config) {
		cfg.Assets = assets.NewResolver(m)
	})
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	want := "http://127.0.0.1:8096/static/app.js?v=01234567"
	if app.EntryURL() != want {
		t.Fatalf("EntryURL = %q, want %q", app.EntryURL(), want)
	}
	if !strings.Contains(mount.HTML(), `src="`+want+`"`) {
		t.Fatalf("mount HTML missing entry script: %s", mount.HTML())
	}
}

func TestHandleReload_RouteModuleRerendersOnce(t *testing.T) {
	var loads int
	app, renderer, _ := testApp(t, func(cfg *Config) {
		cfg.RouteLoader = func() *routes.Table {
			loads++
			return routes.BaseTable()
		}
		cfg.InitialState = State{"page": 3}
	})
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	before := app.Store()
	renders := renderer.count()

	app.handleReload(reloadMessage{Type: "update", Modules: []string{"routes/replay.js"}, Hash: "abc"})

	if loads != 2 {
		t.Fatalf("route loader calls = %d, want 2", loads)
	}
	if renderer.count() != renders+1 {
		t.Fatalf("render count = %d, want %d", renderer.count(), renders+1)
	}
	after := app.Store()
	if after == before {
		t.Fatal("store was not replaced")
	}
	if v, _ := after.Get("page"); v != 3 {
		t.Fatalf("replaced store lost state: page = %v", v)
	}
}

func TestHandleReload_NonRouteModuleIgnored(t *testing.T) {
	app, renderer, _ := testApp(t, nil)
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	renders := renderer.count()
	store := app.Store()

	app.handleReload(reloadMessage{Type: "update", Modules: []string{"components/player.js"}})
	app.handleReload(reloadMessage{Type: "error", Error: "syntax error"})
	app.handleReload(reloadMessage{Type: "clear"})

	if renderer.count() != renders {
		t.Fatalf("render count changed: %d, want %d", renderer.count(), renders)
	}
	if app.Store() != store {
		t.Fatal("store replaced without a route change")
	}
}

func TestHandleReload_ResetsDragBackend(t *testing.T) {
	app, _, _ := testApp(t, nil)
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if !RegisterDragBackend() {
		t.Fatal("first registration failed")
	}
	if RegisterDragBackend() {
		t.Fatal("second registration should fail")
	}

	app.handleReload(reloadMessage{Type: "update", Modules: []string{"routes/home.js"}})

	if !RegisterDragBackend() {
		t.Fatal("registration should succeed after a route reload")
	}
	resetDragBackend()
}

func TestDesktop_NoSubscription(t *testing.T) {
	app, _, _ := testApp(t, func(cfg *Config) {
		cfg.Desktop = true
		cfg.ReloadURL = "http://127.0.0.1:1/__reload"
	})
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if app.sub != nil {
		t.Fatal("desktop app opened a reload subscription")
	}
}

func TestNoReloadURL_NoSubscription(t *testing.T) {
	app, _, _ := testApp(t, nil)
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if app.sub != nil {
		t.Fatal("subscription opened without a reload URL")
	}
}

func TestErrorHandler_NilWithoutEndpoint(t *testing.T) {
	app, _, _ := testApp(t, nil)
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if app.ErrorHandler() != nil {
		t.Fatal("error handler installed without an endpoint")
	}
}

func TestErrorHandler_Reports(t *testing.T) {
	reports := make(chan Report, 1)
	app, _, _ := testApp(t, func(cfg *Config) {
		cfg.ErrorEndpoint = "http://example.invalid/errors"
		cfg.Send = func(endpoint string, report Report) error {
			reports <- report
			return nil
		}
	})
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	handler := app.ErrorHandler()
	if handler == nil {
		t.Fatal("expected an error handler")
	}
	handler(errors.New("E403"), "/search")

	select {
	case report := <-reports:
		if report.Path != "/search" {
			t.Fatalf("report path = %q, want /search", report.Path)
		}
		if !strings.Contains(report.Message, "E403") {
			t.Fatalf("report message missing code: %q", report.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("report never delivered")
	}
}

func TestErrorHandler_SafeAfterClose(t *testing.T) {
	app, _, _ := testApp(t, func(cfg *Config) {
		cfg.ErrorEndpoint = "http://example.invalid/errors"
		cfg.Send = func(endpoint string, report Report) error { return nil }
	})
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	handler := app.ErrorHandler()
	app.Close()

	// The installed handler must never throw, even once the app is
	// torn down; the report is dropped.
	handler(stderrors.New("late failure"), "/replay/page")
}

// reloadServer is a stand-in dev server reload channel.
func reloadServer(t *testing.T, messages []reloadMessage) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range messages {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
		// Hold the connection open so the client does not reconnect
		// and replay the messages.
		conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubscription_AppliesRouteUpdates(t *testing.T) {
	srv := reloadServer(t, []reloadMessage{
		{Type: "update", Modules: []string{"components/player.js"}, Hash: "h1"},
		{Type: "update", Modules: []string{"routes/home.js"}, Hash: "h2"},
	})

	app, renderer, _ := testApp(t, func(cfg *Config) {
		cfg.ReloadURL = srv.URL + "/__reload"
	})
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if app.sub == nil {
		t.Fatal("expected a reload subscription")
	}

	deadline := time.Now().Add(5 * time.Second)
	for renderer.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("route update never applied, render count = %d", renderer.count())
		}
		time.Sleep(10 * time.Millisecond)
	}
	// Exactly one of the two updates touched route modules.
	if renderer.count() != 2 {
		t.Fatalf("render count = %d, want 2", renderer.count())
	}
}

func TestClose_ConcurrentWithInitialize(t *testing.T) {
	for i := 0; i < 20; i++ {
		app, _, _ := testApp(t, func(cfg *Config) {
			cfg.ReloadURL = "http://127.0.0.1:1/__reload"
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := app.Initialize(); err != nil {
				t.Errorf("Initialize: %v", err)
			}
		}()
		app.Close()
		<-done

		// Whichever side won, a second Close must find and stop any
		// subscription Initialize opened.
		app.Close()
	}
}

func TestClose_Terminates(t *testing.T) {
	app, _, _ := testApp(t, nil)
	if err := app.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	app.Close()
	app.Close()

	if app.Phase() != PhaseTerminated {
		t.Fatalf("phase = %s, want terminated", app.Phase())
	}
	if err := app.RenderApp(RenderProps{}); err == nil {
		t.Fatal("RenderApp should fail after Close")
	}
}
