package bootstrap

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/replayview/replayview/internal/errors"
	"github.com/replayview/replayview/pkg/assets"
	"github.com/replayview/replayview/pkg/render"
	"github.com/replayview/replayview/pkg/routes"
)

// DefaultRouteModulePrefix marks which bundle module ids count as route
// modules. Changes to route modules trigger a rebuild of the route table
// and a single re-render; changes elsewhere are handled by the module
// update alone.
const DefaultRouteModulePrefix = "routes/"

// Phase is the app lifecycle state.
type Phase uint8

const (
	PhaseUninitialized Phase = iota
	PhaseMounted
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseMounted:
		return "mounted"
	case PhaseTerminated:
		return "terminated"
	}
	return "unknown"
}

// Renderer attaches a node tree to a mount. render.HTMLRenderer is the
// reference implementation.
type Renderer interface {
	Hydrate(m *render.Mount, root *render.Node) error
}

// Config carries everything the app needs. There is no ambient state:
// hosts construct a Config explicitly and pass it to New.
type Config struct {
	// Mount is the target the app renders into. Required.
	Mount *render.Mount

	// Renderer attaches rendered trees to the mount. Required.
	Renderer Renderer

	// Assets resolves bundle entry and asset URLs. When nil the app
	// renders without script references.
	Assets assets.Resolver

	// InitialState seeds the store created during Initialize.
	InitialState State

	// Player selects the player route table instead of the base one.
	Player bool

	// Desktop disables the reload subscription even when ReloadURL is
	// set. Desktop builds ship fixed bundles; there is nothing to
	// subscribe to.
	Desktop bool

	// ReloadURL is the dev server's reload channel. Empty means no
	// subscription.
	ReloadURL string

	// RouteLoader produces the route table. Defaults to the built-in
	// table for the selected variant.
	RouteLoader routes.Loader

	// RouteModulePrefix overrides DefaultRouteModulePrefix.
	RouteModulePrefix string

	// ErrorEndpoint is where uncaught errors are POSTed. Empty means
	// no error handler is installed and errors fall through to the
	// host's default handling.
	ErrorEndpoint string

	// Send overrides the error reporter's HTTP delivery. Tests use it.
	Send SendFunc

	Logger zerolog.Logger
}

// RenderProps is the input to RenderApp. Equal props produce equal
// markup; the mount is only touched when the markup differs.
type RenderProps struct {
	// Path is the location to route. Empty means "/".
	Path string
}

// App ties the store, route table, renderer and reload subscription
// together for one page load.
type App struct {
	cfg    Config
	logger zerolog.Logger

	mu       sync.Mutex
	phase    Phase
	store    *Store
	table    *routes.Table
	props    RenderProps
	entryURL string

	reporter *Reporter
	sub      *subscription
}

// New validates the config and creates an app in the uninitialized
// phase. Nothing renders until Initialize.
func New(cfg Config) (*App, error) {
	if cfg.Mount == nil {
		return nil, errors.New("E401")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("E402")
	}
	if cfg.RouteLoader == nil {
		cfg.RouteLoader = routes.DefaultLoader(cfg.Player)
	}
	if cfg.RouteModulePrefix == "" {
		cfg.RouteModulePrefix = DefaultRouteModulePrefix
	}
	return &App{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "bootstrap").Logger(),
		phase:  PhaseUninitialized,
	}, nil
}

// Initialize creates the store, loads the route table, wires the error
// reporter and reload subscription, and performs the first render. It
// runs once; calling it again on a mounted app is a no-op.
func (a *App) Initialize() error {
	a.mu.Lock()
	if a.phase != PhaseUninitialized {
		a.mu.Unlock()
		return nil
	}

	a.store = NewStore(a.cfg.InitialState)
	a.table = a.cfg.RouteLoader()
	a.props = RenderProps{Path: "/"}
	if a.cfg.Assets != nil {
		a.entryURL = a.cfg.Assets.Entry()
	}
	if a.cfg.ErrorEndpoint != "" {
		a.reporter = newReporter(a.cfg.ErrorEndpoint, a.cfg.Send, a.logger)
	}

	if err := a.renderLocked(a.props); err != nil {
		a.mu.Unlock()
		return err
	}
	a.phase = PhaseMounted

	// Assigned under the lock so a concurrent Close always sees the
	// subscription. Its goroutine only takes the lock itself, so this
	// cannot deadlock.
	if a.cfg.ReloadURL != "" && !a.cfg.Desktop {
		a.sub = newSubscription(a.cfg.ReloadURL, a.handleReload, a.logger)
	}
	a.mu.Unlock()
	return nil
}

// RenderApp renders the app with the given props. Rendering with equal
// props and state leaves the mount untouched; the mount generation only
// advances when the markup changes.
func (a *App) RenderApp(props RenderProps) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase != PhaseMounted {
		return errors.New("E403").WithDetail("phase " + a.phase.String())
	}
	a.props = props
	if err := a.renderLocked(props); err != nil {
		a.reportError(err, props.Path)
		return err
	}
	return nil
}

func (a *App) renderLocked(props RenderProps) error {
	return a.cfg.Renderer.Hydrate(a.cfg.Mount, a.buildTree(props))
}

// buildTree assembles the rendered tree: an error boundary wrapping a
// state provider wrapping the routed view. The boundary exists so host
// rendering libraries surface failures through the reporter instead of
// their own banners.
func (a *App) buildTree(props RenderProps) *render.Node {
	path := props.Path
	if path == "" {
		path = "/"
	}
	view, _, ok := a.table.Match(path)
	if !ok {
		view = "not-found"
	}

	routed := render.Element("main",
		map[string]string{"data-view": view, "data-path": path},
		render.Text(view))

	children := []*render.Node{routed}
	if a.entryURL != "" {
		children = append(children, render.Element("script",
			map[string]string{"src": a.entryURL}))
	}

	provider := render.Element("div",
		map[string]string{"data-provider": "store"}, children...)
	return render.Element("div",
		map[string]string{"data-boundary": "error"}, provider)
}

// handleReload processes one message from the reload channel. Only a
// module update touching a route module re-renders: the route table is
// reloaded, the store is replaced with a copy of its current state and
// the app renders exactly once. Everything else is logged and ignored.
func (a *App) handleReload(msg reloadMessage) {
	switch msg.Type {
	case "update":
		if !a.touchesRoutes(msg.Modules) {
			a.logger.Debug().Strs("modules", msg.Modules).Msg("module update outside routes")
			return
		}
		a.applyRouteChange(msg)
	case "error":
		a.logger.Warn().Str("error", msg.Error).Msg("dev server build failed")
	case "clear":
		a.logger.Debug().Msg("dev server build recovered")
	}
}

func (a *App) touchesRoutes(modules []string) bool {
	for _, id := range modules {
		if strings.HasPrefix(id, a.cfg.RouteModulePrefix) {
			return true
		}
	}
	return false
}

func (a *App) applyRouteChange(msg reloadMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase != PhaseMounted {
		return
	}

	// The drag backend registers globally on first use and rejects a
	// second registration after a module swap. Reset it before the
	// fresh route modules load.
	resetDragBackend()

	a.table = a.cfg.RouteLoader()
	a.store = NewStore(a.store.State())

	if err := a.renderLocked(a.props); err != nil {
		a.reportError(err, a.props.Path)
		return
	}
	a.logger.Info().Str("hash", msg.Hash).Strs("modules", msg.Modules).Msg("route modules reloaded")
}

func (a *App) reportError(err error, path string) {
	if a.reporter == nil {
		return
	}
	a.reporter.Report(err, path)
}

// ErrorHandler returns the app's uncaught-error hook, or nil when no
// error endpoint is configured. Hosts install it as their global
// handler; a nil return means errors keep the host's default handling.
func (a *App) ErrorHandler() func(err error, path string) {
	if a.reporter == nil {
		return nil
	}
	return func(err error, path string) {
		a.reporter.Report(err, path)
	}
}

// Phase reports the lifecycle state.
func (a *App) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Store returns the state store. Nil before Initialize. The returned
// pointer goes stale after a route-module reload replaces the store.
func (a *App) Store() *Store {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store
}

// Routes returns the active route table. Nil before Initialize.
func (a *App) Routes() *routes.Table {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table
}

// EntryURL is the resolved bundle entry URL, empty without a resolver.
func (a *App) EntryURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entryURL
}

// Close tears the app down: the subscription stops, the reporter drains
// and the app enters the terminated phase. Safe to call more than once.
func (a *App) Close() {
	a.mu.Lock()
	if a.phase == PhaseTerminated {
		a.mu.Unlock()
		return
	}
	a.phase = PhaseTerminated
	sub, rep := a.sub, a.reporter
	a.mu.Unlock()

	if sub != nil {
		sub.stop()
	}
	if rep != nil {
		rep.Close()
	}
}
