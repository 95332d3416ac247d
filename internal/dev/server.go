package dev

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/replayview/replayview/internal/config"
	"github.com/replayview/replayview/internal/errors"
	"github.com/replayview/replayview/pkg/assets"
)

// ReloadPath is the WebSocket endpoint browsers subscribe to.
const ReloadPath = "/__reload"

// ManifestPath serves the live asset manifest.
const ManifestPath = "/__manifest"

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Logger is the operator-facing log stream.
	Logger zerolog.Logger

	// MetricsOptions configure the Prometheus instrumentation. Tests pass
	// WithRegistry to keep registrations isolated.
	MetricsOptions []MetricsOption

	// OnBuildStart is called when a build starts.
	OnBuildStart func()

	// OnBuildComplete is called when a build completes.
	OnBuildComplete func(result BuildResult)

	// OnReload is called after browsers have been notified.
	OnReload func(clients int)
}

// Server is the development server. It owns the process's single Bundler
// and pushes rebuild notifications to connected browser tabs.
type Server struct {
	config     *config.Config
	options    ServerOptions
	logger     zerolog.Logger
	bundler    *Bundler
	watcher    *Watcher
	hub        *ReloadHub
	metrics    *Metrics
	changeCh   chan Change
	debounce   time.Duration
	httpServer *http.Server

	mu      sync.Mutex
	running bool
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config

	bundler := NewBundler(BundlerConfig{
		AppDir: cfg.AppPath(),
		Ignore: append(append([]string{}, DefaultIgnore...), cfg.Dev.Ignore...),
	})

	watchPaths := make([]string, 0, len(cfg.Dev.Watch))
	for _, p := range cfg.Dev.Watch {
		watchPaths = append(watchPaths, resolveWatchPath(cfg, p))
	}

	watcher := NewWatcher(WatcherConfig{
		Paths:        watchPaths,
		Ignore:       append(append([]string{}, DefaultIgnore...), cfg.Dev.Ignore...),
		PollInterval: time.Duration(cfg.Dev.PollIntervalMS) * time.Millisecond,
	})

	var hub *ReloadHub
	if cfg.Dev.HotReload {
		hub = NewReloadHub()
	}

	s := &Server{
		config:   cfg,
		options:  options,
		logger:   options.Logger.With().Str("component", "dev-server").Logger(),
		bundler:  bundler,
		watcher:  watcher,
		hub:      hub,
		debounce: time.Duration(cfg.Dev.DebounceMS) * time.Millisecond,
	}
	s.metrics = NewMetrics(s.ClientCount, options.MetricsOptions...)
	return s
}

// Start starts the development server. It blocks until the context is
// cancelled or the listener fails. A bind failure is fatal: it is logged
// and returned without retrying.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if err := s.config.Validate(); err != nil {
		return err
	}

	// Initial build.
	result := s.bundler.Build(ctx)
	s.metrics.ObserveBuild(result)
	if !result.Success {
		s.logger.Error().Str("output", result.Output).Msg("initial build failed")
		s.notifyError(result.Output)
	} else {
		s.logger.Info().
			Dur("duration", result.Duration).
			Str("hash", shortHash(result.Hash)).
			Int("modules", len(result.Changed)).
			Msg("built bundle")
	}

	s.changeCh = make(chan Change, 64)
	s.watcher.OnChange(func(change Change) {
		select {
		case s.changeCh <- change:
		default:
		}
	})

	go s.watcher.Start(ctx)
	go s.processChanges(ctx)

	addr := s.config.DevAddress()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		e := errors.New("E301").WithDetail(addr).Wrap(err)
		s.logger.Error().Err(err).Str("addr", addr).Msg("dev server failed to bind")
		s.Stop()
		return e
	}

	s.httpServer = &http.Server{Handler: s.router()}

	// Exactly one startup confirmation, including the bound port.
	s.logger.Info().
		Str("host", s.config.Dev.Host).
		Int("port", s.config.Dev.Port).
		Msgf("dev server listening on %s", s.config.DevURL())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.watcher.Stop()
	if s.hub != nil {
		s.hub.Close()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// ClientCount returns the number of connected reload clients.
func (s *Server) ClientCount() int {
	if s.hub == nil {
		return 0
	}
	return s.hub.ClientCount()
}

// Bundler exposes the server's bundler, mainly for tests.
func (s *Server) Bundler() *Bundler {
	return s.bundler
}

// router assembles the HTTP surface: compiled assets under the public
// prefix, the manifest, the reload WebSocket, and Prometheus metrics.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	prefix := s.config.PublicPrefix()
	r.Get(prefix+"*", s.handleAsset)
	r.Get(ManifestPath, s.handleManifest)
	if s.hub != nil {
		r.Get(ReloadPath, s.hub.HandleWebSocket)
	}
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// handleAsset serves a compiled asset from bundler memory. The permissive
// CORS header lets a page on a different origin load the assets.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, s.config.PublicPrefix())

	data, contentType, ok := s.bundler.Asset(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if hash := s.bundler.Hash(); hash != "" {
		w.Header().Set("ETag", `"`+shortHash(hash)+`"`)
	}
	w.Write(data)
	s.metrics.ObserveAsset()
}

// handleManifest serves the live asset manifest, including the server's
// own origin so clients never assume a port.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	m := assets.NewManifest()
	m.SetHash(s.bundler.Hash())
	m.SetOrigin(s.config.DevURL())
	m.SetPrefix(s.config.PublicPrefix())
	m.Set(EntryName, EntryName)
	for _, id := range s.bundler.Modules() {
		m.Set(id, id)
	}

	data, err := m.Encode()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// processChanges serializes change handling. A burst of file events is
// coalesced through the debounce window: the rebuild starts only after a
// quiet period follows the last event.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-s.changeCh:
			changes := []Change{change}
			timer := time.NewTimer(s.debounce)
			waiting := true
			for waiting {
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case next := <-s.changeCh:
					changes = append(changes, next)
					if !timer.Stop() {
						<-timer.C
					}
					timer.Reset(s.debounce)
				case <-timer.C:
					waiting = false
				}
			}
			s.handleChanges(ctx, changes)
		}
	}
}

// handleChanges rebuilds once for a coalesced batch of file changes.
func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}

	for _, change := range changes {
		s.logger.Debug().Str("path", change.Path).Msg("changed")
	}

	if s.options.OnBuildStart != nil {
		s.options.OnBuildStart()
	}

	result := s.bundler.Build(ctx)
	s.metrics.ObserveBuild(result)

	if s.options.OnBuildComplete != nil {
		s.options.OnBuildComplete(result)
	}

	if !result.Success {
		s.logger.Error().Str("output", result.Output).Msg("build failed")
		s.notifyError(result.Output)
		return
	}

	s.logger.Info().
		Dur("duration", result.Duration).
		Str("hash", shortHash(result.Hash)).
		Strs("changed", result.Changed).
		Msg("rebuilt bundle")

	s.clearError()
	s.notifyUpdate(result)
}

func (s *Server) notifyUpdate(result BuildResult) {
	if s.hub == nil {
		return
	}
	s.hub.NotifyUpdate(result.Changed, result.Hash)
	if s.options.OnReload != nil {
		s.options.OnReload(s.hub.ClientCount())
	}
}

func (s *Server) notifyError(errMsg string) {
	if s.hub == nil {
		return
	}
	s.hub.NotifyError(errMsg)
}

func (s *Server) clearError() {
	if s.hub == nil {
		return
	}
	s.hub.ClearError()
}

func resolveWatchPath(cfg *config.Config, p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	if cfg.Dir() == "" {
		return p
	}
	return cfg.Dir() + "/" + p
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
