package dev

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/replayview/replayview/internal/errors"
)

// EntryName is the identifier of the concatenated bundle entry point.
const EntryName = "app.js"

// BundlerConfig configures the in-memory bundler.
type BundlerConfig struct {
	// AppDir is the frontend source directory.
	AppDir string

	// Ignore patterns to skip while scanning.
	Ignore []string
}

// BuildResult contains the result of a build.
type BuildResult struct {
	// Success indicates if the build succeeded.
	Success bool

	// Duration is how long the build took.
	Duration time.Duration

	// Hash is the build hash over the whole module graph.
	Hash string

	// Changed lists the module identifiers that differ from the previous
	// successful build. On the first build every module is listed.
	Changed []string

	// Output is the human-readable failure description, if any.
	Output string

	// Err is the build error, if any.
	Err error
}

// Bundler compiles the frontend source tree into in-memory assets.
//
// The dev server owns exactly one Bundler for its process lifetime. Build
// is serialized internally; callers never observe a half-updated graph.
type Bundler struct {
	config BundlerConfig
	tracer trace.Tracer

	mu      sync.Mutex
	modules map[string][]byte
	sums    map[string]string
	bundle  []byte
	hash    string
}

// NewBundler creates a new bundler rooted at the app source directory.
func NewBundler(config BundlerConfig) *Bundler {
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	return &Bundler{
		config:  config,
		tracer:  otel.Tracer("replayview/dev"),
		modules: make(map[string][]byte),
		sums:    make(map[string]string),
	}
}

// Build rescans the source tree and recompiles the module graph in memory.
// A failed build leaves the previous graph in place.
func (b *Bundler) Build(ctx context.Context) BuildResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	_, span := b.tracer.Start(ctx, "bundler.build")
	defer span.End()

	modules := make(map[string][]byte)
	var failed error
	var failedPath string

	err := filepath.Walk(b.config.AppDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if b.shouldIgnore(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if b.shouldIgnore(p) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			failed = err
			failedPath = p
			return filepath.SkipAll
		}

		rel, err := filepath.Rel(b.config.AppDir, p)
		if err != nil {
			return nil
		}
		modules[filepath.ToSlash(rel)] = data
		return nil
	})
	if failed == nil && err != nil {
		failed = err
		failedPath = b.config.AppDir
	}

	if failed != nil {
		span.SetStatus(codes.Error, failed.Error())
		e := errors.New("E201").
			WithDetail(failedPath + ": " + failed.Error()).
			Wrap(failed)
		return BuildResult{
			Duration: time.Since(start),
			Output:   fmt.Sprintf("%s: %v", failedPath, failed),
			Err:      e,
		}
	}

	if len(modules) == 0 {
		e := errors.New("E202").WithDetail("Scanned " + b.config.AppDir)
		span.SetStatus(codes.Error, e.Error())
		return BuildResult{
			Duration: time.Since(start),
			Output:   "no modules found under " + b.config.AppDir,
			Err:      e,
		}
	}

	ids := make([]string, 0, len(modules))
	for id := range modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sums := make(map[string]string, len(modules))
	var changed []string
	graph := sha256.New()
	var bundle []byte

	for _, id := range ids {
		sum := sha256.Sum256(modules[id])
		hexSum := hex.EncodeToString(sum[:])
		sums[id] = hexSum
		if b.sums[id] != hexSum {
			changed = append(changed, id)
		}
		fmt.Fprintf(graph, "%s %s\n", id, hexSum)

		if classifyChange(id) == ChangeScript {
			bundle = append(bundle, []byte("// module: "+id+"\n")...)
			bundle = append(bundle, modules[id]...)
			bundle = append(bundle, '\n')
		}
	}

	// Removed modules change the graph hash and the changed set.
	for id := range b.sums {
		if _, ok := sums[id]; !ok {
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)

	b.modules = modules
	b.sums = sums
	b.bundle = bundle
	b.hash = hex.EncodeToString(graph.Sum(nil))

	span.SetAttributes(
		attribute.Int("bundler.modules", len(modules)),
		attribute.Int("bundler.changed", len(changed)),
		attribute.String("bundler.hash", b.hash[:8]),
	)

	return BuildResult{
		Success:  true,
		Duration: time.Since(start),
		Hash:     b.hash,
		Changed:  changed,
	}
}

// Hash returns the current build hash, or "" before the first build.
func (b *Bundler) Hash() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hash
}

// Modules returns the sorted identifiers of the current module graph.
func (b *Bundler) Modules() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.modules))
	for id := range b.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Asset returns the compiled content and content type for a name. The
// entry name resolves to the concatenated bundle; everything else resolves
// to an individual module.
func (b *Bundler) Asset(name string) ([]byte, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if name == EntryName {
		if b.hash == "" {
			return nil, "", false
		}
		return b.bundle, "text/javascript; charset=utf-8", true
	}

	data, ok := b.modules[name]
	if !ok {
		return nil, "", false
	}
	return data, contentType(name), true
}

func (b *Bundler) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	if strings.HasPrefix(name, ".") {
		return true
	}
	rel := fullPath
	if r, err := filepath.Rel(b.config.AppDir, fullPath); err == nil {
		rel = r
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range b.config.Ignore {
		if name == pattern || rel == pattern {
			return true
		}
		if strings.Contains(pattern, "/") && strings.HasPrefix(rel, pattern+"/") {
			return true
		}
		if strings.ContainsAny(pattern, "*?[") {
			if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
		}
	}
	return false
}

func contentType(name string) string {
	ext := filepath.Ext(name)
	switch ext {
	case ".js", ".jsx", ".mjs", ".ts", ".tsx":
		return "text/javascript; charset=utf-8"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
