// Package build produces the production bundle: fingerprinted assets
// under dist/public plus a manifest.json the runtime resolves URLs from.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/replayview/replayview/internal/config"
	"github.com/replayview/replayview/internal/dev"
	"github.com/replayview/replayview/internal/errors"
	"github.com/replayview/replayview/pkg/assets"
)

// Options configures the builder.
type Options struct {
	// Player builds the restricted player variant. Defaults from the
	// project config.
	Player bool

	// Origin is written into the manifest so clients resolve absolute
	// asset URLs. Empty means URLs stay host-relative.
	Origin string

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Public is the path to the public output directory.
	Public string

	// ManifestPath is the path to the written manifest.json.
	ManifestPath string

	// Hash is the build hash over the whole module graph.
	Hash string

	// Entry is the fingerprinted entry bundle file name.
	Entry string

	// BundleSize is the entry bundle size in bytes.
	BundleSize int64

	// Assets counts the fingerprinted static assets copied over.
	Assets int

	// Player reports which variant was built.
	Player bool
}

// Builder handles production builds.
type Builder struct {
	config  *config.Config
	options Options
}

// New creates a builder for the project.
func New(cfg *config.Config, options Options) *Builder {
	if !options.Player && cfg.Build.Player {
		options.Player = true
	}
	return &Builder{config: cfg, options: options}
}

// Build performs a production build: the module graph is bundled, the
// entry and static assets are written with content fingerprints in their
// names, and manifest.json records the mapping plus the build hash.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	outputDir := b.config.OutputPath()
	publicDir := filepath.Join(outputDir, "public")

	b.progress("Cleaning output directory...")
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, errors.New("E203").Wrap(err)
	}
	if err := os.MkdirAll(publicDir, 0755); err != nil {
		return nil, errors.New("E203").Wrap(err)
	}

	b.progress("Bundling modules...")
	bundler := dev.NewBundler(dev.BundlerConfig{
		AppDir: b.config.AppPath(),
		Ignore: b.ignorePatterns(),
	})
	built := bundler.Build(ctx)
	if built.Err != nil {
		return nil, built.Err
	}

	manifest := assets.NewManifest()
	manifest.SetHash(built.Hash)
	manifest.SetOrigin(b.options.Origin)
	manifest.SetPrefix(b.config.PublicPrefix())

	b.progress("Writing entry bundle...")
	entry, size, err := b.writeEntry(bundler, publicDir, built.Hash)
	if err != nil {
		return nil, err
	}
	manifest.Set(dev.EntryName, entry)

	b.progress("Copying static assets...")
	copied, err := b.copyAssets(publicDir, manifest)
	if err != nil {
		return nil, err
	}

	b.progress("Writing manifest...")
	manifestPath := filepath.Join(outputDir, "manifest.json")
	data, err := manifest.Encode()
	if err != nil {
		return nil, errors.New("E203").Wrap(err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return nil, errors.New("E203").Wrap(err)
	}

	return &Result{
		Duration:     time.Since(start),
		Public:       publicDir,
		ManifestPath: manifestPath,
		Hash:         built.Hash,
		Entry:        entry,
		BundleSize:   size,
		Assets:       copied,
		Player:       b.options.Player,
	}, nil
}

// ignorePatterns extends the configured ignore list with the routes
// subtree belonging to the other variant, when the source keeps the
// variants side by side.
func (b *Builder) ignorePatterns() []string {
	patterns := append([]string(nil), b.config.Dev.Ignore...)

	other := "routes/player"
	if b.options.Player {
		other = "routes/base"
	}
	if _, err := os.Stat(filepath.Join(b.config.AppPath(), filepath.FromSlash(other))); err == nil {
		patterns = append(patterns, other)
	}
	return patterns
}

// writeEntry writes the concatenated entry bundle under a name carrying
// the build hash. The hash always comes from the bundler's metadata.
func (b *Builder) writeEntry(bundler *dev.Bundler, publicDir, hash string) (string, int64, error) {
	data, _, ok := bundler.Asset(dev.EntryName)
	if !ok {
		return "", 0, errors.New("E202")
	}

	ext := filepath.Ext(dev.EntryName)
	base := strings.TrimSuffix(dev.EntryName, ext)
	name := fmt.Sprintf("%s.%s%s", base, shortHash(hash), ext)

	if err := os.WriteFile(filepath.Join(publicDir, name), data, 0644); err != nil {
		return "", 0, errors.New("E203").Wrap(err)
	}
	return name, int64(len(data)), nil
}

// copyAssets copies the project's public directory into the output with
// per-file content fingerprints, recording each mapping in the manifest.
func (b *Builder) copyAssets(publicDir string, manifest *assets.Manifest) (int, error) {
	srcDir := b.config.PublicPath()
	if _, err := os.Stat(srcDir); os.IsNotExist(err) {
		return 0, nil
	}

	assetsDir := filepath.Join(publicDir, "assets")
	if err := os.MkdirAll(assetsDir, 0755); err != nil {
		return 0, errors.New("E203").Wrap(err)
	}

	copied := 0
	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		hash, err := hashFile(path)
		if err != nil {
			return err
		}

		ext := filepath.Ext(relPath)
		base := strings.TrimSuffix(filepath.Base(relPath), ext)
		hashedName := fmt.Sprintf("%s.%s%s", base, shortHash(hash), ext)
		destPath := filepath.Join(assetsDir, hashedName)

		if err := copyFile(path, destPath); err != nil {
			return err
		}

		manifest.Set(relPath, "assets/"+hashedName)
		copied++
		return nil
	})
	if err != nil {
		return copied, errors.New("E203").Wrap(err)
	}
	return copied, nil
}

func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
