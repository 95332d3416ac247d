package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/replayview/replayview/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "replayview.json"

	// DefaultFrontendPort is the port the application server is assumed to
	// run on when FRONTEND_PORT is unset. The dev server binds one above it.
	DefaultFrontendPort = 8095

	// DefaultHost is the default bind host.
	DefaultHost = "127.0.0.1"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultPublicPrefix is the URL prefix compiled assets are served under.
	DefaultPublicPrefix = "/static/"
)

// Config represents the complete replayview.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Paths contains path configuration for project directories.
	Paths PathsConfig `json:"paths,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// Build contains production build configuration.
	Build BuildConfig `json:"build,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// PathsConfig contains path configuration for project directories.
type PathsConfig struct {
	// App is the frontend source directory fed to the bundler.
	App string `json:"app,omitempty"`

	// Routes is the route-definition directory inside App. Changes under
	// it are what trigger a route-table hot reload on the client.
	Routes string `json:"routes,omitempty"`

	// Public is the directory of static files copied as-is.
	Public string `json:"public,omitempty"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to bind the dev server on. Zero means derive it
	// from FRONTEND_PORT (value+1) or the default.
	Port int `json:"port,omitempty"`

	// PublicPrefix is the URL prefix compiled assets are served under.
	PublicPrefix string `json:"publicPrefix,omitempty"`

	// DebounceMS is the quiet period in milliseconds before a burst of
	// file changes triggers a rebuild.
	DebounceMS int `json:"debounceMs,omitempty"`

	// PollIntervalMS is the file watcher polling interval in milliseconds.
	PollIntervalMS int `json:"pollIntervalMs,omitempty"`

	// Watch contains paths to watch for changes.
	Watch []string `json:"watch,omitempty"`

	// Ignore contains patterns to ignore during watch.
	Ignore []string `json:"ignore,omitempty"`

	// HotReload enables the reload channel in development.
	HotReload bool `json:"hotReload,omitempty"`
}

// BuildConfig contains production build settings.
type BuildConfig struct {
	// Output is the output directory for builds.
	Output string `json:"output,omitempty"`

	// Player builds the restricted player variant instead of the full app.
	Player bool `json:"player,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Paths: PathsConfig{
			App:    "app",
			Routes: "app/routes",
			Public: "public",
		},
		Dev: DevConfig{
			Host:           DefaultHost,
			PublicPrefix:   DefaultPublicPrefix,
			DebounceMS:     100,
			PollIntervalMS: 250,
			Watch:          []string{"app", "public"},
			HotReload:      true,
		},
		Build: BuildConfig{
			Output: DefaultOutput,
		},
	}
}

// Load reads configuration from the specified directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No replayview.json found in " + filepath.Dir(path))
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E102").
			WithDetail("Failed to parse replayview.json: " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing replayview.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E101").
				WithDetail("No replayview.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Paths.App == "" {
		c.Paths.App = "app"
	}
	if c.Paths.Routes == "" {
		c.Paths.Routes = filepath.Join(c.Paths.App, "routes")
	}
	if c.Paths.Public == "" {
		c.Paths.Public = "public"
	}

	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.PublicPrefix == "" {
		c.Dev.PublicPrefix = DefaultPublicPrefix
	}
	if c.Dev.DebounceMS == 0 {
		c.Dev.DebounceMS = 100
	}
	if c.Dev.PollIntervalMS == 0 {
		c.Dev.PollIntervalMS = 250
	}
	if c.Dev.Watch == nil {
		c.Dev.Watch = []string{c.Paths.App, c.Paths.Public}
	}

	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
}

// ApplyEnv overlays environment-derived values. The dev server port is only
// taken from the environment when the config file and CLI left it unset.
func (c *Config) ApplyEnv(e Env) {
	if c.Dev.Host == "" || c.Dev.Host == DefaultHost {
		c.Dev.Host = e.Host
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = e.DevPort()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port <= 0 || c.Dev.Port > 65535 {
		return errors.New("E103").
			WithDetail(fmt.Sprintf("Got port %d", c.Dev.Port))
	}
	return nil
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return fmt.Sprintf("%s:%d", c.Dev.Host, c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// AppPath returns the absolute path to the frontend source directory.
func (c *Config) AppPath() string {
	return c.resolve(c.Paths.App)
}

// RoutesPath returns the absolute path to the route-definition directory.
func (c *Config) RoutesPath() string {
	return c.resolve(c.Paths.Routes)
}

// PublicPath returns the absolute path to the public directory.
func (c *Config) PublicPath() string {
	return c.resolve(c.Paths.Public)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Build.Output)
}

// PublicPrefix returns the URL prefix for compiled assets, with a
// guaranteed trailing slash.
func (c *Config) PublicPrefix() string {
	prefix := c.Dev.PublicPrefix
	if prefix == "" {
		prefix = DefaultPublicPrefix
	}
	if prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	return prefix
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}
