package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// envRef matches ${NAME} and ${NAME:fallback}.
var envRef = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if v, ok := os.LookupEnv(m[1]); ok {
			return v
		}
		return m[2]
	})
}

// LoadFile reads the YAML file at path into dest after expanding
// environment references.
func LoadFile(path string, dest any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(raw))), dest); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Load returns DefaultConfig overlaid with the file at path and validated.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Loader holds the live gateway configuration. A failed reload keeps the
// previous configuration in place.
type Loader struct {
	path    string
	current atomic.Pointer[Config]
	logger  *slog.Logger

	mu        sync.Mutex
	listeners []func(*Config)
}

func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger}
}

// Load reads the file and swaps it in. Listeners are not notified.
func (l *Loader) Load() error {
	_, err := l.load()
	return err
}

func (l *Loader) load() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, fmt.Errorf("load gateway config: %w", err)
	}
	l.current.Store(cfg)
	l.logger.Info("configuration loaded", "file", l.path)
	return cfg, nil
}

// Config returns the configuration in effect. It is nil before Load.
func (l *Loader) Config() *Config {
	return l.current.Load()
}

// OnReload registers fn to receive each configuration loaded by Watch.
func (l *Loader) OnReload(fn func(*Config)) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

func (l *Loader) notify(cfg *Config) {
	l.mu.Lock()
	fns := append([]func(*Config){}, l.listeners...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn(cfg)
	}
}

// Watch reloads the file whenever it is written or replaced, until ctx is
// done. The parent directory is watched so editors that rename over the
// file are still seen.
func (l *Loader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch config dir %s: %w", dir, err)
	}

	go l.run(ctx, w, filepath.Clean(l.path))
	return nil
}

func (l *Loader) run(ctx context.Context, w *fsnotify.Watcher, target string) {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.logger.Error("config watcher error", "error", err)
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := l.load()
			if err != nil {
				l.logger.Error("config reload rejected, keeping previous", "file", ev.Name, "error", err)
				continue
			}
			l.notify(cfg)
		}
	}
}
