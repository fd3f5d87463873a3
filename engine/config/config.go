package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vkqueuerunner/engine/core"
)

// Config holds the ambient, device-independent settings that govern how the
// renderer backend is bootstrapped; the queue runner itself reads none of
// them. These are the knobs an operator can change without a rebuild; GPU object
// creation itself is never driven by this package.
type Config struct {
	// Debug enables the Vulkan validation layer and the debug utils/report
	// instance extensions. No debug callback is registered.
	Debug bool `toml:"debug"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`
	// MaxFramesInFlight is loaded from the file but not read by the
	// renderer: the swapchain uses its own fixed frames-in-flight count.
	MaxFramesInFlight uint8 `toml:"max_frames_in_flight"`
	// BackbufferClearColor is an RGBA clear color (0-255 per channel). It is
	// loaded from the file but not read by the renderer: a Render step
	// always clears with the ClearColor it carries.
	BackbufferClearColor [4]uint8 `toml:"backbuffer_clear_color"`
	// RequireDiscreteGPU rejects integrated/virtual/CPU devices during
	// physical device selection. Ignored on darwin, where MoltenVK exposes
	// discrete GPUs through a translation layer that doesn't report as one.
	RequireDiscreteGPU bool `toml:"require_discrete_gpu"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Debug:                true,
		LogLevel:             "info",
		MaxFramesInFlight:    2,
		BackbufferClearColor: [4]uint8{0, 0, 51, 255},
		RequireDiscreteGPU:   true,
	}
}

// Load reads and parses a TOML configuration file. A missing file is not an
// error: the defaults are returned instead, since the renderer must be able
// to boot without an operator-provided file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// Watcher hot-reloads Config from disk whenever the backing file changes,
// handing each successfully-parsed revision to the registered callbacks.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)

	done chan struct{}
}

// NewWatcher loads the file at path and begins watching it for changes.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		// Nothing to watch yet (e.g. the file doesn't exist); the caller
		// still gets the defaults and can call Close when done.
		core.LogWarn("config: not watching %q: %s", path, err.Error())
	}

	w := &Watcher{
		path:    path,
		fsw:     fsw,
		current: cfg,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogError("config: reload of %q failed: %s", w.path, err.Error())
				continue
			}
			w.mu.Lock()
			w.current = cfg
			cbs := append([]func(*Config){}, w.callbacks...)
			w.mu.Unlock()
			for _, cb := range cbs {
				cb(cfg)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			core.LogError("config: watcher error: %s", err.Error())
		case <-w.done:
			return
		}
	}
}

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
