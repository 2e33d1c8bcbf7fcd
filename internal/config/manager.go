package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

type Manager struct {
	mu       sync.RWMutex
	path     string
	config   *Config
	onReload []func(*Config)
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
}

// NewManager loads the config at path (empty = default location). A missing
// file is not an error: the defaults are used and the file is still watched.
func NewManager(path string) (*Manager, error) {
	log.Printf("Config manager: initializing configuration system...")

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config, err := LoadOrDefault(path)
	if err != nil {
		log.Printf("Config manager: failed to load initial configuration: %v", err)
		return nil, err
	}

	log.Printf("Config manager: validating initial configuration...")
	if err := config.Validate(); err != nil {
		log.Printf("Config manager: validation warning: %v", err)
	}

	m := &Manager{
		path:   path,
		config: config,
	}

	log.Printf("Config manager: initialization completed successfully")
	return m, nil
}

// NewStaticManager wraps an already loaded config, without a file behind it.
func NewStaticManager(config *Config) *Manager {
	return &Manager{config: config}
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

func (m *Manager) Path() string {
	return m.path
}

// OnReload registers fn to run with the new config after every successful reload.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

func (m *Manager) StartWatching(ctx context.Context) error {
	if m.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	m.watcher = watcher

	// watch the directory: editors replace the file rather than write it
	configDir := filepath.Dir(m.path)
	err = watcher.Add(configDir)
	if err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx)

	log.Printf("Config manager: watching %s for changes", m.path)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != configFileName {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				log.Printf("Config manager: file change detected: %s. Reloading config...", event.Name)
				m.Reload()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

// Reload re-reads the file and, if it is valid, swaps it in and runs the
// OnReload hooks. An invalid file leaves the current config in place.
func (m *Manager) Reload() bool {
	log.Printf("Config manager: starting configuration reload...")

	newConfig, err := Load(m.path)
	if err != nil {
		log.Printf("Config manager: failed to reload config: %v", err)
		return false
	}

	if err := newConfig.Validate(); err != nil {
		log.Printf("Config manager: invalid config after reload: %v", err)
		return false
	}

	m.mu.Lock()
	m.config = newConfig
	hooks := append([]func(*Config){}, m.onReload...)
	m.mu.Unlock()

	for _, fn := range hooks {
		configCopy := *newConfig
		fn(&configCopy)
	}

	log.Printf("Config manager: configuration successfully reloaded")
	return true
}
