package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

var ErrConfigNotFound = errors.New("config not found")

// GetConfigPath returns $XDG_CONFIG_HOME/hyprminutes/config.toml
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "hyprminutes", "config.toml"), nil
}

// DefaultDataDir returns $XDG_DATA_HOME/hyprminutes, falling back to ~/.local/share
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "hyprminutes"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "hyprminutes"), nil
}

// Load reads the config at path. An empty path means the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (run hyprminutes config init)", ErrConfigNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	log.Printf("Config: loading configuration from %s", path)
	config := DefaultConfig()
	meta, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Printf("Config: ignoring unknown keys: %v", undecoded)
	}

	config.applyDefaults()
	config.applyThreadsDefault()
	if err := config.resolveDataDir(); err != nil {
		return nil, err
	}

	log.Printf("Config: configuration loaded successfully")
	return config, nil
}

// LoadOrDefault is Load, but a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	config, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		log.Printf("Config: %v, using defaults", err)
		config = DefaultConfig()
		config.applyThreadsDefault()
		if err := config.resolveDataDir(); err != nil {
			return nil, err
		}
		return config, nil
	}
	return config, err
}

// applyThreadsDefault sets default threads for local transcription if not explicitly set
func (c *Config) applyThreadsDefault() {
	if c.Transcription.Threads == 0 {
		threads := runtime.NumCPU() - 1
		if threads < 1 {
			threads = 1
		}
		c.Transcription.Threads = threads
	}
}

func (c *Config) resolveDataDir() error {
	if c.Storage.DataDir != "" {
		return nil
	}
	dir, err := DefaultDataDir()
	if err != nil {
		return err
	}
	c.Storage.DataDir = dir
	return nil
}

// SaveDefaultConfig writes a commented default config to path. It refuses
// to overwrite an existing file.
func SaveDefaultConfig(path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(defaultConfigContent); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}
	return nil
}

const defaultConfigContent = `# Hyprminutes Configuration
# Edit values as needed - the summarization settings are applied to a
# running recording without restart.

[storage]
  data_dir = ""                # empty = ~/.local/share/hyprminutes

[meeting]
  name = "meeting"             # default meeting name, overridden by "record <name>"
  template = ""                # minutes template file (empty = built-in)
  style = ""                   # example minutes whose layout to imitate
  agenda = ""                  # agenda file shown to the model

[recording]
  sample_rate = 16000          # Hz, 16000 is what whisper expects
  channels = 1
  format = "s16"
  buffer_size = 8192
  device = ""                  # PipeWire source (empty = default microphone)
  channel_buffer_size = 30
  chunk_duration = "5m"        # audio is cut into chunks of this length
  min_chunk_bytes = 32000      # shorter chunks are dropped as silence
  watch_dir = ""               # take chunk_NNNN.wav files from here instead of recording

[transcription]
  provider = "openai"          # "openai", "groq-transcription" or "whisper-cpp"
  language = ""                # empty for auto-detect, or "en", "it", "es", ...
  model = "whisper-1"
  threads = 0                  # whisper-cpp only, 0 = NumCPU-1
  prompt = ""                  # names and jargon to help recognition
  timeout = "5m"

[summarization]
  enabled = true               # false = every transcript is queued for later
  provider = "openai"          # "openai" or "groq"
  model = "gpt-4o-mini"
  timeout = "60s"

[session]
  finalize_timeout = "2m"      # how long stop waits for chunks still in flight
  copy_on_finish = false       # copy the final minutes with wl-copy

[providers.openai]
  api_key = ""                 # or OPENAI_API_KEY

[providers.groq]
  api_key = ""                 # or GROQ_API_KEY

[notifications]
  enabled = true
  type = "desktop"             # "desktop", "log" or "none"

[metrics]
  enabled = false
  listen = "127.0.0.1:9464"    # Prometheus /metrics endpoint
`
