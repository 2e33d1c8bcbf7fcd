package config

import "time"

type Config struct {
	Storage       StorageConfig             `toml:"storage"`
	Meeting       MeetingConfig             `toml:"meeting"`
	Recording     RecordingConfig           `toml:"recording"`
	Transcription TranscriptionConfig       `toml:"transcription"`
	Summarization SummarizationConfig       `toml:"summarization"`
	Session       SessionConfig             `toml:"session"`
	Providers     map[string]ProviderConfig `toml:"providers"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Metrics       MetricsConfig             `toml:"metrics"`
}

// ProviderConfig holds API key for a provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"` // empty = $XDG_DATA_HOME/hyprminutes
}

// MeetingConfig holds per-meeting material for the minutes
type MeetingConfig struct {
	Name         string `toml:"name"`
	TemplatePath string `toml:"template"` // empty = built-in template
	StylePath    string `toml:"style"`    // example minutes to imitate
	AgendaPath   string `toml:"agenda"`
}

type RecordingConfig struct {
	SampleRate        int           `toml:"sample_rate"`
	Channels          int           `toml:"channels"`
	Format            string        `toml:"format"`
	BufferSize        int           `toml:"buffer_size"`
	Device            string        `toml:"device"`
	ChannelBufferSize int           `toml:"channel_buffer_size"`
	ChunkDuration     time.Duration `toml:"chunk_duration"`
	MinChunkBytes     int           `toml:"min_chunk_bytes"`
	WatchDir          string        `toml:"watch_dir"` // take chunks from this directory instead of the microphone
}

type TranscriptionConfig struct {
	Provider string        `toml:"provider"`
	Language string        `toml:"language"`
	Model    string        `toml:"model"`
	Threads  int           `toml:"threads"` // CPU threads for local transcription (0 = auto: NumCPU-1)
	Prompt   string        `toml:"prompt"`  // vocabulary hint, e.g. names and jargon
	Timeout  time.Duration `toml:"timeout"`
}

// SummarizationConfig configures the model that maintains the minutes
type SummarizationConfig struct {
	Enabled     bool          `toml:"enabled"`
	Provider    string        `toml:"provider"`
	Model       string        `toml:"model"`
	Temperature float32       `toml:"temperature"`
	MaxTokens   int           `toml:"max_tokens"`
	Timeout     time.Duration `toml:"timeout"`
}

type SessionConfig struct {
	FinalizeTimeout time.Duration `toml:"finalize_timeout"`
	CopyOnFinish    bool          `toml:"copy_on_finish"` // put the final minutes on the clipboard
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}
