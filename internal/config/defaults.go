package config

import "time"

// DefaultConfig returns the configuration used when a value is missing.
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16",
			BufferSize:        8192,
			Device:            "",
			ChannelBufferSize: 30,
			ChunkDuration:     5 * time.Minute,
			MinChunkBytes:     32000, // one second of 16kHz mono s16
		},
		Transcription: TranscriptionConfig{
			Provider: "openai",
			Model:    "whisper-1",
			Timeout:  5 * time.Minute,
		},
		Summarization: SummarizationConfig{
			Enabled:  true,
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
		},
		Session: SessionConfig{
			FinalizeTimeout: 2 * time.Minute,
		},
		Providers: make(map[string]ProviderConfig),
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9464",
		},
	}
}

// applyDefaults fills zero values left by a partial config file
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	if c.Recording.ChunkDuration == 0 {
		c.Recording.ChunkDuration = d.Recording.ChunkDuration
	}
	if c.Recording.MinChunkBytes == 0 {
		c.Recording.MinChunkBytes = d.Recording.MinChunkBytes
	}
	if c.Recording.ChannelBufferSize == 0 {
		c.Recording.ChannelBufferSize = d.Recording.ChannelBufferSize
	}
	if c.Transcription.Timeout == 0 {
		c.Transcription.Timeout = d.Transcription.Timeout
	}
	if c.Summarization.Timeout == 0 {
		c.Summarization.Timeout = d.Summarization.Timeout
	}
	if c.Session.FinalizeTimeout == 0 {
		c.Session.FinalizeTimeout = d.Session.FinalizeTimeout
	}
	if c.Notifications.Type == "" {
		c.Notifications.Type = d.Notifications.Type
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = d.Metrics.Listen
	}
}
