package daemon

import (
	"log"
	"os"

	"github.com/leonardotrapani/hyprminutes/internal/config"
	"github.com/leonardotrapani/hyprminutes/internal/llm"
	"github.com/leonardotrapani/hyprminutes/internal/metrics"
	"github.com/leonardotrapani/hyprminutes/internal/notify"
	"github.com/leonardotrapani/hyprminutes/internal/session"
	"github.com/leonardotrapani/hyprminutes/internal/storage"
	"github.com/leonardotrapani/hyprminutes/internal/transcriber"
)

// BuildTranscriber creates the transcription adapter named in cfg
func BuildTranscriber(cfg *config.Config) (transcriber.Adapter, error) {
	return transcriber.NewAdapter(cfg.ToTranscriberConfig())
}

// BuildSummarizer creates the summarization client, or returns nil when
// summarization is disabled or cannot be configured. A nil client is not
// fatal: transcripts are queued until one becomes available.
func BuildSummarizer(cfg *config.Config) llm.Adapter {
	if !cfg.Summarization.Enabled {
		log.Printf("Daemon: summarization disabled, transcripts will be queued")
		return nil
	}
	if !cfg.IsSummarizationEnabled() {
		log.Printf("Daemon: no API key for %s, transcripts will be queued", cfg.Summarization.Provider)
		return nil
	}
	client, err := llm.NewAdapter(cfg.ToLLMConfig())
	if err != nil {
		log.Printf("Daemon: failed to create summarization client: %v", err)
		return nil
	}
	return client
}

// LoadTemplate reads the minutes template at path. An empty path or a file
// that cannot be read gives "", which selects the built-in template.
func LoadTemplate(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Daemon: failed to read template %s, using built-in: %v", path, err)
		return ""
	}
	return string(data)
}

// SessionOptions maps cfg onto coordinator options.
func SessionOptions(cfg *config.Config, meeting string, t transcriber.Adapter, client llm.Adapter, n notify.Notifier, m *metrics.Metrics) session.Options {
	if meeting == "" {
		meeting = cfg.Meeting.Name
	}
	return session.Options{
		Layout:               storage.NewLayout(cfg.Storage.DataDir),
		Meeting:              meeting,
		Template:             LoadTemplate(cfg.Meeting.TemplatePath),
		StylePath:            cfg.Meeting.StylePath,
		AgendaPath:           cfg.Meeting.AgendaPath,
		Transcriber:          t,
		Summarizer:           client,
		TranscriptionTimeout: cfg.Transcription.Timeout,
		SummarizationTimeout: cfg.Summarization.Timeout,
		FinalizeTimeout:      cfg.Session.FinalizeTimeout,
		Notifier:             n,
		Metrics:              m,
	}
}

// FlushOptions maps cfg onto options for session.FlushPending.
func FlushOptions(cfg *config.Config, n notify.Notifier, m *metrics.Metrics) session.FlushOptions {
	return session.FlushOptions{
		Template:   LoadTemplate(cfg.Meeting.TemplatePath),
		StylePath:  cfg.Meeting.StylePath,
		AgendaPath: cfg.Meeting.AgendaPath,
		Timeout:    cfg.Summarization.Timeout,
		Notifier:   n,
		Metrics:    m,
	}
}

// NotifierFor returns the notifier selected by cfg
func NotifierFor(cfg *config.Config) notify.Notifier {
	if !cfg.Notifications.Enabled {
		return notify.Nop{}
	}
	n, err := notify.New(cfg.Notifications.Type)
	if err != nil {
		log.Printf("Daemon: %v, falling back to log notifications", err)
		return notify.Log{}
	}
	return n
}
