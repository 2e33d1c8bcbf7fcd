package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/leonardotrapani/hyprminutes/internal/bus"
	"github.com/leonardotrapani/hyprminutes/internal/clipboard"
	"github.com/leonardotrapani/hyprminutes/internal/config"
	"github.com/leonardotrapani/hyprminutes/internal/daemon"
	"github.com/leonardotrapani/hyprminutes/internal/deps"
	"github.com/leonardotrapani/hyprminutes/internal/language"
	"github.com/leonardotrapani/hyprminutes/internal/models/whisper"
	"github.com/leonardotrapani/hyprminutes/internal/notify"
	"github.com/leonardotrapani/hyprminutes/internal/provider"
	"github.com/leonardotrapani/hyprminutes/internal/session"
	"github.com/leonardotrapani/hyprminutes/internal/storage"
	"github.com/leonardotrapani/hyprminutes/internal/ui"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hyprminutes",
		Short: "Live meeting minutes from chunked recordings",
		Long: `hyprminutes records a meeting in chunks, transcribes each chunk and
keeps a markdown minutes document up to date while the meeting runs.
Transcripts that cannot be summarized right away are queued on disk
and merged later, so nothing said in the meeting is lost.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/hyprminutes/config.toml)")

	root.AddCommand(
		recordCmd(),
		cutCmd(),
		statusCmd(),
		flushCmd(),
		copyCmd(),
		stopCmd(),
		versionCmd(),
		transcribeCmd(),
		doctorCmd(),
		configCmd(),
		modelCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configPath)
}

func recordCmd() *cobra.Command {
	var resume string
	var watchDir string

	cmd := &cobra.Command{
		Use:   "record [meeting name]",
		Short: "Record a meeting and keep its minutes up to date",
		Long: `Record from the microphone until stopped with Ctrl+C or "hyprminutes stop".
Chunks are cut every recording.chunk_duration, or immediately with
"hyprminutes cut". With --watch, chunk_NNNN.wav files moved into a directory
are processed instead of recording.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.NewManager(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg := mgr.GetConfig()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			var meeting string
			if len(args) == 1 {
				meeting = args[0]
			}

			d := daemon.New(mgr, daemon.NotifierFor(cfg), daemon.Options{
				Meeting:  meeting,
				Resume:   resume,
				WatchDir: watchDir,
			})
			runErr := d.Run()
			if sum, ok := d.Summary(); ok {
				fmt.Println()
				ui.NewPrinter(os.Stdout).SessionSummary(sum)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&resume, "resume", "", "continue an earlier session by id")
	cmd.Flags().StringVar(&watchDir, "watch", "", "process chunk files from this directory instead of recording")

	return cmd
}

// sendCommand sends cmd to the running recorder and turns ERR responses
// into errors
func sendCommand(cmd byte) (string, error) {
	resp, err := bus.SendCommand(cmd)
	if err != nil {
		if errors.Is(err, bus.ErrNoDaemon) {
			return "", errors.New("no recording in progress")
		}
		return "", err
	}
	if err := bus.ResponseError(resp); err != nil {
		return "", err
	}
	return resp, nil
}

func cutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cut",
		Short: "End the current chunk now",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendCommand(bus.CmdCut)
			if err != nil {
				return fmt.Errorf("failed to cut chunk: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the recording in progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := ui.NewPrinter(os.Stdout)
			resp, err := bus.SendCommand(bus.CmdStatus)
			if errors.Is(err, bus.ErrNoDaemon) {
				p.Status(nil)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			st, err := bus.ParseStatus(resp)
			if err != nil {
				return err
			}
			p.Status(st)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop recording and finalize the minutes",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendCommand(bus.CmdQuit)
			if err != nil {
				return fmt.Errorf("failed to stop recording: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendCommand(bus.CmdVersion)
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func flushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Merge every queued transcript into its minutes",
		Long: `Find all sessions with transcripts waiting in their retry queue and
merge each queue into the session's minutes in one batch. A running
recording is asked to flush its own queue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runFlush(cmd.Context(), cfg, os.Stdout)
		},
	}
}

func runFlush(ctx context.Context, cfg *config.Config, out io.Writer) error {
	var skip []string
	if resp, err := bus.SendCommand(bus.CmdStatus); err == nil {
		if st, err := bus.ParseStatus(resp); err == nil && st["active"] == "true" {
			skip = append(skip, st["session"])
			if resp, err := sendCommand(bus.CmdFlush); err != nil {
				fmt.Fprintf(out, "Active session %s: flush failed: %v\n", st["session"], err)
			} else {
				fmt.Fprintf(out, "Active session %s: %s", st["session"], strings.TrimPrefix(resp, "OK "))
			}
		}
	}

	client := daemon.BuildSummarizer(cfg)
	if client == nil {
		return fmt.Errorf("%w: set summarization.provider and its API key", session.ErrNoClient)
	}

	opts := daemon.FlushOptions(cfg, notify.Log{}, nil)
	opts.Skip = skip
	results, err := session.FlushPending(ctx, storage.NewLayout(cfg.Storage.DataDir), client, opts)
	ui.NewPrinter(out).FlushReport(results)
	return err
}

func copyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy [session id]",
		Short: "Copy a session's minutes to the clipboard",
		Long:  "Copy the minutes of the given session, or of the most recent one, with wl-copy.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			copier := clipboard.New(clipboard.DefaultConfig())
			return runCopy(cmd.Context(), storage.NewLayout(cfg.Storage.DataDir), id, copier, os.Stdout)
		},
	}
}

func runCopy(ctx context.Context, layout storage.Layout, id string, copier clipboard.Copier, out io.Writer) error {
	if id == "" {
		ids, err := layout.Sessions()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return errors.New("no sessions found")
		}
		id = ids[len(ids)-1]
	}

	path, ok := layout.FindMinutes(id)
	if !ok {
		return fmt.Errorf("no minutes for session %s", id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read minutes: %w", err)
	}
	if err := copier.Copy(ctx, string(data)); err != nil {
		return fmt.Errorf("failed to copy minutes: %w", err)
	}
	fmt.Fprintf(out, "Copied %s\n", path)
	return nil
}

func transcribeCmd() *cobra.Command {
	var timestamps bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio file>",
		Short: "Transcribe one audio file with the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			t, err := daemon.BuildTranscriber(cfg)
			if err != nil {
				return fmt.Errorf("failed to create transcriber: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Transcription.Timeout)
			defer cancel()

			res, err := t.Transcribe(ctx, args[0])
			if err != nil {
				return fmt.Errorf("transcription failed: %w", err)
			}
			if timestamps {
				// midnight base so stamps read as offsets into the file
				fmt.Println(res.Timestamped(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
				return nil
			}
			fmt.Println(res.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "prefix each segment with its offset")

	return cmd
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, models and external programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runDoctor(cfg, os.Stdout)
		},
	}
}

func runDoctor(cfg *config.Config, out io.Writer) error {
	p := ui.NewPrinter(out)
	problems := 0

	if err := cfg.Validate(); err != nil {
		p.Problem("config: " + err.Error())
		problems++
	} else {
		p.OK("config valid")
	}

	if !cfg.Summarization.Enabled {
		p.Problem("summarization disabled: transcripts are only queued")
	} else if !cfg.IsSummarizationEnabled() {
		p.Problem(fmt.Sprintf("no API key for %s: transcripts will be queued until one is set", cfg.Summarization.Provider))
	} else {
		p.OK(fmt.Sprintf("summarization via %s (%s)", cfg.Summarization.Provider, cfg.Summarization.Model))
	}

	p.OK(fmt.Sprintf("transcription via %s (%s), language %s",
		cfg.Transcription.Provider, cfg.Transcription.Model, language.Describe(cfg.Transcription.Language)))

	local := cfg.Transcription.Provider == provider.ConfigProviderWhisperCpp
	if local {
		if whisper.IsInstalled(cfg.Transcription.Model) {
			p.OK("whisper model " + cfg.Transcription.Model + " installed")
		} else {
			p.Problem(fmt.Sprintf("whisper model %s not found at %s", cfg.Transcription.Model, whisper.GetModelPath(cfg.Transcription.Model)))
			problems++
		}
	}

	fmt.Fprintln(out)
	all := deps.All(local)
	p.Doctor(all)
	problems += len(deps.Missing(all))

	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}
	return nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				p, err := config.GetConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.SaveDefaultConfig(path); err != nil {
				return err
			}
			fmt.Printf("Config written to %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return writeConfig(cfg, os.Stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				fmt.Println(configPath)
				return nil
			}
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	})

	return cmd
}

// writeConfig prints cfg as TOML with API keys masked
func writeConfig(cfg *config.Config, out io.Writer) error {
	masked := *cfg
	masked.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			pc.APIKey = maskKey(pc.APIKey)
		}
		masked.Providers[name] = pc
	}
	return toml.NewEncoder(out).Encode(masked)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "List transcription and summarization models",
	}

	cmd.AddCommand(modelListCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "languages",
		Short: "List languages the transcription backends accept",
		Run: func(cmd *cobra.Command, args []string) {
			printLanguages(os.Stdout)
		},
	})

	return cmd
}

func modelListCmd() *cobra.Command {
	var providerFilter string
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available transcription and LLM models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelList(os.Stdout, providerFilter, typeFilter)
		},
	}

	cmd.Flags().StringVar(&providerFilter, "provider", "", "filter by provider name")
	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by type: transcription, llm")

	return cmd
}

func runModelList(out io.Writer, providerFilter, typeFilter string) error {
	// parse type filter
	var filterType *provider.ModelType
	if typeFilter != "" {
		switch strings.ToLower(typeFilter) {
		case "transcription":
			t := provider.Transcription
			filterType = &t
		case "llm":
			t := provider.LLM
			filterType = &t
		default:
			return fmt.Errorf("invalid type: %s (use 'transcription' or 'llm')", typeFilter)
		}
	}

	providerNames := provider.ListProviders()
	if providerFilter != "" {
		if provider.GetProvider(providerFilter) == nil {
			return fmt.Errorf("unknown provider: %s", providerFilter)
		}
		providerNames = []string{providerFilter}
	}

	for _, providerName := range providerNames {
		p := provider.GetProvider(providerName)
		if p == nil {
			continue
		}

		models := p.Models()
		if filterType != nil {
			models = provider.ModelsOfType(p, *filterType)
		}
		if len(models) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n%s:\n", providerName)
		for _, m := range models {
			fmt.Fprintln(out, modelLine(m))
		}
	}

	fmt.Fprintln(out)
	return nil
}

func printLanguages(out io.Writer) {
	for _, lang := range language.List() {
		fmt.Fprintf(out, "  %s  %s\n", lang.Code, language.Describe(lang.Code))
	}
}

func modelLine(m provider.Model) string {
	// checkmark for installed local models
	prefix := "  "
	if m.Local {
		if whisper.IsInstalled(m.ID) {
			prefix = "  [x]"
		} else {
			prefix = "  [ ]"
		}
	}

	var parts []string
	if m.Type == provider.LLM {
		parts = append(parts, "llm")
	}
	if m.LocalInfo != nil && m.LocalInfo.Size != "" {
		parts = append(parts, m.LocalInfo.Size)
	}

	line := fmt.Sprintf("%s %s", prefix, m.ID)
	if m.Description != "" {
		line += fmt.Sprintf(" - %s", m.Description)
	}
	if len(parts) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
	}
	return line
}
