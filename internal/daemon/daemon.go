package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/bus"
	"github.com/leonardotrapani/hyprminutes/internal/clipboard"
	"github.com/leonardotrapani/hyprminutes/internal/config"
	"github.com/leonardotrapani/hyprminutes/internal/llm"
	"github.com/leonardotrapani/hyprminutes/internal/metrics"
	"github.com/leonardotrapani/hyprminutes/internal/notify"
	"github.com/leonardotrapani/hyprminutes/internal/recording"
	"github.com/leonardotrapani/hyprminutes/internal/session"
	"github.com/leonardotrapani/hyprminutes/internal/transcriber"
)

// Options select what a recording daemon captures and how its ports are
// built. Zero values use the configured microphone and providers.
type Options struct {
	Meeting  string
	Resume   string // session id to continue
	WatchDir string // take chunk files from here instead of recording

	Source         recording.FrameSource
	NewTranscriber func(*config.Config) (transcriber.Adapter, error)
	NewSummarizer  func(*config.Config) llm.Adapter
	Copier         clipboard.Copier // used when session.copy_on_finish is set
}

type Daemon struct {
	mu       sync.RWMutex
	cfgMgr   *config.Manager
	notifier notify.Notifier
	metrics  *metrics.Metrics
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	coord     *session.Coordinator
	segmenter *recording.Segmenter
	summary   *session.Summary
}

func New(mgr *config.Manager, n notify.Notifier, opts Options) *Daemon {
	if n == nil {
		n = notify.Desktop{}
	}
	if opts.NewTranscriber == nil {
		opts.NewTranscriber = BuildTranscriber
	}
	if opts.NewSummarizer == nil {
		opts.NewSummarizer = BuildSummarizer
	}
	if opts.Copier == nil {
		opts.Copier = clipboard.New(clipboard.DefaultConfig())
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		cfgMgr:   mgr,
		notifier: n,
		metrics:  metrics.New(),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}

	return d
}

// Summary returns the finalized session once Run has returned
func (d *Daemon) Summary() (session.Summary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.summary == nil {
		return session.Summary{}, false
	}
	return *d.summary, true
}

// Stop asks a running daemon to finalize its session and exit
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) Run() error {
	defer d.cancel()

	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	cfg := d.cfgMgr.GetConfig()
	trans, err := d.opts.NewTranscriber(cfg)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	coord := session.NewCoordinator(SessionOptions(cfg, d.opts.Meeting, trans, d.opts.NewSummarizer(cfg), d.notifier, d.metrics))
	id, err := coord.Begin(d.opts.Resume)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	ln, err := bus.Listen()
	if err != nil {
		d.finalize(coord)
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		d.finalize(coord)
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	d.cfgMgr.OnReload(func(c *config.Config) {
		log.Printf("Daemon: config reloaded, refreshing summarization client")
		coord.SetClient(d.opts.NewSummarizer(c))
	})
	if err := d.cfgMgr.StartWatching(d.ctx); err != nil {
		log.Printf("Daemon: config hot reload unavailable: %v", err)
	}
	defer d.cfgMgr.Stop()

	if cfg.Metrics.Enabled {
		go func() {
			if err := d.metrics.Serve(d.ctx, cfg.Metrics.Listen); err != nil {
				log.Printf("Daemon: metrics server failed: %v", err)
			}
		}()
	}

	chunks, stopCapture, err := d.startCapture(cfg, coord)
	if err != nil {
		d.finalize(coord)
		return err
	}

	consumed := make(chan struct{})
	go d.consume(coord, chunks, consumed)

	d.mu.Lock()
	d.coord = coord
	d.mu.Unlock()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("Daemon: session %s recording, listening on socket", id)

	var acceptErr error
	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() == nil {
				log.Printf("Accept error: %v", err)
				acceptErr = fmt.Errorf("accept failed: %w", err)
				d.cancel()
			}
			break
		}
		go d.handle(c)
	}

	log.Printf("Shutdown requested")
	stopCapture()
	<-consumed
	d.finalize(coord)
	return acceptErr
}

// startCapture returns the chunk stream for the session and a func that
// stops capture and waits until the stream is closed.
func (d *Daemon) startCapture(cfg *config.Config, coord *session.Coordinator) (<-chan recording.Chunk, func(), error) {
	watchDir := d.opts.WatchDir
	if watchDir == "" {
		watchDir = cfg.Recording.WatchDir
	}

	if watchDir != "" {
		if err := os.MkdirAll(watchDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create watch dir: %w", err)
		}
		src := recording.NewDirSource(watchDir, coord.NextIndex())
		if err := src.Start(d.ctx); err != nil {
			return nil, nil, err
		}
		return src.Chunks(), src.Stop, nil
	}

	rcfg := cfg.ToRecordingConfig()
	source := d.opts.Source
	if source == nil {
		source = recording.NewRecorder(rcfg)
	}
	frames, errs, err := source.Start(d.ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start recording: %w", err)
	}

	seg := recording.NewSegmenter(rcfg, coord.AudioDir(), coord.NextIndex())
	d.mu.Lock()
	d.segmenter = seg
	d.mu.Unlock()

	segDone := make(chan struct{})
	go func() {
		defer close(segDone)
		// frames close when the source stops, so the last chunk is always written
		if err := seg.Run(context.Background(), frames); err != nil {
			log.Printf("Daemon: segmenter stopped: %v", err)
		}
	}()

	go func() {
		for err := range errs {
			log.Printf("Daemon: recording error: %v", err)
			d.notifier.Error(fmt.Sprintf("Recording error: %v", err))
			d.cancel()
		}
	}()

	stop := func() {
		if err := source.Stop(); err != nil {
			log.Printf("Daemon: failed to stop recording: %v", err)
		}
		<-segDone
	}
	return seg.Chunks(), stop, nil
}

func (d *Daemon) consume(coord *session.Coordinator, chunks <-chan recording.Chunk, done chan<- struct{}) {
	defer close(done)
	for chunk := range chunks {
		if _, err := coord.SubmitChunk(chunk.Path, chunk.Index, chunk.StartedAt); err != nil {
			log.Printf("Daemon: chunk %d rejected: %v", chunk.Index, err)
			d.notifier.Error(fmt.Sprintf("Chunk %d skipped: %v", chunk.Index, err))
		}
	}
}

func (d *Daemon) finalize(coord *session.Coordinator) {
	sum, err := coord.Finalize(context.Background())
	if err != nil {
		log.Printf("Daemon: finalize failed: %v", err)
		return
	}
	log.Printf("Daemon: %d chunks (%d merged, %d queued, %d without speech), %d still pending",
		sum.Chunks, sum.Merged, sum.Queued, sum.NoSpeech, sum.Pending)

	d.mu.Lock()
	d.summary = &sum
	d.mu.Unlock()

	if d.cfgMgr.GetConfig().Session.CopyOnFinish {
		d.copyMinutes(sum.MinutesPath)
	}
}

func (d *Daemon) copyMinutes(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Daemon: failed to read minutes for clipboard: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.opts.Copier.Copy(ctx, string(data)); err != nil {
		log.Printf("Daemon: failed to copy minutes: %v", err)
		d.notifier.Error("Could not copy minutes to clipboard")
		return
	}
	d.notifier.Notify("Hyprminutes", "Minutes copied to clipboard")
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()
	c.SetDeadline(time.Now().Add(5 * time.Minute))

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("Client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	d.mu.RLock()
	coord, seg := d.coord, d.segmenter
	d.mu.RUnlock()

	switch cmd {
	case bus.CmdCut:
		if seg == nil {
			fmt.Fprint(c, "ERR cut unavailable while watching a directory\n")
			return
		}
		seg.Cut()
		fmt.Fprint(c, "OK cut\n")
	case bus.CmdStatus:
		fmt.Fprint(c, statusLine(coord.Status()))
	case bus.CmdFlush:
		n := coord.Flush(d.ctx)
		fmt.Fprintf(c, "OK flushed=%d\n", n)
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("Unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func statusLine(st session.Status) string {
	return bus.FormatStatus(
		"active", strconv.FormatBool(st.Active),
		"session", st.SessionID,
		"meeting", st.Meeting,
		"started", st.StartedAt.Format(time.RFC3339),
		"next", strconv.Itoa(st.NextIndex),
		"submitted", strconv.Itoa(st.Submitted),
		"inflight", strconv.Itoa(st.InFlight),
		"pending", strconv.Itoa(st.Pending),
	)
}
