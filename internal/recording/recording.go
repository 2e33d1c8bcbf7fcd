package recording

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type AudioFrame struct {
	Data      []byte
	Timestamp time.Time
}

type Config struct {
	SampleRate        int
	Channels          int
	Format            string
	BufferSize        int
	Device            string
	ChannelBufferSize int
	ChunkDuration     time.Duration
	MinChunkBytes     int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Channels:          1,
		Format:            "s16",
		BufferSize:        8192,
		Device:            "",
		ChannelBufferSize: 30,
		ChunkDuration:     5 * time.Minute,
		MinChunkBytes:     32000,
	}
}

// BytesPerSecond of the PCM stream described by the config
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * 2
}

// FrameSource produces raw PCM frames until stopped.
type FrameSource interface {
	Start(ctx context.Context) (<-chan AudioFrame, <-chan error, error)
	Stop() error
}

// Recorder captures PCM from PipeWire through pw-record.
type Recorder struct {
	config    Config
	recording atomic.Bool
	dropped   atomic.Int64

	mu     sync.Mutex // guards cmd and cancel
	cmd    *exec.Cmd
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func NewRecorder(config Config) *Recorder {
	return &Recorder{config: config}
}

func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

// Dropped returns how many frames were discarded because the consumer fell behind.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) Start(ctx context.Context) (<-chan AudioFrame, <-chan error, error) {
	if r.recording.Load() {
		return nil, nil, fmt.Errorf("already recording")
	}

	if err := r.validateConfig(); err != nil {
		return nil, nil, err
	}

	if err := CheckPipeWireAvailable(ctx); err != nil {
		return nil, nil, fmt.Errorf("PipeWire not available: %w", err)
	}

	recordingCtx, cancel := context.WithCancel(ctx)

	frameCh := make(chan AudioFrame, r.config.ChannelBufferSize)
	errCh := make(chan error, 1)

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.recording.Store(true)
	r.wg.Add(1)
	go r.captureLoop(recordingCtx, frameCh, errCh)

	return frameCh, errCh, nil
}

func (r *Recorder) Stop() error {
	if !r.recording.Load() {
		return nil
	}
	r.requestCancel()
	return nil
}

func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) captureLoop(ctx context.Context, frameCh chan<- AudioFrame, errCh chan<- error) {
	defer func() {
		close(frameCh)
		close(errCh)
		r.recording.Store(false)

		// Ensure any child process is reaped.
		r.mu.Lock()
		if r.cmd != nil {
			_ = r.cmd.Wait()
			r.cmd = nil
		}
		r.cancel = nil
		r.mu.Unlock()

		r.wg.Done()
	}()

	cmd := exec.CommandContext(ctx, "pw-record", r.buildPwRecordArgs()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.emitErr(errCh, fmt.Errorf("create stdout pipe: %w", err))
		return
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.emitErr(errCh, fmt.Errorf("create stderr pipe: %w", err))
		return
	}

	r.mu.Lock()
	r.cmd = cmd
	r.mu.Unlock()

	if err := cmd.Start(); err != nil {
		r.emitErr(errCh, fmt.Errorf("start pw-record: %w", err))
		return
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("Recording stderr: %s", scanner.Text())
		}
	}()

	r.pump(ctx, stdout, frameCh, errCh)
}

// pump copies PCM from src into frames. A full channel drops the frame
// rather than stalling pw-record.
func (r *Recorder) pump(ctx context.Context, src io.Reader, frameCh chan<- AudioFrame, errCh chan<- error) {
	buffer := make([]byte, r.config.BufferSize)
	var dropped int64
	lastDropLog := time.Now()

	for {
		n, readErr := src.Read(buffer)
		if n > 0 {
			frameData := make([]byte, n)
			copy(frameData, buffer[:n])

			select {
			case frameCh <- AudioFrame{Data: frameData, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			default:
				dropped++
				r.dropped.Add(1)
				if time.Since(lastDropLog) > time.Second {
					log.Printf("Recording: dropped %d frames due to backpressure", dropped)
					lastDropLog = time.Now()
					dropped = 0
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || ctx.Err() != nil {
				return
			}
			r.emitErr(errCh, fmt.Errorf("read audio: %w", readErr))
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (r *Recorder) requestCancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Recorder) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
	log.Printf("Recording error: %v", err)
	r.requestCancel()
}

func (r *Recorder) buildPwRecordArgs() []string {
	args := []string{
		"--format", r.config.Format,
		"--rate", strconv.Itoa(r.config.SampleRate),
		"--channels", strconv.Itoa(r.config.Channels),
		"-", // stdout
	}
	if r.config.Device != "" {
		args = append(args, "--target", r.config.Device)
	}
	return args
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}

func (r *Recorder) validateConfig() error {
	if r.config.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", r.config.SampleRate)
	}
	if r.config.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", r.config.Channels)
	}
	if r.config.BufferSize <= 0 {
		return fmt.Errorf("invalid BufferSize: %d", r.config.BufferSize)
	}
	if r.config.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid ChannelBufferSize: %d", r.config.ChannelBufferSize)
	}
	if r.config.Format != "s16" {
		return fmt.Errorf("invalid Format: %q (chunks are written as 16-bit WAV)", r.config.Format)
	}
	frameBytes := 2 * r.config.Channels
	if r.config.BufferSize%frameBytes != 0 {
		log.Printf("Recording: BufferSize %d not aligned to frame size %d; audio frames may split",
			r.config.BufferSize, frameBytes)
	}
	return nil
}
