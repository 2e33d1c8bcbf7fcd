package recording

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const wavHeaderSize = 44

// wavHeader is the canonical 44-byte PCM header
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // bytes of PCM
}

func newWAVHeader(sampleRate, channels int, dataSize uint32) wavHeader {
	const bitsPerSample = 16
	return wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * bitsPerSample / 8),
		BlockAlign:    uint16(channels * bitsPerSample / 8),
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// WAVWriter streams s16 PCM into a WAV file. The header sizes are patched
// on Close, so a crash leaves a file with a zero-length header but intact PCM.
type WAVWriter struct {
	f          *os.File
	sampleRate int
	channels   int
	dataSize   uint32
}

func CreateWAV(path string, sampleRate, channels int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	w := &WAVWriter{f: f, sampleRate: sampleRate, channels: channels}
	if err := binary.Write(f, binary.LittleEndian, newWAVHeader(sampleRate, channels, 0)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write wav header: %w", err)
	}
	return w, nil
}

func (w *WAVWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.dataSize += uint32(n)
	return n, err
}

// DataSize is the number of PCM bytes written so far
func (w *WAVWriter) DataSize() int {
	return int(w.dataSize)
}

func (w *WAVWriter) Name() string {
	return w.f.Name()
}

func (w *WAVWriter) Close() error {
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		w.f.Close()
		return fmt.Errorf("seek wav header: %w", err)
	}
	if err := binary.Write(w.f, binary.LittleEndian, newWAVHeader(w.sampleRate, w.channels, w.dataSize)); err != nil {
		w.f.Close()
		return fmt.Errorf("patch wav header: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("sync wav: %w", err)
	}
	return w.f.Close()
}

// ReadWAVInfo returns the sample rate, channel count and PCM size of a WAV file.
func ReadWAVInfo(path string) (sampleRate, channels, dataSize int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, err
	}
	defer f.Close()

	var h wavHeader
	if err := binary.Read(f, binary.LittleEndian, &h); err != nil {
		return 0, 0, 0, fmt.Errorf("read wav header: %w", err)
	}
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return 0, 0, 0, fmt.Errorf("%s is not a WAV file", path)
	}
	return int(h.SampleRate), int(h.NumChannels), int(h.Subchunk2Size), nil
}
