package encoder

import (
	"fmt"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

const (
	FormatFLAC = "flac"
	FormatWAV  = "wav"
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	Format() string
}

func New(format string) (Encoder, error) {
	switch format {
	case FormatFLAC, "":
		return NewFlac()
	case FormatWAV:
		return NewWav(), nil
	}
	return nil, fmt.Errorf("unsupported audio format %q", format)
}

// Encode feeds samples through a fresh encoder in BlockSize blocks and
// returns the finished container along with the time spent encoding.
func Encode(format string, samples []int16) ([]byte, time.Duration, error) {
	start := time.Now()
	enc, err := New(format)
	if err != nil {
		return nil, 0, err
	}
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, 0, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, 0, fmt.Errorf("closing %s encoder: %w", enc.Format(), err)
	}
	return enc.Bytes(), time.Since(start), nil
}

// Duration converts a sample count at SampleRate into wall time.
func Duration(frames uint64) time.Duration {
	return time.Duration(frames) * time.Second / SampleRate
}
