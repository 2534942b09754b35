package encoder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// ErrEncoderClosed is returned when a block arrives after Close.
var ErrEncoderClosed = errors.New("encoder closed")

// FlacEncoder writes a mono 16-bit FLAC stream into memory. The output is
// seekable, so Close rewrites STREAMINFO with the sample count and MD5 of the
// clip.
type FlacEncoder struct {
	mu          sync.Mutex
	out         memFile
	enc         *flac.Encoder
	scratch     []int32
	totalFrames uint64
	closed      bool
}

func NewFlac() (*FlacEncoder, error) {
	e := &FlacEncoder{scratch: make([]int32, BlockSize)}
	enc, err := flac.NewEncoder(&e.out, &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    SampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	})
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	// verbatim subframes are re-coded as constant or fixed when smaller
	enc.EnablePredictionAnalysis(true)
	e.enc = enc
	return e, nil
}

func monoFrame(samples []int32) *frame.Frame {
	return &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(samples)),
			SampleRate:    SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  len(samples),
		}},
	}
}

// EncodeBlock writes one frame of at most BlockSize samples.
func (e *FlacEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return ErrEncoderClosed
	case len(block) == 0:
		return nil
	case len(block) > BlockSize:
		return fmt.Errorf("flac block of %d samples exceeds %d", len(block), BlockSize)
	}

	samples := e.scratch[:len(block)]
	for i, s := range block {
		samples[i] = int32(s)
	}
	if err := e.enc.WriteFrame(monoFrame(samples)); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *FlacEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("finalizing flac stream: %w", err)
	}
	return nil
}

func (e *FlacEncoder) Format() string { return FormatFLAC }

func (e *FlacEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out.data
}

func (e *FlacEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}
