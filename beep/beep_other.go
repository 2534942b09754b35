//go:build !linux

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"quicktranslator/log"
)

var (
	initOnce sync.Once
	mctx     *malgo.AllocatedContext
	device   *malgo.Device
	pcm      map[Cue][]byte

	// read by the device callback
	playing atomic.Pointer[[]byte]
	playPos atomic.Uint32
	playMu  sync.Mutex
)

func toBytes(s []int16) []byte {
	out := make([]byte, len(s)*2)
	for i, v := range s {
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func initDevice() error {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate

	var err error
	device, err = malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{Data: onData})
	return err
}

func initPlayback() {
	pcm = make(map[Cue][]byte, len(tones))
	for c := range tones {
		pcm[c] = toBytes(samples(c))
	}
	var err error
	mctx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Warnf("beep: audio context: %v", err)
		return
	}
	if err := initDevice(); err != nil {
		log.Warnf("beep: playback device: %v", err)
		device = nil
	}
}

func onData(out, _ []byte, frameCount uint32) {
	clear(out)
	buf := playing.Load()
	if buf == nil {
		return
	}
	pos := playPos.Load()
	total := uint32(len(*buf))
	if pos >= total {
		playing.Store(nil)
		return
	}
	n := min(frameCount*2, total-pos)
	copy(out[:n], (*buf)[pos:pos+n])
	playPos.Store(pos + n)
}

func play(c Cue) {
	initOnce.Do(initPlayback)
	buf := pcm[c]
	if mctx == nil || len(buf) == 0 {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()
	if device == nil {
		return
	}
	device.Stop()
	playPos.Store(0)
	playing.Store(&buf)
	if err := device.Start(); err != nil {
		// recreate after sleep/wake
		device.Uninit()
		if err := initDevice(); err != nil {
			device = nil
			playing.Store(nil)
			return
		}
		if err := device.Start(); err != nil {
			playing.Store(nil)
		}
	}
}
