//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"quicktranslator/log"
)

var (
	stereoOnce sync.Once
	stereoPCM  map[Cue][]int16
)

// stereo duplicates each sample into interleaved L/R to match the default sink.
func stereo(mono []int16) []int16 {
	out := make([]int16, len(mono)*2)
	for i, s := range mono {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

func render() {
	stereoPCM = make(map[Cue][]int16, len(tones))
	for c := range tones {
		stereoPCM[c] = stereo(samples(c))
	}
}

func play(c Cue) {
	stereoOnce.Do(render)
	buf := stereoPCM[c]
	if len(buf) == 0 {
		return
	}
	client, err := pulse.NewClient(pulse.ClientApplicationName("quicktranslator"))
	if err != nil {
		log.Warnf("beep: pulse client: %v", err)
		return
	}
	defer client.Close()

	pos := 0
	reader := pulse.Int16Reader(func(out []int16) (int, error) {
		if pos >= len(buf) {
			return 0, pulse.EndOfData
		}
		n := copy(out, buf[pos:])
		pos += n
		return n, nil
	})
	stream, err := client.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		log.Warnf("beep: %s playback: %v", c, err)
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}
