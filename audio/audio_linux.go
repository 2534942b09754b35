//go:build linux

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// captureLatency is the fragment size pulse delivers, in seconds.
const captureLatency = 0.05

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("quicktranslator"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

// Devices lists microphones with the server default first. Monitor sources
// of output sinks are left out.
func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	all := make([]DeviceInfo, 0, len(sources))
	for _, s := range sources {
		all = append(all, DeviceInfo{ID: s.ID(), Name: s.Name()})
	}
	var defaultID string
	if def, err := p.client.DefaultSource(); err == nil {
		defaultID = def.ID()
	}
	return microphones(all, defaultID), nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	var source *pulse.Source
	if device != nil {
		s, err := p.client.SourceByID(device.ID)
		if err != nil {
			return nil, fmt.Errorf("pulse source %q: %w", device.Name, err)
		}
		source = s
	}
	return &pulseCapture{
		client: p.client,
		source: source,
		name:   deviceName(device),
		config: config,
	}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

// pulseCapture owns one record stream, created on Start and deleted on
// Close. Stop corks it.
type pulseCapture struct {
	client   *pulse.Client
	source   *pulse.Source
	name     string
	config   CaptureConfig
	callback atomic.Pointer[DataCallback]

	mu     sync.Mutex
	stream *pulse.RecordStream
	closed bool
}

func (c *pulseCapture) write(buf []int16) (int, error) {
	if cb := c.callback.Load(); cb != nil && len(buf) > 0 {
		(*cb)(encodePCM(buf, c.config.Gain), uint32(len(buf)))
	}
	return len(buf), nil
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("pulse capture on %s is closed", c.name)
	}
	if c.stream == nil {
		opts := []pulse.RecordOption{
			pulse.RecordMono,
			pulse.RecordSampleRate(int(c.config.SampleRate)),
			pulse.RecordLatency(captureLatency),
			pulse.RecordMediaName("translation input"),
			// unity volume; gain is applied in software
			pulse.RecordRawOption(func(r *proto.CreateRecordStream) {
				r.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
			}),
		}
		if c.source != nil {
			opts = append(opts, pulse.RecordSource(c.source))
		}
		stream, err := c.client.NewRecord(pulse.Int16Writer(c.write), opts...)
		if err != nil {
			return fmt.Errorf("pulse record on %s: %w", c.name, err)
		}
		c.stream = stream
	}
	c.stream.Start()
	return nil
}

func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil && c.stream.Running() {
		c.stream.Stop()
	}
}

func (c *pulseCapture) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
		c.stream = nil
	}
}

func (c *pulseCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *pulseCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *pulseCapture) DeviceName() string { return c.name }
