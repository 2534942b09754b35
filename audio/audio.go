package audio

import (
	"encoding/binary"
	"errors"
	"strings"
)

const WAVHeaderSize = 44

// ErrDeviceUnavailable wraps any failure to open or start the microphone.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives little-endian 16-bit mono PCM.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	Gain       int
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// FindDevice returns the device whose name matches, case-insensitively.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if strings.EqualFold(devices[i].Name, name) || devices[i].ID == name {
			return &devices[i], nil
		}
	}
	return nil, errors.New("no capture device named " + name)
}

// microphones drops monitor sources (loopbacks of output sinks) and moves
// the default device to the front.
func microphones(devices []DeviceInfo, defaultID string) []DeviceInfo {
	out := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if strings.HasSuffix(d.ID, ".monitor") {
			continue
		}
		if d.ID == defaultID {
			out = append([]DeviceInfo{d}, out...)
			continue
		}
		out = append(out, d)
	}
	return out
}

func deviceName(d *DeviceInfo) string {
	if d == nil {
		return "system default"
	}
	return d.Name
}

func clampGain(s int16, gain int) int16 {
	if gain <= 1 {
		return s
	}
	amplified := int32(s) * int32(gain)
	if amplified > 32767 {
		return 32767
	} else if amplified < -32768 {
		return -32768
	}
	return int16(amplified)
}

// encodePCM writes samples as little-endian bytes, applying gain.
func encodePCM(samples []int16, gain int) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(clampGain(s, gain)))
	}
	return out
}

// amplifyPCM returns a gained copy of little-endian PCM. A trailing odd byte
// is dropped.
func amplifyPCM(data []byte, gain int) []byte {
	out := make([]byte, len(data)&^1)
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(binary.LittleEndian.Uint16(data[i:]))
		binary.LittleEndian.PutUint16(out[i:], uint16(clampGain(s, gain)))
	}
	return out
}
