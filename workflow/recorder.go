package workflow

import "quicktranslator/audio"

// Capture is one open capture session.
type Capture interface {
	Finalize() (audio.Clip, error)
	Release()
}

type Recorder interface {
	Start() (Capture, error)
}

type audioRecorder struct {
	r *audio.Recorder
}

func (a audioRecorder) Start() (Capture, error) {
	s, err := a.r.Start()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FromAudio adapts an audio.Recorder.
func FromAudio(r *audio.Recorder) Recorder {
	return audioRecorder{r: r}
}
