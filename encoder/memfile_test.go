package encoder

import (
	"io"
	"testing"
)

func TestMemFile(t *testing.T) {
	var m memFile
	m.Write([]byte("RIFF....WAVE"))
	if _, err := m.Seek(4, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	m.Write([]byte("1234"))
	if got := string(m.data); got != "RIFF1234WAVE" {
		t.Errorf("after overwrite: %q", got)
	}

	// overwrite that runs past the end extends the file
	m.Seek(-2, io.SeekEnd)
	m.Write([]byte("VEXX"))
	if got := string(m.data); got != "RIFF1234WAVEXX" {
		t.Errorf("after extend: %q", got)
	}

	// seeking past the end leaves a zero gap
	m.Seek(2, io.SeekEnd)
	m.Write([]byte("!"))
	if len(m.data) != 17 || m.data[14] != 0 || m.data[16] != '!' {
		t.Errorf("after gap: %q", m.data)
	}

	if _, err := m.Seek(-1, io.SeekStart); err == nil {
		t.Error("negative position accepted")
	}
	if _, err := m.Seek(0, 42); err == nil {
		t.Error("bad whence accepted")
	}
}
