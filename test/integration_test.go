//go:build integration

package test_test

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("QTR_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "QTR_TEST_BIN not set; build the binary and point QTR_TEST_BIN at it")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func writeSilenceWAV(t *testing.T, sampleRate int, durationS float64) string {
	t.Helper()
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	path := filepath.Join(t.TempDir(), "silence.wav")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

type services struct {
	stt, mt       *httptest.Server
	sttHits       atomic.Int32
	mtHits        atomic.Int32
	sttStatus     int
	lastLanguage  atomic.Value
	lastMTRequest atomic.Value
}

func startServices(t *testing.T, transcript, translation string) *services {
	t.Helper()
	s := &services{sttStatus: http.StatusOK}
	s.stt = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.sttHits.Add(1)
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.lastLanguage.Store(r.FormValue("language"))
		if s.sttStatus != http.StatusOK {
			http.Error(w, "boom", s.sttStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"text": transcript})
	}))
	s.mt = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mtHits.Add(1)
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		s.lastMTRequest.Store(body)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": translation}}},
		})
	}))
	t.Cleanup(s.stt.Close)
	t.Cleanup(s.mt.Close)
	return s
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func runQTR(t *testing.T, s *services, stdin string, args ...string) (out string, logDir string) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir, "-script", "-wav", writeSilenceWAV(t, 16000, 1.0)}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(),
		"OPENAI_API_KEY=sk-test",
		"QTR_DATA_DIR="+t.TempDir(),
		"QTR_TRANSCRIPTION_URL="+s.stt.URL,
		"QTR_TRANSLATION_URL="+s.mt.URL,
		"QTR_UI_BEEP=false",
		"QTR_LOG_LEVEL=debug",
	)
	b, err := cmd.Output()
	if err != nil {
		t.Fatalf("quicktranslator exited with error: %v\noutput: %s", err, b)
	}
	return string(b), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestVoiceTranslation(t *testing.T) {
	s := startServices(t, "שלום עולם", "Hello world")
	out, logDir := runQTR(t, s, cmds("START", "STOP", "WAIT", "QUIT"))

	if !strings.Contains(out, `state=ShowingResult input="שלום עולם" output="Hello world"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
	if lang, _ := s.lastLanguage.Load().(string); lang != "he" {
		t.Errorf("language hint = %q, want he", lang)
	}
	history := readLog(t, logDir, "translation_log.txt")
	if !strings.Contains(history, "Hebrew>English\tשלום עולם\tHello world") {
		t.Errorf("translation_log.txt = %q", history)
	}
	diag := readLog(t, logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "transcription", "translation", "transition"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q", want)
		}
	}
}

func TestTextTranslation(t *testing.T) {
	s := startServices(t, "", "Bonjour")
	out, _ := runQTR(t, s, cmds("SOURCE English", "TARGET French", "TRANSLATE Hello", "WAIT"))

	if !strings.Contains(out, `output="Bonjour"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
	if s.sttHits.Load() != 0 {
		t.Error("text mode called transcription")
	}
	body, _ := s.lastMTRequest.Load().(map[string]any)
	if body["temperature"] != 0.3 || body["model"] != "gpt-4o" {
		t.Errorf("translation request = %v", body)
	}
}

func TestTranscriptionFailure(t *testing.T) {
	s := startServices(t, "", "")
	s.sttStatus = http.StatusInternalServerError
	out, _ := runQTR(t, s, cmds("START", "STOP", "WAIT"))

	if !strings.Contains(out, `state=Error input="" output="" error="Transcription failed. Please try again."`) {
		t.Errorf("unexpected output:\n%s", out)
	}
	if s.mtHits.Load() != 0 {
		t.Error("translation called after failed transcription")
	}
}

func TestEditBeforeTranslate(t *testing.T) {
	s := startServices(t, "hola", "hello")
	out, _ := runQTR(t, s, cmds(
		"SOURCE Spanish",
		"SET editBeforeTranslate true",
		"START", "STOP", "WAIT",
		"SUBMIT hola amigos", "WAIT",
	))
	if !strings.Contains(out, "state=ReviewingTranscript") {
		t.Errorf("no review step:\n%s", out)
	}
	if s.mtHits.Load() != 1 {
		t.Errorf("translation calls = %d, want 1", s.mtHits.Load())
	}
}
