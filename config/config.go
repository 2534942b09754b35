package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

type AudioConfig struct {
	Device string `yaml:"device"`
	Format string `yaml:"format"`
}

type TranscriptionConfig struct {
	Provider  string `yaml:"provider"`
	URL       string `yaml:"url"`
	Model     string `yaml:"model"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type TranslationConfig struct {
	URL         string  `yaml:"url"`
	Temperature float64 `yaml:"temperature"`
	TimeoutMS   int     `yaml:"timeout_ms"`
}

type UIConfig struct {
	DefaultSource string `yaml:"default_source"`
	DefaultTarget string `yaml:"default_target"`
	Beep          bool   `yaml:"beep"`
	FrameMS       int    `yaml:"frame_ms"`
}

type Config struct {
	DataDir       string              `yaml:"data_dir"`
	Log           LogConfig           `yaml:"log"`
	Audio         AudioConfig         `yaml:"audio"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Translation   TranslationConfig   `yaml:"translation"`
	UI            UIConfig            `yaml:"ui"`
}

func (c Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.db")
}

func (c TranscriptionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c TranslationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c UIConfig) FrameInterval() time.Duration {
	return time.Duration(c.FrameMS) * time.Millisecond
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".quicktranslator"
	}
	return filepath.Join(dir, "quicktranslator")
}

func Default() Config {
	return Config{
		DataDir: defaultDataDir(),
		Log: LogConfig{
			Level: "info",
		},
		Audio: AudioConfig{
			Format: "flac",
		},
		Transcription: TranscriptionConfig{
			Provider:  "openai",
			Model:     "whisper-1",
			TimeoutMS: 60000,
		},
		Translation: TranslationConfig{
			URL:         "https://api.openai.com/v1/chat/completions",
			Temperature: 0.3,
			TimeoutMS:   60000,
		},
		UI: UIConfig{
			DefaultSource: "Hebrew",
			DefaultTarget: "English",
			Beep:          true,
			FrameMS:       50,
		},
	}
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.DataDir, "QTR_DATA_DIR")
	overrideString(&cfg.Log.Dir, "QTR_LOG_PATH")
	overrideString(&cfg.Log.Level, "QTR_LOG_LEVEL")
	overrideString(&cfg.Audio.Device, "QTR_AUDIO_DEVICE")
	overrideString(&cfg.Audio.Format, "QTR_AUDIO_FORMAT")
	overrideString(&cfg.Transcription.Provider, "QTR_TRANSCRIPTION_PROVIDER")
	overrideString(&cfg.Transcription.URL, "QTR_TRANSCRIPTION_URL")
	overrideString(&cfg.Transcription.Model, "QTR_TRANSCRIPTION_MODEL")
	overrideInt(&cfg.Transcription.TimeoutMS, "QTR_TRANSCRIPTION_TIMEOUT_MS")
	overrideString(&cfg.Translation.URL, "QTR_TRANSLATION_URL")
	overrideFloat(&cfg.Translation.Temperature, "QTR_TRANSLATION_TEMPERATURE")
	overrideInt(&cfg.Translation.TimeoutMS, "QTR_TRANSLATION_TIMEOUT_MS")
	overrideString(&cfg.UI.DefaultSource, "QTR_UI_DEFAULT_SOURCE")
	overrideString(&cfg.UI.DefaultTarget, "QTR_UI_DEFAULT_TARGET")
	overrideBool(&cfg.UI.Beep, "QTR_UI_BEEP")
	overrideInt(&cfg.UI.FrameMS, "QTR_UI_FRAME_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir must not be empty")
	}
	switch cfg.Audio.Format {
	case "flac", "wav":
	default:
		return fmt.Errorf("audio.format must be flac or wav, got %q", cfg.Audio.Format)
	}
	switch cfg.Transcription.Provider {
	case "openai", "groq":
	default:
		return fmt.Errorf("transcription.provider must be openai or groq, got %q", cfg.Transcription.Provider)
	}
	if cfg.Transcription.TimeoutMS <= 0 {
		return errors.New("transcription.timeout_ms must be positive")
	}
	if cfg.Translation.URL == "" {
		return errors.New("translation.url must not be empty")
	}
	if cfg.Translation.Temperature < 0 || cfg.Translation.Temperature > 2 {
		return errors.New("translation.temperature must be between 0 and 2")
	}
	if cfg.Translation.TimeoutMS <= 0 {
		return errors.New("translation.timeout_ms must be positive")
	}
	if cfg.UI.FrameMS < 10 || cfg.UI.FrameMS > 1000 {
		return errors.New("ui.frame_ms must be between 10 and 1000")
	}
	return nil
}
