// Package config loads layered recorder configuration: a YAML file with
// struct defaults, overridden by environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/GriffinCanCode/screenrec/internal/resilience"
)

// EnvPrefix is the environment variable prefix for overrides (RECORDER_FPS, ...).
const EnvPrefix = "RECORDER"

// Config holds everything the orchestrator needs to start a recording.
type Config struct {
	// BaseDir is the recorder's home directory; OutputDir and Store.Path
	// default under it. Defaults to ${HOME}/.screenrec.
	BaseDir string `yaml:"base_dir" koanf:"base_dir"`
	// OutputDir is where video/audio chunks and OCR sidecars land.
	OutputDir string `yaml:"output_dir" koanf:"output_dir"`

	FPS                 float64       `yaml:"fps" koanf:"fps"`
	AudioChunkDuration   time.Duration `yaml:"audio_chunk_duration" koanf:"audio_chunk_duration"`
	SaveTextFiles        bool          `yaml:"save_text_files" koanf:"save_text_files"`
	InitialAudioDevices  []string      `yaml:"initial_audio_devices" koanf:"initial_audio_devices"`
	// OCRQueueCapacity bounds the OCR frame queue; 0 means the caller derives
	// it as max(2, 2*FPS).
	OCRQueueCapacity int `yaml:"ocr_queue_capacity" koanf:"ocr_queue_capacity"`

	Tools ToolsConfig `yaml:"tools" koanf:"tools"`
	Store StoreConfig `yaml:"store" koanf:"store"`
}

// ToolsConfig overrides PATH discovery of external collaborator binaries.
// Empty fields fall back to the conventional binary name via exec.LookPath.
type ToolsConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path" koanf:"ffmpeg_path"`
	OCRBinary  string `yaml:"ocr_binary" koanf:"ocr_binary"`
	ASRBinary  string `yaml:"asr_binary" koanf:"asr_binary"`
}

// StoreConfig configures the persistence store.
type StoreConfig struct {
	Path      string                  `yaml:"path" koanf:"path"`
	OpenRetry resilience.RetryConfig  `yaml:"-" koanf:"-"`
}

// Default returns the built-in defaults, before any file/env overrides.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".screenrec")
	return &Config{
		BaseDir:             base,
		OutputDir:           filepath.Join(base, "data"),
		FPS:                 1.0,
		AudioChunkDuration:  30 * time.Second,
		SaveTextFiles:       false,
		InitialAudioDevices: nil,
		OCRQueueCapacity:    0,
		Tools: ToolsConfig{
			FFmpegPath: "ffmpeg",
			OCRBinary:  "tesseract",
			ASRBinary:  "whisper",
		},
		Store: StoreConfig{
			Path:      filepath.Join(base, "db.sqlite"),
			OpenRetry: resilience.StartupRetryConfig(),
		},
	}
}

// Load reads a YAML config file (if present) and environment overrides
// (RECORDER_*) on top of Default(). A missing yamlPath is not an error; a
// present-but-unreadable or malformed one is. A .env file at the process's
// working directory is loaded best-effort before the environment provider
// reads os.Environ(), for local-dev convenience.
//
// After the RECORDER_ prefix, every underscore in a variable name becomes a
// key-path separator, so RECORDER_FPS sets fps. Keys whose own names contain
// an underscore (output_dir, save_text_files, tools.ffmpeg_path, ...) cannot
// be set from the environment; such variables are ignored.
func Load(yamlPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	k := koanf.New(".")

	if yamlPath != "" {
		if _, err := os.Stat(yamlPath); err == nil {
			if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", yamlPath, err)
			}
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix + "_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.TrimPrefix(k, EnvPrefix+"_")
			k = strings.ToLower(k)
			return strings.ReplaceAll(k, "_", "."), v
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be > 0, got %v", c.FPS)
	}
	if c.AudioChunkDuration <= 0 {
		return fmt.Errorf("audio_chunk_duration must be > 0, got %v", c.AudioChunkDuration)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must be set")
	}
	return nil
}

// QueueCapacity returns OCRQueueCapacity, defaulting to max(2, 2*FPS).
func (c *Config) QueueCapacity() int {
	if c.OCRQueueCapacity > 0 {
		return c.OCRQueueCapacity
	}
	cap := int(2 * c.FPS)
	if cap < 2 {
		cap = 2
	}
	return cap
}
