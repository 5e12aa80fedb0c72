package asr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	recerr "github.com/GriffinCanCode/screenrec/internal/errors"
)

// WhisperEngine shells out to a whisper.cpp-compatible CLI binary,
// discovered on PATH, and captures its plain-text transcript on stdout. It
// performs no recognition itself — subprocess plumbing only.
type WhisperEngine struct {
	binaryPath string
	modelPath  string
	timeout    time.Duration
}

// NewWhisperEngine resolves binaryPath (or "whisper" on PATH). modelPath is
// passed through to the binary unmodified; an empty value lets the binary
// fall back to its own default. Returns an error if the binary cannot be
// found — a startup-time fatal condition for the ASR modality.
func NewWhisperEngine(binaryPath, modelPath string) (*WhisperEngine, error) {
	if binaryPath == "" {
		binaryPath = "whisper"
	}
	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("asr binary not found on PATH: %w", err)
	}
	return &WhisperEngine{binaryPath: resolved, modelPath: modelPath, timeout: 30 * time.Second}, nil
}

// Transcribe runs the binary against path and returns its trimmed stdout.
func (e *WhisperEngine) Transcribe(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{"-f", path, "-otxt", "-of", "-", "-nt"}
	if e.modelPath != "" {
		args = append(args, "-m", e.modelPath)
	}

	cmd := exec.CommandContext(ctx, e.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", recerr.Decode(err, "asr binary failed").WithField("stderr", stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}
