// Package asr runs speech-to-text on finalized audio segments and persists
// the resulting transcriptions.
package asr

import (
	"context"
	"log/slog"

	"github.com/GriffinCanCode/screenrec/internal/control"
)

// AudioInput is a finalized audio segment handed to the ASR pump.
type AudioInput struct {
	Path       string
	Device     control.AudioDevice
	SampleRate int
	Channels   int
}

// TranscriptionResult is produced by the ASR pump for each AudioInput it
// processes.
type TranscriptionResult struct {
	Input        AudioInput
	Transcription string
	Err          error
}

// Engine transcribes a finalized audio file.
type Engine interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Store is the Persistence Sink surface process_audio_result writes to.
type Store interface {
	InsertAudioChunk(ctx context.Context, path string) (int64, error)
	InsertAudioTranscription(ctx context.Context, chunkID int64, text string, offsetSeconds float64) error
}

// Pump is the single consumer of AudioInputs: it transcribes each and
// emits a TranscriptionResult onto results.
type Pump struct {
	engine  Engine
	results chan<- TranscriptionResult
}

// NewPump constructs a Pump that writes to results.
func NewPump(engine Engine, results chan<- TranscriptionResult) *Pump {
	return &Pump{engine: engine, results: results}
}

// Run consumes inputs until the channel is closed or ctx is done.
func (p *Pump) Run(ctx context.Context, inputs <-chan AudioInput) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-inputs:
			if !ok {
				return
			}
			p.transcribe(ctx, in)
		}
	}
}

func (p *Pump) transcribe(ctx context.Context, in AudioInput) {
	text, err := p.engine.Transcribe(ctx, in.Path)
	result := TranscriptionResult{Input: in, Transcription: text, Err: err}

	select {
	case p.results <- result:
	case <-ctx.Done():
	}
}

// ProcessResult implements process_audio_result (Section 4.5): if the
// result carries an error or empty transcription it is logged and dropped;
// otherwise it is persisted as an audio chunk followed by its
// transcription. The two inserts are not transactional — a crash between
// them leaves an orphan chunk row, which is acceptable.
func ProcessResult(ctx context.Context, store Store, result TranscriptionResult) {
	if result.Err != nil || result.Transcription == "" {
		slog.Error("audio recording error, not inserting result", "device", result.Input.Device, "error", result.Err)
		return
	}

	chunkID, err := store.InsertAudioChunk(ctx, result.Input.Path)
	if err != nil {
		slog.Error("failed to insert audio chunk", "device", result.Input.Device, "error", err)
		return
	}

	if err := store.InsertAudioTranscription(ctx, chunkID, result.Transcription, 0); err != nil {
		slog.Error("failed to insert audio transcription", "device", result.Input.Device, "chunk_id", chunkID, "error", err)
		return
	}

	slog.Debug("inserted audio transcription", "chunk_id", chunkID, "device", result.Input.Device)
}
