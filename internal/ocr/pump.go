package ocr

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/GriffinCanCode/screenrec/internal/control"
	"github.com/GriffinCanCode/screenrec/internal/video"
)

// FrameDiscarder pops raw frames awaiting OCR. Satisfied by
// internal/video.OCRFrameQueue.
type FrameDiscarder interface {
	Pop() (video.Frame, bool)
}

// Store is the Persistence Sink surface the pump writes to.
type Store interface {
	InsertFrame(ctx context.Context) (int64, error)
	InsertOCRText(ctx context.Context, frameID int64, text, textJSON, diffJSON, rawJSON string) error
}

// InsertFrameBackoff is the fixed delay after an insert_frame failure
// before the pump moves on to the next queued frame; the failed frame is
// not retried (Section 4.3, step 4a).
const InsertFrameBackoff = 100 * time.Millisecond

// Pump drains the OCR frame queue, runs text extraction, diffs against the
// previously persisted frame, and persists Frame+OCR rows.
type Pump struct {
	queue   FrameDiscarder
	engine  Engine
	store   Store
	idle    time.Duration
	sidecar func(text string)

	previousTokens map[string]struct{}
}

// NewPump constructs a Pump. fps must be > 0; its reciprocal is the sleep
// interval used when the queue is empty.
func NewPump(queue FrameDiscarder, engine Engine, store Store, fps float64, sidecar func(text string)) *Pump {
	return &Pump{
		queue:   queue,
		engine:  engine,
		store:   store,
		idle:    time.Duration(float64(time.Second) / fps),
		sidecar: sidecar,
	}
}

// Run drives the pump until ctx is done or vision is cleared.
func (p *Pump) Run(ctx context.Context, vision *control.VisionFlag) {
	for vision.Running() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, ok := p.queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.idle):
			}
			continue
		}

		p.process(ctx, frame)
	}
}

func (p *Pump) process(ctx context.Context, frame video.Frame) {
	result, err := p.engine.Extract(ctx, frame.Data)
	if err != nil {
		slog.Debug("ocr extract failed, dropping frame", "sequence", frame.Sequence, "error", err)
		return
	}

	tokens := Tokenize(result.Text)
	diff := DiffTokens(tokens, p.previousTokens)

	textJSON, _ := json.Marshal(SortedTokens(tokens))
	diffJSON, _ := json.Marshal(diff)
	rawJSON, _ := json.Marshal(result)

	frameID, err := p.store.InsertFrame(ctx)
	if err != nil {
		slog.Warn("insert_frame failed, skipping frame", "error", err)
		time.Sleep(InsertFrameBackoff)
		return
	}

	if err := p.store.InsertOCRText(ctx, frameID, result.Text, string(textJSON), string(diffJSON), string(rawJSON)); err != nil {
		slog.Error("insert_ocr_text failed, skipping frame", "frame_id", frameID, "error", err)
		return
	}

	p.previousTokens = tokens

	if p.sidecar != nil && result.Text != "" {
		p.sidecar(result.Text)
	}
}
