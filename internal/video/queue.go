package video

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"log/slog"
	"sync"

	"github.com/corona10/goimagehash"
)

// MaxHashDistance is the Hamming-distance threshold below which two frames
// are considered near-duplicates for queue-admission purposes.
const MaxHashDistance = 4

// Frame is a raw screen grab awaiting OCR.
type Frame struct {
	Data     []byte
	Sequence uint64
}

// OCRFrameQueue is the bounded hand-off from capture to OCR (Section 4.2/5
// of the recording engine design). It is the pipeline's one mutable shared
// data structure; the mutex is held only across push/pop.
type OCRFrameQueue struct {
	mu       sync.Mutex
	items    []Frame
	capacity int
	tailHash *goimagehash.ImageHash
}

// NewOCRFrameQueue creates a queue with the given bounded capacity.
func NewOCRFrameQueue(capacity int) *OCRFrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &OCRFrameQueue{capacity: capacity}
}

// Push attempts to admit f. When the queue has room, it is always admitted.
// When full, a perceptual hash of f is compared against the hash of the
// most recently admitted frame: a near-duplicate is dropped outright;
// a genuinely new frame displaces the oldest queued frame. Returns whether
// f was admitted.
func (q *OCRFrameQueue) Push(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	hash := perceptualHash(f.Data)

	if len(q.items) < q.capacity {
		q.items = append(q.items, f)
		if hash != nil {
			q.tailHash = hash
		}
		return true
	}

	if hash != nil && q.tailHash != nil {
		if dist, err := q.tailHash.Distance(hash); err == nil && dist <= MaxHashDistance {
			slog.Debug("dropping near-duplicate frame", "distance", dist, "sequence", f.Sequence)
			return false
		}
	}

	// Genuinely new content: evict oldest, admit incoming.
	slog.Debug("queue full, evicting oldest frame", "sequence", f.Sequence)
	q.items = append(q.items[1:], f)
	if hash != nil {
		q.tailHash = hash
	}
	return true
}

// Pop removes and returns the oldest queued frame, if any.
func (q *OCRFrameQueue) Pop() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Frame{}, false
	}
	f := q.items[0]
	q.items = q.items[1:]
	return f, true
}

// Len returns the current queue length.
func (q *OCRFrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func perceptualHash(data []byte) *goimagehash.ImageHash {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil
	}
	return hash
}
