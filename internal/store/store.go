// Package store implements the Persistence Sink: a thin, concurrency-safe
// adapter over a SQLite database exposing the logical insert operations
// the rest of the pipeline depends on.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/GriffinCanCode/screenrec/internal/resilience"
	"github.com/GriffinCanCode/screenrec/internal/syncx"
)

// Store is safe for concurrent callers; database/sql pools connections
// internally, and lastVideoChunkID is guarded separately since it's
// mutated and read from different goroutines independent of any one
// query.
type Store struct {
	db      *sql.DB
	breaker *resilience.Breaker

	lastVideoChunkID *syncx.RWGuard[int64]
}

// Open opens (creating if absent) the SQLite database at path, retrying
// transient open/ping failures per openRetry, then applies the schema.
func Open(ctx context.Context, path string, openRetry resilience.RetryConfig) (*Store, error) {
	var db *sql.DB

	err := resilience.Retry(ctx, openRetry, func() error {
		opened, openErr := sql.Open("sqlite", path)
		if openErr != nil {
			return openErr
		}
		if pingErr := opened.PingContext(ctx); pingErr != nil {
			opened.Close()
			return pingErr
		}
		db = opened
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", path, err)
	}

	s := &Store{
		db:               db,
		breaker:          resilience.New(resilience.FastConfig()),
		lastVideoChunkID: syncx.NewGuard(int64(0)),
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS video_chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	started_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS frames (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_chunk_id INTEGER NOT NULL REFERENCES video_chunks(id),
	captured_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS ocr_text (
	frame_id INTEGER NOT NULL REFERENCES frames(id),
	text TEXT NOT NULL,
	text_json TEXT NOT NULL,
	diff_json TEXT NOT NULL,
	raw_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audio_chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	inserted_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS audio_transcriptions (
	audio_chunk_id INTEGER NOT NULL REFERENCES audio_chunks(id),
	text TEXT NOT NULL,
	offset_seconds REAL NOT NULL
);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// InsertVideoChunk inserts a video chunk row unless path already exists,
// and records it as the chunk subsequent InsertFrame calls attach to.
func (s *Store) InsertVideoChunk(ctx context.Context, path string) error {
	id, err := resilience.ExecuteWithResult(s.breaker, func() (int64, error) {
		res, execErr := s.db.ExecContext(ctx,
			`INSERT INTO video_chunks (path) VALUES (?) ON CONFLICT (path) DO NOTHING`, path)
		if execErr != nil {
			return 0, execErr
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			var existing int64
			if getErr := s.db.QueryRowContext(ctx, `SELECT id FROM video_chunks WHERE path = ?`, path).Scan(&existing); getErr != nil {
				return 0, getErr
			}
			return existing, nil
		}
		return res.LastInsertId()
	})
	if err != nil {
		return err
	}

	s.lastVideoChunkID.Set(id)
	return nil
}

// InsertFrame allocates a frame bound to the most recently inserted video
// chunk.
func (s *Store) InsertFrame(ctx context.Context) (int64, error) {
	chunkID := s.lastVideoChunkID.Get()
	if chunkID == 0 {
		return 0, fmt.Errorf("insert_frame: no video chunk has been inserted yet")
	}

	return resilience.ExecuteWithResult(s.breaker, func() (int64, error) {
		res, err := s.db.ExecContext(ctx, `INSERT INTO frames (video_chunk_id) VALUES (?)`, chunkID)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	})
}

// InsertOCRText attaches OCR output to an already-allocated frame.
func (s *Store) InsertOCRText(ctx context.Context, frameID int64, text, textJSON, diffJSON, rawJSON string) error {
	return s.breaker.Execute(func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO ocr_text (frame_id, text, text_json, diff_json, raw_json) VALUES (?, ?, ?, ?, ?)`,
			frameID, text, textJSON, diffJSON, rawJSON)
		return err
	})
}

// InsertAudioChunk inserts an audio chunk row unless path already exists.
func (s *Store) InsertAudioChunk(ctx context.Context, path string) (int64, error) {
	return resilience.ExecuteWithResult(s.breaker, func() (int64, error) {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO audio_chunks (path) VALUES (?) ON CONFLICT (path) DO NOTHING`, path)
		if err != nil {
			return 0, err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			var existing int64
			if getErr := s.db.QueryRowContext(ctx, `SELECT id FROM audio_chunks WHERE path = ?`, path).Scan(&existing); getErr != nil {
				return 0, getErr
			}
			return existing, nil
		}
		return res.LastInsertId()
	})
}

// InsertAudioTranscription attaches a transcription to an audio chunk.
func (s *Store) InsertAudioTranscription(ctx context.Context, chunkID int64, text string, offsetSeconds float64) error {
	return s.breaker.Execute(func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO audio_transcriptions (audio_chunk_id, text, offset_seconds) VALUES (?, ?, ?)`,
			chunkID, text, offsetSeconds)
		return err
	})
}
