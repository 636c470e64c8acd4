package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/radarcluster/internal/monitoring"
	"github.com/banshee-data/radarcluster/internal/radar/l4perception"
	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
)

// ErrNoSession is returned when a frame is recorded before StartSession.
var ErrNoSession = errors.New("no recording session started")

var logf = monitoring.Named("recorder")

// FrameRecorder stores frames and their objects. It implements the
// pipeline's Sink interface.
type FrameRecorder struct {
	db   *sql.DB
	path string

	mu            sync.Mutex
	sessionID     string
	recordObjects bool
}

// Open opens (or creates) the database at path. Use ":memory:" for a
// throwaway database. The schema is not touched; call MigrateUp.
func Open(path string) (*FrameRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &FrameRecorder{db: db, path: path, recordObjects: true}, nil
}

// DB exposes the underlying connection for read-only tooling.
func (r *FrameRecorder) DB() *sql.DB {
	return r.db
}

// Path returns the path the database was opened with.
func (r *FrameRecorder) Path() string {
	return r.path
}

// Close closes the database.
func (r *FrameRecorder) Close() error {
	return r.db.Close()
}

// SetRecordObjects controls whether per-object rows are stored alongside
// frame summaries.
func (r *FrameRecorder) SetRecordObjects(on bool) {
	r.mu.Lock()
	r.recordObjects = on
	r.mu.Unlock()
}

// StartSession opens a new recording session for frames clustered with
// params and makes it current.
func (r *FrameRecorder) StartSession(ctx context.Context, params l4perception.Params, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	index := params.Index
	if index == "" {
		index = l4perception.IndexKDTree
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO radar_sessions (session_id, started_at, dbscan_eps, dbscan_min_pts, spatial_index)
		VALUES (?, ?, ?, ?, ?)`,
		id, startedAt.UnixNano(), params.Epsilon, params.MinPts, string(index))
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	r.mu.Lock()
	r.sessionID = id
	r.mu.Unlock()
	logf("session %s started (eps=%g minPts=%d index=%s)", id, params.Epsilon, params.MinPts, index)
	return id, nil
}

// EndSession stamps the current session as finished and clears it.
func (r *FrameRecorder) EndSession(ctx context.Context, endedAt time.Time) error {
	r.mu.Lock()
	id := r.sessionID
	r.sessionID = ""
	r.mu.Unlock()
	if id == "" {
		return ErrNoSession
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE radar_sessions SET ended_at = ? WHERE session_id = ?`, endedAt.UnixNano(), id); err != nil {
		return fmt.Errorf("end session %s: %w", id, err)
	}
	return nil
}

// SessionID returns the current session, or "" when none is open.
func (r *FrameRecorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// Handoff records one frame and its objects in a single transaction.
func (r *FrameRecorder) Handoff(ctx context.Context, out *l6objects.OutputBuffer) error {
	r.mu.Lock()
	id, withObjects := r.sessionID, r.recordObjects
	r.mu.Unlock()
	if id == "" {
		return ErrNoSession
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin frame %d: %w", out.Meta.LaunchCount, err)
	}
	defer tx.Rollback()

	m := out.Meta
	res, err := tx.ExecContext(ctx, `
		INSERT INTO radar_frames
			(session_id, launch_count, captured_at, width, height, valid_returns, invalid_returns, num_clusters)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, int64(m.LaunchCount), m.Timestamp.UnixNano(), m.Width, m.Height,
		m.ValidReturns, m.InvalidReturns, m.NumClusters)
	if err != nil {
		return fmt.Errorf("insert frame %d: %w", m.LaunchCount, err)
	}

	if withObjects && out.NumObjects() > 0 {
		frameID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("frame %d id: %w", m.LaunchCount, err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO radar_frame_objects
				(frame_id, object_id, centroid_x, centroid_y, centroid_z,
				 velocity_x, velocity_y, velocity_z, speed_mps, member_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare objects: %w", err)
		}
		defer stmt.Close()

		for _, obj := range out.Objects() {
			if _, err := stmt.ExecContext(ctx, frameID, obj.ObjectID,
				obj.Centroid[0], obj.Centroid[1], obj.Centroid[2],
				obj.AvgVelocity[0], obj.AvgVelocity[1], obj.AvgVelocity[2],
				obj.Speed(), obj.Count); err != nil {
				return fmt.Errorf("insert object %d of frame %d: %w", obj.ObjectID, m.LaunchCount, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit frame %d: %w", m.LaunchCount, err)
	}
	return nil
}
