package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Session is one row of radar_sessions.
type Session struct {
	SessionID    string     `json:"session_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Epsilon      float64    `json:"dbscan_eps"`
	MinPts       int        `json:"dbscan_min_pts"`
	SpatialIndex string     `json:"spatial_index"`
}

// FrameSummary is one recorded frame without its objects.
type FrameSummary struct {
	FrameID        int64     `json:"frame_id"`
	SessionID      string    `json:"session_id"`
	LaunchCount    uint64    `json:"launch_count"`
	CapturedAt     time.Time `json:"captured_at"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	ValidReturns   int       `json:"valid_returns"`
	InvalidReturns int       `json:"invalid_returns"`
	NumClusters    int       `json:"num_clusters"`
}

// ObjectRecord is one recorded object with the frame it belongs to.
type ObjectRecord struct {
	SessionID   string     `json:"session_id"`
	LaunchCount uint64     `json:"launch_count"`
	CapturedAt  time.Time  `json:"captured_at"`
	ObjectID    int32      `json:"object_id"`
	Centroid    [3]float64 `json:"centroid"`
	AvgVelocity [3]float64 `json:"avg_velocity"`
	SpeedMPS    float64    `json:"speed_mps"`
	Count       int        `json:"count"`
}

// Sessions lists every session, newest first.
func (r *FrameRecorder) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, started_at, ended_at, dbscan_eps, dbscan_min_pts, spatial_index
		FROM radar_sessions
		ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s       Session
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&s.SessionID, &started, &ended, &s.Epsilon, &s.MinPts, &s.SpatialIndex); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.StartedAt = time.Unix(0, started).UTC()
		if ended.Valid {
			t := time.Unix(0, ended.Int64).UTC()
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// FrameSummaries returns up to limit frames of a session, newest first.
func (r *FrameRecorder) FrameSummaries(ctx context.Context, sessionID string, limit int) ([]FrameSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT frame_id, session_id, launch_count, captured_at, width, height,
		       valid_returns, invalid_returns, num_clusters
		FROM radar_frames
		WHERE session_id = ?
		ORDER BY launch_count DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameSummary
	for rows.Next() {
		var (
			f        FrameSummary
			launch   int64
			captured int64
		)
		if err := rows.Scan(&f.FrameID, &f.SessionID, &launch, &captured, &f.Width, &f.Height,
			&f.ValidReturns, &f.InvalidReturns, &f.NumClusters); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.LaunchCount = uint64(launch)
		f.CapturedAt = time.Unix(0, captured).UTC()
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// RecentObjects returns up to limit objects across all sessions, newest
// frame first and by object ID within a frame.
func (r *FrameRecorder) RecentObjects(ctx context.Context, limit int) ([]ObjectRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.session_id, f.launch_count, f.captured_at, o.object_id,
		       o.centroid_x, o.centroid_y, o.centroid_z,
		       o.velocity_x, o.velocity_y, o.velocity_z,
		       o.speed_mps, o.member_count
		FROM radar_frame_objects o
		JOIN radar_frames f ON f.frame_id = o.frame_id
		ORDER BY f.captured_at DESC, f.frame_id DESC, o.object_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var objects []ObjectRecord
	for rows.Next() {
		var (
			o        ObjectRecord
			launch   int64
			captured int64
		)
		if err := rows.Scan(&o.SessionID, &launch, &captured, &o.ObjectID,
			&o.Centroid[0], &o.Centroid[1], &o.Centroid[2],
			&o.AvgVelocity[0], &o.AvgVelocity[1], &o.AvgVelocity[2],
			&o.SpeedMPS, &o.Count); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		o.LaunchCount = uint64(launch)
		o.CapturedAt = time.Unix(0, captured).UTC()
		objects = append(objects, o)
	}
	return objects, rows.Err()
}
