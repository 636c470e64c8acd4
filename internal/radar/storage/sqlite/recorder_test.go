package sqlite

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radarcluster/internal/monitoring"
	"github.com/banshee-data/radarcluster/internal/radar/l4perception"
	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestRecorder(t *testing.T, path string) *FrameRecorder {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = orig })

	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	require.NoError(t, r.MigrateUp())
	return r
}

func testFrame(launch uint64, objects ...l6objects.ClusterAggregate) *l6objects.OutputBuffer {
	out := &l6objects.OutputBuffer{
		Meta: l6objects.FrameMetadata{
			Width:          64,
			Height:         16,
			Timestamp:      t0.Add(time.Duration(launch) * 100 * time.Millisecond),
			LaunchCount:    launch,
			InvalidReturns: 3,
			NumClusters:    len(objects),
		},
	}
	for _, o := range objects {
		out.Centroids = append(out.Centroids, o.Centroid)
		out.AvgVelocities = append(out.AvgVelocities, o.AvgVelocity)
		out.MemberCounts = append(out.MemberCounts, o.Count)
		out.Meta.ValidReturns += o.Count
	}
	return out
}

func TestMigrations(t *testing.T) {
	r := openTestRecorder(t, ":memory:")

	version, dirty, err := r.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, r.MigrateUp())

	require.NoError(t, r.MigrateDown())
	version, _, err = r.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	err = r.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'radar_frame_objects'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHandoff_NeedsSession(t *testing.T) {
	r := openTestRecorder(t, ":memory:")
	err := r.Handoff(context.Background(), testFrame(1))
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, r.EndSession(context.Background(), t0), ErrNoSession)
}

func TestRecordAndQuery(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t, ":memory:")

	params := l4perception.Params{Epsilon: 1, MinPts: 5}
	id, err := r.StartSession(ctx, params, t0)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, r.SessionID())

	car := l6objects.ClusterAggregate{ObjectID: 1, Centroid: [3]float32{10, 2, 0.5}, AvgVelocity: [3]float32{3, 4, 0}, Count: 12}
	walker := l6objects.ClusterAggregate{ObjectID: 2, Centroid: [3]float32{4, -1, 0}, AvgVelocity: [3]float32{0, 1, 0}, Count: 6}
	require.NoError(t, r.Handoff(ctx, testFrame(1, car, walker)))
	require.NoError(t, r.Handoff(ctx, testFrame(2)))
	require.NoError(t, r.Handoff(ctx, testFrame(3, car)))

	frames, err := r.FrameSummaries(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, uint64(3), frames[0].LaunchCount)
	assert.Equal(t, FrameSummary{
		FrameID:        frames[2].FrameID,
		SessionID:      id,
		LaunchCount:    1,
		CapturedAt:     t0.Add(100 * time.Millisecond),
		Width:          64,
		Height:         16,
		ValidReturns:   18,
		InvalidReturns: 3,
		NumClusters:    2,
	}, frames[2])

	objects, err := r.RecentObjects(ctx, 10)
	require.NoError(t, err)
	want := []ObjectRecord{
		{SessionID: id, LaunchCount: 3, CapturedAt: t0.Add(300 * time.Millisecond), ObjectID: 1,
			Centroid: [3]float64{10, 2, 0.5}, AvgVelocity: [3]float64{3, 4, 0}, SpeedMPS: 5, Count: 12},
		{SessionID: id, LaunchCount: 1, CapturedAt: t0.Add(100 * time.Millisecond), ObjectID: 1,
			Centroid: [3]float64{10, 2, 0.5}, AvgVelocity: [3]float64{3, 4, 0}, SpeedMPS: 5, Count: 12},
		{SessionID: id, LaunchCount: 1, CapturedAt: t0.Add(100 * time.Millisecond), ObjectID: 2,
			Centroid: [3]float64{4, -1, 0}, AvgVelocity: [3]float64{0, 1, 0}, SpeedMPS: 1, Count: 6},
	}
	if diff := cmp.Diff(want, objects); diff != "" {
		t.Errorf("RecentObjects mismatch (-want +got):\n%s", diff)
	}

	objects, err = r.RecentObjects(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, objects, 1)

	require.NoError(t, r.EndSession(ctx, t0.Add(time.Minute)))
	assert.Empty(t, r.SessionID())

	sessions, err := r.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "kdtree", sessions[0].SpatialIndex)
	assert.Equal(t, 5, sessions[0].MinPts)
	require.NotNil(t, sessions[0].EndedAt)
	assert.Equal(t, t0.Add(time.Minute), *sessions[0].EndedAt)
}

func TestHandoff_DuplicateLaunchRollsBack(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t, ":memory:")
	id, err := r.StartSession(ctx, l4perception.DefaultDBSCANParams(), t0)
	require.NoError(t, err)

	obj := l6objects.ClusterAggregate{ObjectID: 1, Count: 5}
	require.NoError(t, r.Handoff(ctx, testFrame(1, obj)))
	assert.Error(t, r.Handoff(ctx, testFrame(1, obj, obj)))

	frames, err := r.FrameSummaries(ctx, id, 10)
	require.NoError(t, err)
	assert.Len(t, frames, 1)
	objects, err := r.RecentObjects(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestHandoff_WithoutObjects(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t, ":memory:")
	id, err := r.StartSession(ctx, l4perception.DefaultDBSCANParams(), t0)
	require.NoError(t, err)
	r.SetRecordObjects(false)

	require.NoError(t, r.Handoff(ctx, testFrame(1, l6objects.ClusterAggregate{ObjectID: 1, Count: 5})))

	frames, err := r.FrameSummaries(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, 1, frames[0].NumClusters)
	objects, err := r.RecentObjects(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestServeBackup(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t, filepath.Join(t.TempDir(), "radar.db"))
	_, err := r.StartSession(ctx, l4perception.DefaultDBSCANParams(), t0)
	require.NoError(t, err)
	require.NoError(t, r.Handoff(ctx, testFrame(1)))

	rec := httptest.NewRecorder()
	r.serveBackup(rec, httptest.NewRequest(http.MethodGet, "/debug/backup", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "filename=radar-backup-")

	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "SQLite format 3\x00", string(data[:16]))
}

func TestAttachAdminRoutes(t *testing.T) {
	r := openTestRecorder(t, ":memory:")
	require.NoError(t, r.AttachAdminRoutes(http.NewServeMux()))
}
