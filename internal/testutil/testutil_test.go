package testutil

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radarcluster/internal/radar/l1device"
)

func TestServeRequest(t *testing.T) {
	t.Parallel()

	var gotMethod, gotBody string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"frames": 3}`))
	})

	rec := ServeRequest(h, http.MethodPost, "/api/radar/params", `{"dbscan_eps": 1}`)
	AssertStatusCode(t, rec, http.StatusAccepted)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"frames": 3}`, rec.Body.String())
	assert.Equal(t, `{"dbscan_eps": 1}`, gotBody)

	var body struct {
		Frames int `json:"frames"`
	}
	DecodeJSON(t, rec, http.StatusAccepted, &body)
	assert.Equal(t, 3, body.Frames)

	rec = ServeRequest(h, http.MethodGet, "/health", "")
	AssertStatusCode(t, rec, http.StatusAccepted)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Empty(t, gotBody)
}

func TestLoadedFrame(t *testing.T) {
	t.Parallel()

	rs := TwoObjectReturns()
	frame := LoadedFrame(rs, 3)
	require.Equal(t, len(rs), frame.Len())
	assert.Equal(t, uint64(3), frame.LaunchCount)

	host := make([]l1device.Return, frame.Len())
	require.NoError(t, frame.Buffer.CopyToHost(host, frame.Stream))
	require.NoError(t, frame.Stream.Synchronize(context.Background()))
	assert.Equal(t, rs, host)

	valid := 0
	for _, r := range host {
		if r.Valid() {
			valid++
		}
	}
	assert.Equal(t, 10, valid)
}
