package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc { return func(context.Context) error { return nil } }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

type probeBody struct {
	status string
	checks map[string]string
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) probeBody {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	b := probeBody{checks: map[string]string{}}
	err := jx.DecodeBytes(w.Body.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			s, err := d.Str()
			b.status = s
			return err
		case "checks":
			return d.ObjBytes(func(d *jx.Decoder, name []byte) error {
				s, err := d.Str()
				b.checks[string(name)] = s
				return err
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	return b
}

func probe(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func lastCheck(h *Health, kind Kind) *check {
	cs := h.checks[kind]
	return cs[len(cs)-1]
}

func TestLiveEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		runs       int
		wantStatus int
	}{
		{name: "fresh checks pass", runs: 0, wantStatus: http.StatusOK},
		{name: "below threshold", runs: 2, wantStatus: http.StatusOK},
		{name: "at threshold", runs: 3, wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.Add(Liveness, "ok", time.Second, passing())
			h.Add(Liveness, "db", time.Second, failing("connection refused"))
			c := lastCheck(h, Liveness)
			for range tt.runs {
				c.run(context.Background())
			}

			w := probe(h.LiveEndpoint)
			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "ok", body.status)
				return
			}
			assert.Equal(t, "unhealthy", body.status)
			assert.Equal(t, map[string]string{"db": "connection refused"}, body.checks)
		})
	}
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.Add(Readiness, "postgres", time.Second, passing())

	w := probe(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decodeBody(t, w).checks, "_readiness")

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, probe(h.ReadyEndpoint).Code)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, probe(h.ReadyEndpoint).Code)
	assert.False(t, h.IsReady())
}

func TestReadyEndpoint_OneFailing(t *testing.T) {
	h := New()
	h.Add(Readiness, "postgres", time.Second, passing())
	h.Add(Readiness, "kafka", time.Second, failing("no leader"), WithThresholds(1, 1))
	h.SetReady(true)
	lastCheck(h, Readiness).run(context.Background())

	w := probe(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body.checks, "kafka")
	assert.NotContains(t, body.checks, "postgres")
	assert.False(t, h.IsReady())
}

func TestCheck_Recovers(t *testing.T) {
	down := true
	h := New()
	h.Add(Liveness, "flaky", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}, WithThresholds(2, 2))
	c := lastCheck(h, Liveness)
	ctx := context.Background()

	c.run(ctx)
	c.run(ctx)
	_, failed := c.failure()
	assert.True(t, failed)

	down = false
	c.run(ctx)
	_, failed = c.failure()
	assert.True(t, failed, "one success is below the success threshold")
	c.run(ctx)
	_, failed = c.failure()
	assert.False(t, failed)
}

func TestWithThresholds_Clamps(t *testing.T) {
	h := New()
	h.Add(Liveness, "x", time.Second, passing(), WithThresholds(0, -1))
	c := lastCheck(h, Liveness)
	assert.Equal(t, 1, c.failureThreshold)
	assert.Equal(t, 1, c.successThreshold)
}

func TestHealth_StartStopConcurrent(t *testing.T) {
	h := New()
	h.Add(Liveness, "err", time.Second, failing("err"))
	h.Add(Readiness, "ok", time.Second, passing())
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				probe(h.LiveEndpoint)
				probe(h.ReadyEndpoint)
			}
		}()
	}
	wg.Wait()
	h.Stop()
	h.Stop()
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, PingCheck(fakePinger{})(ctx))
	err := PingCheck(fakePinger{err: errors.New("refused")})(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping")

	require.NoError(t, GoroutineCountCheck(100000)(ctx))
	err = GoroutineCountCheck(0)(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")

	require.NoError(t, GCMaxPauseCheck(time.Hour)(ctx))
}
