package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swifty-companion/student-api/pkg/core"
)

type fakeIntraServer struct {
	*httptest.Server
	tokenHits atomic.Int32
	userHits  atomic.Int32
}

func newFakeIntraServer(t *testing.T) *fakeIntraServer {
	t.Helper()

	f := &fakeIntraServer{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/oauth/token":
			f.tokenHits.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok",
				"token_type":   "bearer",
				"expires_in":   7200,
				"scope":        "public",
				"created_at":   time.Now().Unix(),
			})

		case "/v2/users":
			f.userHits.Add(1)
			if r.Header.Get("Authorization") != "bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[{"id":42,"login":"` + r.URL.Query().Get("filter[login]") + `"}]`))

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)

	return f
}

func newTestRuntime(t *testing.T, srv *fakeIntraServer, opts ...func(*core.Config)) *Runtime {
	t.Helper()

	base := []func(*core.Config){
		core.WithIntraCredentials("id", "secret"),
		core.WithIntraBaseURL(srv.URL),
		core.WithIntraTokenURL(srv.URL + "/oauth/token"),
		core.WithIntraPacingInterval(0),
	}
	cfg := core.NewConfig(append(base, opts...)...)

	rt, err := New(&cfg, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	return rt
}

func closeRuntime(t *testing.T, rt *Runtime) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rt.Close(ctx))
}

func TestRuntime_MemoryStoreEndToEnd(t *testing.T) {
	srv := newFakeIntraServer(t)
	rt := newTestRuntime(t, srv)
	defer closeRuntime(t, rt)

	ctx := context.Background()
	for _, login := range []string{"alice", "bob"} {
		s, err := rt.Scheduler.FetchStudent(ctx, login).Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, login, s.Login)
	}

	assert.Equal(t, int32(1), srv.tokenHits.Load(), "token reused while valid")
	assert.Equal(t, int32(2), srv.userHits.Load())
	assert.Nil(t, rt.NewBreaker())
	assert.NoError(t, rt.Ping(ctx))
}

func TestRuntime_SQLiteTokenSurvivesRestart(t *testing.T) {
	srv := newFakeIntraServer(t)
	path := filepath.Join(t.TempDir(), "swifty.db")
	withSQLite := []func(*core.Config){
		core.WithTokenStoreBackend(core.TokenStoreSQLite),
		core.WithTokenStoreSQLitePath(path),
	}
	ctx := context.Background()

	rt := newTestRuntime(t, srv, withSQLite...)
	_, err := rt.Scheduler.FetchStudent(ctx, "alice").Wait(ctx)
	require.NoError(t, err)
	closeRuntime(t, rt)

	rt = newTestRuntime(t, srv, withSQLite...)
	defer closeRuntime(t, rt)
	_, err = rt.Scheduler.FetchStudent(ctx, "bob").Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), srv.tokenHits.Load(), "persisted token reused after restart")
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := core.NewConfig(core.WithTokenStoreBackend("etcd"))

	_, err := New(&cfg, Options{})
	require.Error(t, err)
}
