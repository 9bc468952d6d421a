package customhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticTokenSource struct {
	mu    sync.Mutex
	token string
}

func (s *staticTokenSource) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticTokenSource) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

type fakeRefresher struct {
	mu     sync.Mutex
	calls  int
	token  string
	err    error
	source *staticTokenSource
}

func (f *fakeRefresher) Refresh(ctx context.Context, staleToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.source != nil {
		f.source.set(f.token)
	}
	return f.token, nil
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer s.Close()

	source := &staticTokenSource{token: "abc123"}
	command := New(
		WithHTTPClient(s.Client()),
		WithBearerToken(source),
	).Build()

	req, err := http.NewRequest(http.MethodGet, s.URL, nil)
	require.NoError(t, err)
	resp, err := command.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "Bearer abc123", gotAuth)
}

func TestBearerTokenSkippedWhenEmpty(t *testing.T) {
	var gotAuth string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer s.Close()

	command := New(
		WithHTTPClient(s.Client()),
		WithBearerToken(&staticTokenSource{}),
	).Build()

	req, err := http.NewRequest(http.MethodGet, s.URL, nil)
	require.NoError(t, err)
	resp, err := command.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Empty(t, gotAuth)
}

func TestUnauthorizedRetryReplaysOnce(t *testing.T) {
	var requests int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n == 1 {
			require.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		body, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, `{"k":"v"}`, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer s.Close()

	refresher := &fakeRefresher{token: "fresh"}
	command := New(
		WithHTTPClient(s.Client()),
		WithUnauthorizedRetry(refresher),
	).Build()

	req, err := http.NewRequest(http.MethodPost, s.URL, bytes.NewReader([]byte(`{"k":"v"}`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer stale")

	resp, err := command.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, refresher.calls)
	require.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

// The caller of a replayed request observes only the final result, never
// the intermediate 401.
func TestUnauthorizedRetrySecondUnauthorizedIsTerminal(t *testing.T) {
	var requests int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer s.Close()

	refresher := &fakeRefresher{token: "fresh"}
	command := New(
		WithHTTPClient(s.Client()),
		WithUnauthorizedRetry(refresher),
	).Build()

	req, err := http.NewRequest(http.MethodGet, s.URL, nil)
	require.NoError(t, err)

	resp, err := command.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	// one refresh, one replay, no second refresh for the replayed 401
	require.Equal(t, 1, refresher.calls)
	require.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestUnauthorizedRetryRefreshFailure(t *testing.T) {
	var requests int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer s.Close()

	refresher := &fakeRefresher{err: errors.New("refresh token rejected")}
	command := New(
		WithHTTPClient(s.Client()),
		WithUnauthorizedRetry(refresher),
	).Build()

	req, err := http.NewRequest(http.MethodGet, s.URL, nil)
	require.NoError(t, err)

	resp, err := command.Do(req)
	require.Nil(t, resp)
	require.ErrorContains(t, err, "refresh token rejected")
	require.EqualValues(t, 1, atomic.LoadInt32(&requests))
}

func TestConnectivityNoticeFiresOncePerFailure(t *testing.T) {
	var notices int32
	command := New(
		WithHTTPClient(&http.Client{}),
		WithConnectivityNotice(func(err error) {
			atomic.AddInt32(&notices, 1)
		}),
	).Build()

	// closed port: the request never produces a response
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)

	resp, doErr := command.Do(req)
	require.Nil(t, resp)

	var unreachable *UnreachableError
	require.ErrorAs(t, doErr, &unreachable)
	require.EqualValues(t, 1, atomic.LoadInt32(&notices))
}

// A transport failure never triggers the refresh path, and a 401 never
// triggers the connectivity notice.
func TestConnectivityAndUnauthorizedAreExclusive(t *testing.T) {
	refresher := &fakeRefresher{token: "fresh"}
	var notices int32

	command := New(
		WithHTTPClient(&http.Client{}),
		WithUnauthorizedRetry(refresher),
		WithConnectivityNotice(func(err error) {
			atomic.AddInt32(&notices, 1)
		}),
	).Build()

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)
	_, doErr := command.Do(req)
	require.Error(t, doErr)
	require.Equal(t, 0, refresher.calls)
	require.EqualValues(t, 1, atomic.LoadInt32(&notices))

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer fresh" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer s.Close()

	command = New(
		WithHTTPClient(s.Client()),
		WithUnauthorizedRetry(refresher),
		WithConnectivityNotice(func(err error) {
			atomic.AddInt32(&notices, 1)
		}),
	).Build()

	req, err = http.NewRequest(http.MethodGet, s.URL, nil)
	require.NoError(t, err)
	resp, doErr := command.Do(req)
	require.NoError(t, doErr)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, refresher.calls)
	require.EqualValues(t, 1, atomic.LoadInt32(&notices), "401 path must not fire a connectivity notice")
}

func TestRewindRequestWithoutGetBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://example.com", nil)
	require.NoError(t, err)
	req.Body = ioutil.NopCloser(bytes.NewReader([]byte("one-shot")))
	req.GetBody = nil

	_, rewindErr := rewindRequest(req)
	require.Error(t, rewindErr)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) middleware {
		return func(next httpCommandFunc) httpCommandFunc {
			return func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next(req)
			}
		}
	}

	command := chainMiddleware(mw("outer"), mw("inner"))(func(req *http.Request) (*http.Response, error) {
		order = append(order, "do")
		return nil, fmt.Errorf("stop")
	})

	_, err := command(httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	require.Error(t, err)
	require.Equal(t, []string{"outer", "inner", "do"}, order)
}
