package customhttp

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// TokenSource yields the current bearer credential. An empty string means no
// session is active and the request goes out without an Authorization header.
type TokenSource interface {
	AccessToken() string
}

// Refresher exchanges a stale access token for a fresh one. Implementations
// must coordinate concurrent callers so that at most one refresh call is in
// flight and every caller of the same refresh window receives the same new
// token.
type Refresher interface {
	Refresh(ctx context.Context, staleToken string) (string, error)
}

// UnreachableError marks a request that never produced a response: the
// server is down or the network is out. Distinct from any HTTP status error.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("server unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

type middleware func(next httpCommandFunc) httpCommandFunc

func chainMiddleware(m ...middleware) middleware {
	return func(final httpCommandFunc) httpCommandFunc {
		last := final
		for i := len(m) - 1; i >= 0; i-- {
			last = m[i](last)
		}

		return func(req *http.Request) (resp *http.Response, err error) {
			return last(req)
		}
	}
}

func bearerTokenMiddleware(source TokenSource) middleware {
	return func(next httpCommandFunc) httpCommandFunc {
		return func(req *http.Request) (resp *http.Response, err error) {
			if token := source.AccessToken(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			return next(req)
		}
	}
}

func unauthorizedRetryMiddleware(refresher Refresher) middleware {
	return func(next httpCommandFunc) httpCommandFunc {
		return func(req *http.Request) (resp *http.Response, err error) {
			resp, err = next(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			ctx := req.Context()
			contextLogger := log.WithContext(ctx)
			drainAndClose(resp)

			stale := bearerToken(req)
			token, refreshErr := refresher.Refresh(ctx, stale)
			if refreshErr != nil {
				contextLogger.WithError(refreshErr).Error("session refresh failed, request will not be replayed")
				return nil, fmt.Errorf("session refresh failed: %w", refreshErr)
			}

			replay, replayErr := rewindRequest(req)
			if replayErr != nil {
				contextLogger.WithError(replayErr).Error("could not rewind request body for replay")
				return nil, replayErr
			}
			replay.Header.Set("Authorization", "Bearer "+token)

			contextLogger.Info("replaying request with refreshed credential")
			// A second 401 here propagates to the caller as-is.
			return next(replay)
		}
	}
}

func connectivityMiddleware(alerter func(error)) middleware {
	return func(next httpCommandFunc) httpCommandFunc {
		return func(req *http.Request) (resp *http.Response, err error) {
			resp, err = next(req)
			if err == nil {
				return resp, nil
			}
			if _, ok := err.(*UnreachableError); ok {
				return nil, err
			}
			unreachable := &UnreachableError{Err: err}
			if alerter != nil {
				alerter(unreachable)
			}
			return nil, unreachable
		}
	}
}

// rewindRequest returns a request ready to be sent again. Requests with a
// consumed one-shot body cannot be replayed.
func rewindRequest(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	req.Body = body
	return req, nil
}

func bearerToken(req *http.Request) string {
	return strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(ioutil.Discard, resp.Body)
	_ = resp.Body.Close()
}
