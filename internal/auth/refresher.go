package auth

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/session"
)

// Refresher coordinates token renewal across concurrent requests. The
// capacity-1 channel doubles as the waiter queue: the first request to fill
// it performs the refresh, every request that 401'd during that window
// blocks on the channel and then picks up the already-renewed credential
// instead of starting a second refresh.
type Refresher struct {
	client ClientInterface
	store  *session.Store

	// protects the refresh call itself; see Refresh
	refreshing chan struct{}

	// outcome of the last failed window, read and written only while
	// holding the refreshing slot
	failedToken string
	failedErr   error
}

func NewRefresher(client ClientInterface, store *session.Store) *Refresher {
	r := &Refresher{
		client:     client,
		store:      store,
		refreshing: make(chan struct{}, 1),
	}
	return r
}

// Refresh returns a credential valid to replay a request that failed with
// the given stale token.
//
// Invariant: at most one refresh call is in flight. Waiters are released in
// enqueue order with the token produced by that single call. On refresh
// failure the session is cleared (idempotently) and every waiter receives
// the error.
func (r *Refresher) Refresh(ctx context.Context, staleToken string) (string, error) {
	select {
	case r.refreshing <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-r.refreshing }()

	// A refresh that finished while we were queued already rotated the
	// credential; reuse it rather than spending the refresh token again.
	current := r.store.Get()
	if current.AccessToken != "" && current.AccessToken != staleToken {
		return current.AccessToken, nil
	}

	// A waiter queued behind a failed window gets the failure that ended
	// its window, not a misleading missing-token error.
	if r.failedErr != nil && staleToken == r.failedToken {
		return "", r.failedErr
	}

	if current.RefreshToken == "" {
		r.store.Clear()
		return "", fmt.Errorf("no refresh token available")
	}

	contextLogger := log.WithContext(ctx)
	contextLogger.Info("access token rejected, refreshing session")

	resp, err := r.client.Refresh(ctx, current.RefreshToken)
	if err != nil {
		contextLogger.WithError(err).Error("token refresh failed, clearing session")
		r.store.Clear()
		r.failedToken = staleToken
		r.failedErr = err
		return "", err
	}

	r.failedToken = ""
	r.failedErr = nil
	r.store.SetTokens(resp.AccessToken, resp.RefreshToken)
	return resp.AccessToken, nil
}
