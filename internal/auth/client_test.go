package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fciautomation/payroll-admin-client/internal/model"
	"github.com/fciautomation/payroll-admin-client/internal/session"
)

func TestLoginStoresSession(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.RequestURI)
		require.Empty(t, r.Header.Get("Authorization"), "login must not carry a bearer credential")

		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "admin", req.Username)

		resp := model.LoginResponse{
			Token:        "mock-token:session-9",
			RefreshToken: "refresh-1",
			Role:         model.RoleAdmin,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer s.Close()

	store := session.NewStore()
	client := NewClient(s.URL, s.Client(), store)

	resp, err := client.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, resp.Role)

	sess := store.Get()
	require.Equal(t, "mock-token:session-9", sess.AccessToken)
	require.Equal(t, "refresh-1", sess.RefreshToken)
	require.Equal(t, model.RoleAdmin, sess.Role)
	// session id parsed out of the token when not sent explicitly
	require.Equal(t, "session-9", sess.SessionID)
}

func TestLoginRejected(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer s.Close()

	store := session.NewStore()
	client := NewClient(s.URL, s.Client(), store)

	_, err := client.Login(context.Background(), "admin", "wrong")
	require.ErrorContains(t, err, "auth service (Login) returned status")
	require.Empty(t, store.Get().AccessToken)
}

func TestRefreshDoesNotTouchStore(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.RequestURI)
		var req model.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "refresh-1", req.RefreshToken)

		resp := model.RefreshResponse{AccessToken: "fresh", RefreshToken: "refresh-2"}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer s.Close()

	store := session.NewStore()
	store.Set(session.Session{AccessToken: "stale", RefreshToken: "refresh-1", Role: model.RoleUser})
	client := NewClient(s.URL, s.Client(), store)

	resp, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "fresh", resp.AccessToken)
	require.Equal(t, "stale", store.Get().AccessToken, "the refresher owns the credential swap")
}

func TestCheckServerSession(t *testing.T) {
	tests := []struct {
		name      string
		liveID    string
		storedID  string
		wantValid bool
	}{
		{name: "matching-session", liveID: "s-1", storedID: "s-1", wantValid: true},
		{name: "server-restarted", liveID: "s-2", storedID: "s-1", wantValid: false},
	}

	for _, test := range tests {
		tt := test
		t.Run(tt.name, func(t *testing.T) {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/auth/status", r.RequestURI)
				require.NoError(t, json.NewEncoder(w).Encode(model.SessionStatus{SessionID: tt.liveID}))
			}))
			defer s.Close()

			store := session.NewStore()
			store.Set(session.Session{AccessToken: "tok", Role: model.RoleUser, SessionID: tt.storedID})
			client := NewClient(s.URL, s.Client(), store)

			valid, err := client.CheckServerSession(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantValid, valid)
			if !tt.wantValid {
				require.Empty(t, store.Get().AccessToken, "mismatch clears the session")
			}
		})
	}
}

func TestCheckServerSessionWithoutStoredID(t *testing.T) {
	store := session.NewStore()
	client := NewClient("http://unused", nil, store)

	valid, err := client.CheckServerSession(context.Background())
	require.NoError(t, err)
	require.True(t, valid)
}
