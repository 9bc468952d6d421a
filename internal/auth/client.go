// Package auth talks to the /auth endpoints and owns the session refresh
// coordination. Login and refresh deliberately bypass the instrumented
// command chain: attaching a stale bearer credential to the call that issues
// credentials would be wrong.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/model"
	"github.com/fciautomation/payroll-admin-client/internal/session"
)

type ClientInterface interface {
	Login(ctx context.Context, username, password string) (*model.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.RefreshResponse, error)
	Status(ctx context.Context) (*model.SessionStatus, error)
}

func NewClient(endpoint string, httpClient *http.Client, store *session.Store) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		URL:        endpoint,
		HTTPClient: httpClient,
		Store:      store,
	}
}

type Client struct {
	URL        string
	HTTPClient *http.Client
	Store      *session.Store
}

// Login exchanges credentials for a session and stores it.
func (c *Client) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	contextLogger := log.WithContext(ctx)

	payload, err := json.Marshal(model.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildLoginEndpoint(), bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(httpRequest)
	if err != nil {
		contextLogger.WithError(err).Errorf("there was an error calling the login API. %v", err)
		return nil, err
	}

	defer func() {
		if err = resp.Body.Close(); err != nil {
			fmt.Println("Error when closing:", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		contextLogger.Infof("status returned from auth service %s ", resp.Status)
		return nil, fmt.Errorf("auth service (Login) returned status: %s ", resp.Status)
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		contextLogger.WithError(err).Errorf("error reading auth API resp body (%s)", body)
		return nil, err
	}

	response := &model.LoginResponse{}
	if err := json.Unmarshal(body, response); err != nil {
		contextLogger.WithError(err).Errorf("there was an error un marshalling the auth API resp. %v", err)
		return nil, err
	}

	c.Store.Set(session.Session{
		AccessToken:  response.Token,
		RefreshToken: response.RefreshToken,
		Role:         response.Role,
		SessionID:    response.SessionID,
	})
	return response, nil
}

// Refresh exchanges the refresh token for a new access token. It does not
// touch the store; the Refresher owns that so waiters observe one consistent
// credential swap.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*model.RefreshResponse, error) {
	contextLogger := log.WithContext(ctx)

	payload, err := json.Marshal(model.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildRefreshEndpoint(), bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(httpRequest)
	if err != nil {
		contextLogger.WithError(err).Errorf("there was an error calling the refresh API. %v", err)
		return nil, err
	}

	defer func() {
		if err = resp.Body.Close(); err != nil {
			fmt.Println("Error when closing:", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		contextLogger.Infof("status returned from auth service %s ", resp.Status)
		return nil, fmt.Errorf("auth service (Refresh) returned status: %s ", resp.Status)
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		contextLogger.WithError(err).Errorf("error reading auth API resp body (%s)", body)
		return nil, err
	}

	response := &model.RefreshResponse{}
	if err := json.Unmarshal(body, response); err != nil {
		contextLogger.WithError(err).Errorf("there was an error un marshalling the auth API resp. %v", err)
		return nil, err
	}
	return response, nil
}

// Status fetches the server session id. The session client uses it to detect
// a backend restart: a stored id that no longer matches means every issued
// token is gone and the user must sign in again.
func (c *Client) Status(ctx context.Context) (*model.SessionStatus, error) {
	contextLogger := log.WithContext(ctx)

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildStatusEndpoint(), nil)
	if err != nil {
		return nil, err
	}
	if token := c.Store.AccessToken(); token != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(httpRequest)
	if err != nil {
		contextLogger.WithError(err).Errorf("there was an error calling the auth status API. %v", err)
		return nil, err
	}

	defer func() {
		if err = resp.Body.Close(); err != nil {
			fmt.Println("Error when closing:", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		contextLogger.Infof("status returned from auth service %s ", resp.Status)
		return nil, fmt.Errorf("auth service (Status) returned status: %s ", resp.Status)
	}

	response := &model.SessionStatus{}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		contextLogger.WithError(err).Errorf("there was an error un marshalling the auth API resp. %v", err)
		return nil, err
	}
	return response, nil
}

// CheckServerSession compares the stored session id against the live one and
// clears the session on mismatch. Returns true when the session is still
// valid.
func (c *Client) CheckServerSession(ctx context.Context) (bool, error) {
	stored := c.Store.Get().SessionID
	if stored == "" {
		return true, nil
	}
	status, err := c.Status(ctx)
	if err != nil {
		return false, err
	}
	if status.SessionID != stored {
		log.WithContext(ctx).Warn("backend restarted, stored session is invalid")
		c.Store.Clear()
		return false, nil
	}
	return true, nil
}

func (c *Client) buildLoginEndpoint() string {
	return c.URL + "/auth/login"
}

func (c *Client) buildRefreshEndpoint() string {
	return c.URL + "/auth/refresh"
}

func (c *Client) buildStatusEndpoint() string {
	return c.URL + "/auth/status"
}
