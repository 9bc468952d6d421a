package config

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/auth"
	"github.com/fciautomation/payroll-admin-client/internal/customhttp"
	"github.com/fciautomation/payroll-admin-client/internal/guard"
	"github.com/fciautomation/payroll-admin-client/internal/session"
)

type ApplicationConfig struct {
	envValues   *envConfig
	store       *session.Store
	authClient  *auth.Client
	apiClient   api.ClientInterface
	routeGuard  *guard.Guard
	emailClient *ses.SES
}

// SessionStore returns the credential store shared by every client.
func (cfg *ApplicationConfig) SessionStore() *session.Store {
	return cfg.store
}

// AuthEndpoint returns the login/refresh/status client.
func (cfg *ApplicationConfig) AuthEndpoint() *auth.Client {
	return cfg.authClient
}

// APIEndpoint returns the payroll backend client.
func (cfg *ApplicationConfig) APIEndpoint() api.ClientInterface {
	return cfg.apiClient
}

// RouteGuard returns the role-based navigation guard.
func (cfg *ApplicationConfig) RouteGuard() *guard.Guard {
	return cfg.routeGuard
}

// EmailClient returns the ses client with config
func (cfg *ApplicationConfig) EmailClient() *ses.SES {
	return cfg.emailClient
}

// EmailTo returns the to email address
func (cfg *ApplicationConfig) EmailTo() string {
	return cfg.envValues.EmailTo
}

// EmailFrom returns the From email address
func (cfg *ApplicationConfig) EmailFrom() string {
	return cfg.envValues.EmailFrom
}

// DownloadDir returns where report and document downloads are written.
func (cfg *ApplicationConfig) DownloadDir() string {
	return cfg.envValues.DownloadDir
}

// NewApplicationConfig loads config values from environment and initialises
// the client stack: session store, auth client, refresher and the
// instrumented command chain every API call runs through.
func NewApplicationConfig(alerter func(error)) *ApplicationConfig {
	envValues := NewEnvironmentConfig()
	store := session.NewStore()

	httpClient := &http.Client{Timeout: time.Duration(envValues.HTTPTimeoutSec) * time.Second}
	authClient := auth.NewClient(envValues.APIBaseURL, httpClient, store)
	refresher := auth.NewRefresher(authClient, store)

	httpCommand := NewHTTPCommand(httpClient, store, refresher, alerter)
	apiClient := api.NewClient(envValues.APIBaseURL, httpCommand)

	emailClient := ses.New(awssession.New(), aws.NewConfig().WithRegion(envValues.AWSRegion))

	return &ApplicationConfig{
		envValues:   envValues,
		store:       store,
		authClient:  authClient,
		apiClient:   apiClient,
		routeGuard:  guard.New(store),
		emailClient: emailClient,
	}
}

// NewHTTPCommand returns the HTTP client with the full interceptor chain:
// bearer attach, single-flight 401 refresh-and-replay, connectivity notice.
func NewHTTPCommand(client *http.Client, store *session.Store, refresher customhttp.Refresher, alerter func(error)) customhttp.HTTPCommand {
	httpCommand := customhttp.New(
		customhttp.WithHTTPClient(client),
		customhttp.WithBearerToken(store),
		customhttp.WithUnauthorizedRetry(refresher),
		customhttp.WithConnectivityNotice(alerter),
	).Build()

	return httpCommand
}
