package customhttp

import "net/http"

type HTTPCommand interface {
	Do(req *http.Request) (resp *http.Response, err error)
}

type httpCommandFunc func(req *http.Request) (resp *http.Response, err error)

func (h httpCommandFunc) Do(req *http.Request) (resp *http.Response, err error) {
	return h(req)
}

type HTTPCommandBuilder struct {
	client      HTTPCommand
	middlewares []middleware
}

func New(options ...func(*HTTPCommandBuilder)) *HTTPCommandBuilder {
	builder := &HTTPCommandBuilder{
		client: http.DefaultClient,
	}

	for _, option := range options {
		option(builder)
	}
	return builder
}

func (b *HTTPCommandBuilder) Build() HTTPCommand {
	mw := chainMiddleware(b.middlewares...)
	return mw(b.client.Do)
}

// WithHTTPClient allows the user to supply their own http.Client
func WithHTTPClient(client HTTPCommand) func(*HTTPCommandBuilder) {
	return func(builder *HTTPCommandBuilder) {
		builder.client = client
	}
}

// WithBearerToken attaches the stored access token to every outgoing request.
// Requests issued while the store is empty (the login call itself) go out
// untouched.
func WithBearerToken(source TokenSource) func(*HTTPCommandBuilder) {
	return func(builder *HTTPCommandBuilder) {
		builder.middlewares = append(builder.middlewares, bearerTokenMiddleware(source))
	}
}

// WithUnauthorizedRetry replays a request once after a 401, using the
// credential produced by the shared refresher. A 401 on the replay is
// terminal.
func WithUnauthorizedRetry(refresher Refresher) func(*HTTPCommandBuilder) {
	return func(builder *HTTPCommandBuilder) {
		builder.middlewares = append(builder.middlewares, unauthorizedRetryMiddleware(refresher))
	}
}

// WithConnectivityNotice converts transport-level failures into
// UnreachableError and surfaces each one through the alerter exactly once.
func WithConnectivityNotice(alerter func(error)) func(*HTTPCommandBuilder) {
	return func(builder *HTTPCommandBuilder) {
		builder.middlewares = append(builder.middlewares, connectivityMiddleware(alerter))
	}
}
