package http

import "net/http"

type headerTransport struct {
	header    string
	value     string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set(t.header, t.value)
	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken sends a bearer token with every request. An empty token adds nothing.
func WithAuthToken(token string) HttpOpts {
	if token == "" {
		return func(*httpConfig) {}
	}
	return WithHeaderValue("Authorization", "Bearer "+token)
}

// WithUserAgent identifies the client to upstream APIs
func WithUserAgent(agent string) HttpOpts {
	return WithHeaderValue("User-Agent", agent)
}

// WithHeaderValue sets a fixed header on every request
func WithHeaderValue(header, value string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &headerTransport{
			header:    header,
			value:     value,
			transport: rt,
		}
	})
}
