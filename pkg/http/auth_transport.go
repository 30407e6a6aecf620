package http

import "net/http"

// authTransport adds a default bearer token. A request that already carries
// an Authorization header keeps it, so callers can override the key per call.
type authTransport struct {
	token     string
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token == "" || req.Header.Get("Authorization") != "" {
		return t.transport.RoundTrip(req)
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set("Authorization", "Bearer "+t.token)

	return t.transport.RoundTrip(reqCopy)
}

func WithAuthToken(token string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			token:     token,
			transport: rt,
		}
	})
}

// WithBearerToken sets the Authorization header of a single request.
func WithBearerToken(token string) RequestOpt {
	return WithHeader("Authorization", "Bearer "+token)
}
