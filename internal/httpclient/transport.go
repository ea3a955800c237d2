package httpclient

import (
	"net/http"

	"github.com/p-blackswan/ksync/internal/config"
)

// authTransport injects the configured credential header on every request,
// grounded on platform-agent/internal/github/app.go's tokenTransport
// (a RoundTripper wrapping a base transport to stamp one header per call).
type authTransport struct {
	auth config.Auth
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	switch t.auth.Kind {
	case config.AuthBasic:
		req2.SetBasicAuth(t.auth.Username, t.auth.Password)
	case config.AuthAPIKey:
		req2.Header.Set("Authorization", "ApiKey "+t.auth.Token)
	}
	return t.base.RoundTrip(req2)
}
