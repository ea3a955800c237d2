// Package httpclient is the sole ingress/egress path to the Server: it
// owns authentication, global request concurrency, namespace path
// construction, and shared headers (spec §4.1). Every other package talks
// to the Server exclusively through a *Client or the *SpaceClient it
// hands out.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/config"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/retry"
	"github.com/p-blackswan/ksync/internal/version"
)

const defaultTimeout = 30 * time.Second

// Response is the structured result of one HTTP call: status, headers,
// and body, left uninterpreted by the core (spec §4.1 step 5 — "do not
// interpret non-2xx as a transport error unless the status is a
// network/timeout class").
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON decodes the response body into out.
func (r *Response) JSON(out interface{}) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return &apperrors.ProtocolError{Context: "decoding response body", Err: err}
	}
	return nil
}

// OK reports whether Status is a 2xx.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Client is the process-wide HTTP facility: one underlying http.Client,
// one semaphore, one parsed server version, one space registry. Every
// SpaceClient it hands out shares all four rather than copying them.
type Client struct {
	baseURL  string
	auth     config.Auth
	http     *http.Client
	sem      *semaphore
	registry manifest.Registry
	detected version.ServerVersion
	logger   zerolog.Logger
}

// Connect builds a Client: loads the space registry from projectDir's
// spaces.yml, then performs a single version-probe request against the
// Server's status endpoint (spec §4.1's construction contract).
func Connect(ctx context.Context, baseURL string, auth config.Auth, projectDir string, maxInflight int, logger zerolog.Logger) (*Client, error) {
	spacesFile, err := manifest.LoadSpacesFile(projectDir)
	if err != nil {
		return nil, fmt.Errorf("loading space registry: %w", err)
	}

	c := &Client{
		baseURL:  baseURL,
		auth:     auth,
		registry: manifest.NewRegistry(spacesFile),
		sem:      newSemaphore(maxInflight),
		logger:   logger.With().Str("component", "httpclient").Logger(),
	}
	c.http = &http.Client{
		Timeout:   defaultTimeout,
		Transport: &authTransport{auth: auth, base: http.DefaultTransport},
	}

	detected, err := c.probeVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("probing server version: %w", err)
	}
	c.detected = detected
	c.logger.Info().Str("version", detected.String()).Msg("connected to server")
	return c, nil
}

func (c *Client) probeVersion(ctx context.Context) (version.ServerVersion, error) {
	resp, err := c.request(ctx, http.MethodGet, "/api/status", nil, false, nil)
	if err != nil {
		return version.ServerVersion{}, err
	}
	if !resp.OK() {
		return version.ServerVersion{}, &apperrors.HTTPError{Method: http.MethodGet, Path: "/api/status", Status: resp.Status, Body: string(resp.Body)}
	}
	var payload struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := resp.JSON(&payload); err != nil {
		return version.ServerVersion{}, err
	}
	return version.Parse(payload.Version.Number)
}

// Version returns the version detected during Connect.
func (c *Client) Version() version.ServerVersion { return c.detected }

// Supports reports whether family is usable against the detected version.
func (c *Client) Supports(family version.Family) bool {
	return version.IsSupported(family, c.detected)
}

// UnsupportedReason renders why family is unsupported, for skip summaries.
func (c *Client) UnsupportedReason(family version.Family) string {
	return version.UnsupportedReason(family, c.detected)
}

// Registry exposes the loaded space registry (read-only use: fan-out
// resolution in the orchestrator).
func (c *Client) Registry() manifest.Registry { return c.registry }

// Space returns a namespace-bound sub-client for id. Fails if id is not in
// the loaded registry (spec §4.1's "namespace binding").
func (c *Client) Space(id string) (*SpaceClient, error) {
	if !c.registry.Has(id) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownSpace, id)
	}
	segment := ""
	if id != manifest.DefaultSpaceID {
		segment = "/s/" + id
	}
	return &SpaceClient{client: c, id: id, segment: segment}, nil
}

// SpaceClient is a namespace-bound view over a shared Client: same HTTP
// facilities, same semaphore, same connection pool — only the path prefix
// differs (spec §5: "shared by all namespace-bound sub-clients").
type SpaceClient struct {
	client  *Client
	id      string
	segment string
}

// ID returns the bound space id.
func (s *SpaceClient) ID() string { return s.id }

// Request issues one HTTP call scoped to this space, per spec §4.1's
// request primitive. internal adds the X-Elastic-Internal-Origin header
// required by workflow/agent/tool endpoints.
func (s *SpaceClient) Request(ctx context.Context, method, path string, body []byte, internal bool) (*Response, error) {
	full := s.prefixed(path)
	return s.client.request(ctx, method, full, body, internal, nil)
}

// RequestMultipart issues a multipart/form-data POST (saved-objects
// import), scoped to this space.
func (s *SpaceClient) RequestMultipart(ctx context.Context, method, path string, body []byte, contentType string, internal bool) (*Response, error) {
	full := s.prefixed(path)
	headers := map[string]string{"Content-Type": contentType}
	return s.client.request(ctx, method, full, body, internal, headers)
}

// prefixed applies the namespace segment exactly once: never if path
// already begins with it (spec §4.1 step 2, and invariant 4 in §8 — the
// wire path is never /s/{s}/s/{s}{p}).
func (s *SpaceClient) prefixed(path string) string {
	if s.segment == "" {
		return path
	}
	if len(path) >= len(s.segment) && path[:len(s.segment)] == s.segment {
		return path
	}
	return s.segment + path
}

// Supports delegates to the shared Client.
func (s *SpaceClient) Supports(family version.Family) bool { return s.client.Supports(family) }

// request is the single primitive every call funnels through: acquire a
// permit, build the request, send, release on every exit path. Transport
// failures and 5xx responses get the one automatic retry the core owns
// (spec §7); a 4xx is never retried and surfaces immediately as an
// HTTPError for the caller's adapter to interpret.
func (c *Client) request(ctx context.Context, method, path string, body []byte, internal bool, extraHeaders map[string]string) (*Response, error) {
	if err := c.sem.acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquiring request slot: %w", err)
	}
	defer c.sem.release()

	var result *Response
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return &apperrors.TransportError{Method: method, Path: path, Err: err}
		}
		if body != nil && extraHeaders["Content-Type"] == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("kbn-xsrf", "true")
		if internal {
			req.Header.Set("X-Elastic-Internal-Origin", "Kibana")
		}
		for k, v := range extraHeaders {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return &apperrors.TransportError{Method: method, Path: path, Err: err}
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &apperrors.TransportError{Method: method, Path: path, Err: readErr}
		}

		if resp.StatusCode >= 500 {
			return &apperrors.HTTPError{Method: method, Path: path, Status: resp.StatusCode, Body: string(data)}
		}
		result = &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}
		return nil
	})
	if err != nil {
		// A 5xx that survived its retry is still a Response, not a
		// transport failure — the caller (e.g. probeVersion) decides what
		// a non-2xx status means, same as any other status code.
		var httpErr *apperrors.HTTPError
		if errors.As(err, &httpErr) {
			return &Response{Status: httpErr.Status, Body: []byte(httpErr.Body)}, nil
		}
		return nil, err
	}
	return result, nil
}
