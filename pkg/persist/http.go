package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SaveRequest is the body of a save request to a remote server.
type SaveRequest struct {
	Key   string   `json:"key"`
	Value []string `json:"value"`
}

// HTTPBackend persists through a remote server. GET on the endpoint returns
// the whole snapshot and POST replaces the values of one key.
type HTTPBackend struct {
	endpoint string
	client   *http.Client
}

// NewHTTPBackend returns a backend for endpoint, usually
// "http://host:port/api/db". A nil client means http.DefaultClient.
func NewHTTPBackend(endpoint string, client *http.Client) (*HTTPBackend, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid remote url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid remote url %q: scheme must be http or https", endpoint)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{endpoint: u.String(), client: client}, nil
}

func (h *HTTPBackend) Load(ctx context.Context) (map[string][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if err = checkStatus(resp); err != nil {
		return nil, err
	}

	var raw map[string][]any
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	out := make(map[string][]string, len(raw))
	for k, v := range raw {
		out[k] = textValues(v)
	}
	return out, nil
}

func (h *HTTPBackend) Save(ctx context.Context, key string, values []string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if values == nil {
		values = []string{}
	}
	body, err := json.Marshal(SaveRequest{Key: key, Value: values})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if err = checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return nil
}

// Close drops idle connections of the client.
func (h *HTTPBackend) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		Method: resp.Request.Method,
		URL:    resp.Request.URL.String(),
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(msg)),
	}
}
