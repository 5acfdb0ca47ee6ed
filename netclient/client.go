// Package netclient talks to the network service that owns the model.
package netclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go_net_viz/ml"
)

const (
	StatePath = "/api/network/state"
	TrainPath = "/api/network/train"
	ResetPath = "/api/network/reset"

	// RequestIDHeader carries the id logged for every exchange.
	RequestIDHeader = "X-Request-Id"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

// Client issues one request per call and imposes no deadline of its own;
// callers bound requests through the context.
type Client struct {
	base string
	hc   *http.Client
}

// New returns a client for the service rooted at base, e.g.
// "http://localhost:8080". A nil hc selects http.DefaultClient.
func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), hc: hc}
}

func (c *Client) Base() string { return c.base }

// State fetches the current snapshot.
func (c *Client) State(ctx context.Context) (ml.NetworkState, error) {
	return c.do(ctx, "state", http.MethodGet, StatePath, nil)
}

// Train runs epochs of training on patterns and returns the resulting snapshot.
func (c *Client) Train(ctx context.Context, patterns []ml.TrainingPattern, epochs int) (ml.NetworkState, error) {
	if patterns == nil {
		patterns = []ml.TrainingPattern{}
	}
	return c.do(ctx, "train", http.MethodPost, TrainPath, ml.TrainRequest{Patterns: patterns, Epochs: epochs})
}

// Reset reinitialises the remote network.
func (c *Client) Reset(ctx context.Context) (ml.NetworkState, error) {
	return c.do(ctx, "reset", http.MethodPost, ResetPath, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) (ml.NetworkState, error) {
	var state ml.NetworkState
	id := uuid.NewString()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return state, errors.Wrapf(err, "%s [%s]: encode request", op, id)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return state, errors.Wrapf(err, "%s [%s]", op, id)
	}
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return state, errors.Wrapf(err, "%s [%s]", op, id)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return state, errors.WithMessagef(&StatusError{
			Op:   op,
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(snippet)),
		}, "[%s]", id)
	}

	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return ml.NetworkState{}, errors.Wrapf(err, "%s [%s]: decode response", op, id)
	}
	return state, nil
}
