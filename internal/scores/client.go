// internal/scores/client.go
//
// HTTP client for a remote scores service.
//   - GET  {base}/scores → JSON array of records (may be empty)
//   - POST {base}/scores → form field time=<seconds>; 201 on success, 400 if rejected
//
// Client satisfies game.Scores so a controller can report wins to a remote
// service.

package scores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrRejected is returned when the service answers 400.
var ErrRejected = errors.New("scores service rejected the submission")

// Client talks to the scores service.
type Client struct {
	base string
	http *http.Client
}

// NewClient targets baseURL. A nil hc uses a client with a 10s timeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// Best fetches the best-times board.
func (c *Client) Best(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/scores", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var out []Record
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode best times: %w", err)
	}
	return out, nil
}

// Submit posts a time in seconds.
func (c *Client) Submit(ctx context.Context, seconds int) error {
	form := url.Values{"time": {strconv.Itoa(seconds)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/scores", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusBadRequest:
		return ErrRejected
	default:
		return statusError(resp)
	}
}

// RecordTime implements game.Scores.
func (c *Client) RecordTime(ctx context.Context, seconds int) error {
	return c.Submit(ctx, seconds)
}

func statusError(resp *http.Response) error {
	return fmt.Errorf("scores service: %s", resp.Status)
}
