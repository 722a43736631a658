package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ccboard/ccboard/internal/api"
)

// The closed set of client-side failure kinds. Network problems are wrapped
// around ErrUploadFailed or surfaced as-is; everything else maps to one of
// these so callers can react without string matching.
var (
	ErrNotJoined       = errors.New("not joined: run 'ccboard join <username>' first")
	ErrInvalidURL      = errors.New("invalid server URL")
	ErrInvalidResponse = errors.New("invalid server response")
	ErrUploadFailed    = errors.New("upload failed")
)

// RegistrationError carries the server's reason for a rejected registration.
type RegistrationError struct {
	Reason string
}

func (e *RegistrationError) Error() string {
	return "registration failed: " + e.Reason
}

const (
	requestTimeout = 30 * time.Second
	uploadTimeout  = 2 * time.Minute
	uploadRetries  = 3
)

// Client talks to a ccboard server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient validates the server URL and returns a client for its /api/v1.
func NewClient(server string) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return &Client{
		baseURL: server + "/api/v1",
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, ErrInvalidResponse
	}
	return resp.StatusCode, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrInvalidResponse
	}
	return nil
}

// Register claims a username for this device.
func (c *Client) Register(ctx context.Context, username, deviceID string) error {
	var resp api.RegisterResponse
	status, err := c.postJSON(ctx, "/users/register", api.RegisterRequest{
		Username: username,
		DeviceID: deviceID,
	}, &resp)
	if err != nil {
		return err
	}
	if status != http.StatusOK || !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = fmt.Sprintf("server returned status %d", status)
		}
		return &RegistrationError{Reason: reason}
	}
	return nil
}

// SyncStatus fetches the server-side sync watermark for a user.
func (c *Client) SyncStatus(ctx context.Context, username string) (*api.SyncStatusResponse, error) {
	var resp api.SyncStatusResponse
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(username)+"/sync-status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upload sends a batch of daily usage. Transient failures (network errors
// and 5xx replies) are retried with exponential backoff; the whole batch is
// bounded by a single deadline.
func (c *Client) Upload(ctx context.Context, username string, days []api.DailyUsageData) (*api.UploadResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	req := api.UploadRequest{Username: username, DailyUsage: days}

	var resp api.UploadResponse
	operation := func() error {
		// Decoding merges into existing fields, so a retried attempt must
		// not inherit errors from an earlier reply.
		resp = api.UploadResponse{}
		status, err := c.postJSON(ctx, "/usage/upload", req, &resp)
		if err != nil {
			if errors.Is(err, ErrInvalidResponse) {
				return backoff.Permanent(err)
			}
			return err // network error, retry
		}
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("server returned status %d", status)
		}
		if status != http.StatusOK {
			// Validation rejects are not transient.
			return backoff.Permanent(uploadError(&resp))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uploadRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return &resp, nil
}

func uploadError(resp *api.UploadResponse) error {
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrUploadFailed, resp.Errors[0])
	}
	return ErrUploadFailed
}

// Leaderboard fetches a ranked page of users.
func (c *Client) Leaderboard(ctx context.Context, metric, period string, limit, offset int) (*api.LeaderboardResponse, error) {
	query := url.Values{}
	if metric != "" {
		query.Set("metric", metric)
	}
	if period != "" {
		query.Set("period", period)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	path := "/leaderboard"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp api.LeaderboardResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserStats fetches a user's totals, global ranks and recent activity.
func (c *Client) UserStats(ctx context.Context, username string) (*api.UserStatsResponse, error) {
	var resp api.UserStatsResponse
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(username)+"/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
