package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrCredentialRevoked is returned when the provider rejects the connection's
// access token. It is terminal for the connection and must not be retried.
var ErrCredentialRevoked = errors.New("provider credential revoked")

const (
	syncPath       = "/transactions/sync"
	defaultTimeout = 30 * time.Second
	maxElapsed     = 2 * time.Minute
)

// Client calls the upstream account-aggregation API. It is constructed
// explicitly and injected into every component that needs it; there is no
// package-level singleton.
type Client struct {
	baseURL  string
	clientID string
	secret   string
	http     *http.Client
}

// NewClient creates a provider API client. httpClient may be nil, in which
// case a default client with a request timeout is used.
func NewClient(baseURL, clientID, secret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		http:     httpClient,
	}
}

// SyncTransactions fetches one page of the transactions diff for the given
// access token, resuming from cursor (nil for the first page). Transient
// failures (network, 429, 5xx) are retried with exponential backoff; auth
// failures surface as ErrCredentialRevoked without retrying.
func (c *Client) SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*SyncResponse, error) {
	body, err := json.Marshal(syncRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		Cursor:      cursor,
		Count:       count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync request: %w", err)
	}

	var resp *SyncResponse
	operation := func() error {
		resp, err = c.doSync(ctx, body)
		if err != nil {
			if errors.Is(err, ErrCredentialRevoked) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) doSync(ctx context.Context, body []byte) (*SyncResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+syncPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusOK:
		return parseSyncResponse(raw)
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrCredentialRevoked, string(raw))
	default:
		var apiErr apiError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.ErrorCode != "" {
			return nil, fmt.Errorf("provider error %s (%s): %s", apiErr.ErrorCode, apiErr.ErrorType, apiErr.ErrorMessage)
		}
		return nil, fmt.Errorf("provider returned status %d", httpResp.StatusCode)
	}
}

func parseSyncResponse(raw []byte) (*SyncResponse, error) {
	resp := &SyncResponse{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("failed to parse sync response: %w", err)
	}
	return resp, nil
}
