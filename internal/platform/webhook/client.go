package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// ErrTimeout is returned when the workflow does not answer within the
// configured interval. It is never retried here; the practitioner resubmits.
var ErrTimeout = errors.New("consultation webhook timed out")

// Request is the JSON body the workflow expects. Field names are part of the
// webhook contract.
type Request struct {
	Caso      string `json:"caso"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

// Client calls the external AI workflow that turns a case description into a
// treatment plan. One POST per consultation, bounded wait, no retries.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Consult posts the case and returns the raw response body. The body shape
// is not trusted; the caller hands it to the normalizer.
func (c *Client) Consult(ctx context.Context, req Request) ([]byte, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding consultation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("building consultation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("calling consultation webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("reading webhook response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("consultation webhook returned status %s, body: %s", resp.Status, string(body))
	}

	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
