// Package sheetsync pushes attendance records to a spreadsheet web-app endpoint.
//
// The receiving script is expected to parse the JSON body and append one row
// per record (ID, Name, Date, Time, and a placeholder for the photo). Photos
// travel inline in the payload and are not stored by the receiver.
package sheetsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"haaziri/internal/records"
)

// ContentType avoids a CORS preflight on script endpoints that only accept simple requests.
const ContentType = "text/plain;charset=utf-8"

// Client posts record batches.
type Client struct {
	HTTP *http.Client
}

// New creates a client with the given timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}}
}

type payload struct {
	Records []records.Record `json:"records"`
}

// Push sends every record in one POST. Any transport error or non-2xx
// response is a failure; nothing is retried.
func (c *Client) Push(ctx context.Context, url string, recs []records.Record) error {
	if recs == nil {
		recs = []records.Record{}
	}
	body, err := json.Marshal(payload{Records: recs})
	if err != nil {
		return fmt.Errorf("sheetsync: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sheetsync: create request failed: %w", err)
	}
	req.Header.Set("Content-Type", ContentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sheetsync: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("sheetsync: endpoint error %s: %s", resp.Status, string(b))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
