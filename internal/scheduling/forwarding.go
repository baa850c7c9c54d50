package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPForwarder dispatches requests to neighbor nodes over their /invoke
// endpoint. A timeout is treated identically to a transport failure.
type HTTPForwarder struct {
	client *http.Client
}

func NewHTTPForwarder(timeout time.Duration) *HTTPForwarder {
	return &HTTPForwarder{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPForwarder) Forward(ctx context.Context, endpoint string, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("http://%s/invoke", endpoint), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out Response
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		return &out, nil
	case http.StatusTooManyRequests:
		// the neighbor could not serve or place the request anywhere
		return nil, ErrExhausted
	default:
		return nil, fmt.Errorf("%w: remote returned %v", ErrBackendFailure, resp.StatusCode)
	}
}
