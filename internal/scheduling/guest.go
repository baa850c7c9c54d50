package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sparedge/sparedge/internal/backend"
)

// guestPayload wraps the opaque payload handed to a guest.
type guestPayload struct {
	Payload string `json:"payload"`
}

// invokeGuest delivers the request payload to a started guest and returns its
// output. The call is bounded by GuestTimeout.
func (e *Engine) invokeGuest(ctx context.Context, g backend.Guest, payload string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.GuestTimeout)
	defer cancel()

	url := fmt.Sprintf("http://%s:%d", g.IP, g.Port)

	var httpReq *http.Request
	var err error
	if payload == "" {
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	} else {
		var body []byte
		body, err = json.Marshal(guestPayload{Payload: payload})
		if err == nil {
			httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if httpReq != nil {
				httpReq.Header.Set("Content-Type", "application/json")
			}
		}
	}
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("guest returned: %v", resp.StatusCode)
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
