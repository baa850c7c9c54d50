package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func startNeighbor(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestForwardDelivery(t *testing.T) {
	var received Request
	endpoint := startNeighbor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/invoke" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("could not decode forwarded request: %v", err)
		}
		json.NewEncoder(w).Encode(Response{Result: "ok", Node: "neighbor", Hops: received.Hops})
	})

	f := NewHTTPForwarder(2 * time.Second)
	resp, err := f.Forward(context.Background(), endpoint, &Request{Function: "f", Image: "img", Vcpus: 1, Memory: 128, Hops: 3})
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if received.Function != "f" || received.Hops != 3 {
		t.Errorf("forwarded request not delivered intact: %+v", received)
	}
	if resp.Node != "neighbor" || resp.Hops != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestForwardRemoteDenial(t *testing.T) {
	endpoint := startNeighbor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not servable", http.StatusTooManyRequests)
	})

	f := NewHTTPForwarder(2 * time.Second)
	_, err := f.Forward(context.Background(), endpoint, &Request{Function: "f"})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("a remote 429 should surface as ErrExhausted, got %v", err)
	}
}

func TestForwardRemoteFailure(t *testing.T) {
	endpoint := startNeighbor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	f := NewHTTPForwarder(2 * time.Second)
	_, err := f.Forward(context.Background(), endpoint, &Request{Function: "f"})
	if !errors.Is(err, ErrBackendFailure) {
		t.Fatalf("a remote 500 should surface as ErrBackendFailure, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Error("a completed dispatch must not look like a transport failure")
	}
}

func TestForwardTransportFailure(t *testing.T) {
	f := NewHTTPForwarder(500 * time.Millisecond)
	// nothing listens here
	_, err := f.Forward(context.Background(), "127.0.0.1:1", &Request{Function: "f"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("a refused connection should surface as ErrTransport, got %v", err)
	}
}
