package scheduling

import (
	"context"
	"errors"

	"github.com/sparedge/sparedge/internal/node"
)

// Request is the unit of work flowing through the engine, and the wire shape
// used for node-to-node forwarding. Hops is incremented on every forward.
type Request struct {
	Function  string          `json:"function"`
	Image     string          `json:"image"`
	Vcpus     int             `json:"vcpus"`
	Memory    int             `json:"memory"`
	Payload   string          `json:"payload,omitempty"`
	Emergency bool            `json:"emergency"`
	Hops      int             `json:"hops"`
	MaxHops   int             `json:"max_hops"`
	Origin    node.Coordinate `json:"origin"`
}

// Response reports a served request back to the caller.
type Response struct {
	Result     string `json:"result"`
	Node       string `json:"node"`
	InstanceID int64  `json:"instance_id"`
	Hops       int    `json:"hops"`
}

// Terminal failure outcomes surfaced to the caller. The caller (possibly a
// forwarding node one hop upstream) must not re-forward after receiving one.
var ErrExhausted = errors.New("no node reachable within hop budget")
var ErrBackendFailure = errors.New("local execution failed")
var ErrRoutingStale = errors.New("no fresh forwarding candidate")

// ErrTransport marks a forwarding dispatch that did not complete; unlike the
// terminal errors above it triggers a bounded retry on an alternate neighbor.
var ErrTransport = errors.New("forwarding dispatch failed")

// Forwarder dispatches a request to a neighbor's endpoint.
type Forwarder interface {
	Forward(ctx context.Context, endpoint string, req *Request) (*Response, error)
}
