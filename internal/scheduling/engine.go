package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sparedge/sparedge/internal/backend"
	"github.com/sparedge/sparedge/internal/ledger"
	"github.com/sparedge/sparedge/internal/node"
	"github.com/sparedge/sparedge/internal/routing"
)

// Config bounds the engine's forwarding behavior.
type Config struct {
	Kernel          string
	MaxHops         int
	ForwardAttempts int // candidates tried per hop before giving up
	GuestTimeout    time.Duration
}

// Engine decides, for each invocation request, whether the local node executes
// it, forwards it, or fails it. Requests are handled concurrently; only the
// admission transaction itself is serialized (inside the ledger).
type Engine struct {
	identity  node.Identity
	ledger    *ledger.Ledger
	tracker   *node.CapacityTracker
	table     *routing.Table
	backend   backend.Backend
	forwarder Forwarder
	policy    routing.SelectionPolicy
	cfg       Config

	emergencyMu sync.RWMutex
	inEmergency bool
}

func NewEngine(identity node.Identity, l *ledger.Ledger, tracker *node.CapacityTracker,
	table *routing.Table, b backend.Backend, f Forwarder, policy routing.SelectionPolicy, cfg Config) *Engine {
	if cfg.ForwardAttempts <= 0 {
		cfg.ForwardAttempts = 2
	}
	if cfg.GuestTimeout <= 0 {
		cfg.GuestTimeout = 30 * time.Second
	}
	return &Engine{
		identity:  identity,
		ledger:    l,
		tracker:   tracker,
		table:     table,
		backend:   b,
		forwarder: f,
		policy:    policy,
		cfg:       cfg,
	}
}

// SetEmergency activates or clears the emergency window. While the node is
// inside the emergency area, non-emergency requests are pushed outward instead
// of competing for local capacity.
func (e *Engine) SetEmergency(active bool, center node.Coordinate, radius float64) {
	e.emergencyMu.Lock()
	if active {
		e.inEmergency = e.identity.Coord.Distance(center) <= radius
	} else {
		e.inEmergency = false
	}
	inArea := e.inEmergency
	e.emergencyMu.Unlock()

	if active {
		e.table.MarkEmergencyArea(center, radius)
		if inArea {
			log.Printf("Node %s is inside the emergency area", e.identity.ID)
		}
	} else {
		e.table.ClearEmergency()
	}
}

func (e *Engine) InEmergencyArea() bool {
	e.emergencyMu.RLock()
	defer e.emergencyMu.RUnlock()
	return e.inEmergency
}

// Submit runs one request through the admission/forwarding state machine.
func (e *Engine) Submit(ctx context.Context, req *Request) (*Response, error) {
	if req.MaxHops <= 0 {
		req.MaxHops = e.cfg.MaxHops
	}
	if req.Hops == 0 {
		// a request entering the system originates here; candidate ranking
		// measures grid distance from this position on every later hop
		req.Origin = e.identity.Coord
	} else {
		log.Printf("Request for '%s' arrived with %d hops", req.Function, req.Hops)
	}

	// During an emergency, work unrelated to the emergency leaves the area.
	if e.InEmergencyArea() && !req.Emergency {
		return e.forward(ctx, req)
	}

	inst := &ledger.Instance{
		Functions: req.Function,
		Kernel:    e.cfg.Kernel,
		Image:     req.Image,
		Vcpus:     req.Vcpus,
		Memory:    req.Memory,
		Hops:      req.Hops,
	}
	err := e.ledger.Admit(inst, e.tracker.Capacity())
	if err == nil {
		return e.execute(ctx, req, inst)
	}
	if errors.Is(err, node.OutOfResourcesErr) {
		return e.forward(ctx, req)
	}
	return nil, err
}

// execute drives the backend for an admitted request. Failures are recorded
// and reported; they are never retried locally.
func (e *Engine) execute(ctx context.Context, req *Request, inst *ledger.Instance) (*Response, error) {
	guest, err := e.backend.Start(ctx, req.Image, e.cfg.Kernel, req.Vcpus, req.Memory)
	if err != nil {
		e.markFailed(inst.ID)
		return nil, fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}
	if err := e.ledger.SetEndpoint(inst.ID, guest.IP, guest.Port); err != nil {
		log.Printf("Could not record endpoint for instance %d: %v", inst.ID, err)
	}

	result, err := e.invokeGuest(ctx, guest, req.Payload)
	if err != nil {
		if stopErr := e.backend.Stop(ctx, guest); stopErr != nil {
			log.Printf("Could not stop failed guest %s: %v", guest.Handle, stopErr)
		}
		e.markFailed(inst.ID)
		return nil, fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}

	if err := e.backend.Stop(ctx, guest); err != nil {
		log.Printf("Could not stop guest %s: %v", guest.Handle, err)
	}
	if err := e.ledger.MarkTerminated(inst.ID); err != nil {
		log.Printf("Could not mark instance %d terminated: %v", inst.ID, err)
	}

	return &Response{
		Result:     result,
		Node:       e.identity.ID,
		InstanceID: inst.ID,
		Hops:       req.Hops,
	}, nil
}

func (e *Engine) markFailed(id int64) {
	if err := e.ledger.MarkFailed(id); err != nil {
		log.Printf("Could not mark instance %d failed: %v", id, err)
	}
}

// forward picks the best candidates from a routing snapshot and dispatches the
// request, trying at most ForwardAttempts neighbors on transport failures.
func (e *Engine) forward(ctx context.Context, req *Request) (*Response, error) {
	if req.Hops >= req.MaxHops {
		return nil, ErrExhausted
	}

	candidates, staleOnly := e.table.Candidates(req.Vcpus, req.Memory, time.Now())
	if len(candidates) == 0 {
		if staleOnly {
			return nil, fmt.Errorf("%w: %w", ErrExhausted, ErrRoutingStale)
		}
		return nil, ErrExhausted
	}
	ranked := e.policy.Rank(candidates, req.Vcpus, req.Memory, req.Origin)

	attempts := e.cfg.ForwardAttempts
	if attempts > len(ranked) {
		attempts = len(ranked)
	}

	fwd := *req
	fwd.Hops++
	for i := 0; i < attempts; i++ {
		resp, err := e.forwarder.Forward(ctx, ranked[i].Endpoint, &fwd)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, ErrTransport) {
			log.Printf("Forwarding to %s failed: %v", ranked[i].ID, err)
			continue
		}
		// the neighbor reported a terminal failure; propagate it to the
		// original caller instead of amplifying the request further
		return nil, err
	}
	return nil, ErrExhausted
}
