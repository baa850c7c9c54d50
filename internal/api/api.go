package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sparedge/sparedge/internal/ledger"
	"github.com/sparedge/sparedge/internal/metrics"
	"github.com/sparedge/sparedge/internal/node"
	"github.com/sparedge/sparedge/internal/routing"
	"github.com/sparedge/sparedge/internal/scheduling"
)

// Handlers exposes the node over HTTP. A request rejected with 429 tells the
// upstream node that this node could neither serve nor place it.
type Handlers struct {
	Identity node.Identity
	Engine   *scheduling.Engine
	Ledger   *ledger.Ledger
	Tracker  *node.CapacityTracker
	Table    *routing.Table
}

// InvokeFunction handles an invocation request, either submitted by a local
// client or forwarded by a neighbor node.
func (h *Handlers) InvokeFunction(c echo.Context) error {
	var req scheduling.Request
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid invocation request")
	}
	metrics.RequestsArrived.Inc()

	resp, err := h.Engine.Submit(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, scheduling.ErrExhausted) || errors.Is(err, node.OutOfResourcesErr) {
			metrics.RequestsDropped.Inc()
			return c.String(http.StatusTooManyRequests, "not servable\n")
		}
		metrics.RequestsDropped.Inc()
		log.Printf("Invocation failed: %v", err)
		return c.String(http.StatusInternalServerError, "invocation failed\n")
	}
	if resp.Hops > req.Hops {
		metrics.RequestsForwarded.Inc()
	}
	return c.JSON(http.StatusOK, resp)
}

// GetInstances lists all instance rows in the ledger.
func (h *Handlers) GetInstances(c echo.Context) error {
	instances, err := h.Ledger.List()
	if err != nil {
		return c.String(http.StatusInternalServerError, "ledger unavailable\n")
	}
	return c.JSON(http.StatusOK, instances)
}

// GetResources reports the node's currently free resources.
func (h *Handlers) GetResources(c echo.Context) error {
	freeVcpus, freeMemory, err := h.Tracker.FreeCapacity()
	if err != nil {
		return c.String(http.StatusInternalServerError, "ledger unavailable\n")
	}
	return c.JSON(http.StatusOK, map[string]int{
		"vcpus":  freeVcpus,
		"memory": freeMemory,
	})
}

// GetEmergency reports whether the node is inside the emergency area.
func (h *Handlers) GetEmergency(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.InEmergencyArea())
}

// GetStatus reports the node identity and fleet view.
func (h *Handlers) GetStatus(c echo.Context) error {
	capacity := h.Tracker.Capacity()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":         h.Identity.ID,
		"endpoint":   h.Identity.Endpoint,
		"coordinate": h.Identity.Coord,
		"max_vcpus":  capacity.MaxVcpus,
		"max_memory": capacity.MaxMemoryMB,
		"neighbors":  h.Table.Len(),
		"emergency":  h.Engine.InEmergencyArea(),
	})
}
