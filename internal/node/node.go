package node

import (
	"errors"
	"fmt"
	"math"
)

var OutOfResourcesErr = errors.New("not enough resources for function execution")

// Coordinate is a position on the logical grid the fleet is arranged on.
// It is assigned by the discovery collaborator and never measured.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (c Coordinate) Distance(other Coordinate) float64 {
	dx := c.X - other.X
	dy := c.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g,%g)", c.X, c.Y)
}

// Identity describes this node to the rest of the fleet.
type Identity struct {
	ID       string
	Endpoint string // host:port of the API server
	Coord    Coordinate
}

// Capacity is the configured resource ceiling for guest instances on this node.
type Capacity struct {
	MaxVcpus    int
	MaxMemoryMB int
}

func (c Capacity) String() string {
	return fmt.Sprintf("[CPUs: %d - Mem: %d]", c.MaxVcpus, c.MaxMemoryMB)
}
