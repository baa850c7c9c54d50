package registration

import (
	"errors"
	"time"

	"github.com/sparedge/sparedge/internal/node"
)

var UnavailableClientErr = errors.New("etcd client unavailable")
var IdRegistrationErr = errors.New("etcd error: could not complete the registration")
var KeepAliveErr = errors.New("the system can't renew your registration key")

const BASEDIR = "sparedge"

// NATS subjects used by the discovery collaborators.
const HeartbeatSubject = "sparedge.heartbeat"
const EmergencySubject = "sparedge.emergency"
const StatsSubject = "sparedge.stats"

// Registry tracks this node's membership key under its logical area.
type Registry struct {
	Area string
	Key  string

	id string
}

// Heartbeat is the periodic status broadcast of one node.
type Heartbeat struct {
	ID         string          `json:"id"`
	Coord      node.Coordinate `json:"coord"`
	Endpoint   string          `json:"endpoint"`
	FreeVcpus  int             `json:"free_vcpus"`
	FreeMemory int             `json:"free_memory"`
	Timestamp  time.Time       `json:"timestamp"`
}

// EmergencyEvent starts or stops an emergency window around a grid position.
type EmergencyEvent struct {
	Active bool            `json:"active"`
	Center node.Coordinate `json:"center"`
	Radius float64         `json:"radius"`
}
