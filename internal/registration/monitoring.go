package registration

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sparedge/sparedge/internal/node"
	"github.com/sparedge/sparedge/internal/routing"
	"github.com/sparedge/sparedge/internal/scheduling"
)

// Monitor connects the node to the broadcast bus: it publishes this node's
// heartbeats and feeds neighbor heartbeats and emergency events into the
// routing table and the engine.
type Monitor struct {
	nc       *nats.Conn
	identity node.Identity
	tracker  *node.CapacityTracker
	table    *routing.Table
	engine   *scheduling.Engine

	// StatsTrigger, when set, is invoked on every stats broadcast to close an
	// aggregation epoch.
	StatsTrigger func()

	stopHeartbeat chan struct{}
}

func NewMonitor(brokerURL string, identity node.Identity, tracker *node.CapacityTracker,
	table *routing.Table, engine *scheduling.Engine) (*Monitor, error) {
	opts := []nats.Option{
		nats.Name("sparedge-" + identity.ID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(brokerURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		nc:            nc,
		identity:      identity,
		tracker:       tracker,
		table:         table,
		engine:        engine,
		stopHeartbeat: make(chan struct{}),
	}, nil
}

// Start subscribes to the fleet subjects and begins heartbeating.
func (m *Monitor) Start(heartbeatInterval time.Duration) error {
	if _, err := m.nc.Subscribe(HeartbeatSubject, m.onHeartbeat); err != nil {
		return err
	}
	if _, err := m.nc.Subscribe(EmergencySubject, m.onEmergency); err != nil {
		return err
	}
	if _, err := m.nc.Subscribe(StatsSubject, m.onStats); err != nil {
		return err
	}

	go m.heartbeatLoop(heartbeatInterval)
	return nil
}

func (m *Monitor) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.publishHeartbeat(); err != nil {
				log.Printf("heartbeat publish failed: %v", err)
			}
		case <-m.stopHeartbeat:
			return
		}
	}
}

func (m *Monitor) publishHeartbeat() error {
	freeVcpus, freeMemory, err := m.tracker.FreeCapacity()
	if err != nil {
		return err
	}
	hb := Heartbeat{
		ID:         m.identity.ID,
		Coord:      m.identity.Coord,
		Endpoint:   m.identity.Endpoint,
		FreeVcpus:  freeVcpus,
		FreeMemory: freeMemory,
		Timestamp:  time.Now(),
	}
	payload, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	return m.nc.Publish(HeartbeatSubject, payload)
}

func (m *Monitor) onHeartbeat(msg *nats.Msg) {
	var hb Heartbeat
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		log.Printf("malformed heartbeat: %v", err)
		return
	}
	if hb.ID == m.identity.ID {
		return
	}
	m.table.Upsert(hb.ID, hb.Coord, hb.Endpoint, hb.FreeVcpus, hb.FreeMemory, hb.Timestamp)
}

func (m *Monitor) onEmergency(msg *nats.Msg) {
	var ev EmergencyEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		log.Printf("malformed emergency event: %v", err)
		return
	}
	if ev.Active {
		log.Printf("Emergency mode activated at %s with radius %g", ev.Center, ev.Radius)
	} else {
		log.Printf("Emergency mode deactivated")
	}
	m.engine.SetEmergency(ev.Active, ev.Center, ev.Radius)
}

func (m *Monitor) onStats(msg *nats.Msg) {
	if m.StatsTrigger != nil {
		m.StatsTrigger()
	}
}

// Close drains the connection so in-flight heartbeats are delivered. Drain
// completes asynchronously; wait for the closed callback before returning,
// with a deadline in case the broker is gone.
func (m *Monitor) Close() {
	close(m.stopHeartbeat)
	if m.nc == nil {
		return
	}

	drained := make(chan struct{})
	m.nc.SetClosedHandler(func(*nats.Conn) {
		close(drained)
	})
	if err := m.nc.Drain(); err != nil {
		log.Printf("nats drain failed: %v", err)
		m.nc.Close()
		return
	}

	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		log.Printf("nats drain timed out")
		m.nc.Close()
	}
}
