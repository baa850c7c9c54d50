package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sparedge/sparedge/internal/api"
	"github.com/sparedge/sparedge/internal/backend"
	"github.com/sparedge/sparedge/internal/config"
	"github.com/sparedge/sparedge/internal/ledger"
	"github.com/sparedge/sparedge/internal/metrics"
	"github.com/sparedge/sparedge/internal/node"
	"github.com/sparedge/sparedge/internal/registration"
	"github.com/sparedge/sparedge/internal/routing"
	"github.com/sparedge/sparedge/internal/scheduling"
	"github.com/sparedge/sparedge/utils"
)

func main() {
	configFileName := ""
	if len(os.Args) > 1 {
		configFileName = os.Args[1]
	}
	config.ReadConfiguration(configFileName)

	coord := node.Coordinate{
		X: config.GetFloat(config.NODE_COORD_X, 0.0),
		Y: config.GetFloat(config.NODE_COORD_Y, 0.0),
	}
	capacity := node.Capacity{
		MaxVcpus:    config.GetInt(config.NODE_VCPUS, runtime.NumCPU()),
		MaxMemoryMB: config.GetInt(config.NODE_MEMORY_MB, 1024),
	}

	l, err := ledger.Open(config.GetString(config.LEDGER_PATH, "sparedge.db"))
	if err != nil {
		log.Fatalf("Could not open the instance ledger: %v", err)
	}
	tracker := node.NewCapacityTracker(l, capacity)

	ttl := time.Duration(config.GetInt(config.ROUTING_TTL, 30)) * time.Second
	evictionInterval := time.Duration(config.GetInt(config.ROUTING_EVICTION_INTERVAL, 60)) * time.Second
	table := routing.NewTable(ttl, 2*ttl)
	stopSweeper := table.StartSweeper(evictionInterval)

	dockerBackend, err := backend.NewDockerBackend(config.GetInt(config.BACKEND_GUEST_PORT, 8080))
	if err != nil {
		log.Fatalf("Could not connect to the Docker daemon: %v", err)
	}

	forwardTimeout := time.Duration(config.GetInt(config.SCHED_FORWARD_TIMEOUT, 10)) * time.Second
	forwarder := scheduling.NewHTTPForwarder(forwardTimeout)

	// register to etcd, this way the node is visible to the others under a given local area
	registry := &registration.Registry{Area: config.GetString(config.REGISTRY_AREA, "ROME")}

	// before register checkout other servers into the local area
	neighbors, err := registry.GetAll()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Found %d other nodes in the area", len(neighbors))

	apiPort := config.GetInt(config.API_PORT, 8085)
	hostIP := config.GetString(config.API_IP, "")
	if hostIP == "" {
		ip, err := utils.GetOutboundIp()
		if err != nil {
			log.Fatalf("Could not determine the outbound IP: %v", err)
		}
		hostIP = ip.String()
	}
	endpoint := fmt.Sprintf("%s:%d", hostIP, apiPort)

	id, err := registry.RegisterToEtcd(endpoint)
	if err != nil {
		log.Fatal(err)
	}

	identity := node.Identity{ID: id, Endpoint: endpoint, Coord: coord}
	log.Printf("Node %s at %s on grid position %s", identity.ID, identity.Endpoint, coord)

	engine := scheduling.NewEngine(identity, l, tracker, table, dockerBackend, forwarder,
		routing.LargestMarginPolicy{}, scheduling.Config{
			Kernel:          config.GetString(config.BACKEND_KERNEL, "linux"),
			MaxHops:         config.GetInt(config.SCHED_MAX_HOPS, 10),
			ForwardAttempts: config.GetInt(config.SCHED_FORWARD_ATTEMPTS, 2),
			GuestTimeout:    time.Duration(config.GetInt(config.SCHED_GUEST_TIMEOUT, 30)) * time.Second,
		})

	monitor, err := registration.NewMonitor(config.GetString(config.BROKER_ADDRESS, "nats://127.0.0.1:4222"),
		identity, tracker, table, engine)
	if err != nil {
		log.Fatalf("Could not connect to the broker: %v", err)
	}

	aggregator, err := metrics.NewAggregator(l, coord)
	if err != nil {
		log.Fatalf("Could not create the stats file: %v", err)
	}
	monitor.StatsTrigger = func() {
		if _, err := aggregator.CloseEpoch(); err != nil {
			log.Printf("Could not close metrics epoch: %v", err)
		}
	}

	stopAggregator := make(chan struct{})
	epoch := time.Duration(config.GetInt(config.METRICS_EPOCH, 60)) * time.Second
	go aggregator.Run(epoch, stopAggregator)

	heartbeatInterval := time.Duration(config.GetInt(config.HEARTBEAT_INTERVAL, 5)) * time.Second
	if err := monitor.Start(heartbeatInterval); err != nil {
		log.Fatalf("Could not subscribe to the broker: %v", err)
	}

	go metrics.Init()

	e := echo.New()
	handlers := &api.Handlers{
		Identity: identity,
		Engine:   engine,
		Ledger:   l,
		Tracker:  tracker,
		Table:    table,
	}
	api.RegisterTerminationHandler(registry, monitor, e, stopSweeper, func() { close(stopAggregator) })
	api.StartAPIServer(e, handlers)
}
