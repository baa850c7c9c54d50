package config

// Port for the node API server
const API_PORT = "api.port"

// IP address advertised to other nodes
const API_IP = "api.ip"

// Etcd server hostname
const ETCD_ADDRESS = "etcd.address"

// Logical area under which the node registers itself
const REGISTRY_AREA = "registry.area"

// NATS broker address used for heartbeats and emergency broadcasts
const BROKER_ADDRESS = "broker.address"

// Interval between heartbeat broadcasts (seconds)
const HEARTBEAT_INTERVAL = "broker.heartbeat.interval"

// vCPUs reserved for guest instances on this node
const NODE_VCPUS = "node.vcpus"

// Memory reserved for guest instances on this node (in MB)
const NODE_MEMORY_MB = "node.memory"

// Grid coordinate of the node
const NODE_COORD_X = "node.coordinate.x"
const NODE_COORD_Y = "node.coordinate.y"

// Path of the SQLite file backing the instance ledger
const LEDGER_PATH = "ledger.path"

// Freshness TTL for routing entries (seconds)
const ROUTING_TTL = "routing.ttl"

// Interval between routing-table eviction sweeps (seconds)
const ROUTING_EVICTION_INTERVAL = "routing.eviction.interval"

// Maximum number of forwarding hops per request
const SCHED_MAX_HOPS = "scheduling.maxhops"

// Candidates tried per hop before giving up (1 means no alternate retry)
const SCHED_FORWARD_ATTEMPTS = "scheduling.forward.attempts"

// Timeout for a single forwarding dispatch (seconds)
const SCHED_FORWARD_TIMEOUT = "scheduling.forward.timeout"

// Timeout for invoking the guest endpoint once started (seconds)
const SCHED_GUEST_TIMEOUT = "scheduling.guest.timeout"

// Guest kernel identifier recorded with every instance
const BACKEND_KERNEL = "backend.kernel"

// Port at which started guests accept traffic
const BACKEND_GUEST_PORT = "backend.guest.port"

// Prometheus metrics exposition (true/false)
const METRICS_ENABLED = "metrics.enabled"

// Length of one aggregation epoch (seconds)
const METRICS_EPOCH = "metrics.epoch"
