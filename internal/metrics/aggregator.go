package metrics

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/sparedge/sparedge/internal/ledger"
	"github.com/sparedge/sparedge/internal/node"
)

// EpochStats is one aggregation record. HopsAvg is nil when no instance
// terminated within the epoch.
type EpochStats struct {
	TimestampMs int64    `json:"timestamp_ms"`
	HopsAvg     *float64 `json:"hops_avg"`
	VcpusSum    int64    `json:"vcpus_sum"`
	MemorySum   int64    `json:"memory_sum"`
	Requests    int64    `json:"requests"`
}

// Aggregator periodically summarizes the ledger into per-epoch records and
// appends them to a stats file named after the node's grid position.
type Aggregator struct {
	ledger *ledger.Ledger
	out    io.Writer

	mu        sync.Mutex
	epoch     int
	lastClose time.Time
}

// NewAggregator creates the stats file node_x<X>_y<Y>.stats.data and writes
// its header.
func NewAggregator(l *ledger.Ledger, coord node.Coordinate) (*Aggregator, error) {
	f, err := os.Create(fmt.Sprintf("node_x%g_y%g.stats.data", coord.X, coord.Y))
	if err != nil {
		return nil, err
	}
	return NewAggregatorWithWriter(l, f)
}

func NewAggregatorWithWriter(l *ledger.Ledger, out io.Writer) (*Aggregator, error) {
	_, err := fmt.Fprintf(out, "%-15s %-10s %-10s %-10s %-10s\n",
		"epoch", "hops_avg", "vcpus_sum", "memory_sum", "requests")
	if err != nil {
		return nil, err
	}
	return &Aggregator{ledger: l, out: out, lastClose: time.Now()}, nil
}

// CloseEpoch summarizes the ledger over [lastClose, now), appends one row to
// the stats file and returns the record. An epoch with no terminated
// instances yields zero sums and an undefined average.
func (a *Aggregator) CloseEpoch() (EpochStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	summary, err := a.ledger.Summarize(a.lastClose, now)
	if err != nil {
		return EpochStats{}, err
	}

	stats := EpochStats{
		TimestampMs: now.UnixMilli(),
		HopsAvg:     summary.HopsAvg,
		VcpusSum:    summary.VcpusSum,
		MemorySum:   summary.MemorySum,
		Requests:    summary.Requests,
	}

	hopsAvg := 0.0
	if stats.HopsAvg != nil {
		hopsAvg = *stats.HopsAvg
	}
	_, err = fmt.Fprintf(a.out, "%-15d %-10.3f %-10d %-10d %-10d\n",
		a.epoch, hopsAvg, stats.VcpusSum, stats.MemorySum, stats.Requests)
	if err != nil {
		return EpochStats{}, err
	}

	a.epoch++
	a.lastClose = now
	return stats, nil
}

// Run closes one epoch per interval until stop is closed.
func (a *Aggregator) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := a.CloseEpoch(); err != nil {
				log.Printf("Could not close metrics epoch: %v", err)
			}
		case <-stop:
			return
		}
	}
}
