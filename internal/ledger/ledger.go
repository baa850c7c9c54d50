package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sparedge/sparedge/internal/node"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("no such instance")
var ErrInvalidTransition = errors.New("illegal instance status transition")
var ErrPersistence = errors.New("instance ledger unavailable")

// Ledger is the durable record of instance lifecycle and resource accounting.
// It is the single source of truth for the node's current resource usage.
type Ledger struct {
	db *gorm.DB

	// admitMu serializes admission transactions so that the capacity re-check
	// and the started-row insertion are atomic with respect to each other.
	admitMu sync.Mutex
}

// Open opens (or creates) the SQLite-backed ledger at the given path.
// Use ":memory:" for an ephemeral ledger.
func Open(path string) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := db.AutoMigrate(&Instance{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &Ledger{db: db}, nil
}

// Create inserts a row as-is. Status defaults to started and created_at to the
// current time when unset.
func (l *Ledger) Create(inst *Instance) (int64, error) {
	if inst.Status == "" {
		inst.Status = StatusStarted
	}
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now()
	}
	if err := l.db.Create(inst).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return inst.ID, nil
}

// Admit is the admission transaction: it recomputes the resource sums over
// started rows and inserts inst with status started only if it fits within the
// given capacity. Returns node.OutOfResourcesErr when it does not fit.
func (l *Ledger) Admit(inst *Instance, capacity node.Capacity) error {
	l.admitMu.Lock()
	defer l.admitMu.Unlock()

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var vcpus, memory int
		row := tx.Model(&Instance{}).
			Select("COALESCE(SUM(vcpus), 0), COALESCE(SUM(memory), 0)").
			Where("status = ?", StatusStarted).
			Row()
		if err := row.Scan(&vcpus, &memory); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if inst.Vcpus > capacity.MaxVcpus-vcpus || inst.Memory > capacity.MaxMemoryMB-memory {
			return node.OutOfResourcesErr
		}
		inst.Status = StatusStarted
		inst.CreatedAt = time.Now()
		if err := tx.Create(inst).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil
	})
	return err
}

// SetEndpoint records the network endpoint of a started guest once the
// execution backend reports readiness.
func (l *Ledger) SetEndpoint(id int64, ip string, port int) error {
	res := l.db.Model(&Instance{}).Where("id = ? AND status = ?", id, StatusStarted).
		Updates(map[string]interface{}{"ip": ip, "port": port})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkTerminated transitions a started instance to terminated.
func (l *Ledger) MarkTerminated(id int64) error {
	return l.setStatus(id, StatusTerminated)
}

// MarkFailed transitions a started instance to failed.
func (l *Ledger) MarkFailed(id int64) error {
	return l.setStatus(id, StatusFailed)
}

func (l *Ledger) setStatus(id int64, target Status) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var inst Instance
		if err := tx.First(&inst, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !canTransition(inst.Status, target) {
			return ErrInvalidTransition
		}
		if err := tx.Model(&inst).Update("status", target).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil
	})
}

// ActiveResourceTotals returns the vcpus/memory sums over started rows.
func (l *Ledger) ActiveResourceTotals() (int, int, error) {
	var vcpus, memory int
	row := l.db.Model(&Instance{}).
		Select("COALESCE(SUM(vcpus), 0), COALESCE(SUM(memory), 0)").
		Where("status = ?", StatusStarted).
		Row()
	if err := row.Scan(&vcpus, &memory); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return vcpus, memory, nil
}

// Summary aggregates terminated instances over one epoch. HopsAvg is nil when
// no instance terminated in the range.
type Summary struct {
	HopsAvg   *float64
	VcpusSum  int64
	MemorySum int64
	Requests  int64
}

// Summarize aggregates over rows with status terminated and created_at within
// the half-open range [start, end).
func (l *Ledger) Summarize(start, end time.Time) (Summary, error) {
	var requests, vcpus, memory int64
	var hops sql.NullFloat64
	row := l.db.Model(&Instance{}).
		Select("COUNT(id), COALESCE(SUM(vcpus), 0), COALESCE(SUM(memory), 0), AVG(hops)").
		Where("status = ? AND created_at >= ? AND created_at < ?", StatusTerminated, start, end).
		Row()
	if err := row.Scan(&requests, &vcpus, &memory, &hops); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s := Summary{VcpusSum: vcpus, MemorySum: memory, Requests: requests}
	if hops.Valid && requests > 0 {
		s.HopsAvg = &hops.Float64
	}
	return s, nil
}

// List returns all instance rows, oldest first.
func (l *Ledger) List() ([]Instance, error) {
	var instances []Instance
	if err := l.db.Order("id").Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return instances, nil
}
