package node

// ActiveTotals is the read-side of the instance ledger needed to derive free
// capacity: resource sums over currently started instances.
type ActiveTotals interface {
	ActiveResourceTotals() (vcpus int, memoryMB int, err error)
}

// CapacityTracker derives the node's free resources from the ledger. It holds
// no state of its own: every call re-reads the ledger, so concurrent admission
// checks always see the latest committed rows.
type CapacityTracker struct {
	ledger   ActiveTotals
	capacity Capacity
}

func NewCapacityTracker(ledger ActiveTotals, capacity Capacity) *CapacityTracker {
	return &CapacityTracker{ledger: ledger, capacity: capacity}
}

func (t *CapacityTracker) Capacity() Capacity {
	return t.capacity
}

// FreeCapacity returns the vCPUs and memory not reserved by started instances.
func (t *CapacityTracker) FreeCapacity() (freeVcpus int, freeMemoryMB int, err error) {
	vcpus, memory, err := t.ledger.ActiveResourceTotals()
	if err != nil {
		return 0, 0, err
	}
	return t.capacity.MaxVcpus - vcpus, t.capacity.MaxMemoryMB - memory, nil
}
