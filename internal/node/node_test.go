package node

import (
	"errors"
	"testing"
)

func TestCoordinateDistance(t *testing.T) {
	a := Coordinate{X: 0, Y: 0}
	b := Coordinate{X: 3, Y: 4}

	if d := a.Distance(b); d != 5.0 {
		t.Errorf("expected distance 5, got %g", d)
	}
	if d := a.Distance(a); d != 0.0 {
		t.Errorf("expected zero self-distance, got %g", d)
	}
	if a.Distance(b) != b.Distance(a) {
		t.Error("distance should be symmetric")
	}
}

type fakeTotals struct {
	vcpus  int
	memory int
	err    error
}

func (f fakeTotals) ActiveResourceTotals() (int, int, error) {
	return f.vcpus, f.memory, f.err
}

func TestFreeCapacity(t *testing.T) {
	tracker := NewCapacityTracker(fakeTotals{vcpus: 3, memory: 1024}, Capacity{MaxVcpus: 8, MaxMemoryMB: 4096})

	freeVcpus, freeMemory, err := tracker.FreeCapacity()
	if err != nil {
		t.Fatal(err)
	}
	if freeVcpus != 5 || freeMemory != 3072 {
		t.Errorf("expected free (5, 3072), got (%d, %d)", freeVcpus, freeMemory)
	}
}

func TestFreeCapacityLedgerError(t *testing.T) {
	ledgerErr := errors.New("ledger down")
	tracker := NewCapacityTracker(fakeTotals{err: ledgerErr}, Capacity{MaxVcpus: 8, MaxMemoryMB: 4096})

	if _, _, err := tracker.FreeCapacity(); !errors.Is(err, ledgerErr) {
		t.Fatalf("expected the ledger error to surface, got %v", err)
	}
}
