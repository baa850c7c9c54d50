package routing

import (
	"testing"
	"time"

	"github.com/sparedge/sparedge/internal/node"
)

func TestCandidatesFreshness(t *testing.T) {
	now := time.Now()
	tbl := NewTable(30*time.Second, 60*time.Second)

	tbl.Upsert("fresh", node.Coordinate{}, "10.0.0.1:8085", 4, 4096, now)
	tbl.Upsert("boundary", node.Coordinate{}, "10.0.0.2:8085", 4, 4096, now.Add(-30*time.Second))
	tbl.Upsert("stale", node.Coordinate{}, "10.0.0.3:8085", 4, 4096, now.Add(-31*time.Second))

	candidates, staleOnly := tbl.Candidates(1, 128, now)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.ID == "stale" {
			t.Errorf("stale entry should have been excluded")
		}
	}
	if !staleOnly {
		t.Error("the stale entry failed only the freshness check")
	}
}

func TestCandidatesCapacity(t *testing.T) {
	now := time.Now()
	tbl := NewTable(30*time.Second, 60*time.Second)

	tbl.Upsert("big", node.Coordinate{}, "10.0.0.1:8085", 8, 8192, now)
	tbl.Upsert("small", node.Coordinate{}, "10.0.0.2:8085", 1, 128, now)

	candidates, staleOnly := tbl.Candidates(2, 1024, now)
	if len(candidates) != 1 || candidates[0].ID != "big" {
		t.Fatalf("expected only the big neighbor, got %v", candidates)
	}
	if staleOnly {
		t.Error("an undersized fresh neighbor must not be reported as stale")
	}
}

func TestCandidatesStaleOnlyDisqualifier(t *testing.T) {
	now := time.Now()
	tbl := NewTable(30*time.Second, 60*time.Second)

	// fresh but too small, and stale but too small: neither is a
	// staleness-only exclusion
	tbl.Upsert("small", node.Coordinate{}, "10.0.0.1:8085", 1, 128, now)
	tbl.Upsert("smallStale", node.Coordinate{}, "10.0.0.2:8085", 1, 128, now.Add(-time.Minute))

	candidates, staleOnly := tbl.Candidates(2, 1024, now)
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %v", candidates)
	}
	if staleOnly {
		t.Error("capacity was a disqualifier for every entry")
	}

	tbl.Upsert("bigStale", node.Coordinate{}, "10.0.0.3:8085", 8, 8192, now.Add(-time.Minute))
	if _, staleOnly = tbl.Candidates(2, 1024, now); !staleOnly {
		t.Error("a sufficiently large neighbor aged out, staleOnly should hold")
	}
}

func TestCandidatesEmergency(t *testing.T) {
	now := time.Now()
	tbl := NewTable(30*time.Second, 60*time.Second)

	tbl.Upsert("inside", node.Coordinate{X: 1, Y: 0}, "10.0.0.1:8085", 4, 4096, now)
	tbl.Upsert("outside", node.Coordinate{X: 9, Y: 0}, "10.0.0.2:8085", 4, 4096, now)

	tbl.MarkEmergencyArea(node.Coordinate{}, 2.0)
	candidates, _ := tbl.Candidates(1, 128, now)
	if len(candidates) != 1 || candidates[0].ID != "outside" {
		t.Fatalf("expected only the outside neighbor, got %v", candidates)
	}

	tbl.ClearEmergency()
	if candidates, _ = tbl.Candidates(1, 128, now); len(candidates) != 2 {
		t.Errorf("expected both neighbors after the emergency cleared")
	}
}

func TestSweepEvictsOldEntries(t *testing.T) {
	now := time.Now()
	tbl := NewTable(30*time.Second, 60*time.Second)

	tbl.Upsert("silent", node.Coordinate{}, "10.0.0.1:8085", 4, 4096, now.Add(-2*time.Minute))
	tbl.Upsert("alive", node.Coordinate{}, "10.0.0.2:8085", 4, 4096, now)

	if evicted := tbl.Sweep(now); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if tbl.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", tbl.Len())
	}
}

func TestUpsertRefreshesEntry(t *testing.T) {
	now := time.Now()
	tbl := NewTable(30*time.Second, 60*time.Second)

	tbl.Upsert("n1", node.Coordinate{}, "10.0.0.1:8085", 4, 4096, now.Add(-time.Minute))
	if candidates, _ := tbl.Candidates(1, 128, now); len(candidates) != 0 {
		t.Fatal("expected no fresh candidate")
	}

	tbl.Upsert("n1", node.Coordinate{}, "10.0.0.1:8085", 2, 2048, now)
	candidates, _ := tbl.Candidates(1, 128, now)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate after refresh, got %d", len(candidates))
	}
	if candidates[0].FreeVcpus != 2 {
		t.Errorf("expected refreshed free vcpus 2, got %d", candidates[0].FreeVcpus)
	}
}
