package routing

import (
	"testing"
	"time"

	"github.com/sparedge/sparedge/internal/node"
)

func entry(id string, freeVcpus, freeMemory int, x, y float64) Entry {
	return Entry{
		ID:         id,
		Coord:      node.Coordinate{X: x, Y: y},
		Endpoint:   id + ":8085",
		FreeVcpus:  freeVcpus,
		FreeMemory: freeMemory,
		UpdatedAt:  time.Now(),
	}
}

func TestRankPrefersLargestMargin(t *testing.T) {
	candidates := []Entry{
		entry("a", 1, 4096, 0, 0),
		entry("b", 3, 4096, 0, 0),
		entry("c", 5, 4096, 0, 0),
	}

	ranked := LargestMarginPolicy{}.Rank(candidates, 1, 128, node.Coordinate{})
	if ranked[0].ID != "c" || ranked[1].ID != "b" || ranked[2].ID != "a" {
		t.Errorf("expected order c,b,a, got %s,%s,%s", ranked[0].ID, ranked[1].ID, ranked[2].ID)
	}
}

func TestRankMemoryBreaksVcpuTie(t *testing.T) {
	candidates := []Entry{
		entry("low", 4, 1024, 0, 0),
		entry("high", 4, 8192, 0, 0),
	}

	ranked := LargestMarginPolicy{}.Rank(candidates, 1, 128, node.Coordinate{})
	if ranked[0].ID != "high" {
		t.Errorf("expected the neighbor with more free memory first, got %s", ranked[0].ID)
	}
}

func TestRankDistanceBreaksResourceTie(t *testing.T) {
	candidates := []Entry{
		entry("far", 4, 4096, 10, 0),
		entry("near", 4, 4096, 1, 0),
	}

	ranked := LargestMarginPolicy{}.Rank(candidates, 1, 128, node.Coordinate{})
	if ranked[0].ID != "near" {
		t.Errorf("expected the closest neighbor first, got %s", ranked[0].ID)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	a := []Entry{
		entry("n2", 4, 4096, 1, 1),
		entry("n1", 4, 4096, 1, 1),
		entry("n3", 4, 4096, 1, 1),
	}
	b := []Entry{a[2], a[0], a[1]}

	p := LargestMarginPolicy{}
	ra := p.Rank(a, 1, 128, node.Coordinate{})
	rb := p.Rank(b, 1, 128, node.Coordinate{})
	for i := range ra {
		if ra[i].ID != rb[i].ID {
			t.Fatalf("ranking depends on input order: %v vs %v", ra, rb)
		}
	}
	if ra[0].ID != "n1" {
		t.Errorf("identical candidates should be ordered by id, got %s first", ra[0].ID)
	}
}
