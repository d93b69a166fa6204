package challenge

import (
	"sort"

	"github.com/agentauth/core/pkg/models"
)

// Registry maps driver name to Driver and selects among them for a
// requested dimension set (§4.5). It is written only at construction
// time and read-only thereafter, so it needs no internal locking (§5).
type Registry struct {
	drivers map[string]Driver
	order   []string // construction order, for stable iteration
}

// NewRegistry builds a registry pre-populated with the four built-in
// drivers.
func NewRegistry() *Registry {
	r := &Registry{drivers: make(map[string]Driver)}
	r.Register(CryptoNL{})
	r.Register(AmbiguousLogic{})
	r.Register(CodeExecution{})
	r.Register(MultiStep{})
	return r
}

// Register adds a driver to the registry under its own Name().
func (r *Registry) Register(d Driver) {
	if _, exists := r.drivers[d.Name()]; !exists {
		r.order = append(r.order, d.Name())
	}
	r.drivers[d.Name()] = d
}

// Get returns the driver registered under name, if any.
func (r *Registry) Get(name string) (Driver, bool) {
	d, ok := r.drivers[name]
	return d, ok
}

// Select scores each driver by the size of the intersection between
// requested dimensions and the driver's own dimension set, sorts
// descending, and returns the top count. When dimensions is empty every
// driver scores 1 — order among ties follows registration order, which
// is stable within a single process but not specified across processes.
func (r *Registry) Select(dimensions []models.ChallengeDimension, count int) []Driver {
	type scored struct {
		driver Driver
		score  int
	}
	want := make(map[models.ChallengeDimension]bool, len(dimensions))
	for _, d := range dimensions {
		want[d] = true
	}

	candidates := make([]scored, 0, len(r.order))
	for _, name := range r.order {
		d := r.drivers[name]
		score := 1
		if len(want) > 0 {
			score = 0
			for _, dim := range d.Dimensions() {
				if want[dim] {
					score++
				}
			}
		}
		candidates = append(candidates, scored{driver: d, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if count > len(candidates) {
		count = len(candidates)
	}
	if count < 0 {
		count = 0
	}
	out := make([]Driver, count)
	for i := 0; i < count; i++ {
		out[i] = candidates[i].driver
	}
	return out
}
