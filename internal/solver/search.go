package solver

import (
	"sort"
	"time"
)

// selectUnassigned picks the next variable by minimum remaining values, ties
// broken by insertion order. A variable with an empty domain is returned
// immediately as a dead-end signal.
func (r *run) selectUnassigned() *Variable {
	var best *Variable
	bestSize := -1
	for _, variable := range r.variables {
		if variable.Placement != nil {
			continue
		}
		size := len(r.domains[variable.ID].values)
		if size == 0 {
			return variable
		}
		if bestSize == -1 || size < bestSize {
			best = variable
			bestSize = size
		}
	}
	return best
}

// orderValues filters the variable's domain by hard-constraint feasibility and
// sorts survivors by ascending soft score, approximating least-constraining
// value ordering. Equal scores prefer longer slot tuples, so a lab's pair
// fallback never outranks a full triple of the same score; remaining ties
// keep the seeded domain order.
func (r *run) orderValues(v *Variable) []Placement {
	type scored struct {
		value Placement
		score float64
	}
	var candidates []scored
	for _, value := range r.domains[v.ID].values {
		if r.feasible(v, value) {
			candidates = append(candidates, scored{value: value, score: r.softScore(v, value)})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return len(candidates[i].value.Slots) > len(candidates[j].value.Slots)
	})

	ordered := make([]Placement, len(candidates))
	for i, c := range candidates {
		ordered[i] = c.value
	}
	return ordered
}

// forwardCheck prunes from every unassigned variable's domain the values that
// would conflict with the tentative placement. Removals are recorded per
// variable ID for restoration on backtrack.
func (r *run) forwardCheck(v *Variable, placed Placement) map[int][]Placement {
	removed := make(map[int][]Placement)
	for _, other := range r.variables {
		if other.ID == v.ID || other.Placement != nil {
			continue
		}
		d := r.domains[other.ID]
		kept := d.values[:0]
		for _, value := range d.values {
			if r.wouldConflict(v, other, placed, value) {
				removed[other.ID] = append(removed[other.ID], value)
				continue
			}
			kept = append(kept, value)
		}
		d.values = kept
	}
	return removed
}

// wouldConflict mirrors the hard rules for a hypothetical pair of placements.
func (r *run) wouldConflict(v, other *Variable, placed, value Placement) bool {
	if value.Day != placed.Day {
		return false
	}
	if value.Room == placed.Room && slotsOverlap(placed.Slots, value.Slots) {
		return true
	}
	if other.Class == v.Class && slotsOverlap(placed.Slots, value.Slots) {
		return true
	}
	if v.Instructor != "" && other.Instructor == v.Instructor && slotsOverlap(placed.Slots, value.Slots) {
		return true
	}
	return false
}

func (r *run) restore(removed map[int][]Placement) {
	for id, values := range removed {
		d := r.domains[id]
		d.values = append(d.values, values...)
	}
}

// domainsValid reports whether every unassigned variable still has values.
func (r *run) domainsValid() bool {
	for _, variable := range r.variables {
		if variable.Placement == nil && r.domains[variable.ID].isEmpty() {
			return false
		}
	}
	return true
}

// backtrack is the recursive search: MRV selection, LCV-ordered values,
// forward checking with trail restoration, and a wall-clock budget check at
// every entry.
func (r *run) backtrack() bool {
	if time.Now().After(r.deadline) {
		r.timedOut = true
		return false
	}

	variable := r.selectUnassigned()
	if variable == nil {
		return true
	}
	if r.domains[variable.ID].isEmpty() {
		return false
	}

	for _, value := range r.orderValues(variable) {
		value := value
		variable.Placement = &value
		removed := r.forwardCheck(variable, value)

		if r.domainsValid() && r.backtrack() {
			return true
		}

		variable.Placement = nil
		r.restore(removed)
		r.backtracks++
		if r.timedOut {
			return false
		}
	}
	return false
}
