package osi

import "sort"

// Registry maps (position, node) pairs to the indices of the swarms whose
// path visits that node. Swarm i is bound to path i.
type Registry struct {
	slots  [][]int
	groups [][][]int
}

func NewRegistry(paths []Path) *Registry {
	slots := Slots(paths)
	groups := make([][][]int, len(slots))
	for position, nodes := range slots {
		groups[position] = make([][]int, len(nodes))
	}
	for swarm, p := range paths {
		for position := range p {
			if !p.Touches(position) {
				continue
			}
			slot := sort.SearchInts(slots[position], p[position])
			groups[position][slot] = append(groups[position][slot], swarm)
		}
	}
	return &Registry{slots: slots, groups: groups}
}

func (r *Registry) Positions() int {
	return len(r.slots)
}

// Slots returns the sorted node indices present at position.
func (r *Registry) Slots(position int) []int {
	if position < 0 || position >= len(r.slots) {
		return nil
	}
	return append([]int(nil), r.slots[position]...)
}

// NumSlots is the total number of (position, node) pairs.
func (r *Registry) NumSlots() int {
	total := 0
	for _, nodes := range r.slots {
		total += len(nodes)
	}
	return total
}

// Swarms returns the swarm indices whose path uses node at position.
func (r *Registry) Swarms(position, node int) []int {
	if position < 0 || position >= len(r.slots) {
		return nil
	}
	slot := sort.SearchInts(r.slots[position], node)
	if slot == len(r.slots[position]) || r.slots[position][slot] != node {
		return nil
	}
	return append([]int(nil), r.groups[position][slot]...)
}
