package osi

import (
	"fmt"
	"sort"
)

// Absent marks a layer a path does not visit.
const Absent = -1

// Path fixes one node per layer of the network. Non-output layers address
// their bias unit with index == layer size.
type Path []int

// Link addresses a single weight: Weights[Layer].At(Row, Col).
type Link struct {
	Layer int
	Row   int
	Col   int
}

func (p Path) Touches(position int) bool {
	return position >= 0 && position < len(p) && p[position] != Absent
}

// Links lists the weights the path runs through, in layer order.
func (p Path) Links() []Link {
	links := make([]Link, 0, len(p)-1)
	for l := 0; l+1 < len(p); l++ {
		if p[l] == Absent || p[l+1] == Absent {
			continue
		}
		links = append(links, Link{Layer: l, Row: p[l], Col: p[l+1]})
	}
	return links
}

func (p Path) String() string {
	return fmt.Sprint([]int(p))
}

// BuildPaths decomposes a layered topology into overlapping input-to-output
// routes. Paths start at every input unit (bias included) or at the bias unit
// of a hidden layer, then visit every combination of regular units in the
// layers that follow. Every weight is covered by at least one path and the
// output order is deterministic.
func BuildPaths(layers []int) ([]Path, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("topology needs at least 2 layers, got %d", len(layers))
	}
	for i, size := range layers {
		if size <= 0 {
			return nil, fmt.Errorf("layer %d size must be > 0, got %d", i, size)
		}
	}

	depth := len(layers)
	var paths []Path
	for start := 0; start < depth-1; start++ {
		var firstNodes []int
		if start == 0 {
			for node := 0; node <= layers[0]; node++ {
				firstNodes = append(firstNodes, node)
			}
		} else {
			firstNodes = []int{layers[start]}
		}

		for _, first := range firstNodes {
			prefix := make(Path, depth)
			for l := range prefix {
				prefix[l] = Absent
			}
			prefix[start] = first
			paths = extendPaths(paths, prefix, start+1, layers)
		}
	}
	return paths, nil
}

func extendPaths(paths []Path, prefix Path, position int, layers []int) []Path {
	if position == len(layers) {
		return append(paths, append(Path(nil), prefix...))
	}
	for node := 0; node < layers[position]; node++ {
		prefix[position] = node
		paths = extendPaths(paths, prefix, position+1, layers)
	}
	prefix[position] = Absent
	return paths
}

// Slots returns, per position, the sorted distinct node indices used by paths.
func Slots(paths []Path) [][]int {
	if len(paths) == 0 {
		return nil
	}
	depth := len(paths[0])
	slots := make([][]int, depth)
	for position := 0; position < depth; position++ {
		seen := make(map[int]struct{})
		for _, p := range paths {
			if !p.Touches(position) {
				continue
			}
			if _, ok := seen[p[position]]; ok {
				continue
			}
			seen[p[position]] = struct{}{}
			slots[position] = append(slots[position], p[position])
		}
		sort.Ints(slots[position])
	}
	return slots
}
