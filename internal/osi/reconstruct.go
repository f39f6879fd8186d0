package osi

import (
	"sort"

	"osinet/internal/nn"
)

// Reconstruct writes every swarm's best path weights into a copy of network.
// Overlapping links resolve in favour of the most recently evaluated swarm,
// ties by swarm index. network is not modified.
func Reconstruct(network *nn.Network, swarms []*Swarm) *nn.Network {
	ordered := append([]*Swarm(nil), swarms...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].stamp != ordered[j].stamp {
			return ordered[i].stamp < ordered[j].stamp
		}
		return ordered[i].Index < ordered[j].Index
	})
	out := network.Clone()
	for _, s := range ordered {
		s.apply(out, s.Best)
	}
	return out
}
