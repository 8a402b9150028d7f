package cluster

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// ExistingCluster is a cluster from a previous run as seen by Reconcile.
type ExistingCluster struct {
	ID      uuid.UUID
	Version int
	Members []uuid.UUID
}

// Assignment tells the caller what to do with one group of a new partition.
// ClusterID is uuid.Nil for new clusters.
type Assignment struct {
	Group     int
	ClusterID uuid.UUID
	Version   int
	New       bool
	Changed   bool
}

type Plan struct {
	// Assignments is index-aligned with the groups passed to Reconcile.
	Assignments []Assignment
	Retired     []uuid.UUID
}

func (p Plan) Counts() (created, updated, retired int) {
	for _, a := range p.Assignments {
		switch {
		case a.New:
			created++
		case a.Changed:
			updated++
		}
	}
	return created, updated, len(p.Retired)
}

// Reconcile maps a new partition onto the clusters of the previous run so that
// cluster identities survive re-clustering. Pairs are matched greedily by member
// overlap.
func Reconcile(previous []ExistingCluster, groups []Group) Plan {
	type pair struct {
		prev, group, overlap int
	}

	memberOf := make(map[uuid.UUID]int)
	for pi, c := range previous {
		for _, m := range c.Members {
			memberOf[m] = pi
		}
	}

	var pairs []pair
	for gi, g := range groups {
		overlap := make(map[int]int)
		for _, m := range g.MemberIDs {
			if pi, ok := memberOf[m]; ok {
				overlap[pi]++
			}
		}
		for pi, n := range overlap {
			pairs = append(pairs, pair{prev: pi, group: gi, overlap: n})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		la, lb := len(previous[a.prev].Members), len(previous[b.prev].Members)
		if la != lb {
			return la > lb
		}
		if c := bytes.Compare(previous[a.prev].ID[:], previous[b.prev].ID[:]); c != 0 {
			return c < 0
		}
		return a.group < b.group
	})

	plan := Plan{Assignments: make([]Assignment, len(groups))}
	prevUsed := make([]bool, len(previous))
	groupUsed := make([]bool, len(groups))

	for _, p := range pairs {
		if prevUsed[p.prev] || groupUsed[p.group] {
			continue
		}
		prevUsed[p.prev], groupUsed[p.group] = true, true

		prev := previous[p.prev]
		changed := !sameMembers(prev.Members, groups[p.group].MemberIDs)
		version := prev.Version
		if changed {
			version++
		}
		plan.Assignments[p.group] = Assignment{
			Group:     p.group,
			ClusterID: prev.ID,
			Version:   version,
			Changed:   changed,
		}
	}

	for gi := range groups {
		if !groupUsed[gi] {
			plan.Assignments[gi] = Assignment{Group: gi, Version: 1, New: true, Changed: true}
		}
	}
	for pi, c := range previous {
		if !prevUsed[pi] {
			plan.Retired = append(plan.Retired, c.ID)
		}
	}
	return plan
}

func sameMembers(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, m := range a {
		set[m] = struct{}{}
	}
	for _, m := range b {
		if _, ok := set[m]; !ok {
			return false
		}
	}
	return true
}
