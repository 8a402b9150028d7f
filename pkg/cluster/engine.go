package cluster

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const tieEpsilon = 1e-12

// Options holds the clustering thresholds. Similarities are cosine.
type Options struct {
	// MergeThreshold is the minimum centroid similarity for two groups to merge.
	MergeThreshold float64
	// FloorThreshold is the minimum similarity for a leftover singleton to join a cluster.
	FloorThreshold float64
	// AttachThreshold is used in incremental mode and is stricter than MergeThreshold.
	AttachThreshold float64
	MinEligible     int
	MinClusterSize  int
}

func DefaultOptions() Options {
	return Options{
		MergeThreshold:  0.45,
		FloorThreshold:  0.35,
		AttachThreshold: 0.60,
		MinEligible:     3,
		MinClusterSize:  2,
	}
}

type Point struct {
	ID     uuid.UUID
	Vector []float32
}

// Group is one cluster of the resulting partition. Member indexes refer to the
// input slice and are sorted ascending.
type Group struct {
	Members        []int
	MemberIDs      []uuid.UUID
	Centroid       []float32
	Cohesion       float64
	Representative int
}

type Partition struct {
	Groups      []Group
	Unclustered []uuid.UUID
	// NoOp is set when there were too few points to cluster.
	NoOp bool
}

type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

func (e *Engine) Options() Options {
	return e.opts
}

type node struct {
	id      int
	members []int
	sum     []float64
}

// Run partitions points by agglomerative centroid-linkage merging. The result is
// deterministic for a given input order. Cancellation is observed between merges.
func (e *Engine) Run(ctx context.Context, points []Point) (*Partition, error) {
	if len(points) < e.opts.MinEligible {
		return &Partition{NoOp: true}, nil
	}

	nodes := make([]*node, len(points))
	for i, p := range points {
		sum := make([]float64, len(p.Vector))
		for d, v := range p.Vector {
			sum[d] = float64(v)
		}
		nodes[i] = &node{id: i, members: []int{i}, sum: sum}
	}

	sim, err := similarityMatrix(ctx, nodes)
	if err != nil {
		return nil, err
	}

	alive := make([]bool, len(nodes))
	for i := range alive {
		alive[i] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a, b, best := -1, -1, math.Inf(-1)
		for i := range nodes {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < len(nodes); j++ {
				if !alive[j] {
					continue
				}
				s := sim[i][j]
				if s < e.opts.MergeThreshold {
					continue
				}
				if a < 0 || better(s, len(nodes[i].members)+len(nodes[j].members), best, len(nodes[a].members)+len(nodes[b].members)) {
					a, b, best = i, j, s
				}
			}
		}
		if a < 0 {
			break
		}

		// a < b, so the merged group keeps the lower identity.
		merged := nodes[a]
		merged.members = append(merged.members, nodes[b].members...)
		for d := range merged.sum {
			merged.sum[d] += nodes[b].sum[d]
		}
		alive[b] = false
		nodes[b] = nil

		for k := range nodes {
			if !alive[k] || k == a {
				continue
			}
			s := cosine64(merged.sum, nodes[k].sum)
			sim[a][k], sim[k][a] = s, s
		}
	}

	var clusters, leftovers []*node
	for i, n := range nodes {
		if !alive[i] {
			continue
		}
		if len(n.members) >= e.opts.MinClusterSize {
			clusters = append(clusters, n)
		} else {
			leftovers = append(leftovers, n)
		}
	}

	part := &Partition{}

	// Leftovers are scored against the centroids as they stood after merging so
	// that attachment order does not matter.
	attachTo := make([][]int, len(clusters))
	var unclustered []int
	for _, l := range leftovers {
		for _, m := range l.members {
			best, bestSim := -1, math.Inf(-1)
			for ci, c := range clusters {
				s := cosine32x64(points[m].Vector, c.sum)
				if s < e.opts.FloorThreshold {
					continue
				}
				if best < 0 || better(s, len(c.members), bestSim, len(clusters[best].members)) {
					best, bestSim = ci, s
				}
			}
			if best < 0 {
				unclustered = append(unclustered, m)
				continue
			}
			attachTo[best] = append(attachTo[best], m)
		}
	}

	for ci, c := range clusters {
		members := append(append([]int(nil), c.members...), attachTo[ci]...)
		sort.Ints(members)
		part.Groups = append(part.Groups, buildGroup(points, members))
	}

	sort.Ints(unclustered)
	for _, m := range unclustered {
		part.Unclustered = append(part.Unclustered, points[m].ID)
	}

	return part, nil
}

// better reports whether a candidate with similarity s and size n beats the
// current best. Callers iterate in ascending identity order, so an exact tie
// keeps the earlier, lower identity.
func better(s float64, n int, bestS float64, bestN int) bool {
	if s > bestS+tieEpsilon {
		return true
	}
	if s < bestS-tieEpsilon {
		return false
	}
	return n > bestN
}

func buildGroup(points []Point, members []int) Group {
	dims := len(points[members[0]].Vector)
	mean := make([]float64, dims)
	for _, m := range members {
		for d, v := range points[m].Vector {
			mean[d] += float64(v)
		}
	}
	centroid := make([]float32, dims)
	for d := range mean {
		mean[d] /= float64(len(members))
		centroid[d] = float32(mean[d])
	}

	g := Group{
		Members:        members,
		MemberIDs:      make([]uuid.UUID, len(members)),
		Centroid:       centroid,
		Representative: members[0],
	}

	var total float64
	bestSim := math.Inf(-1)
	for i, m := range members {
		g.MemberIDs[i] = points[m].ID
		s := cosine32x64(points[m].Vector, mean)
		total += s
		if s > bestSim+tieEpsilon {
			bestSim = s
			g.Representative = m
		}
	}
	g.Cohesion = total / float64(len(members))
	return g
}

func similarityMatrix(ctx context.Context, nodes []*node) ([][]float64, error) {
	n := len(nodes)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each row writes only its upper triangle.
			for j := i + 1; j < n; j++ {
				sim[i][j] = cosine64(nodes[i].sum, nodes[j].sum)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim[j][i] = sim[i][j]
		}
	}
	return sim, nil
}

func cosine64(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func cosine32x64(a []float32, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x := float64(a[i])
		dot += x * b[i]
		na += x * x
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
