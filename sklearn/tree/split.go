package tree

import (
	"context"
	"sort"

	"github.com/YuminosukeSato/scitree/core/parallel"
	"github.com/YuminosukeSato/scitree/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// gainTolerance is the smallest impurity reduction accepted as a split.
// Smaller values are floating point residue of a split that changes nothing.
const gainTolerance = 1e-12

// SplitCandidate is the best split found for one node.
type SplitCandidate struct {
	Attribute int
	Kind      AttributeType
	Value     float64
	// Gain is baseline impurity minus the weighted impurity of the children.
	Gain float64
	// Score is Gain weighted by the node size. It orders the expansion queue
	// and is credited to the attribute importance.
	Score      float64
	TrueCount  int
	FalseCount int
}

// trainNode is the staging record of a leaf that may still be split.
type trainNode struct {
	slot    *Node // where the leaf lives; split replaces *slot
	samples []int // indices of samples with positive weight in this partition
	counts  []int // weighted class histogram
	size    int
	depth   int

	split *SplitCandidate
	seq   uint64 // queue insertion order
}

// findBestSplit searches the sampled attributes for the split with the
// largest gain. It returns nil without error when the node must stay a leaf.
func (g *grower) findBestSplit(ctx context.Context, tn *trainNode) (*SplitCandidate, error) {
	n := tn.size

	// Check stopping conditions
	if n < 2*g.nodeSize || n < g.minSamplesSplit {
		return nil, nil
	}
	if g.maxDepth > 0 && tn.depth >= g.maxDepth {
		return nil, nil
	}

	baseline := g.rule.Impurity(tn.counts, n)
	if baseline == 0 {
		return nil, nil
	}

	p := len(g.attributes)
	vars := g.sampler.Sample(p, g.mtry)
	if err := checkSample(vars, p, g.mtry); err != nil {
		return nil, err
	}

	// Mark the partition for the numeric scans; cleared before returning so
	// the next node starts from an empty mark.
	for _, i := range tn.samples {
		g.member[i] = true
	}
	defer func() {
		for _, i := range tn.samples {
			g.member[i] = false
		}
	}()

	results := make([]*SplitCandidate, len(vars))
	err := parallel.Map(ctx, len(vars), g.workers, func(_ context.Context, k int) error {
		j := vars[k]
		if g.attributes[j].Type == Nominal {
			results[k] = g.evaluateNominal(tn, j, baseline)
		} else {
			results[k] = g.evaluateNumeric(tn, j, baseline)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reduce in sampling order so that ties go to the earliest sampled attribute
	var best *SplitCandidate
	for _, c := range results {
		if c != nil && (best == nil || c.Gain > best.Gain) {
			best = c
		}
	}
	if best == nil || best.Gain <= gainTolerance {
		return nil, nil
	}

	best.Score = best.Gain * float64(n)
	tn.split = best
	return best, nil
}

func checkSample(vars []int, p, mtry int) error {
	if len(vars) != mtry {
		return errors.NewValueError("AttributeSampler", "sampler returned the wrong number of attributes")
	}
	seen := make(map[int]struct{}, len(vars))
	for _, j := range vars {
		if j < 0 || j >= p {
			return errors.NewValueError("AttributeSampler", "sampler returned an attribute index out of range")
		}
		if _, dup := seen[j]; dup {
			return errors.NewValueError("AttributeSampler", "sampler returned a duplicate attribute")
		}
		seen[j] = struct{}{}
	}
	return nil
}

// evaluateNumeric scans attribute j in ascending order and returns the best
// threshold split, or nil when no boundary satisfies the size constraint.
func (g *grower) evaluateNumeric(tn *trainNode, j int, baseline float64) *SplitCandidate {
	n := tn.size
	k := g.numClasses

	trueCounts := make([]int, k)
	falseCounts := make([]int, k)
	copy(falseCounts, tn.counts)
	nTrue := 0

	var best *SplitCandidate
	prev := 0.0
	started := false

	for _, i := range g.order[j] {
		if !g.member[i] {
			continue
		}
		xi := g.x[i][j]

		// A boundary exists only between two differing values
		if started && xi > prev {
			nFalse := n - nTrue
			if nTrue >= g.nodeSize && nFalse >= g.nodeSize {
				gain := baseline - g.weightedImpurity(trueCounts, nTrue, falseCounts, nFalse, n)
				if best == nil || gain > best.Gain {
					best = &SplitCandidate{
						Attribute:  j,
						Kind:       Numeric,
						Value:      midpoint(prev, xi),
						Gain:       gain,
						TrueCount:  nTrue,
						FalseCount: nFalse,
					}
				}
			}
		}

		w := g.w[i]
		trueCounts[g.y[i]] += w
		falseCounts[g.y[i]] -= w
		nTrue += w
		prev = xi
		started = true
	}

	return best
}

// evaluateNominal tries x == c against x != c for every category c present
// in the partition, in ascending order of c.
func (g *grower) evaluateNominal(tn *trainNode, j int, baseline float64) *SplitCandidate {
	n := tn.size
	k := g.numClasses

	byCategory := make(map[float64][]int)
	for _, i := range tn.samples {
		c := g.x[i][j]
		counts, ok := byCategory[c]
		if !ok {
			counts = make([]int, k)
			byCategory[c] = counts
		}
		counts[g.y[i]] += g.w[i]
	}
	if len(byCategory) < 2 {
		return nil
	}

	categories := make([]float64, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Float64s(categories)

	falseCounts := make([]int, k)
	var best *SplitCandidate
	for _, c := range categories {
		trueCounts := byCategory[c]
		nTrue := 0
		for y, cnt := range trueCounts {
			nTrue += cnt
			falseCounts[y] = tn.counts[y] - cnt
		}
		nFalse := n - nTrue
		if nTrue < g.nodeSize || nFalse < g.nodeSize {
			continue
		}

		gain := baseline - g.weightedImpurity(trueCounts, nTrue, falseCounts, nFalse, n)
		if best == nil || gain > best.Gain {
			best = &SplitCandidate{
				Attribute:  j,
				Kind:       Nominal,
				Value:      c,
				Gain:       gain,
				TrueCount:  nTrue,
				FalseCount: nFalse,
			}
		}
	}

	return best
}

func (g *grower) weightedImpurity(trueCounts []int, nTrue int, falseCounts []int, nFalse, n int) float64 {
	total := float64(n)
	return float64(nTrue)/total*g.rule.Impurity(trueCounts, nTrue) +
		float64(nFalse)/total*g.rule.Impurity(falseCounts, nFalse)
}

// midpoint returns a threshold t with lo <= t < hi.
func midpoint(lo, hi float64) float64 {
	t := lo/2 + hi/2
	if t < lo || t >= hi {
		return lo
	}
	return t
}

// split replaces the node's leaf with a SplitNode holding two fresh leaves,
// credits the attribute importance and returns the children's staging
// records. findBestSplit must have succeeded on tn.
func (g *grower) split(tn *trainNode) (*trainNode, *trainNode) {
	c := tn.split
	k := g.numClasses

	trueNode := &trainNode{counts: make([]int, k), depth: tn.depth + 1}
	falseNode := &trainNode{counts: make([]int, k), depth: tn.depth + 1}

	for _, i := range tn.samples {
		child := falseNode
		xi := g.x[i][c.Attribute]
		if (c.Kind == Nominal && xi == c.Value) || (c.Kind == Numeric && xi <= c.Value) {
			child = trueNode
		}
		child.samples = append(child.samples, i)
		child.counts[g.y[i]] += g.w[i]
		child.size += g.w[i]
	}

	node := &SplitNode{
		attribute:  c.Attribute,
		kind:       c.Kind,
		value:      c.Value,
		gain:       c.Gain,
		output:     majority(tn.counts),
		size:       tn.size,
		depth:      tn.depth,
		trueChild:  newLeaf(trueNode.counts, trueNode.size, trueNode.depth),
		falseChild: newLeaf(falseNode.counts, falseNode.size, falseNode.depth),
	}
	*tn.slot = node
	trueNode.slot = &node.trueChild
	falseNode.slot = &node.falseChild

	g.importance[c.Attribute] += c.Score

	// The parent partition is no longer needed once the children own theirs
	tn.samples = nil
	return trueNode, falseNode
}

// newLeaf builds a leaf from a weighted class histogram of positive total.
func newLeaf(counts []int, size, depth int) *LeafNode {
	posteriori := make([]float64, len(counts))
	for i, c := range counts {
		posteriori[i] = float64(c)
	}
	floats.Scale(1/float64(size), posteriori)

	return &LeafNode{
		output:     floats.MaxIdx(posteriori),
		posteriori: posteriori,
		size:       size,
		depth:      depth,
	}
}

// majority returns the most frequent class, the lowest index on ties.
func majority(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
