package tree

import (
	"container/heap"
	"context"

	"github.com/YuminosukeSato/scitree/pkg/log"
)

// grower holds the state of one induction run. Everything except member,
// importance and the queue is read-only while attributes are evaluated.
type grower struct {
	x          [][]float64
	y          []int
	w          []int
	attributes []Attribute
	order      [][]int
	numClasses int

	rule            SplitRule
	nodeSize        int
	minSamplesSplit int
	maxDepth        int
	mtry            int
	workers         int
	sampler         AttributeSampler
	logger          log.Logger

	member     []bool
	importance []float64
}

// splitQueue is a max-heap of splittable nodes keyed by SplitCandidate.Score.
// Equal scores pop in insertion order.
type splitQueue struct {
	items []*trainNode
	next  uint64
}

func (q *splitQueue) Len() int { return len(q.items) }

func (q *splitQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.split.Score != b.split.Score {
		return a.split.Score > b.split.Score
	}
	return a.seq < b.seq
}

func (q *splitQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *splitQueue) Push(x any) { q.items = append(q.items, x.(*trainNode)) }

func (q *splitQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}

func (q *splitQueue) push(tn *trainNode) {
	tn.seq = q.next
	q.next++
	heap.Push(q, tn)
}

func (q *splitQueue) pop() *trainNode {
	return heap.Pop(q).(*trainNode)
}

// grow expands leaves best-first until maxNodes leaves exist or no leaf has a
// profitable split. It returns the number of leaves. Any error aborts the
// run; the partially built tree must then be discarded.
func (g *grower) grow(ctx context.Context, root *trainNode, maxNodes int) (int, error) {
	queue := &splitQueue{}

	c, err := g.findBestSplit(ctx, root)
	if err != nil {
		return 0, err
	}
	if c != nil {
		queue.push(root)
	}

	leaves := 1
	for leaves < maxNodes && queue.Len() > 0 {
		tn := queue.pop()
		trueNode, falseNode := g.split(tn)
		leaves++

		if g.logger.Enabled(ctx, log.LevelDebug) {
			g.logger.Debug("Node split",
				log.AttributeKey, tn.split.Attribute,
				log.ThresholdKey, tn.split.Value,
				log.GainKey, tn.split.Score,
				log.DepthKey, tn.depth,
				log.LeavesKey, leaves,
				log.QueueLenKey, queue.Len(),
			)
		}

		for _, child := range []*trainNode{trueNode, falseNode} {
			c, err := g.findBestSplit(ctx, child)
			if err != nil {
				return leaves, err
			}
			if c != nil {
				queue.push(child)
			}
		}
	}

	return leaves, nil
}
