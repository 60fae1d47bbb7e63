package tree

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/scitree/pkg/errors"
	"github.com/YuminosukeSato/scitree/pkg/log"
)

// DecisionTree is a classification tree grown best-first. It is read-only
// once Train returns and is safe for concurrent use.
type DecisionTree struct {
	root       Node
	attributes []Attribute
	order      [][]int
	importance []float64

	splitRule       SplitRule
	mtry            int
	nodeSize        int
	maxNodes        int
	maxDepth        int
	minSamplesSplit int
	numClasses      int
	leaves          int
}

// TrainOption configures Train.
type TrainOption func(*trainConfig)

type trainConfig struct {
	attributes      []Attribute
	splitRule       SplitRule
	nodeSize        int
	mtry            int
	mtrySet         bool
	sampleWeights   []int
	order           [][]int
	sampler         AttributeSampler
	seed            uint64
	maxDepth        int
	minSamplesSplit int
	workers         int
	logger          log.Logger
}

// WithAttributes sets the attribute metadata. Defaults to InferAttributes(p).
func WithAttributes(attributes []Attribute) TrainOption {
	return func(c *trainConfig) { c.attributes = attributes }
}

// WithSplitRule sets the impurity measure. Defaults to Gini.
func WithSplitRule(rule SplitRule) TrainOption {
	return func(c *trainConfig) { c.splitRule = rule }
}

// WithNodeSize sets the minimum weighted size of each side of a split. Defaults to 1.
func WithNodeSize(nodeSize int) TrainOption {
	return func(c *trainConfig) { c.nodeSize = nodeSize }
}

// WithMtry sets the number of attributes sampled at each node. Defaults to p.
func WithMtry(mtry int) TrainOption {
	return func(c *trainConfig) {
		c.mtry = mtry
		c.mtrySet = true
	}
}

// WithSampleWeights sets replicate counts per sample. Samples with weight 0
// are ignored by induction.
func WithSampleWeights(weights []int) TrainOption {
	return func(c *trainConfig) { c.sampleWeights = weights }
}

// WithAttributeOrder supplies a precomputed SortAttributes result so that
// trees trained on the same instances can share it.
func WithAttributeOrder(order [][]int) TrainOption {
	return func(c *trainConfig) { c.order = order }
}

// WithSampler replaces the attribute sampler. WithSeed is ignored when a
// sampler is set.
func WithSampler(sampler AttributeSampler) TrainOption {
	return func(c *trainConfig) { c.sampler = sampler }
}

// WithSeed seeds the default attribute sampler.
func WithSeed(seed uint64) TrainOption {
	return func(c *trainConfig) { c.seed = seed }
}

// WithDepthLimit stops splitting nodes at the given depth. 0 means unlimited.
func WithDepthLimit(depth int) TrainOption {
	return func(c *trainConfig) { c.maxDepth = depth }
}

// WithMinSplitSize sets the minimum weighted size of a node that may be
// split. Defaults to 2.
func WithMinSplitSize(n int) TrainOption {
	return func(c *trainConfig) { c.minSamplesSplit = n }
}

// WithWorkers bounds the number of attributes evaluated concurrently.
// n <= 0 uses one worker per CPU.
func WithWorkers(n int) TrainOption {
	return func(c *trainConfig) { c.workers = n }
}

// WithTrainLogger sets the logger used during induction.
func WithTrainLogger(logger log.Logger) TrainOption {
	return func(c *trainConfig) { c.logger = logger }
}

// Train grows a classification tree with at most maxNodes leaves.
func Train(instances [][]float64, labels []int, maxNodes int, opts ...TrainOption) (*DecisionTree, error) {
	return TrainContext(context.Background(), instances, labels, maxNodes, opts...)
}

// TrainContext is Train with a context that is checked before every
// attribute evaluation. Cancellation aborts induction.
//
// Invalid input fails with an error matching errors.ErrInvalidArgument
// before any node is built. A failure during growth is returned as a
// *errors.ModelError and no tree is returned.
func TrainContext(ctx context.Context, instances [][]float64, labels []int, maxNodes int, opts ...TrainOption) (*DecisionTree, error) {
	cfg := trainConfig{
		splitRule:       Gini,
		nodeSize:        1,
		minSamplesSplit: 2,
		workers:         1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	numClasses, err := validate(instances, labels, maxNodes, &cfg)
	if err != nil {
		return nil, err
	}

	n := len(instances)
	p := len(instances[0])

	if cfg.attributes == nil {
		cfg.attributes = InferAttributes(p)
	}
	if !cfg.mtrySet {
		cfg.mtry = p
	}
	if cfg.order == nil {
		cfg.order = SortAttributes(instances, cfg.attributes)
	}
	if cfg.sampler == nil {
		cfg.sampler = NewRandomSampler(cfg.seed)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("tree")
	}
	weights := cfg.sampleWeights
	if weights == nil {
		weights = make([]int, n)
		for i := range weights {
			weights[i] = 1
		}
	}

	logger := cfg.logger.With(log.ModelNameKey, "DecisionTree", log.OperationKey, log.OperationFit)
	logger.Info("Training started",
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.ClassesKey, numClasses,
		log.MaxNodesKey, maxNodes,
		log.MtryKey, cfg.mtry,
		log.NodeSizeKey, cfg.nodeSize,
		log.SplitRuleKey, cfg.splitRule.String(),
	)
	start := time.Now()

	t := &DecisionTree{
		attributes:      cfg.attributes,
		order:           cfg.order,
		importance:      make([]float64, p),
		splitRule:       cfg.splitRule,
		mtry:            cfg.mtry,
		nodeSize:        cfg.nodeSize,
		maxNodes:        maxNodes,
		maxDepth:        cfg.maxDepth,
		minSamplesSplit: cfg.minSamplesSplit,
		numClasses:      numClasses,
	}

	g := &grower{
		x:               instances,
		y:               labels,
		w:               weights,
		attributes:      cfg.attributes,
		order:           cfg.order,
		numClasses:      numClasses,
		rule:            cfg.splitRule,
		nodeSize:        cfg.nodeSize,
		minSamplesSplit: cfg.minSamplesSplit,
		maxDepth:        cfg.maxDepth,
		mtry:            cfg.mtry,
		workers:         cfg.workers,
		sampler:         cfg.sampler,
		logger:          logger,
		member:          make([]bool, n),
		importance:      t.importance,
	}

	root := &trainNode{slot: &t.root, counts: make([]int, numClasses)}
	for i, w := range weights {
		if w > 0 {
			root.samples = append(root.samples, i)
			root.counts[labels[i]] += w
			root.size += w
		}
	}
	t.root = newLeaf(root.counts, root.size, 0)

	leaves, err := g.grow(ctx, root, maxNodes)
	if err != nil {
		logger.Error("Training aborted",
			log.ErrAttrKey, err,
			log.ErrorCodeKey, log.ErrorInductionAborted,
			log.LeavesKey, leaves,
		)
		return nil, errors.NewModelError("tree.Train", "induction aborted", err)
	}
	t.leaves = leaves

	if leaves == 1 {
		errors.Warn(errors.NewUnsplittableWarning(root.size, numClasses, "no split with positive gain"))
	}

	logger.Info("Training completed",
		log.LeavesKey, t.leaves,
		log.DepthKey, t.Depth(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return t, nil
}

// validate checks the training set and hyperparameters and returns the
// number of classes.
func validate(instances [][]float64, labels []int, maxNodes int, cfg *trainConfig) (int, error) {
	n := len(instances)
	if n == 0 {
		return 0, errors.NewValidationError("instances", "training set is empty", n)
	}
	if len(labels) != n {
		return 0, errors.MarkInvalidArgument(errors.NewDimensionError("tree.Train", n, len(labels), 0))
	}

	p := len(instances[0])
	if p == 0 {
		return 0, errors.NewValidationError("instances", "instances have no attributes", p)
	}
	for i, row := range instances {
		if len(row) != p {
			return 0, errors.MarkInvalidArgument(errors.NewDimensionError("tree.Train", p, len(row), 1))
		}
		if err := errors.CheckNumericalStability("tree.Train", row, i); err != nil {
			return 0, errors.MarkInvalidArgument(err)
		}
	}

	if maxNodes < 2 {
		return 0, errors.NewValidationError("maxNodes", "must be at least 2", maxNodes)
	}
	if cfg.nodeSize < 1 {
		return 0, errors.NewValidationError("nodeSize", "must be at least 1", cfg.nodeSize)
	}
	if cfg.mtrySet && (cfg.mtry < 1 || cfg.mtry > p) {
		return 0, errors.NewValidationError("mtry", "must be in [1, p]", cfg.mtry)
	}
	if cfg.maxDepth < 0 {
		return 0, errors.NewValidationError("maxDepth", "must be non-negative", cfg.maxDepth)
	}
	if cfg.minSamplesSplit < 2 {
		return 0, errors.NewValidationError("minSamplesSplit", "must be at least 2", cfg.minSamplesSplit)
	}

	if cfg.attributes != nil {
		if len(cfg.attributes) != p {
			return 0, errors.NewValidationError("attributes", "length must equal the number of columns", len(cfg.attributes))
		}
		for j, attr := range cfg.attributes {
			if attr.Type != Numeric && attr.Type != Nominal {
				return 0, errors.NewValidationError("attributes", "unknown attribute type", int(attr.Type))
			}
			if attr.Type == Nominal {
				if err := checkCategoryCodes(instances, j); err != nil {
					return 0, err
				}
			}
		}
	}

	if cfg.order != nil {
		if len(cfg.order) != p {
			return 0, errors.NewValidationError("attributeOrder", "length must equal the number of columns", len(cfg.order))
		}
		seen := make([]bool, n)
		for j, idx := range cfg.order {
			numeric := cfg.attributes == nil || cfg.attributes[j].Type == Numeric
			if !numeric {
				continue
			}
			if len(idx) != n {
				return 0, errors.NewValidationError("attributeOrder", "numeric attribute order must cover every sample", j)
			}
			if err := checkOrder(instances, j, idx, seen); err != nil {
				return 0, err
			}
		}
	}

	if cfg.sampleWeights != nil {
		if len(cfg.sampleWeights) != n {
			return 0, errors.MarkInvalidArgument(errors.NewDimensionError("tree.Train", n, len(cfg.sampleWeights), 0))
		}
		total := 0
		for _, w := range cfg.sampleWeights {
			if w < 0 {
				return 0, errors.NewValidationError("sampleWeights", "weights must be non-negative", w)
			}
			if w > math.MaxInt-total {
				return 0, errors.NewValidationError("sampleWeights", "total weight overflows int", w)
			}
			total += w
		}
		if total == 0 {
			return 0, errors.NewValidationError("sampleWeights", "at least one sample must have positive weight", total)
		}
	}

	return countClasses(labels)
}

// countClasses requires labels to be exactly 0..k-1 with k >= 2.
func countClasses(labels []int) (int, error) {
	maxLabel := -1
	for _, y := range labels {
		if y < 0 {
			return 0, errors.NewValidationError("labels", "labels must be non-negative", y)
		}
		if y > maxLabel {
			maxLabel = y
		}
	}

	// k contiguous labels need at least k samples.
	if maxLabel >= len(labels) {
		return 0, errors.NewValidationError("labels", "labels must be contiguous from 0", maxLabel)
	}

	seen := make([]bool, maxLabel+1)
	for _, y := range labels {
		seen[y] = true
	}
	for c, ok := range seen {
		if !ok {
			return 0, errors.NewValidationError("labels", "labels must be contiguous from 0", c)
		}
	}

	k := maxLabel + 1
	if k < 2 {
		return 0, errors.NewValidationError("labels", "at least 2 distinct labels are required", k)
	}
	return k, nil
}

// checkOrder requires idx to be a permutation of 0..n-1 sorted ascending by
// column j. seen is scratch space of length n.
func checkOrder(instances [][]float64, j int, idx []int, seen []bool) error {
	for i := range seen {
		seen[i] = false
	}
	for k, i := range idx {
		if i < 0 || i >= len(instances) {
			return errors.NewValidationError("attributeOrder", "sample index out of range", i)
		}
		if seen[i] {
			return errors.NewValidationError("attributeOrder", "duplicate sample index", i)
		}
		seen[i] = true
		if k > 0 && instances[i][j] < instances[idx[k-1]][j] {
			return errors.NewValidationError("attributeOrder", "order is not sorted by attribute value", j)
		}
	}
	return nil
}

func checkCategoryCodes(instances [][]float64, j int) error {
	for _, row := range instances {
		if v := row[j]; v != math.Trunc(v) {
			return errors.NewValidationError("attributes", "nominal values must be integral category codes", v)
		}
	}
	return nil
}

// Predict returns the class of x. x must have the attribute layout used for
// training.
func (t *DecisionTree) Predict(x []float64) int {
	return t.leaf(x).output
}

// PredictProba returns the class distribution of the leaf reached by x.
func (t *DecisionTree) PredictProba(x []float64) []float64 {
	return t.leaf(x).Posteriori()
}

func (t *DecisionTree) leaf(x []float64) *LeafNode {
	node := t.root
	for {
		switch v := node.(type) {
		case *LeafNode:
			return v
		case *SplitNode:
			if v.Test(x) {
				node = v.trueChild
			} else {
				node = v.falseChild
			}
		}
	}
}

// Importance returns the size-weighted impurity reduction credited to each
// attribute.
func (t *DecisionTree) Importance() []float64 {
	imp := make([]float64, len(t.importance))
	copy(imp, t.importance)
	return imp
}

// Leaves returns the number of leaves.
func (t *DecisionTree) Leaves() int { return t.leaves }

// Root returns the root node.
func (t *DecisionTree) Root() Node { return t.root }

// NumClasses returns the number of classes seen in training.
func (t *DecisionTree) NumClasses() int { return t.numClasses }

// SplitRule returns the impurity measure used for training.
func (t *DecisionTree) SplitRule() SplitRule { return t.splitRule }

// Attributes returns a copy of the attribute metadata.
func (t *DecisionTree) Attributes() []Attribute {
	attrs := make([]Attribute, len(t.attributes))
	copy(attrs, t.attributes)
	return attrs
}

// Depth returns the largest leaf depth. A single-leaf tree has depth 0.
func (t *DecisionTree) Depth() int {
	depth := 0
	t.Walk(func(n Node) bool {
		if _, ok := n.(*LeafNode); ok && n.Depth() > depth {
			depth = n.Depth()
		}
		return true
	})
	return depth
}

// Walk visits the nodes in depth-first pre-order, true branch first.
// Returning false from fn skips the node's subtree.
func (t *DecisionTree) Walk(fn func(Node) bool) {
	stack := []Node{t.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(node) {
			continue
		}
		if s, ok := node.(*SplitNode); ok {
			stack = append(stack, s.falseChild, s.trueChild)
		}
	}
}
