package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/scitree/core/model"
	"github.com/YuminosukeSato/scitree/core/parallel"
	"github.com/YuminosukeSato/scitree/metrics"
	"github.com/YuminosukeSato/scitree/pkg/errors"
	"github.com/YuminosukeSato/scitree/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const classifierName = "DecisionTreeClassifier"

// predictThreshold is the number of rows below which prediction stays on
// the calling goroutine.
const predictThreshold = 1000

var (
	_ model.Classifier = (*DecisionTreeClassifier)(nil)
	_ model.TreeModel  = (*DecisionTreeClassifier)(nil)
)

// DecisionTreeClassifier is a best-first decision tree classifier
// Compatible with scikit-learn's DecisionTreeClassifier
type DecisionTreeClassifier struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	criterion       string // Split rule: "gini", "entropy", "classification_error"
	maxLeafNodes    int    // Leaf budget, 0 for unlimited
	maxDepth        int    // Depth limit, 0 for unlimited
	minSamplesSplit int    // Minimum samples to split a node
	minSamplesLeaf  int    // Minimum samples on each side of a split
	maxFeatures     int    // Features sampled per node, 0 for all
	randomState     int64  // Random seed, negative for unseeded
	nJobs           int    // Concurrent feature evaluations, <= 0 for NumCPU
	logger          log.Logger

	// Model parameters
	tree_      *DecisionTree
	classes_   []int // Unique class labels in ascending order
	nClasses_  int
	nFeatures_ int
}

// DecisionTreeClassifierOption is a functional option for DecisionTreeClassifier
type DecisionTreeClassifierOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a new DecisionTreeClassifier
func NewDecisionTreeClassifier(opts ...DecisionTreeClassifierOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName(classifierName),
	}
	dt.applyParams(DefaultParams())

	// Apply options
	for _, opt := range opts {
		opt(dt)
	}

	return dt
}

// Option functions

// WithCriterion sets the split rule by name
func WithCriterion(criterion string) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxLeafNodes sets the maximum number of leaves
func WithMaxLeafNodes(n int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxLeafNodes = n
	}
}

// WithMaxDepth sets the maximum depth of the tree
func WithMaxDepth(depth int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node
func WithMinSamplesSplit(n int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf
func WithMinSamplesLeaf(n int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets the number of features considered at each split
func WithMaxFeatures(n int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithRandomState sets the random seed
func WithRandomState(seed int64) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

// WithNJobs sets the number of features evaluated concurrently
func WithNJobs(n int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.nJobs = n
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.logger = logger
	}
}

// WithParams applies every field of p
func WithParams(p Params) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.applyParams(p)
	}
}

func (dt *DecisionTreeClassifier) applyParams(p Params) {
	dt.criterion = p.Criterion
	dt.maxLeafNodes = p.MaxLeafNodes
	dt.maxDepth = p.MaxDepth
	dt.minSamplesSplit = p.MinSamplesSplit
	dt.minSamplesLeaf = p.MinSamplesLeaf
	dt.maxFeatures = p.MaxFeatures
	dt.randomState = p.RandomState
	dt.nJobs = p.NJobs
}

// Params returns the hyperparameters as a Params struct
func (dt *DecisionTreeClassifier) Params() Params {
	return Params{
		Criterion:       dt.criterion,
		MaxLeafNodes:    dt.maxLeafNodes,
		MaxDepth:        dt.maxDepth,
		MinSamplesSplit: dt.minSamplesSplit,
		MinSamplesLeaf:  dt.minSamplesLeaf,
		MaxFeatures:     dt.maxFeatures,
		RandomState:     dt.randomState,
		NJobs:           dt.nJobs,
	}
}

// Fit trains the decision tree. y must be a column vector of integral class labels.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	// Validate inputs
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.MarkInvalidArgument(errors.NewDimensionError(classifierName+".Fit", nSamples, yRows, 0))
	}
	if yCols != 1 {
		return errors.MarkInvalidArgument(errors.NewDimensionError(classifierName+".Fit", 1, yCols, 1))
	}
	if err := dt.Params().Validate(); err != nil {
		return err
	}
	rule, err := ParseSplitRule(dt.criterion)
	if err != nil {
		return err
	}

	labels, classes, err := encodeLabels(y)
	if err != nil {
		return err
	}

	instances := make([][]float64, nSamples)
	for i := range instances {
		instances[i] = mat.Row(nil, i, X)
	}

	maxNodes := dt.maxLeafNodes
	if maxNodes == 0 {
		maxNodes = max(2, nSamples)
	}

	seed := rand.Uint64()
	if dt.randomState >= 0 {
		seed = uint64(dt.randomState)
	}

	opts := []TrainOption{
		WithSplitRule(rule),
		WithNodeSize(dt.minSamplesLeaf),
		WithDepthLimit(dt.maxDepth),
		WithMinSplitSize(dt.minSamplesSplit),
		WithSeed(seed),
		WithWorkers(dt.nJobs),
		WithTrainLogger(dt.logger.With(log.ComponentKey, classifierName)),
	}
	if dt.maxFeatures > 0 {
		opts = append(opts, WithMtry(dt.maxFeatures))
	}

	t, err := Train(instances, labels, maxNodes, opts...)
	if err != nil {
		return err
	}

	dt.tree_ = t
	dt.classes_ = classes
	dt.nClasses_ = len(classes)
	dt.nFeatures_ = nFeatures
	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

// encodeLabels maps the distinct values of y to 0..k-1 in ascending order.
func encodeLabels(y mat.Matrix) ([]int, []int, error) {
	rows, _ := y.Dims()
	raw := make([]int, rows)
	seen := make(map[int]struct{})

	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, nil, errors.NewValidationError("y", "class labels must be integers", v)
		}
		raw[i] = int(v)
		seen[raw[i]] = struct{}{}
	}

	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	labels := make([]int, rows)
	for i, c := range raw {
		labels[i] = index[c]
	}

	return labels, classes, nil
}

func (dt *DecisionTreeClassifier) checkPredictInput(X mat.Matrix, method string) error {
	if err := dt.state.RequireFitted(classifierName, method); err != nil {
		return err
	}
	if _, nFeatures := X.Dims(); nFeatures != dt.nFeatures_ {
		return errors.NewDimensionError(classifierName+"."+method, dt.nFeatures_, nFeatures, 1)
	}
	return nil
}

// Predict returns the predicted class label of every row of X as an n×1 matrix
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredictInput(X, "Predict"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)

	parallel.ParallelizeWithThreshold(nSamples, predictThreshold, func(start, end int) {
		row := make([]float64, dt.nFeatures_)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			predictions.Set(i, 0, float64(dt.classes_[dt.tree_.Predict(row)]))
		}
	})

	dt.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, nSamples,
	)
	return predictions, nil
}

// PredictProba returns class probabilities as an n×nClasses matrix whose
// columns follow Classes()
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredictInput(X, "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, dt.nClasses_, nil)

	parallel.ParallelizeWithThreshold(nSamples, predictThreshold, func(start, end int) {
		row := make([]float64, dt.nFeatures_)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			probas.SetRow(i, dt.tree_.leaf(row).posteriori)
		}
	})

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}

	score, err := metrics.AccuracyMatrix(y, predictions)
	if err != nil {
		return 0, err
	}

	dt.logger.Debug("Score computed",
		log.OperationKey, log.OperationScore,
		log.AccuracyKey, score,
	)
	return score, nil
}

// IsFitted reports whether Fit has completed successfully
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// Classes returns the class labels seen during fitting
func (dt *DecisionTreeClassifier) Classes() []int {
	classes := make([]int, len(dt.classes_))
	copy(classes, dt.classes_)
	return classes
}

// Tree returns the fitted tree, nil before Fit
func (dt *DecisionTreeClassifier) Tree() *DecisionTree {
	return dt.tree_
}

// GetFeatureImportances returns the importance of each feature normalized to sum to 1.
// A tree without splits has all-zero importances.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	if dt.tree_ == nil {
		return nil
	}

	importances := dt.tree_.Importance()
	if total := floats.Sum(importances); total > 0 {
		floats.Scale(1/total, importances)
	}
	return importances
}

// GetDepth returns the depth of the fitted tree
func (dt *DecisionTreeClassifier) GetDepth() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.Depth()
}

// GetNLeaves returns the number of leaves of the fitted tree
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.Leaves()
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_leaf_nodes":    dt.maxLeafNodes,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
		"n_jobs":            dt.nJobs,
	}
}

// SetParams sets the model hyperparameters. Integer parameters accept any
// integral numeric value so that maps decoded from JSON or YAML work.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	ints := map[string]*int{
		"max_leaf_nodes":    &dt.maxLeafNodes,
		"max_depth":         &dt.maxDepth,
		"min_samples_split": &dt.minSamplesSplit,
		"min_samples_leaf":  &dt.minSamplesLeaf,
		"max_features":      &dt.maxFeatures,
		"n_jobs":            &dt.nJobs,
	}

	for key, value := range params {
		switch key {
		case "criterion":
			s, ok := value.(string)
			if !ok {
				return errors.NewValidationError(key, "must be a string", value)
			}
			dt.criterion = s
		case "random_state":
			n, err := toInt64(key, value)
			if err != nil {
				return err
			}
			dt.randomState = n
		default:
			field, ok := ints[key]
			if !ok {
				return errors.NewValidationError(key, "unknown parameter", value)
			}
			n, err := toInt64(key, value)
			if err != nil {
				return err
			}
			*field = int(n)
		}
	}
	return nil
}

func toInt64(key string, value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), nil
		}
	}
	return 0, errors.NewValidationError(key, "must be an integer", value)
}
