// Package log defines standard attribute keys for machine learning operations.
//
// Using these keys keeps training and prediction logs consistent across
// packages. They follow a hierarchical naming convention (e.g. "model.name",
// "data.samples", "tree.leaves") to enable structured log analysis.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "DecisionTree", "DecisionTreeClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records model accuracy for evaluation operations.
	AccuracyKey = "metrics.accuracy"

	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Tree Induction
// These attributes describe the state of best-first tree growth.
const (
	// LeavesKey records the number of leaves in the tree.
	LeavesKey = "tree.leaves"

	// DepthKey records the depth of a node or of the whole tree.
	DepthKey = "tree.depth"

	// GainKey records the size-weighted impurity reduction of a split.
	GainKey = "tree.gain"

	// AttributeKey records the attribute index used by a split.
	AttributeKey = "tree.attribute"

	// ThresholdKey records the split value used by a split.
	ThresholdKey = "tree.threshold"

	// QueueLenKey records the number of pending split candidates.
	QueueLenKey = "tree.queue_len"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// MaxNodesKey records the leaf budget of a tree.
	MaxNodesKey = "hyperparams.max_nodes"

	// MtryKey records the number of attributes sampled per node.
	MtryKey = "hyperparams.mtry"

	// NodeSizeKey records the minimum number of samples on each side of a split.
	NodeSizeKey = "hyperparams.node_size"

	// SplitRuleKey records the impurity measure.
	SplitRuleKey = "hyperparams.split_rule"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkersKey records the number of workers evaluating attributes concurrently.
	WorkersKey = "infra.workers"
)

// Standard attribute value constants for common operations.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorInductionAborted  = "INDUCTION_ABORTED"
)
