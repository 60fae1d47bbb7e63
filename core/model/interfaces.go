// Package model provides the estimator interfaces shared by scitree models
// and the StateManager that tracks their fitted state.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the mean accuracy of the predictions for classifiers.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Predictor
	Scorer

	// PredictProba returns probability estimates for each class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique classes seen during fitting.
	Classes() []int
}

// TreeModel is implemented by tree-based models.
type TreeModel interface {
	// GetFeatureImportances returns impurity-based importances normalized to sum to 1.
	GetFeatureImportances() []float64

	// GetDepth returns the depth of the fitted tree.
	GetDepth() int

	// GetNLeaves returns the number of leaves of the fitted tree.
	GetNLeaves() int
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}
