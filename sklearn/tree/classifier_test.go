package tree

import (
	"math"
	"strings"
	"testing"

	"github.com/YuminosukeSato/scitree/core/model"
	"github.com/YuminosukeSato/scitree/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// TestDecisionTreeClassifier_FitPredict_Binary tests binary classification
func TestDecisionTreeClassifier_FitPredict_Binary(t *testing.T) {
	// Create simple linearly separable data
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		3, 3,
		3, 4,
		4, 3,
		4, 4,
	})

	y := mat.NewDense(8, 1, []float64{
		0, 0, 0, 0, // Class 0 (lower left)
		1, 1, 1, 1, // Class 1 (upper right)
	})

	// Create and train model
	dt := NewDecisionTreeClassifier(
		WithCriterion("gini"),
		WithMaxDepth(5),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	// Test predictions on training data
	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	// Check all predictions are correct
	for i := 0; i < 8; i++ {
		pred := predictions.At(i, 0)
		actual := y.At(i, 0)
		if pred != actual {
			t.Errorf("Sample %d: expected %v, got %v", i, actual, pred)
		}
	}

	// Test on new data
	XTest := mat.NewDense(2, 2, []float64{
		0.5, 0.5, // Should be class 0
		3.5, 3.5, // Should be class 1
	})

	testPreds, err := dt.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict on test data: %v", err)
	}

	if testPreds.At(0, 0) != 0 {
		t.Errorf("Test point (0.5,0.5) should be class 0, got %v", testPreds.At(0, 0))
	}

	if testPreds.At(1, 0) != 1 {
		t.Errorf("Test point (3.5,3.5) should be class 1, got %v", testPreds.At(1, 0))
	}
}

// TestDecisionTreeClassifier_PredictProba tests probability predictions
func TestDecisionTreeClassifier_PredictProba(t *testing.T) {
	// Simple data
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	y := mat.NewDense(6, 1, []float64{
		0, 0, 0, // Class 0
		1, 1, 1, // Class 1
	})

	dt := NewDecisionTreeClassifier(
		WithMaxDepth(3),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	probas, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 6 || cols != 2 {
		t.Errorf("Expected probas shape (6, 2), got (%d, %d)", rows, cols)
	}

	// Check that probabilities sum to 1
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			prob := probas.At(i, j)
			if prob < 0 || prob > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, prob)
			}
			sum += prob
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}
	}
}

// TestDecisionTreeClassifier_Score tests accuracy calculation
func TestDecisionTreeClassifier_Score(t *testing.T) {
	// Create XOR-like data with more samples for better learning
	X := mat.NewDense(8, 2, []float64{
		0.0, 0.0,
		0.0, 0.1,
		0.1, 1.0,
		0.0, 0.9,
		1.0, 0.0,
		0.9, 0.0,
		1.0, 1.0,
		0.9, 0.9,
	})

	// XOR-like pattern: class 0 when both features are similar (both low or both high)
	y := mat.NewDense(8, 1, []float64{
		0, 0, // Both low -> class 0
		1, 1, // One high, one low -> class 1
		1, 1, // One high, one low -> class 1
		0, 0, // Both high -> class 0
	})

	dt := NewDecisionTreeClassifier(
		WithMaxDepth(5), // Allow deeper tree for XOR pattern
		WithMinSamplesLeaf(1),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Failed to score: %v", err)
	}
	if score != 1.0 {
		t.Errorf("Decision tree should perfectly fit XOR-like data with enough samples, got score: %v", score)
	}

	// Also test on simpler linearly separable data
	XSimple := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	ySimple := mat.NewDense(6, 1, []float64{
		0, 0, 0,
		1, 1, 1,
	})

	dtSimple := NewDecisionTreeClassifier(WithMaxDepth(3))
	if err := dtSimple.Fit(XSimple, ySimple); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	scoreSimple, err := dtSimple.Score(XSimple, ySimple)
	if err != nil {
		t.Fatalf("Failed to score: %v", err)
	}
	if scoreSimple != 1.0 {
		t.Errorf("Decision tree should perfectly fit linearly separable data, got score: %v", scoreSimple)
	}
}

// TestDecisionTreeClassifier_Multiclass tests multiclass classification
func TestDecisionTreeClassifier_Multiclass(t *testing.T) {
	// Create 3-class data
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		3, 3,
		3, 4,
		4, 3,
		6, 6,
		6, 7,
		7, 6,
	})

	y := mat.NewDense(9, 1, []float64{
		0, 0, 0, // Class 0
		1, 1, 1, // Class 1
		2, 2, 2, // Class 2
	})

	dt := NewDecisionTreeClassifier(
		WithCriterion("gini"),
		WithMaxDepth(5),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit multiclass model: %v", err)
	}

	// Check that we have 3 classes
	if dt.nClasses_ != 3 {
		t.Errorf("Expected 3 classes, got %d", dt.nClasses_)
	}

	// Check predictions
	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	correct := 0
	for i := 0; i < 9; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}

	accuracy := float64(correct) / 9.0
	if accuracy != 1.0 {
		t.Errorf("Expected perfect accuracy on training data, got: %v", accuracy)
	}

	// Test probability predictions
	probas, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if cols != 3 {
		t.Errorf("Expected 3 probability columns, got %d", cols)
	}

	// Check probability constraints
	for i := 0; i < rows; i++ {
		sum := 0.0
		maxProb := 0.0
		maxClass := -1

		for j := 0; j < cols; j++ {
			prob := probas.At(i, j)
			if prob < 0 || prob > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, prob)
			}
			sum += prob

			if prob > maxProb {
				maxProb = prob
				maxClass = j
			}
		}

		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}

		// Check that max probability corresponds to predicted class
		expectedClass := int(y.At(i, 0))
		if maxClass != expectedClass {
			t.Errorf("Sample %d: max probability class %d doesn't match expected %d",
				i, maxClass, expectedClass)
		}
	}
}

// TestDecisionTreeClassifier_Entropy tests entropy criterion
func TestDecisionTreeClassifier_Entropy(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	y := mat.NewDense(6, 1, []float64{
		0, 0, 0,
		1, 1, 1,
	})

	// Test with entropy criterion
	dt := NewDecisionTreeClassifier(
		WithCriterion("entropy"),
		WithMaxDepth(3),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit with entropy: %v", err)
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Failed to score: %v", err)
	}
	if score != 1.0 {
		t.Errorf("Expected perfect score on simple data, got %v", score)
	}
}

// TestDecisionTreeClassifier_FeatureImportance tests feature importance calculation
func TestDecisionTreeClassifier_FeatureImportance(t *testing.T) {
	// Create data where feature 0 is more important
	X := mat.NewDense(8, 3, []float64{
		0, 0, 0, // Feature 0 determines class
		0, 1, 1,
		0, 0, 1,
		0, 1, 0,
		1, 0, 0, // When feature 0 = 1, always class 1
		1, 1, 1,
		1, 0, 1,
		1, 1, 0,
	})

	y := mat.NewDense(8, 1, []float64{
		0, 0, 0, 0, // Class 0 when feature 0 = 0
		1, 1, 1, 1, // Class 1 when feature 0 = 1
	})

	dt := NewDecisionTreeClassifier()
	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	importances := dt.GetFeatureImportances()
	if len(importances) != 3 {
		t.Fatalf("Expected 3 feature importances, got %d", len(importances))
	}

	// Feature 0 should have highest importance
	if importances[0] <= importances[1] || importances[0] <= importances[2] {
		t.Errorf("Feature 0 should have highest importance: %v", importances)
	}

	// Sum should be 1 (normalized)
	sum := 0.0
	for _, imp := range importances {
		sum += imp
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("Feature importances should sum to 1, got %v", sum)
	}
}

// TestDecisionTreeClassifier_MaxDepth tests max depth constraint
func TestDecisionTreeClassifier_MaxDepth(t *testing.T) {
	// Create data that would normally require deep tree
	X := mat.NewDense(16, 2, nil)
	y := mat.NewDense(16, 1, nil)

	for i := 0; i < 16; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%4))
		y.Set(i, 0, float64(i%2))
	}

	// Test with shallow tree
	dt := NewDecisionTreeClassifier(
		WithMaxDepth(2),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	depth := dt.GetDepth()
	if depth > 2 {
		t.Errorf("Tree depth %d exceeds max_depth=2", depth)
	}
}

// TestDecisionTreeClassifier_MinSamples tests minimum samples constraints
func TestDecisionTreeClassifier_MinSamples(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)

	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
		y.Set(i, 0, float64(i%2))
	}

	// Test with min_samples_split
	dt := NewDecisionTreeClassifier(
		WithMinSamplesSplit(5),
		WithMinSamplesLeaf(2),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	// Tree should be shallow due to constraints
	nLeaves := dt.GetNLeaves()
	if nLeaves > 5 {
		t.Errorf("Too many leaves %d for min_samples constraints", nLeaves)
	}
}

// TestDecisionTreeClassifier_GetSetParams tests parameter management
func TestDecisionTreeClassifier_GetSetParams(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	// Get default params
	params := dt.GetParams()

	// Check some defaults
	if params["criterion"].(string) != "gini" {
		t.Errorf("Default criterion should be 'gini', got %v", params["criterion"])
	}

	if params["min_samples_split"].(int) != 2 {
		t.Errorf("Default min_samples_split should be 2, got %v", params["min_samples_split"])
	}

	// Set new params
	newParams := map[string]interface{}{
		"criterion":         "entropy",
		"max_depth":         5,
		"min_samples_split": 4,
		"min_samples_leaf":  2,
	}

	err := dt.SetParams(newParams)
	if err != nil {
		t.Fatalf("Failed to set params: %v", err)
	}

	// Verify changes
	if dt.criterion != "entropy" {
		t.Errorf("criterion not updated: expected 'entropy', got %v", dt.criterion)
	}

	if dt.maxDepth != 5 {
		t.Errorf("max_depth not updated: expected 5, got %v", dt.maxDepth)
	}

	if dt.minSamplesSplit != 4 {
		t.Errorf("min_samples_split not updated: expected 4, got %v", dt.minSamplesSplit)
	}

	if dt.minSamplesLeaf != 2 {
		t.Errorf("min_samples_leaf not updated: expected 2, got %v", dt.minSamplesLeaf)
	}
}

// TestDecisionTreeClassifier_NotFitted tests error when predicting without fitting
func TestDecisionTreeClassifier_NotFitted(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	X := mat.NewDense(2, 2, []float64{
		1, 2,
		3, 4,
	})

	_, err := dt.Predict(X)
	if err == nil {
		t.Error("Expected error when predicting without fitting")
	}

	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("Expected NotFittedError, got %T", err)
	}

	_, err = dt.PredictProba(X)
	if err == nil {
		t.Error("Expected error when predicting probabilities without fitting")
	}

	if _, err := dt.Score(X, mat.NewDense(2, 1, nil)); err == nil {
		t.Error("Expected error when scoring without fitting")
	}

	if dt.GetFeatureImportances() != nil || dt.GetDepth() != 0 || dt.GetNLeaves() != 0 || dt.Tree() != nil {
		t.Error("Unfitted model must not report tree statistics")
	}
}

// TestDecisionTreeClassifier_ArbitraryLabels tests that labels are mapped back to the originals
func TestDecisionTreeClassifier_ArbitraryLabels(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{7, 7, 7, -3, -3, -3})

	dt := NewDecisionTreeClassifier(WithLogger(quietLogger()))
	require.NoError(t, dt.Fit(X, y))

	assert.Equal(t, []int{-3, 7}, dt.Classes())
	assert.True(t, dt.IsFitted())

	pred, err := dt.Predict(mat.NewDense(2, 1, []float64{2.5, 11}))
	require.NoError(t, err)
	assert.Equal(t, 7.0, pred.At(0, 0))
	assert.Equal(t, -3.0, pred.At(1, 0))

	// Probability columns follow Classes()
	proba, err := dt.PredictProba(mat.NewDense(1, 1, []float64{2.5}))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, mat.Row(nil, 0, proba))
}

// TestDecisionTreeClassifier_InvalidInput tests input validation errors
func TestDecisionTreeClassifier_InvalidInput(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})

	t.Run("row mismatch", func(t *testing.T) {
		err := NewDecisionTreeClassifier().Fit(X, mat.NewDense(3, 1, nil))
		var de *errors.DimensionError
		require.True(t, errors.As(err, &de))
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("y not a column", func(t *testing.T) {
		err := NewDecisionTreeClassifier().Fit(X, mat.NewDense(4, 2, nil))
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("fractional labels", func(t *testing.T) {
		err := NewDecisionTreeClassifier().Fit(X, mat.NewDense(4, 1, []float64{0, 0.5, 1, 1}))
		var ve *errors.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "y", ve.ParamName)
	})

	t.Run("single class", func(t *testing.T) {
		err := NewDecisionTreeClassifier().Fit(X, mat.NewDense(4, 1, []float64{1, 1, 1, 1}))
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("bad criterion", func(t *testing.T) {
		err := NewDecisionTreeClassifier(WithCriterion("mse")).Fit(X, mat.NewDense(4, 1, []float64{0, 0, 1, 1}))
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("too many features requested", func(t *testing.T) {
		err := NewDecisionTreeClassifier(WithMaxFeatures(3)).Fit(X, mat.NewDense(4, 1, []float64{0, 0, 1, 1}))
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("predict with wrong feature count", func(t *testing.T) {
		dt := NewDecisionTreeClassifier(WithLogger(quietLogger()))
		require.NoError(t, dt.Fit(X, mat.NewDense(4, 1, []float64{0, 0, 1, 1})))

		_, err := dt.Predict(mat.NewDense(1, 3, nil))
		var de *errors.DimensionError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, 2, de.Expected)
		assert.Equal(t, 3, de.Got)
	})
}

// TestDecisionTreeClassifier_MaxLeafNodes tests the leaf budget
func TestDecisionTreeClassifier_MaxLeafNodes(t *testing.T) {
	X := mat.NewDense(16, 2, nil)
	y := mat.NewDense(16, 1, nil)
	for i := 0; i < 16; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%4))
		y.Set(i, 0, float64(i%2))
	}

	dt := NewDecisionTreeClassifier(WithMaxLeafNodes(3), WithLogger(quietLogger()))
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 3, dt.GetNLeaves())
	assert.Equal(t, dt.GetNLeaves(), dt.Tree().Leaves())
}

// TestDecisionTreeClassifier_Reproducible tests that a fixed random state gives the same tree
func TestDecisionTreeClassifier_Reproducible(t *testing.T) {
	x, labels := randomDataset(17, 200, 6, 3)
	X := mat.NewDense(len(x), 6, nil)
	y := mat.NewDense(len(x), 1, nil)
	for i := range x {
		X.SetRow(i, x[i])
		y.Set(i, 0, float64(labels[i]))
	}

	fit := func(jobs int) *DecisionTreeClassifier {
		dt := NewDecisionTreeClassifier(
			WithMaxFeatures(2),
			WithRandomState(123),
			WithNJobs(jobs),
			WithLogger(quietLogger()),
		)
		require.NoError(t, dt.Fit(X, y))
		return dt
	}

	a, b := fit(1), fit(3)
	assert.Equal(t, describe(a.Tree()), describe(b.Tree()))
	assert.Equal(t, a.GetFeatureImportances(), b.GetFeatureImportances())
}

// TestDecisionTreeClassifier_LargeBatchPredict exercises the parallel prediction path
func TestDecisionTreeClassifier_LargeBatchPredict(t *testing.T) {
	n := 3000
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i%100))
		X.Set(i, 1, float64(i%7))
		if i%100 >= 50 {
			y.Set(i, 0, 1)
		}
	}

	dt := NewDecisionTreeClassifier(WithMaxLeafNodes(4), WithLogger(quietLogger()))
	require.NoError(t, dt.Fit(X, y))

	score, err := dt.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	proba, err := dt.PredictProba(X)
	require.NoError(t, err)
	rows, cols := proba.Dims()
	assert.Equal(t, n, rows)
	assert.Equal(t, 2, cols)
}

// TestDecisionTreeClassifier_SetParamsValues tests numeric conversions and unknown keys
func TestDecisionTreeClassifier_SetParamsValues(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	require.NoError(t, dt.SetParams(map[string]interface{}{
		"max_leaf_nodes": 8.0,
		"random_state":   int64(42),
		"n_jobs":         2,
		"max_features":   int32(1),
	}))
	assert.Equal(t, 8, dt.maxLeafNodes)
	assert.Equal(t, int64(42), dt.randomState)
	assert.Equal(t, 2, dt.nJobs)
	assert.Equal(t, 1, dt.maxFeatures)

	err := dt.SetParams(map[string]interface{}{"splitter": "best"})
	assert.True(t, errors.IsInvalidArgument(err))

	err = dt.SetParams(map[string]interface{}{"max_depth": 2.5})
	assert.True(t, errors.IsInvalidArgument(err))

	err = dt.SetParams(map[string]interface{}{"criterion": 1})
	assert.True(t, errors.IsInvalidArgument(err))

	assert.Equal(t, dt.Params(), paramsFromMap(t, dt.GetParams()))
}

func paramsFromMap(t *testing.T, m map[string]interface{}) Params {
	t.Helper()
	dt := NewDecisionTreeClassifier()
	require.NoError(t, dt.SetParams(m))
	return dt.Params()
}

// TestDecisionTreeClassifier_WithParams tests configuration loaded from YAML
func TestDecisionTreeClassifier_WithParams(t *testing.T) {
	p, err := LoadParams(strings.NewReader(`
criterion: entropy
max_depth: 3
min_samples_leaf: 2
random_state: 7
`))
	require.NoError(t, err)

	dt := NewDecisionTreeClassifier(WithParams(p))
	got := dt.GetParams()
	assert.Equal(t, "entropy", got["criterion"])
	assert.Equal(t, 3, got["max_depth"])
	assert.Equal(t, 2, got["min_samples_leaf"])
	assert.Equal(t, 2, got["min_samples_split"], "unset keys keep their defaults")
	assert.Equal(t, int64(7), got["random_state"])
}

func TestDecisionTreeClassifier_Interfaces(t *testing.T) {
	var c model.Classifier = NewDecisionTreeClassifier()
	assert.False(t, c.IsFitted())

	var tm model.TreeModel = NewDecisionTreeClassifier()
	assert.Nil(t, tm.GetFeatureImportances())
}
