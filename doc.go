// Package scitree provides best-first decision tree induction for Go,
// designed as the base learner of tree ensembles such as random forests.
//
// scitree grows classification trees by always expanding the pending node
// whose best split reduces impurity the most, until a leaf budget is spent.
// A low-level Train function serves ensemble builders, and a
// scikit-learn-like DecisionTreeClassifier wraps it for everyday use.
//
// # Features
//
//   - Best-first growth bounded by a maximum number of leaves
//   - Gini, entropy and classification error split rules
//   - Numeric and nominal attributes
//   - Per-node attribute sampling (mtry) with a pluggable sampler
//   - Replicate-count sample weights and a shared pre-sorted attribute order for bagging
//   - Concurrent attribute evaluation with deterministic results
//
// # Installation
//
//	go get github.com/YuminosukeSato/scitree
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scitree/sklearn/tree"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
//	    y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
//
//	    model := tree.NewDecisionTreeClassifier(tree.WithMaxLeafNodes(4))
//	    if err := model.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := model.Predict(mat.NewDense(2, 1, []float64{2.5, 10.5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(pred))
//	}
//
// # Packages
//
//   - sklearn/tree: Tree induction (Train) and DecisionTreeClassifier
//   - metrics: Classification metrics (accuracy, confusion matrix)
//   - core/model: Core interfaces and fitted-state management
//   - core/parallel: Parallel processing utilities
//   - pkg/errors: Structured errors and warnings
//   - pkg/log: Structured logging on slog and zerolog
//
// # License
//
// scitree is released under the MIT License.
package scitree
